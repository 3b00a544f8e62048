package board

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"whiteboard-api/internal/models"
	"whiteboard-api/internal/protocol"
)

// Events はストア以外に向かうサーバーイベントの通知先です
// 不要なものはnilのままで構いません
type Events struct {
	OnUsers func(users map[string]models.User) // init / user:joined / user:left の全量スナップショット
	OnChat  func(msg protocol.Chat)
}

// Session はサーバーとの同期接続を保持します
// 受信イベントをStoreへ適用し、確定操作を送信します
// 自分が確定したIDのエコーは無視します（重複排除規則）
type Session struct {
	conn  *websocket.Conn
	store *Store
	ev    Events

	writeMu sync.Mutex // 書き込みは1本に直列化

	ownMu sync.Mutex
	own   map[string]struct{} // 自分がコミットしたオブジェクトID
}

// Dial はセッショントークンを添えてルームへ接続します
// baseURL は ws://host:port 形式です
func Dial(ctx context.Context, baseURL, roomId, token string, store *Store, ev Events) (*Session, error) {
	u := baseURL + "/ws?roomId=" + url.QueryEscape(roomId)
	header := http.Header{}
	header.Set("Cookie", "token="+token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, header)
	if err != nil {
		return nil, err
	}
	return &Session{
		conn:  conn,
		store: store,
		ev:    ev,
		own:   make(map[string]struct{}),
	}, nil
}

// Identify は入室を申告します
// 応答のinitは受信ループ（Run）側でStoreに適用されます
func (s *Session) Identify(uniqueId, name string) error {
	return s.writeJSON(protocol.Identify{
		Type:     protocol.TypeIdentify,
		UniqueId: uniqueId,
		Name:     name,
	})
}

// Run は受信ループを回します（接続が閉じるまでブロック）
func (s *Session) Run() error {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}
		s.dispatch(raw)
	}
}

// dispatch は受信メッセージを種類ごとに適用します
// 不正なペイロードは捨てて接続を維持します
func (s *Session) dispatch(raw []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}

	switch env.Type {
	case protocol.TypeInit:
		var msg struct {
			Objects models.ShapeList       `json:"objects"`
			Users   map[string]models.User `json:"users"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		s.store.SetAll(msg.Objects)
		if s.ev.OnUsers != nil {
			s.ev.OnUsers(msg.Users)
		}

	case protocol.TypeObjectAdd:
		var msg protocol.ObjectAddRaw
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		shape, err := models.UnmarshalShape(msg.Object)
		if err != nil {
			return
		}
		// 自分の追加のエコーは適用済みなので無視します
		if s.isOwn(shape.ShapeID()) {
			return
		}
		s.store.Add(shape)

	case protocol.TypeObjectDelete:
		var msg protocol.ObjectDelete
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		// 既に消えていてもno-op（削除は競合しうる）
		s.store.DeleteByID(msg.Id)

	case protocol.TypeUserJoined, protocol.TypeUserLeft:
		var msg protocol.Presence
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		if s.ev.OnUsers != nil {
			s.ev.OnUsers(msg.Users)
		}

	case protocol.TypeChat:
		var msg protocol.Chat
		if err := json.Unmarshal(raw, &msg); err != nil {
			return
		}
		if s.ev.OnChat != nil {
			s.ev.OnChat(msg)
		}

	default:
		log.Printf("unknown message type: %s", env.Type)
	}
}

// SendObjectAdd は確定図形を送信します（Sender実装）
func (s *Session) SendObjectAdd(shape models.Shape) error {
	s.ownMu.Lock()
	s.own[shape.ShapeID()] = struct{}{}
	s.ownMu.Unlock()
	return s.writeJSON(protocol.ObjectAdd{Type: protocol.TypeObjectAdd, Object: shape})
}

// SendObjectDelete は削除を送信します（Sender実装）
func (s *Session) SendObjectDelete(id string) error {
	return s.writeJSON(protocol.ObjectDelete{Type: protocol.TypeObjectDelete, Id: id})
}

// SendChat はチャットを送信します
// 自分のメッセージはエコーされないため、ローカル表示は呼び出し側で行います
func (s *Session) SendChat(text string) error {
	return s.writeJSON(protocol.Chat{Type: protocol.TypeChat, Text: text})
}

// Close は接続を閉じます
func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) isOwn(id string) bool {
	s.ownMu.Lock()
	defer s.ownMu.Unlock()
	_, ok := s.own[id]
	return ok
}

func (s *Session) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

var _ Sender = (*Session)(nil)
