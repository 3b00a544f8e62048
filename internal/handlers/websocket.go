package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"whiteboard-api/internal/auth"
	"whiteboard-api/internal/models"
	"whiteboard-api/internal/protocol"
	"whiteboard-api/internal/repo"
	"whiteboard-api/internal/room"
)

// WebSocketHandler はホワイトボードの同期接続を処理するハンドラー
// 接続ごとの状態遷移は 未認証 → 認証済み・未identify → identify済み です
type WebSocketHandler struct {
	authn     *auth.Authenticator
	reg       *room.Registry
	snapshots repo.SnapshotRepo
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler は新しいWebSocketHandlerを作成します
func NewWebSocketHandler(authn *auth.Authenticator, reg *room.Registry, snapshots repo.SnapshotRepo) *WebSocketHandler {
	return &WebSocketHandler{
		authn:     authn,
		reg:       reg,
		snapshots: snapshots,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// OriginはCORSミドルウェア側で制御するためここでは通します
				return true
			},
		},
	}
}

// HandleWebSocket はWebSocket接続を処理します
// 1. セッショントークンとroomIdの検証（失敗時はペイロードなしで拒否）
// 2. WebSocketへのアップグレードとルームへの入室
// 3. メッセージ受信ループ
// 4. 切断時の退室処理（空になったルームは保存して破棄）
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := h.authn.Authenticate(r)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	roomId := normalizeID(r.URL.Query().Get("roomId"))
	if err := validateRoomId(roomId); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	rm := h.reg.Admit(roomId, conn)
	defer func() {
		h.reg.Release(context.Background(), roomId, conn)
		conn.Close()
		log.Printf("WebSocket disconnected: roomId=%s userId=%s", roomId, claims.UserID())
	}()

	log.Printf("WebSocket connected: roomId=%s userId=%s", roomId, claims.UserID())

	// 受信ループ
	// 不正なペイロードは黙って捨て、接続自体は維持します
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: roomId=%s error=%v", roomId, err)
			}
			break
		}

		var env protocol.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}

		switch env.Type {
		case protocol.TypeIdentify:
			h.handleIdentify(r.Context(), rm, conn, raw)
		case protocol.TypeObjectAdd:
			h.handleObjectAdd(rm, conn, raw)
		case protocol.TypeObjectDelete:
			h.handleObjectDelete(rm, conn, raw)
		case protocol.TypeChat:
			h.handleChat(rm, conn, raw)
		default:
			// 未知のタイプは無視
		}
	}
}

// handleIdentify は在席者登録・スナップショット取り込み・init応答を行います
func (h *WebSocketHandler) handleIdentify(ctx context.Context, rm *room.Room, conn room.Conn, raw []byte) {
	var msg protocol.Identify
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if normalizeID(msg.UniqueId) == "" {
		return
	}
	if err := rm.Identify(ctx, h.snapshots, conn, normalizeID(msg.UniqueId), msg.Name); err != nil {
		log.Printf("identify failed: roomId=%s userId=%s error=%v", rm.ID(), msg.UniqueId, err)
		return
	}
	log.Printf("user identified: roomId=%s userId=%s", rm.ID(), msg.UniqueId)
}

// handleObjectAdd はオブジェクトを追記して他の接続に配信します
// 未identifyのソケットからの追加は黙って捨てます
func (h *WebSocketHandler) handleObjectAdd(rm *room.Room, conn room.Conn, raw []byte) {
	if _, ok := rm.UserFor(conn); !ok {
		return
	}
	var msg protocol.ObjectAddRaw
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	shape, err := models.UnmarshalShape(msg.Object)
	if err != nil {
		// 必須フィールド欠落や未知のtypeは不正ペイロード扱い
		return
	}
	rm.AddObject(conn, shape)
}

// handleObjectDelete はID指定の削除を処理します
// 該当IDがなくてもエラーにしません（削除は競合しうる）
func (h *WebSocketHandler) handleObjectDelete(rm *room.Room, conn room.Conn, raw []byte) {
	if _, ok := rm.UserFor(conn); !ok {
		return
	}
	var msg protocol.ObjectDelete
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.Id == "" {
		return
	}
	rm.DeleteObject(conn, msg.Id)
}

// handleChat は送信者以外にチャットを配信します
// 送信者情報はルームのプレゼンスから付与されます
func (h *WebSocketHandler) handleChat(rm *room.Room, conn room.Conn, raw []byte) {
	var msg protocol.Chat
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.Text == "" {
		return
	}
	rm.Chat(conn, msg.Text)
}
