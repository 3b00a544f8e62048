// Package room はサーバー常駐のルーム状態とその直列化を担当します
// 1ルームの可変状態（接続・在席者・オブジェクト列）は必ずルームの
// ミューテックス越しに触り、ルーム間は完全に独立です
package room

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"whiteboard-api/internal/models"
	"whiteboard-api/internal/protocol"
	"whiteboard-api/internal/repo"
)

// Conn はルームがファンアウトに使う接続の最小インターフェース
// 本番では *websocket.Conn、テストではフェイクを渡します
type Conn interface {
	WriteJSON(v any) error
}

// Room は1つのルームの常駐状態です
type Room struct {
	id string

	mu      sync.Mutex
	conns   map[Conn]struct{}      // 接続中のソケット
	users   map[string]models.User // 在席者（userIdキー）
	byConn  map[Conn]string        // ソケット → identify済みユーザーID
	objects models.ShapeList       // 確定済みオブジェクト列
	dirty   bool                   // 最終保存以降に変更があるか
	loaded  bool                   // スナップショットを取り込み済みか
}

// ID はルームIDを返します
func (r *Room) ID() string { return r.id }

// Registry はルームIDから常駐状態への対応表です
// ルームは最初の接続で遅延生成され、空になったら破棄されます
type Registry struct {
	mu        sync.Mutex
	rooms     map[string]*Room
	snapshots repo.SnapshotRepo
}

// NewRegistry は新しいRegistryを作成します
func NewRegistry(snapshots repo.SnapshotRepo) *Registry {
	return &Registry{
		rooms:     make(map[string]*Room),
		snapshots: snapshots,
	}
}

// GetOrCreate は既存ルームを返すか、空のルームを割り当てます
func (g *Registry) GetOrCreate(roomId string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.getOrCreateLocked(roomId)
}

func (g *Registry) getOrCreateLocked(roomId string) *Room {
	r, ok := g.rooms[roomId]
	if !ok {
		r = &Room{
			id:      roomId,
			conns:   make(map[Conn]struct{}),
			users:   make(map[string]models.User),
			byConn:  make(map[Conn]string),
			objects: models.ShapeList{},
		}
		g.rooms[roomId] = r
	}
	return r
}

// Admit はソケットをルームの接続集合に加えます
// レジストリのロックを跨いで行い、破棄直前のルームに入り込まないようにします
func (g *Registry) Admit(roomId string, c Conn) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.getOrCreateLocked(roomId)
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
	return r
}

// Release はソケットをルームから外します
// identify済みなら在席者からも外してuser:leftを配信します
// 最後の接続だった場合は、（必要なら）同期で保存してからルームを破棄します
// 保存が終わるまでエントリは対応表に残り、保存中の再接続は保存後の
// スナップショットを取り込みます
func (g *Registry) Release(ctx context.Context, roomId string, c Conn) {
	g.mu.Lock()
	r, ok := g.rooms[roomId]
	if !ok {
		g.mu.Unlock()
		return
	}

	r.mu.Lock()
	delete(r.conns, c)
	userId, identified := r.byConn[c]
	if identified {
		delete(r.byConn, c)
		delete(r.users, userId)
	}

	if len(r.conns) > 0 {
		g.mu.Unlock()
		if identified {
			r.broadcastLocked(protocol.Presence{
				Type:  protocol.TypeUserLeft,
				Users: r.usersCopyLocked(),
			}, nil)
		}
		r.mu.Unlock()
		return
	}

	// 最後の退室: 保存を終えてから破棄する
	// レジストリのロックを持ったまま保存するので、破棄中のルームへ
	// 入り込むことも、保存前のスナップショットで再水和することもない
	if r.dirty {
		if err := g.snapshots.Save(ctx, roomId, r.objects); err != nil {
			log.Printf("final flush failed: roomId=%s error=%v", roomId, err)
		}
	}
	delete(g.rooms, roomId)
	r.mu.Unlock()
	g.mu.Unlock()
}

// Rooms は常駐中のルームのスナップショットを返します（スイープ用）
func (g *Registry) Rooms() []*Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, r)
	}
	return out
}

// FlushAll は常駐中の全ルームを保存します（シャットダウン用）
func (g *Registry) FlushAll(ctx context.Context) {
	for _, r := range g.Rooms() {
		if err := r.Flush(ctx, g.snapshots); err != nil {
			log.Printf("flush failed: roomId=%s error=%v", r.ID(), err)
		}
	}
}

// Identify は在席者を登録し、initを送信者に返してuser:joinedを全員に配信します
// ルームの最初のidentifyでのみスナップショットを取り込みます
// （常駐ルームの再水和は行わない: ライブ状態が正です）
func (r *Room) Identify(ctx context.Context, snapshots repo.SnapshotRepo, c Conn, userId, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		objects, ok, err := snapshots.Load(ctx, r.id)
		if err != nil {
			return fmt.Errorf("hydrate room %s: %w", r.id, err)
		}
		if ok {
			r.objects = objects
		}
		r.loaded = true
	}

	// 同じソケットのidentifyし直しは前の在席エントリを置き換える
	if prev, ok := r.byConn[c]; ok && prev != userId {
		delete(r.users, prev)
	}

	user := models.User{
		UserId: userId,
		Name:   name,
		Avatar: avatarURL(userId),
		Color:  randomColor(),
	}
	r.users[userId] = user
	r.byConn[c] = userId

	if err := c.WriteJSON(protocol.Init{
		Type:    protocol.TypeInit,
		Objects: r.objects,
		Users:   r.usersCopyLocked(),
	}); err != nil {
		log.Printf("failed to send init: roomId=%s userId=%s error=%v", r.id, userId, err)
	}

	r.broadcastLocked(protocol.Presence{
		Type:  protocol.TypeUserJoined,
		Users: r.usersCopyLocked(),
	}, nil)
	return nil
}

// UserFor はソケットに対応するidentify済みユーザーを返します
func (r *Room) UserFor(c Conn) (models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userId, ok := r.byConn[c]
	if !ok {
		return models.User{}, false
	}
	u, ok := r.users[userId]
	return u, ok
}

// AddObject はオブジェクトを追記してdirtyを立て、送信者以外に配信します
// 送信者はローカルに楽観適用済みなのでエコーしません
func (r *Room) AddObject(sender Conn, s models.Shape) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects = append(r.objects, s)
	r.dirty = true
	r.broadcastLocked(protocol.ObjectAdd{
		Type:   protocol.TypeObjectAdd,
		Object: s,
	}, sender)
}

// DeleteObject は該当IDのオブジェクトを取り除いて送信者以外に配信します
// IDが存在しない場合もエラーにはしません（削除同士は競合しうる）
func (r *Room) DeleteObject(sender Conn, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.objects[:0]
	for _, o := range r.objects {
		if o.ShapeID() != id {
			kept = append(kept, o)
		}
	}
	r.objects = kept
	r.dirty = true
	r.broadcastLocked(protocol.ObjectDelete{
		Type: protocol.TypeObjectDelete,
		Id:   id,
	}, sender)
}

// Chat は送信者のプレゼンス情報を添えて送信者以外に配信します
// 送信者は自分のメッセージをローカルで即時表示します
func (r *Room) Chat(sender Conn, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userId, ok := r.byConn[sender]
	if !ok {
		return
	}
	user := r.users[userId]
	r.broadcastLocked(protocol.Chat{
		Type:      protocol.TypeChat,
		Text:      text,
		Name:      user.Name,
		Avatar:    user.Avatar,
		Color:     user.Color,
		Timestamp: time.Now().UnixMilli(),
	}, sender)
}

// Flush はdirtyならオブジェクト列を保存してフラグを下ろします
// 保存に失敗した場合はフラグを立て直し、次のスイープで再試行されます
func (r *Room) Flush(ctx context.Context, snapshots repo.SnapshotRepo) error {
	r.mu.Lock()
	if !r.dirty {
		r.mu.Unlock()
		return nil
	}
	r.dirty = false
	objects := make(models.ShapeList, len(r.objects))
	copy(objects, r.objects)
	r.mu.Unlock()

	if err := snapshots.Save(ctx, r.id, objects); err != nil {
		r.mu.Lock()
		r.dirty = true
		r.mu.Unlock()
		return err
	}
	return nil
}

// Dirty は未保存の変更があるかを返します
func (r *Room) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// Objects は現在のオブジェクト列のコピーを返します
func (r *Room) Objects() models.ShapeList {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(models.ShapeList, len(r.objects))
	copy(out, r.objects)
	return out
}

// Users は現在の在席者のコピーを返します
func (r *Room) Users() map[string]models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usersCopyLocked()
}

// broadcastLocked はルーム内の全接続にメッセージを送信します（exceptを除く）
// 呼び出し側がr.muを保持していることが前提です
func (r *Room) broadcastLocked(msg any, except Conn) {
	for c := range r.conns {
		if c == except {
			continue
		}
		if err := c.WriteJSON(msg); err != nil {
			log.Printf("failed to send to client: roomId=%s error=%v", r.id, err)
		}
	}
}

func (r *Room) usersCopyLocked() map[string]models.User {
	out := make(map[string]models.User, len(r.users))
	for id, u := range r.users {
		out[id] = u
	}
	return out
}

// avatarURL はユーザーIDをシードにしたアイコンURLを返します
func avatarURL(userId string) string {
	return fmt.Sprintf("https://api.dicebear.com/8.x/thumbs/svg?seed=%s", userId)
}

// randomColor は表示用のランダムカラーを返します
func randomColor() string {
	return fmt.Sprintf("#%06x", rand.Intn(0xFFFFFF+1))
}
