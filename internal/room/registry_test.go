package room

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-api/internal/models"
	"whiteboard-api/internal/protocol"
	"whiteboard-api/internal/repo"
)

// fakeConn はファンアウト先を記録するテスト用の接続
type fakeConn struct {
	mu   sync.Mutex
	msgs []any
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, v)
	return nil
}

func (c *fakeConn) messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *fakeConn) initMsgs() []protocol.Init {
	var out []protocol.Init
	for _, m := range c.messages() {
		if v, ok := m.(protocol.Init); ok {
			out = append(out, v)
		}
	}
	return out
}

func (c *fakeConn) presenceMsgs(typ string) []protocol.Presence {
	var out []protocol.Presence
	for _, m := range c.messages() {
		if v, ok := m.(protocol.Presence); ok && v.Type == typ {
			out = append(out, v)
		}
	}
	return out
}

func (c *fakeConn) addMsgs() []protocol.ObjectAdd {
	var out []protocol.ObjectAdd
	for _, m := range c.messages() {
		if v, ok := m.(protocol.ObjectAdd); ok {
			out = append(out, v)
		}
	}
	return out
}

// gatedSnapshotRepo は最初のSaveを合図があるまでブロックするラッパー
type gatedSnapshotRepo struct {
	repo.SnapshotRepo
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedSnapshotRepo) Save(ctx context.Context, roomId string, objects models.ShapeList) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.SnapshotRepo.Save(ctx, roomId, objects)
}

func rectShape(id string) models.Rect {
	return models.Rect{ShapeBase: models.ShapeBase{ID: id, Stroke: "#000", StrokeWidth: 2}, W: 10, H: 10}
}

func TestRegistryLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("get or create allocates an empty room once", func(t *testing.T) {
		g := NewRegistry(repo.NewMemorySnapshotRepo())
		r1 := g.GetOrCreate("R")
		r2 := g.GetOrCreate("R")
		assert.Same(t, r1, r2)
		assert.Empty(t, r1.Objects())
		assert.Empty(t, r1.Users())
		assert.False(t, r1.Dirty())
	})

	t.Run("release of last socket flushes and discards the room", func(t *testing.T) {
		snaps := repo.NewMemorySnapshotRepo()
		g := NewRegistry(snaps)
		c := &fakeConn{}

		r := g.Admit("R", c)
		require.NoError(t, r.Identify(ctx, snaps, c, "u1", "Alice"))
		r.AddObject(c, rectShape("s1"))
		require.True(t, r.Dirty())

		g.Release(ctx, "R", c)

		objects, ok, err := snaps.Load(ctx, "R")
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, objects, 1)
		assert.Equal(t, "s1", objects[0].ShapeID())

		// 破棄済みなので次のGetOrCreateは新しい空のルームになる
		fresh := g.GetOrCreate("R")
		assert.NotSame(t, r, fresh)
	})

	t.Run("reconnect during teardown flush sees the flushed objects", func(t *testing.T) {
		mem := repo.NewMemorySnapshotRepo()
		snaps := &gatedSnapshotRepo{
			SnapshotRepo: mem,
			entered:      make(chan struct{}),
			release:      make(chan struct{}),
		}
		g := NewRegistry(snaps)
		a := &fakeConn{}

		r := g.Admit("R", a)
		require.NoError(t, r.Identify(ctx, snaps, a, "u1", "Alice"))
		r.AddObject(a, rectShape("s1"))

		released := make(chan struct{})
		go func() {
			g.Release(ctx, "R", a)
			close(released)
		}()
		<-snaps.entered // 最終フラッシュが進行中

		// フラッシュ中の再接続は、保存が終わってから入室して
		// 保存済みのスナップショットを取り込まなければならない
		type joinResult struct {
			objects models.ShapeList
			err     error
		}
		joined := make(chan joinResult, 1)
		b := &fakeConn{}
		go func() {
			fresh := g.Admit("R", b)
			err := fresh.Identify(ctx, snaps, b, "u2", "Bob")
			joined <- joinResult{objects: fresh.Objects(), err: err}
		}()

		close(snaps.release)
		<-released

		res := <-joined
		require.NoError(t, res.err)
		require.Len(t, res.objects, 1)
		assert.Equal(t, "s1", res.objects[0].ShapeID())

		objects, ok, err := mem.Load(ctx, "R")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Len(t, objects, 1)
	})

	t.Run("release of a non-last socket broadcasts user:left", func(t *testing.T) {
		snaps := repo.NewMemorySnapshotRepo()
		g := NewRegistry(snaps)
		a, b := &fakeConn{}, &fakeConn{}

		r := g.Admit("R", a)
		g.Admit("R", b)
		require.NoError(t, r.Identify(ctx, snaps, a, "u1", "Alice"))
		require.NoError(t, r.Identify(ctx, snaps, b, "u2", "Bob"))

		g.Release(ctx, "R", b)

		lefts := a.presenceMsgs(protocol.TypeUserLeft)
		require.Len(t, lefts, 1)
		assert.Contains(t, lefts[0].Users, "u1")
		assert.NotContains(t, lefts[0].Users, "u2")
	})
}

func TestIdentify(t *testing.T) {
	ctx := context.Background()

	t.Run("first user gets empty init and presence snapshot", func(t *testing.T) {
		snaps := repo.NewMemorySnapshotRepo()
		g := NewRegistry(snaps)
		a := &fakeConn{}

		r := g.Admit("R", a)
		require.NoError(t, r.Identify(ctx, snaps, a, "u1", "Alice"))

		inits := a.initMsgs()
		require.Len(t, inits, 1)
		assert.Empty(t, inits[0].Objects)
		require.Contains(t, inits[0].Users, "u1")
		assert.Equal(t, "Alice", inits[0].Users["u1"].Name)
		assert.NotEmpty(t, inits[0].Users["u1"].Avatar)
		assert.NotEmpty(t, inits[0].Users["u1"].Color)
	})

	t.Run("second user sees both users, first user gets user:joined", func(t *testing.T) {
		snaps := repo.NewMemorySnapshotRepo()
		g := NewRegistry(snaps)
		a, b := &fakeConn{}, &fakeConn{}

		r := g.Admit("R", a)
		g.Admit("R", b)
		require.NoError(t, r.Identify(ctx, snaps, a, "u1", "Alice"))
		require.NoError(t, r.Identify(ctx, snaps, b, "u2", "Bob"))

		inits := b.initMsgs()
		require.Len(t, inits, 1)
		assert.Contains(t, inits[0].Users, "u1")
		assert.Contains(t, inits[0].Users, "u2")

		joins := a.presenceMsgs(protocol.TypeUserJoined)
		require.NotEmpty(t, joins)
		last := joins[len(joins)-1]
		assert.Contains(t, last.Users, "u1")
		assert.Contains(t, last.Users, "u2")
	})

	t.Run("re-identify replaces the previous presence entry", func(t *testing.T) {
		snaps := repo.NewMemorySnapshotRepo()
		g := NewRegistry(snaps)
		a := &fakeConn{}

		r := g.Admit("R", a)
		require.NoError(t, r.Identify(ctx, snaps, a, "u1", "Alice"))
		require.NoError(t, r.Identify(ctx, snaps, a, "u2", "Alice"))

		users := r.Users()
		assert.NotContains(t, users, "u1")
		assert.Contains(t, users, "u2")

		// 退室で在席者は空になる
		g.Release(ctx, "R", a)
		fresh := g.GetOrCreate("R")
		assert.Empty(t, fresh.Users())
	})

	t.Run("hydrates from snapshot only once", func(t *testing.T) {
		snaps := repo.NewMemorySnapshotRepo()
		require.NoError(t, snaps.Save(ctx, "R", models.ShapeList{rectShape("s1")}))

		g := NewRegistry(snaps)
		a, b := &fakeConn{}, &fakeConn{}

		r := g.Admit("R", a)
		require.NoError(t, r.Identify(ctx, snaps, a, "u1", "Alice"))
		require.Len(t, a.initMsgs()[0].Objects, 1)

		// ライブ状態を進めてから、ストア側を古い内容に差し替える
		r.AddObject(a, rectShape("s2"))
		require.NoError(t, snaps.Save(ctx, "R", models.ShapeList{}))

		g.Admit("R", b)
		require.NoError(t, r.Identify(ctx, snaps, b, "u2", "Bob"))

		// 再水和されていなければ、initはライブの2オブジェクトを映す
		inits := b.initMsgs()
		require.Len(t, inits, 1)
		assert.Len(t, inits[0].Objects, 2)
	})

	t.Run("hydration failure is returned and not marked loaded", func(t *testing.T) {
		snaps := repo.NewMemorySnapshotRepo()
		snaps.FailWith = errors.New("store down")

		g := NewRegistry(snaps)
		a := &fakeConn{}
		r := g.Admit("R", a)
		require.Error(t, r.Identify(context.Background(), snaps, a, "u1", "Alice"))

		// 復旧後の再試行で取り込める
		snaps.FailWith = nil
		require.NoError(t, snaps.Save(ctx, "R", models.ShapeList{rectShape("s1")}))
		require.NoError(t, r.Identify(ctx, snaps, a, "u1", "Alice"))
		assert.Len(t, a.initMsgs()[0].Objects, 1)
	})
}

func TestObjectMutations(t *testing.T) {
	ctx := context.Background()

	newRoom := func(t *testing.T) (*Registry, *Room, *fakeConn, *fakeConn) {
		t.Helper()
		snaps := repo.NewMemorySnapshotRepo()
		g := NewRegistry(snaps)
		a, b := &fakeConn{}, &fakeConn{}
		r := g.Admit("R", a)
		g.Admit("R", b)
		require.NoError(t, r.Identify(ctx, snaps, a, "u1", "Alice"))
		require.NoError(t, r.Identify(ctx, snaps, b, "u2", "Bob"))
		return g, r, a, b
	}

	t.Run("add appends, marks dirty, and skips the sender", func(t *testing.T) {
		_, r, a, b := newRoom(t)

		r.AddObject(a, rectShape("s1"))

		require.Len(t, r.Objects(), 1)
		assert.True(t, r.Dirty())

		require.Len(t, b.addMsgs(), 1)
		assert.Equal(t, "s1", b.addMsgs()[0].Object.ShapeID())
		assert.Empty(t, a.addMsgs(), "sender must not receive an echo")
	})

	t.Run("delete removes by id and is idempotent", func(t *testing.T) {
		_, r, a, _ := newRoom(t)

		r.AddObject(a, rectShape("s1"))
		r.AddObject(a, rectShape("s2"))

		r.DeleteObject(a, "s1")
		require.Len(t, r.Objects(), 1)

		// 二重削除はエラーにならず、結果も変わらない
		r.DeleteObject(a, "s1")
		require.Len(t, r.Objects(), 1)
		assert.Equal(t, "s2", r.Objects()[0].ShapeID())

		// 存在しないIDの削除もno-op
		r.DeleteObject(a, "nope")
		assert.Len(t, r.Objects(), 1)
	})

	t.Run("adds from two senders converge to one set", func(t *testing.T) {
		_, r, a, b := newRoom(t)

		r.AddObject(a, rectShape("s1"))
		r.AddObject(b, rectShape("s2"))

		ids := map[string]bool{}
		for _, o := range r.Objects() {
			ids[o.ShapeID()] = true
		}
		assert.Equal(t, map[string]bool{"s1": true, "s2": true}, ids)
	})

	t.Run("chat carries sender presence and skips the sender", func(t *testing.T) {
		_, r, a, b := newRoom(t)

		r.Chat(a, "hi there")

		var chats []protocol.Chat
		for _, m := range b.messages() {
			if v, ok := m.(protocol.Chat); ok {
				chats = append(chats, v)
			}
		}
		require.Len(t, chats, 1)
		assert.Equal(t, "hi there", chats[0].Text)
		assert.Equal(t, "Alice", chats[0].Name)
		assert.NotEmpty(t, chats[0].Avatar)
		assert.NotZero(t, chats[0].Timestamp)

		for _, m := range a.messages() {
			_, isChat := m.(protocol.Chat)
			assert.False(t, isChat, "sender must not receive its own chat")
		}
	})
}

func TestFlush(t *testing.T) {
	ctx := context.Background()

	t.Run("flush clears dirty and persists a copy", func(t *testing.T) {
		snaps := repo.NewMemorySnapshotRepo()
		g := NewRegistry(snaps)
		a := &fakeConn{}
		r := g.Admit("R", a)
		require.NoError(t, r.Identify(ctx, snaps, a, "u1", "Alice"))

		r.AddObject(a, rectShape("s1"))
		require.NoError(t, r.Flush(ctx, snaps))
		assert.False(t, r.Dirty())

		objects, ok, err := snaps.Load(ctx, "R")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Len(t, objects, 1)
	})

	t.Run("failed flush keeps the room dirty for retry", func(t *testing.T) {
		snaps := repo.NewMemorySnapshotRepo()
		g := NewRegistry(snaps)
		a := &fakeConn{}
		r := g.Admit("R", a)
		require.NoError(t, r.Identify(ctx, snaps, a, "u1", "Alice"))
		r.AddObject(a, rectShape("s1"))

		snaps.FailWith = errors.New("store down")
		require.Error(t, r.Flush(ctx, snaps))
		assert.True(t, r.Dirty())

		snaps.FailWith = nil
		require.NoError(t, r.Flush(ctx, snaps))
		assert.False(t, r.Dirty())
	})

	t.Run("flush without changes is a no-op", func(t *testing.T) {
		snaps := repo.NewMemorySnapshotRepo()
		g := NewRegistry(snaps)
		r := g.GetOrCreate("R")
		require.NoError(t, r.Flush(ctx, snaps))

		_, ok, err := snaps.Load(ctx, "R")
		require.NoError(t, err)
		assert.False(t, ok, "clean room must not be written")
	})
}
