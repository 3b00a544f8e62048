package board

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-api/internal/models"
)

// fakeSender は送信された確定操作を記録します
type fakeSender struct {
	mu      sync.Mutex
	added   []models.Shape
	deleted []string
}

func (f *fakeSender) SendObjectAdd(s models.Shape) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, s)
	return nil
}

func (f *fakeSender) SendObjectDelete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestBoard() (*Board, *fakeSender) {
	sender := &fakeSender{}
	b := &Board{Store: NewStore(), View: NewView(), Sender: sender, Style: DefaultStyle}
	return b, sender
}

func TestRectTool(t *testing.T) {
	b, sender := newTestBoard()
	e := NewEngine(b)
	e.SetTool("rect")

	e.PointerDown(models.Point{X: 10, Y: 20})

	preview, ok := e.Preview()
	require.True(t, ok)
	rect := preview.(models.Rect)
	assert.Equal(t, 0.0, rect.W, "preview starts with zero extent")

	e.PointerMove(models.Point{X: 60, Y: 50})
	preview, _ = e.Preview()
	rect = preview.(models.Rect)
	assert.Equal(t, 50.0, rect.W)
	assert.Equal(t, 30.0, rect.H)

	e.PointerUp(models.Point{X: 60, Y: 50})

	// コミットでプレビューが消え、IDが付いてローカル適用と送信が行われる
	_, ok = e.Preview()
	assert.False(t, ok)
	require.Len(t, sender.added, 1)
	committed := sender.added[0].(models.Rect)
	assert.NotEmpty(t, committed.ID)
	assert.Equal(t, "#000", committed.Stroke)
	require.Len(t, b.Store.Objects(), 1)
	assert.Equal(t, committed.ID, b.Store.Objects()[0].ShapeID())
}

func TestRectToolUsesBoardCoords(t *testing.T) {
	b, sender := newTestBoard()
	b.View.SetPan(100, 100)
	b.View.SetZoom(2)
	e := NewEngine(b)
	e.SetTool("rect")

	e.PointerDown(models.Point{X: 100, Y: 100}) // ボード座標 (0,0)
	e.PointerMove(models.Point{X: 300, Y: 200}) // ボード座標 (100,50)
	e.PointerUp(models.Point{X: 300, Y: 200})

	require.Len(t, sender.added, 1)
	rect := sender.added[0].(models.Rect)
	assert.Equal(t, 0.0, rect.X)
	assert.Equal(t, 100.0, rect.W)
	assert.Equal(t, 50.0, rect.H)
}

func TestCircleTool(t *testing.T) {
	b, sender := newTestBoard()
	e := NewEngine(b)
	e.SetTool("circle")

	e.PointerDown(models.Point{X: 0, Y: 0})
	e.PointerMove(models.Point{X: 3, Y: 4})
	e.PointerUp(models.Point{X: 3, Y: 4})

	require.Len(t, sender.added, 1)
	circle := sender.added[0].(models.Circle)
	assert.InDelta(t, 5.0, circle.R, 1e-9)
}

func TestLineTool(t *testing.T) {
	b, sender := newTestBoard()
	e := NewEngine(b)
	e.SetTool("line")

	e.PointerDown(models.Point{X: 1, Y: 2})
	e.PointerMove(models.Point{X: 30, Y: 40})
	e.PointerUp(models.Point{X: 30, Y: 40})

	require.Len(t, sender.added, 1)
	line := sender.added[0].(models.Line)
	assert.Equal(t, 1.0, line.X1)
	assert.Equal(t, 30.0, line.X2)
	assert.Equal(t, 40.0, line.Y2)
}

func TestPenTool(t *testing.T) {
	t.Run("skips micro moves and low-pass filters the rest", func(t *testing.T) {
		b, sender := newTestBoard()
		e := NewEngine(b)
		e.SetTool("pen")

		e.PointerDown(models.Point{X: 0, Y: 0})
		e.PointerMove(models.Point{X: 0.5, Y: 0}) // 閾値未満なので無視
		e.PointerMove(models.Point{X: 10, Y: 0})
		e.PointerUp(models.Point{X: 10, Y: 0})

		require.Len(t, sender.added, 1)
		pen := sender.added[0].(models.Pen)
		require.Len(t, pen.Points, 2)
		// ローパス: 0*(1-α) + 10*α = 3.5
		assert.InDelta(t, 3.5, pen.Points[1].X, 1e-9)
	})

	t.Run("preview needs at least two points", func(t *testing.T) {
		b, _ := newTestBoard()
		e := NewEngine(b)
		e.SetTool("pen")

		e.PointerDown(models.Point{X: 0, Y: 0})
		_, ok := e.Preview()
		assert.False(t, ok)

		e.PointerMove(models.Point{X: 20, Y: 0})
		_, ok = e.Preview()
		assert.True(t, ok)
	})
}

func TestEraserTool(t *testing.T) {
	b, sender := newTestBoard()
	b.Store.Add(models.Rect{ShapeBase: models.ShapeBase{ID: "victim"}, X: 0, Y: 0, W: 20, H: 20})
	b.Store.Add(models.Circle{ShapeBase: models.ShapeBase{ID: "far"}, X: 500, Y: 500, R: 5})

	e := NewEngine(b)
	e.SetTool("eraser")

	e.PointerDown(models.Point{X: 10, Y: 10})
	// 同じドラッグ中に同じオブジェクトの上を何度も通る
	e.PointerMove(models.Point{X: 12, Y: 12})
	e.PointerMove(models.Point{X: 14, Y: 14})
	e.PointerUp(models.Point{X: 14, Y: 14})

	// 削除は1回だけ送られ、ローカルは即時反映される
	assert.Equal(t, []string{"victim"}, sender.deleted)
	require.Len(t, b.Store.Objects(), 1)
	assert.Equal(t, "far", b.Store.Objects()[0].ShapeID())

	// 新しいドラッグでは別のオブジェクトを消せる
	e.PointerDown(models.Point{X: 500, Y: 500})
	e.PointerUp(models.Point{X: 500, Y: 500})
	assert.Equal(t, []string{"victim", "far"}, sender.deleted)
}

func TestPanTool(t *testing.T) {
	b, sender := newTestBoard()
	b.View.SetPan(5, 5)
	e := NewEngine(b)
	e.SetTool("pan")

	e.PointerDown(models.Point{X: 100, Y: 100})
	e.PointerMove(models.Point{X: 130, Y: 80})

	pan := b.View.Pan()
	assert.Equal(t, 35.0, pan.X)
	assert.Equal(t, -15.0, pan.Y)

	e.PointerUp(models.Point{X: 130, Y: 80})

	// 表示変換のみで、データ変更もブロードキャストもない
	assert.Empty(t, sender.added)
	assert.Empty(t, sender.deleted)
	assert.Empty(t, b.Store.Objects())
}

func TestTextTool(t *testing.T) {
	b, sender := newTestBoard()
	e := NewEngine(b)
	e.SetTool("text")

	e.PointerDown(models.Point{X: 40, Y: 60})

	tool := e.ActiveTool().(TextTool)
	pos, pending := tool.PendingAt()
	require.True(t, pending)
	assert.Equal(t, 40.0, pos.X)

	tool.Commit("hello board")

	require.Len(t, sender.added, 1)
	text := sender.added[0].(models.Text)
	assert.Equal(t, "hello board", text.Text)
	assert.Equal(t, 40.0, text.X)
	assert.Equal(t, 60.0, text.Y)

	_, pending = tool.PendingAt()
	assert.False(t, pending)

	t.Run("empty content commits nothing", func(t *testing.T) {
		e.PointerDown(models.Point{X: 0, Y: 0})
		tool.Commit("   ")
		assert.Len(t, sender.added, 1)
	})

	t.Run("cancel discards the pending entry", func(t *testing.T) {
		e.PointerDown(models.Point{X: 0, Y: 0})
		tool.Cancel()
		tool.Commit("ignored")
		assert.Len(t, sender.added, 1)
	})
}

// failingSender は常に送信エラーを返します
type failingSender struct{ err error }

func (f *failingSender) SendObjectAdd(models.Shape) error { return f.err }
func (f *failingSender) SendObjectDelete(string) error { return f.err }

func TestSendFailureKeepsLocalState(t *testing.T) {
	b := &Board{
		Store:  NewStore(),
		View:   NewView(),
		Sender: &failingSender{err: errors.New("connection closed")},
		Style:  DefaultStyle,
	}
	e := NewEngine(b)

	e.SetTool("rect")
	e.PointerDown(models.Point{X: 0, Y: 0})
	e.PointerMove(models.Point{X: 10, Y: 10})
	e.PointerUp(models.Point{X: 10, Y: 10})

	// 送信に失敗してもローカル適用はそのまま残る
	require.Len(t, b.Store.Objects(), 1)
	id := b.Store.Objects()[0].ShapeID()

	e.SetTool("eraser")
	e.PointerDown(models.Point{X: 5, Y: 5})
	e.PointerUp(models.Point{X: 5, Y: 5})
	assert.Empty(t, b.Store.Objects(), "local delete applies despite send failure")
	assert.NotEmpty(t, id)
}

func TestEngineToolSwitch(t *testing.T) {
	b, sender := newTestBoard()
	e := NewEngine(b)

	e.SetTool("rect")
	e.PointerDown(models.Point{X: 0, Y: 0})
	e.PointerMove(models.Point{X: 50, Y: 50})
	_, ok := e.Preview()
	require.True(t, ok)

	// ツール切り替えで描きかけは破棄される
	e.SetTool("line")
	_, ok = e.Preview()
	assert.False(t, ok)
	assert.Empty(t, sender.added)

	// 未知のツール名では入力が無視される
	e.SetTool("lasso")
	e.PointerDown(models.Point{X: 0, Y: 0})
	e.PointerUp(models.Point{X: 0, Y: 0})
	assert.Empty(t, sender.added)
}
