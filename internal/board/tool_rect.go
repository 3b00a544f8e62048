package board

import (
	"github.com/google/uuid"

	"whiteboard-api/internal/models"
)

// rectTool はドラッグで長方形を描くツール
// アンカー点からの相対でプレビューの寸法を更新し、離した時点で確定します
type rectTool struct {
	b       *Board
	drawing bool
	anchor  models.Point
	preview models.Rect
}

// NewRectTool は長方形ツールを作成します
func NewRectTool(b *Board) Tool { return &rectTool{b: b} }

func (t *rectTool) OnPointerDown(e PointerEvent) {
	t.drawing = true
	t.anchor = e.Board
	t.preview = models.Rect{ShapeBase: t.b.base(""), X: e.Board.X, Y: e.Board.Y}
}

func (t *rectTool) OnPointerMove(e PointerEvent) {
	if !t.drawing {
		return
	}
	t.preview.W = e.Board.X - t.anchor.X
	t.preview.H = e.Board.Y - t.anchor.Y
}

func (t *rectTool) OnPointerUp(e PointerEvent) {
	if !t.drawing {
		return
	}
	obj := t.preview
	obj.ID = uuid.NewString()
	t.b.Commit(obj)

	t.drawing = false
	t.preview = models.Rect{}
}

func (t *rectTool) Preview() (models.Shape, bool) {
	if !t.drawing {
		return nil, false
	}
	return t.preview, true
}
