package board

import (
	"math"

	"github.com/google/uuid"

	"whiteboard-api/internal/models"
)

// circleTool はドラッグで円を描くツール
// 押下点を中心とし、ドラッグ距離を半径とします
type circleTool struct {
	b       *Board
	drawing bool
	anchor  models.Point
	preview models.Circle
}

// NewCircleTool は円ツールを作成します
func NewCircleTool(b *Board) Tool { return &circleTool{b: b} }

func (t *circleTool) OnPointerDown(e PointerEvent) {
	t.drawing = true
	t.anchor = e.Board
	t.preview = models.Circle{ShapeBase: t.b.base(""), X: e.Board.X, Y: e.Board.Y}
}

func (t *circleTool) OnPointerMove(e PointerEvent) {
	if !t.drawing {
		return
	}
	t.preview.R = math.Hypot(e.Board.X-t.anchor.X, e.Board.Y-t.anchor.Y)
}

func (t *circleTool) OnPointerUp(e PointerEvent) {
	if !t.drawing {
		return
	}
	obj := t.preview
	obj.ID = uuid.NewString()
	t.b.Commit(obj)

	t.drawing = false
	t.preview = models.Circle{}
}

func (t *circleTool) Preview() (models.Shape, bool) {
	if !t.drawing {
		return nil, false
	}
	return t.preview, true
}
