package board

import (
	"github.com/google/uuid"

	"whiteboard-api/internal/models"
)

// lineTool はドラッグで直線を描くツール
type lineTool struct {
	b       *Board
	drawing bool
	preview models.Line
}

// NewLineTool は直線ツールを作成します
func NewLineTool(b *Board) Tool { return &lineTool{b: b} }

func (t *lineTool) OnPointerDown(e PointerEvent) {
	t.drawing = true
	t.preview = models.Line{
		ShapeBase: t.b.base(""),
		X1:        e.Board.X,
		Y1:        e.Board.Y,
		X2:        e.Board.X,
		Y2:        e.Board.Y,
	}
}

func (t *lineTool) OnPointerMove(e PointerEvent) {
	if !t.drawing {
		return
	}
	t.preview.X2 = e.Board.X
	t.preview.Y2 = e.Board.Y
}

func (t *lineTool) OnPointerUp(e PointerEvent) {
	if !t.drawing {
		return
	}
	obj := t.preview
	obj.ID = uuid.NewString()
	t.b.Commit(obj)

	t.drawing = false
	t.preview = models.Line{}
}

func (t *lineTool) Preview() (models.Shape, bool) {
	if !t.drawing {
		return nil, false
	}
	return t.preview, true
}
