package board

import "whiteboard-api/internal/models"

// panTool はドラッグで表示オフセットを動かすツール
// データの変更ではなく純粋な表示変換なので、何もブロードキャストしません
type panTool struct {
	b           *Board
	dragging    bool
	startScreen models.Point
	startPan    models.Point
}

// NewPanTool はパンツールを作成します
func NewPanTool(b *Board) Tool { return &panTool{b: b} }

func (t *panTool) OnPointerDown(e PointerEvent) {
	t.dragging = true
	t.startScreen = e.Screen
	t.startPan = t.b.View.Pan()
}

func (t *panTool) OnPointerMove(e PointerEvent) {
	if !t.dragging {
		return
	}
	dx := e.Screen.X - t.startScreen.X
	dy := e.Screen.Y - t.startScreen.Y
	t.b.View.SetPan(t.startPan.X+dx, t.startPan.Y+dy)
}

func (t *panTool) OnPointerUp(e PointerEvent) {
	t.dragging = false
}

func (t *panTool) Preview() (models.Shape, bool) { return nil, false }
