package board

import "whiteboard-api/internal/models"

// eraserTool はドラッグ中のポインタ位置でヒットテストし、
// 当たったオブジェクトを削除するツール
// 1回のドラッグで同じIDを二度送らないよう削除済みセットを持ちます
type eraserTool struct {
	b       *Board
	erasing bool
	deleted map[string]struct{}
}

// NewEraserTool は消しゴムツールを作成します
func NewEraserTool(b *Board) Tool {
	return &eraserTool{b: b, deleted: make(map[string]struct{})}
}

func (t *eraserTool) OnPointerDown(e PointerEvent) {
	t.erasing = true
	t.eraseAt(e)
}

func (t *eraserTool) OnPointerMove(e PointerEvent) {
	if !t.erasing {
		return
	}
	t.eraseAt(e)
}

func (t *eraserTool) OnPointerUp(e PointerEvent) {
	t.erasing = false
	t.deleted = make(map[string]struct{})
}

func (t *eraserTool) eraseAt(e PointerEvent) {
	obj, ok := t.b.Store.FindAt(e.Board.X, e.Board.Y)
	if !ok {
		return
	}
	id := obj.ShapeID()
	if _, done := t.deleted[id]; done {
		return
	}
	t.deleted[id] = struct{}{}
	// ローカルは即時反映し、削除をブロードキャストします
	t.b.Erase(id)
}

func (t *eraserTool) Preview() (models.Shape, bool) { return nil, false }
