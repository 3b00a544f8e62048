package board

import (
	"strings"

	"github.com/google/uuid"

	"whiteboard-api/internal/models"
)

// textTool は押下位置にテキスト入力欄を開くツール
// 入力UIはエンベッダー側の責務で、ここでは入力位置の保持と
// 確定時のオブジェクト生成だけを行います（プレビューは不要）
type textTool struct {
	b       *Board
	pending bool
	pos     models.Point
	font    string
}

// NewTextTool はテキストツールを作成します
func NewTextTool(b *Board) Tool { return &textTool{b: b} }

func (t *textTool) OnPointerDown(e PointerEvent) {
	t.pending = true
	t.pos = e.Board
}

func (t *textTool) OnPointerMove(e PointerEvent) {}
func (t *textTool) OnPointerUp(e PointerEvent)   {}

func (t *textTool) Preview() (models.Shape, bool) { return nil, false }

// PendingAt は入力欄を開くべきボード座標を返します
// 画面への配置はView.ToScreenで逆変換して使います
func (t *textTool) PendingAt() (models.Point, bool) {
	return t.pos, t.pending
}

// SetFont は次に確定するテキストのフォント記述子を設定します
func (t *textTool) SetFont(font string) { t.font = font }

// Commit は入力内容でテキストオブジェクトを確定します（blur/Enter時）
// 空文字のときは何も作らず入力だけ閉じます
func (t *textTool) Commit(content string) {
	defer func() { t.pending = false }()
	if !t.pending || strings.TrimSpace(content) == "" {
		return
	}
	obj := models.Text{
		ShapeBase: t.b.base(uuid.NewString()),
		X:         t.pos.X,
		Y:         t.pos.Y,
		Text:      content,
		Font:      t.font,
	}
	t.b.Commit(obj)
}

// Cancel は入力を破棄します
func (t *textTool) Cancel() { t.pending = false }

// TextTool はエンベッダーがCommit/PendingAtへアクセスするための型です
type TextTool interface {
	Tool
	PendingAt() (models.Point, bool)
	Commit(content string)
	Cancel()
}

var _ TextTool = (*textTool)(nil)
