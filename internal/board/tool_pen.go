package board

import (
	"math"

	"github.com/google/uuid"

	"whiteboard-api/internal/models"
)

const (
	// penMinDistance はこの距離未満の微小移動を無視します（冗長な点の抑制）
	penMinDistance = 1.0
	// penSmoothAlpha は新しい点を直前の点とブレンドするローパス係数
	penSmoothAlpha = 0.35
)

// penTool はフリーハンドの軌跡を点列として蓄積するツール
// 確定オブジェクトには生の点列を持たせ、描画時にスプライン補間します
type penTool struct {
	b       *Board
	drawing bool
	points  []models.Point
}

// NewPenTool はペンツールを作成します
func NewPenTool(b *Board) Tool { return &penTool{b: b} }

func (t *penTool) OnPointerDown(e PointerEvent) {
	t.drawing = true
	t.points = []models.Point{e.Board}
}

func (t *penTool) OnPointerMove(e PointerEvent) {
	if !t.drawing {
		return
	}
	last := t.points[len(t.points)-1]

	if math.Hypot(e.Board.X-last.X, e.Board.Y-last.Y) < penMinDistance {
		return
	}

	// 直前の点とのローパスで手ぶれを抑えます
	smooth := models.Point{
		X: last.X*(1-penSmoothAlpha) + e.Board.X*penSmoothAlpha,
		Y: last.Y*(1-penSmoothAlpha) + e.Board.Y*penSmoothAlpha,
	}
	t.points = append(t.points, smooth)
}

func (t *penTool) OnPointerUp(e PointerEvent) {
	if !t.drawing {
		return
	}
	points := make([]models.Point, len(t.points))
	copy(points, t.points)

	obj := models.Pen{ShapeBase: t.b.base(uuid.NewString()), Points: points}
	t.b.Commit(obj)

	t.drawing = false
	t.points = nil
}

func (t *penTool) Preview() (models.Shape, bool) {
	if !t.drawing || len(t.points) < 2 {
		return nil, false
	}
	points := make([]models.Point, len(t.points))
	copy(points, t.points)
	return models.Pen{ShapeBase: t.b.base(""), Points: points}, true
}
