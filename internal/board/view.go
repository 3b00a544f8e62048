package board

import (
	"math"
	"sync"

	"whiteboard-api/internal/models"
)

// View はパン・ズームの表示変換を保持します
// 変換は純粋に描画上のもので、ブロードキャストされることはありません
type View struct {
	mu   sync.RWMutex
	panX float64 // パンオフセット（CSSピクセル）
	panY float64
	zoom float64 // ズーム倍率
}

// NewView は等倍・原点のViewを作成します
func NewView() *View {
	return &View{zoom: 1}
}

// ToBoard は画面座標をボード座標に変換します
func (v *View) ToBoard(p models.Point) models.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return models.Point{
		X: (p.X - v.panX) / v.zoom,
		Y: (p.Y - v.panY) / v.zoom,
	}
}

// ToScreen はボード座標を画面座標に変換します（UIオーバーレイの配置用）
func (v *View) ToScreen(p models.Point) models.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return models.Point{
		X: p.X*v.zoom + v.panX,
		Y: p.Y*v.zoom + v.panY,
	}
}

// Pan は現在のパンオフセットを返します
func (v *View) Pan() models.Point {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return models.Point{X: v.panX, Y: v.panY}
}

// SetPan はパンオフセットを設定します
func (v *View) SetPan(x, y float64) {
	v.mu.Lock()
	v.panX, v.panY = x, y
	v.mu.Unlock()
}

// Zoom は現在のズーム倍率を返します
func (v *View) Zoom() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.zoom
}

// SetZoom はズーム倍率を設定します（0以下は無視）
func (v *View) SetZoom(z float64) {
	if z <= 0 || math.IsNaN(z) || math.IsInf(z, 0) {
		return
	}
	v.mu.Lock()
	v.zoom = z
	v.mu.Unlock()
}

// SurfaceSize は描画サーフェスのバッキング解像度を返します
// デバイスピクセル密度はここ（サーフェス寸法）だけで扱い、
// パン・ズームはCSSピクセル空間なのでボード座標計算には混ぜません
func SurfaceSize(cssW, cssH, devicePixelRatio float64) (w, h int) {
	if devicePixelRatio <= 0 {
		devicePixelRatio = 1
	}
	return int(math.Round(cssW * devicePixelRatio)), int(math.Round(cssH * devicePixelRatio))
}
