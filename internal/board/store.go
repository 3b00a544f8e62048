// Package board はクライアント側の描画エンジンを提供します
// ルームのオブジェクト列のローカルミラー、ツールの状態機械、
// 画面座標とボード座標の変換を担当します
package board

import (
	"math"
	"sync"

	"whiteboard-api/internal/models"
)

// hitMargin はヒットテスト時に各図形へ一律に持たせる余白
// 細い線でも選択・消去しやすくするためのものです
const hitMargin = 10.0

// Store はルームのオブジェクト列のローカルミラーです
// initで全置換され、以降はリモート・ローカル双方の追加/削除を反映します
type Store struct {
	mu        sync.RWMutex
	objects   models.ShapeList
	listeners map[int]func()
	nextID    int
}

// NewStore は空のStoreを作成します
func NewStore() *Store {
	return &Store{listeners: make(map[int]func())}
}

// SetAll はオブジェクト列を丸ごと置き換えます（init受信時）
func (s *Store) SetAll(objects models.ShapeList) {
	s.mu.Lock()
	s.objects = make(models.ShapeList, len(objects))
	copy(s.objects, objects)
	s.mu.Unlock()
	s.notify()
}

// Add はオブジェクトを末尾に追加します
// 既に同じIDが存在する場合は何もしません（自分の追加のエコー対策）
func (s *Store) Add(obj models.Shape) {
	s.mu.Lock()
	for _, o := range s.objects {
		if o.ShapeID() == obj.ShapeID() {
			s.mu.Unlock()
			return
		}
	}
	s.objects = append(s.objects, obj)
	s.mu.Unlock()
	s.notify()
}

// DeleteByID は該当IDのオブジェクトを取り除きます
// 存在しない場合はno-opです（削除は競合しうる）
func (s *Store) DeleteByID(id string) {
	s.mu.Lock()
	kept := s.objects[:0]
	for _, o := range s.objects {
		if o.ShapeID() != id {
			kept = append(kept, o)
		}
	}
	s.objects = kept
	s.mu.Unlock()
	s.notify()
}

// Objects は現在のオブジェクト列のコピーを返します
// 描画ループは変更通知の有無に関係なく毎フレームこれを読みます
func (s *Store) Objects() models.ShapeList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(models.ShapeList, len(s.objects))
	copy(out, s.objects)
	return out
}

// Subscribe は変更通知の購読を登録し、解除関数を返します
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// FindAt はボード座標(x,y)にあるオブジェクトを返します
// 後に描かれたものが勝つよう、末尾から先頭に向かって調べます
func (s *Store) FindAt(x, y float64) (models.Shape, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.objects) - 1; i >= 0; i-- {
		if hitTest(s.objects[i], x, y) {
			return s.objects[i], true
		}
	}
	return nil, false
}

// hitTest は図形の種類ごとの当たり判定です
func hitTest(s models.Shape, x, y float64) bool {
	switch o := s.(type) {
	case models.Rect:
		x1, x2 := minMax(o.X, o.X+o.W)
		y1, y2 := minMax(o.Y, o.Y+o.H)
		return x >= x1-hitMargin && x <= x2+hitMargin &&
			y >= y1-hitMargin && y <= y2+hitMargin
	case models.Circle:
		return math.Hypot(x-o.X, y-o.Y) <= o.R+hitMargin
	case models.Line:
		return pointToSegmentDistance(x, y, o.X1, o.Y1, o.X2, o.Y2) <= o.StrokeWidth+hitMargin
	case models.Pen:
		for i := 0; i+1 < len(o.Points); i++ {
			a, b := o.Points[i], o.Points[i+1]
			if pointToSegmentDistance(x, y, a.X, a.Y, b.X, b.Y) <= o.StrokeWidth+hitMargin {
				return true
			}
		}
		return false
	case models.Text:
		w, h := estimateTextExtent(o)
		return x >= o.X-hitMargin && x <= o.X+w+hitMargin &&
			y >= o.Y-h-hitMargin && y <= o.Y+hitMargin
	default:
		return false
	}
}

// pointToSegmentDistance は点(px,py)と線分(x1,y1)-(x2,y2)の距離を返します
func pointToSegmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	ax, ay := px-x1, py-y1
	bx, by := x2-x1, y2-y1

	lenSq := bx*bx + by*by
	t := -1.0
	if lenSq > 0 {
		t = (ax*bx + ay*by) / lenSq
	}

	if t < 0 {
		return math.Hypot(px-x1, py-y1)
	}
	if t > 1 {
		return math.Hypot(px-x2, py-y2)
	}

	projX := x1 + bx*t
	projY := y1 + by*t
	return math.Hypot(px-projX, py-projY)
}

// estimateTextExtent はグリフ幅の概算からテキストの外接矩形を見積もります
// 正確なメトリクスはレンダラーしか知らないため、当たり判定用の近似です
func estimateTextExtent(t models.Text) (w, h float64) {
	const size = 16.0 // 既定のフォントサイズ相当
	return float64(len([]rune(t.Text))) * size * 0.6, size
}

func minMax(a, b float64) (float64, float64) {
	if a <= b {
		return a, b
	}
	return b, a
}
