package board

import "whiteboard-api/internal/models"

// SmoothStroke はペンの生の点列をCatmull-Rom系の曲線で再補間します
// 保存データは生の点列のまま（再現性のため）とし、描画側だけが
// この補間結果を使って連続的なストロークを描きます
// segmentsは隣接点間の分割数で、1以下なら元の点列をそのまま返します
func SmoothStroke(points []models.Point, segments int) []models.Point {
	if segments <= 1 || len(points) < 3 {
		out := make([]models.Point, len(points))
		copy(out, points)
		return out
	}

	out := make([]models.Point, 0, (len(points)-1)*segments+1)
	out = append(out, points[0])

	for i := 0; i < len(points)-1; i++ {
		p0 := points[clampIndex(i-1, len(points))]
		p1 := points[i]
		p2 := points[i+1]
		p3 := points[clampIndex(i+2, len(points))]

		// 3次ベジェの制御点（Catmull-Rom相当、張力1/6）
		c1 := models.Point{X: p1.X + (p2.X-p0.X)/6, Y: p1.Y + (p2.Y-p0.Y)/6}
		c2 := models.Point{X: p2.X - (p3.X-p1.X)/6, Y: p2.Y - (p3.Y-p1.Y)/6}

		for s := 1; s <= segments; s++ {
			t := float64(s) / float64(segments)
			out = append(out, bezierPoint(p1, c1, c2, p2, t))
		}
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func bezierPoint(p0, c1, c2, p1 models.Point, t float64) models.Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return models.Point{
		X: a*p0.X + b*c1.X + c*c2.X + d*p1.X,
		Y: a*p0.Y + b*c1.Y + c*c2.Y + d*p1.Y,
	}
}
