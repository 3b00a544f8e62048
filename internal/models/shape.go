package models

import (
	"encoding/json"
	"fmt"
)

// ShapeType は図形オブジェクトの種類を表す識別子
type ShapeType string

const (
	ShapeRect   ShapeType = "rect"   // 長方形
	ShapeCircle ShapeType = "circle" // 円
	ShapeLine   ShapeType = "line"   // 直線
	ShapePen    ShapeType = "pen"    // フリーハンドの折れ線
	ShapeText   ShapeType = "text"   // テキスト
)

// Point はボード座標上の1点を表します
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shape はボードに描かれた確定済みオブジェクトを表すタグ付きユニオン
// コミット後は不変であり、変更操作は追加と削除のみです
type Shape interface {
	// ShapeID はルーム内で一意なオブジェクトID（クライアント生成）を返します
	ShapeID() string
	// Kind は種類の識別子を返します
	Kind() ShapeType
}

// ShapeBase は全バリアント共通のフィールド
type ShapeBase struct {
	ID          string  `json:"id"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

func (b ShapeBase) ShapeID() string { return b.ID }

// Rect は左上原点と幅・高さで表す長方形
type Rect struct {
	ShapeBase
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (Rect) Kind() ShapeType { return ShapeRect }

// Circle は中心と半径で表す円
type Circle struct {
	ShapeBase
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

func (Circle) Kind() ShapeType { return ShapeCircle }

// Line は2端点で表す直線
type Line struct {
	ShapeBase
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (Line) Kind() ShapeType { return ShapeLine }

// Pen はポインタ軌跡の点列
// 保存するのは生の点列のみで、描画時にスプライン補間されます
type Pen struct {
	ShapeBase
	Points []Point `json:"points"`
}

func (Pen) Kind() ShapeType { return ShapePen }

// Text は配置座標と内容・フォント記述子を持つテキスト
type Text struct {
	ShapeBase
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
	Font string  `json:"font,omitempty"`
}

func (Text) Kind() ShapeType { return ShapeText }

// MarshalJSON はtypeフィールドを付与したフラットなJSONを生成します
func (r Rect) MarshalJSON() ([]byte, error) {
	type alias Rect
	return json.Marshal(struct {
		Type ShapeType `json:"type"`
		alias
	}{ShapeRect, alias(r)})
}

func (c Circle) MarshalJSON() ([]byte, error) {
	type alias Circle
	return json.Marshal(struct {
		Type ShapeType `json:"type"`
		alias
	}{ShapeCircle, alias(c)})
}

func (l Line) MarshalJSON() ([]byte, error) {
	type alias Line
	return json.Marshal(struct {
		Type ShapeType `json:"type"`
		alias
	}{ShapeLine, alias(l)})
}

func (p Pen) MarshalJSON() ([]byte, error) {
	type alias Pen
	return json.Marshal(struct {
		Type ShapeType `json:"type"`
		alias
	}{ShapePen, alias(p)})
}

func (t Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return json.Marshal(struct {
		Type ShapeType `json:"type"`
		alias
	}{ShapeText, alias(t)})
}

// UnmarshalShape はtypeフィールドを見て対応するバリアントにデコードします
// 未知のtypeやIDなしのオブジェクトはエラーになります
func UnmarshalShape(data []byte) (Shape, error) {
	var probe struct {
		Type ShapeType `json:"type"`
		ID   string    `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if probe.ID == "" {
		return nil, fmt.Errorf("shape missing id")
	}

	var (
		s   Shape
		err error
	)
	switch probe.Type {
	case ShapeRect:
		var v Rect
		err = json.Unmarshal(data, &v)
		s = v
	case ShapeCircle:
		var v Circle
		err = json.Unmarshal(data, &v)
		s = v
	case ShapeLine:
		var v Line
		err = json.Unmarshal(data, &v)
		s = v
	case ShapePen:
		var v Pen
		err = json.Unmarshal(data, &v)
		s = v
	case ShapeText:
		var v Text
		err = json.Unmarshal(data, &v)
		s = v
	default:
		return nil, fmt.Errorf("unknown shape type %q", probe.Type)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ShapeList はスナップショットやinitメッセージで扱うオブジェクト列
type ShapeList []Shape

// UnmarshalJSON は各要素をタグ付きユニオンとしてデコードします
func (sl *ShapeList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(ShapeList, 0, len(raws))
	for _, raw := range raws {
		s, err := UnmarshalShape(raw)
		if err != nil {
			return err
		}
		out = append(out, s)
	}
	*sl = out
	return nil
}
