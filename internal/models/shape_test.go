package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalShape(t *testing.T) {
	t.Run("decodes each variant by type tag", func(t *testing.T) {
		s, err := UnmarshalShape([]byte(`{"id":"s1","type":"rect","x":1,"y":2,"w":10,"h":20,"stroke":"#000","strokeWidth":2}`))
		require.NoError(t, err)
		rect, ok := s.(Rect)
		require.True(t, ok)
		assert.Equal(t, "s1", rect.ID)
		assert.Equal(t, 10.0, rect.W)

		s, err = UnmarshalShape([]byte(`{"id":"s2","type":"pen","points":[{"x":0,"y":0},{"x":5,"y":5}]}`))
		require.NoError(t, err)
		pen, ok := s.(Pen)
		require.True(t, ok)
		assert.Len(t, pen.Points, 2)

		s, err = UnmarshalShape([]byte(`{"id":"s3","type":"text","x":4,"y":8,"text":"hello"}`))
		require.NoError(t, err)
		text, ok := s.(Text)
		require.True(t, ok)
		assert.Equal(t, "hello", text.Text)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := UnmarshalShape([]byte(`{"id":"s1","type":"triangle"}`))
		assert.Error(t, err)
	})

	t.Run("rejects missing id", func(t *testing.T) {
		_, err := UnmarshalShape([]byte(`{"type":"rect","x":0,"y":0}`))
		assert.Error(t, err)
	})
}

func TestShapeWireFormat(t *testing.T) {
	t.Run("marshal is flat with type field", func(t *testing.T) {
		b, err := json.Marshal(Circle{ShapeBase: ShapeBase{ID: "c1", Stroke: "#000", StrokeWidth: 2}, X: 3, Y: 4, R: 5})
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))
		assert.Equal(t, "circle", m["type"])
		assert.Equal(t, "c1", m["id"])
		assert.Equal(t, 5.0, m["r"])
	})

	t.Run("shape list survives a snapshot round trip", func(t *testing.T) {
		orig := ShapeList{
			Line{ShapeBase: ShapeBase{ID: "l1", StrokeWidth: 2}, X1: 0, Y1: 0, X2: 9, Y2: 9},
			Text{ShapeBase: ShapeBase{ID: "t1"}, X: 1, Y: 1, Text: "memo"},
		}
		b, err := json.Marshal(Snapshot{RoomId: "R", Objects: orig})
		require.NoError(t, err)

		var snap Snapshot
		require.NoError(t, json.Unmarshal(b, &snap))
		require.Len(t, snap.Objects, 2)
		assert.Equal(t, orig[0], snap.Objects[0])
		assert.Equal(t, orig[1], snap.Objects[1])
	})
}
