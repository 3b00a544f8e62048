package board

import (
	"log"

	"whiteboard-api/internal/models"
)

// PointerEvent はツールに渡すポインタ入力です
// Screenは画面座標（CSSピクセル）、Boardは変換済みのボード座標です
type PointerEvent struct {
	Screen models.Point
	Board  models.Point
}

// Tool は1つの描画ツールの状態機械です
// アクティブなツールは常に1つで、切り替え時に描きかけの状態は破棄されます
type Tool interface {
	OnPointerDown(e PointerEvent)
	OnPointerMove(e PointerEvent)
	OnPointerUp(e PointerEvent)
	// Preview は描きかけの図形を返します（描画ループが毎フレーム読む）
	Preview() (models.Shape, bool)
}

// Sender は確定した操作をサーバーへ送る役割です
// ツールはローカルへ楽観適用したうえでSender経由で送信します
type Sender interface {
	SendObjectAdd(s models.Shape) error
	SendObjectDelete(id string) error
}

// Style はコミット時に図形へ付与する描画属性です
type Style struct {
	Stroke      string
	StrokeWidth float64
}

// DefaultStyle は原作どおりの既定値です
var DefaultStyle = Style{Stroke: "#000", StrokeWidth: 2}

// Board はツールが操作するクライアント側の文脈一式です
type Board struct {
	Store  *Store
	View   *View
	Sender Sender
	Style  Style
}

// Commit は確定図形をローカルに適用してサーバーへ送ります
// 送信に失敗してもローカル適用は取り消しません（再接続時にinitで揃う）
func (b *Board) Commit(s models.Shape) {
	b.Store.Add(s)
	if b.Sender == nil {
		return
	}
	if err := b.Sender.SendObjectAdd(s); err != nil {
		log.Printf("failed to send object:add: id=%s error=%v", s.ShapeID(), err)
	}
}

// Erase は削除をローカルに適用してサーバーへ送ります
func (b *Board) Erase(id string) {
	b.Store.DeleteByID(id)
	if b.Sender == nil {
		return
	}
	if err := b.Sender.SendObjectDelete(id); err != nil {
		log.Printf("failed to send object:delete: id=%s error=%v", id, err)
	}
}

func (b *Board) base(id string) models.ShapeBase {
	return models.ShapeBase{ID: id, Stroke: b.Style.Stroke, StrokeWidth: b.Style.StrokeWidth}
}

// ToolConstructor はツール名に対応する状態機械を生成します
type ToolConstructor func(b *Board) Tool

// Tools は利用可能な全ツールのレジストリです
var Tools = map[string]ToolConstructor{
	"rect":   NewRectTool,
	"circle": NewCircleTool,
	"line":   NewLineTool,
	"pen":    NewPenTool,
	"eraser": NewEraserTool,
	"text":   NewTextTool,
	"pan":    NewPanTool,
}

// Engine はアクティブなツールへの入力の振り分けを担当します
type Engine struct {
	board  *Board
	tools  map[string]ToolConstructor
	active Tool
}

// NewEngine は新しいEngineを作成します
func NewEngine(board *Board) *Engine {
	if board.Style == (Style{}) {
		board.Style = DefaultStyle
	}
	return &Engine{board: board, tools: Tools}
}

// SetTool はアクティブなツールを切り替えます
// 未知のツール名なら非アクティブになります（描きかけは破棄）
func (e *Engine) SetTool(name string) {
	ctor, ok := e.tools[name]
	if !ok {
		e.active = nil
		return
	}
	e.active = ctor(e.board)
}

// ActiveTool は現在アクティブなツールを返します
func (e *Engine) ActiveTool() Tool { return e.active }

// PointerDown は画面座標の入力をボード座標に変換してツールへ渡します
func (e *Engine) PointerDown(screen models.Point) {
	if e.active == nil {
		return
	}
	e.active.OnPointerDown(e.event(screen))
}

func (e *Engine) PointerMove(screen models.Point) {
	if e.active == nil {
		return
	}
	e.active.OnPointerMove(e.event(screen))
}

func (e *Engine) PointerUp(screen models.Point) {
	if e.active == nil {
		return
	}
	e.active.OnPointerUp(e.event(screen))
}

// Preview は描きかけの図形を返します
func (e *Engine) Preview() (models.Shape, bool) {
	if e.active == nil {
		return nil, false
	}
	return e.active.Preview()
}

func (e *Engine) event(screen models.Point) PointerEvent {
	return PointerEvent{Screen: screen, Board: e.board.View.ToBoard(screen)}
}
