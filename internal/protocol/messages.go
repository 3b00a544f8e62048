// Package protocol はWebSocketで送受信するメッセージ形式を定義します
// すべてのメッセージはtypeフィールドを持つフラットなJSONオブジェクトです
package protocol

import (
	"encoding/json"

	"whiteboard-api/internal/models"
)

// メッセージタイプの一覧
const (
	TypeIdentify     = "identify"      // client→server: 入室時の自己申告
	TypeInit         = "init"          // server→client: 現在のボード状態と在席者
	TypeUserJoined   = "user:joined"   // server→client: 在席者の増加（全量スナップショット）
	TypeUserLeft     = "user:left"     // server→client: 在席者の減少（全量スナップショット）
	TypeObjectAdd    = "object:add"    // 双方向: オブジェクトの追加
	TypeObjectDelete = "object:delete" // 双方向: オブジェクトのID指定削除
	TypeChat         = "chat"          // 双方向: チャット
)

// Envelope は受信メッセージの種別判定に使う最小構造
type Envelope struct {
	Type string `json:"type"`
}

// Identify は入室時にクライアントが名乗るメッセージ
type Identify struct {
	Type     string `json:"type"`
	UniqueId string `json:"unique_id"`
	Name     string `json:"name"`
}

// Init は入室直後のクライアントにだけ送る現在状態
type Init struct {
	Type    string                 `json:"type"`
	Objects models.ShapeList       `json:"objects"`
	Users   map[string]models.User `json:"users"`
}

// Presence は在席者の増減を通知するメッセージ
// 差分ではなく全量のスナップショットを送ります
type Presence struct {
	Type  string                 `json:"type"`
	Users map[string]models.User `json:"users"`
}

// ObjectAdd はオブジェクト追加の通知
type ObjectAdd struct {
	Type   string       `json:"type"`
	Object models.Shape `json:"object"`
}

// ObjectAddRaw は受信側でのデコードに使います
// objectフィールドはタグ付きユニオンなので二段階でデコードします
type ObjectAddRaw struct {
	Type   string          `json:"type"`
	Object json.RawMessage `json:"object"`
}

// ObjectDelete はオブジェクト削除の通知
type ObjectDelete struct {
	Type string `json:"type"`
	Id   string `json:"id"`
}

// Chat はチャットメッセージ
// name以降のフィールドはサーバーが送信者のプレゼンスから付与します
type Chat struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Name      string `json:"name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Color     string `json:"color,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}
