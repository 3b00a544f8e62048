// Package models はアプリケーションで使用するデータ構造を定義します
package models

// User はルームに在席中のユーザーのプレゼンス情報を表します
// identify時に生成され、切断時に破棄される揮発データで、永続化されません
type User struct {
	UserId string `json:"userId"` // ユーザーの一意な識別子
	Name   string `json:"name"`   // 表示名
	Avatar string `json:"avatar"` // アイコン画像URL（サーバーが割り当て）
	Color  string `json:"color"`  // 表示色（サーバーが割り当て）
}

// Room はホワイトボードルームのメタデータを表します
type Room struct {
	RoomId    string   `json:"roomId"`    // ルームの一意な識別子
	Title     string   `json:"title"`     // ルームのタイトル
	RoomCode  string   `json:"roomCode"`  // 共有用の短いコード
	OwnerId   string   `json:"ownerId"`   // ルームのオーナー（作成者）のユーザーID
	Members   []string `json:"members"`   // 参加したことのあるユーザーID一覧
	CreatedAt int64    `json:"createdAt"` // ルーム作成日時（Unixタイムスタンプ）
}

// Snapshot はルームのオブジェクト列の永続化表現です
// 全体を1ドキュメントとしてupsertし、履歴は持ちません
type Snapshot struct {
	RoomId  string    `json:"roomId"`
	Objects ShapeList `json:"objects"`
}
