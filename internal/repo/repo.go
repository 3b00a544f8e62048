package repo

import (
	"context"
	"errors"

	"whiteboard-api/internal/models"
)

// ErrRoomNotFound は対象ルームのメタデータが存在しない場合のエラー
var ErrRoomNotFound = errors.New("room not found")

// SnapshotRepo はルームのオブジェクト列の永続化を担当します
// ドキュメント全体のupsertのみで、部分更新はありません
type SnapshotRepo interface {
	// Save はルームのオブジェクト列を保存します（upsert）
	Save(ctx context.Context, roomId string, objects models.ShapeList) error
	// Load はルームのスナップショットを取得します
	// 存在しない場合は ok=false を返し、エラーにはなりません
	Load(ctx context.Context, roomId string) (models.ShapeList, bool, error)
	// Delete はルームのスナップショットを削除します
	Delete(ctx context.Context, roomId string) error
}

// RoomRepo はルームのメタデータ永続化を担当します
type RoomRepo interface {
	CreateRoom(ctx context.Context, room models.Room) error
	GetRoom(ctx context.Context, roomId string) (models.Room, bool, error)
	// GetRoomByCode は共有コードからルームを引きます
	GetRoomByCode(ctx context.Context, code string) (models.Room, bool, error)
	DeleteRoom(ctx context.Context, roomId string) error
	// AddMember はユーザーをメンバー一覧に追加します（既存メンバーならno-op）
	AddMember(ctx context.Context, roomId, userId string) error
	ListRoomsByUser(ctx context.Context, userId string) ([]models.Room, error)
	ExistsRoomCode(ctx context.Context, code string) (bool, error)
}
