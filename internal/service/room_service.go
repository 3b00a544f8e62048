// Package service はルームメタデータのビジネスロジックを担当します
// ルームの作成・参加・削除・一覧などの処理を提供します
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"whiteboard-api/internal/idgen"
	"whiteboard-api/internal/models"
	"whiteboard-api/internal/repo"
)

// RoomService はルーム管理のビジネスロジックを提供します
type RoomService struct {
	rooms     repo.RoomRepo
	snapshots repo.SnapshotRepo
	codeLen   int
}

// NewRoomService は新しいRoomServiceを作成します
func NewRoomService(rooms repo.RoomRepo, snapshots repo.SnapshotRepo, codeLen int) *RoomService {
	return &RoomService{rooms: rooms, snapshots: snapshots, codeLen: codeLen}
}

// Create は新しいルームを作成します
// 共有コードは重複チェック付きで生成し（最大10回リトライ）、
// 作成者は自動的にメンバーになります
func (s *RoomService) Create(ctx context.Context, ownerId, title string) (models.Room, error) {
	const maxRetries = 10

	var code string
	for i := 0; i < maxRetries; i++ {
		c, err := idgen.NewRoomCode(s.codeLen)
		if err != nil {
			return models.Room{}, err
		}
		exists, err := s.rooms.ExistsRoomCode(ctx, c)
		if err != nil {
			return models.Room{}, err
		}
		if !exists {
			code = c
			break
		}
		if i == maxRetries-1 {
			return models.Room{}, ErrRoomCodeGenerationFailed
		}
	}

	room := models.Room{
		RoomId:    idgen.NewULID(),
		Title:     strings.TrimSpace(title),
		RoomCode:  code,
		OwnerId:   ownerId,
		Members:   []string{ownerId},
		CreatedAt: time.Now().Unix(),
	}
	if err := s.rooms.CreateRoom(ctx, room); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// Resolve は参加入力（ルームID・共有コード・共有リンク）からルームを引きます
// 共有リンクは /room/<roomId> 形式を受け付けます
func (s *RoomService) Resolve(ctx context.Context, input string) (models.Room, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return models.Room{}, ErrInvalidJoinInput
	}

	if idx := strings.Index(input, "/room/"); idx >= 0 {
		input = strings.TrimSpace(input[idx+len("/room/"):])
	}

	// まずはIDとして解決し、だめなら共有コードとして解決します
	room, ok, err := s.rooms.GetRoom(ctx, input)
	if err != nil {
		return models.Room{}, err
	}
	if ok {
		return room, nil
	}

	room, ok, err = s.rooms.GetRoomByCode(ctx, strings.ToUpper(input))
	if err != nil {
		return models.Room{}, err
	}
	if !ok {
		return models.Room{}, ErrRoomNotFound
	}
	return room, nil
}

// Join はユーザーをルームのメンバーに加えます
func (s *RoomService) Join(ctx context.Context, input, userId string) (models.Room, error) {
	room, err := s.Resolve(ctx, input)
	if err != nil {
		return models.Room{}, err
	}
	if err := s.rooms.AddMember(ctx, room.RoomId, userId); err != nil {
		// 解決と追加の間に削除された場合
		if errors.Is(err, repo.ErrRoomNotFound) {
			return models.Room{}, ErrRoomNotFound
		}
		return models.Room{}, err
	}
	return room, nil
}

// Get は指定されたルームのメタデータを取得します
func (s *RoomService) Get(ctx context.Context, roomId string) (models.Room, bool, error) {
	return s.rooms.GetRoom(ctx, roomId)
}

// Delete はルームを削除します（オーナーのみ実行可能）
// メタデータと一緒にスナップショットも破棄します
func (s *RoomService) Delete(ctx context.Context, roomId, userId string) error {
	room, exists, err := s.rooms.GetRoom(ctx, roomId)
	if err != nil {
		return err
	}
	if !exists {
		return ErrRoomNotFound
	}
	if room.OwnerId != userId {
		return ErrNotRoomOwner
	}
	if err := s.rooms.DeleteRoom(ctx, roomId); err != nil {
		return err
	}
	return s.snapshots.Delete(ctx, roomId)
}

// ListByUser はユーザーが参加したことのあるルームの一覧を返します
func (s *RoomService) ListByUser(ctx context.Context, userId string) ([]models.Room, error) {
	return s.rooms.ListRoomsByUser(ctx, userId)
}
