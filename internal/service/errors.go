package service

import "errors"

// カスタムエラー定義
var (
	ErrRoomNotFound             = errors.New("room not found")
	ErrNotRoomOwner             = errors.New("forbidden: not room owner")
	ErrRoomCodeGenerationFailed = errors.New("failed to generate unique room code after multiple attempts")
	ErrInvalidJoinInput         = errors.New("invalid room code or link")
)
