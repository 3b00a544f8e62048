package handlers

import "fmt"

// validateRoomId はルームIDのバリデーションを行います
// ルームIDが空の場合はエラーを返します
func validateRoomId(roomId string) error {
	if normalizeID(roomId) == "" {
		return fmt.Errorf("roomId required")
	}
	return nil
}

// validateTitle はルームタイトルのバリデーションを行います
func validateTitle(title string) error {
	if normalizeID(title) == "" {
		return fmt.Errorf("title required")
	}
	return nil
}
