package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
)

// maxBodyBytes はルームAPIのリクエストボディ上限
// 受け付けるのはタイトルや参加入力程度の小さなJSONだけです
const maxBodyBytes = 64 << 10

// errorResponse はエラーレスポンスの構造
// 成功レスポンス側のsuccessフィールドと対になります
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// respondJSON はJSONレスポンスを返します
// payloadがnilの場合はステータスのみ返します
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondError はエラーレスポンスを返します
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Success: false, Message: msg})
}

// decodeJSON はリクエストボディからJSONをデコードします
// 未知のフィールドとサイズ超過は拒否し、失敗時はエラーレスポンスを
// 書き込んでfalseを返します
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			respondError(w, http.StatusBadRequest, "request body required")
		default:
			respondError(w, http.StatusBadRequest, "invalid request body")
		}
		return false
	}
	return true
}

// normalizeID はIDの前後の空白を削除して正規化します
func normalizeID(id string) string {
	return strings.TrimSpace(id)
}
