package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"whiteboard-api/internal/auth"
	"whiteboard-api/internal/service"
)

// RoomHandler はルームメタデータのCRUDを処理するハンドラー
// 認証済みユーザーのIDはセッショントークンから取得します
type RoomHandler struct {
	svc   *service.RoomService
	authn *auth.Authenticator
}

// NewRoomHandler は新しいRoomHandlerを作成します
func NewRoomHandler(s *service.RoomService, a *auth.Authenticator) *RoomHandler {
	return &RoomHandler{svc: s, authn: a}
}

type createRoomRequest struct {
	Title string `json:"title"`
}

type joinRoomRequest struct {
	Input string `json:"input"` // ルームID・共有コード・共有リンクのいずれか
}

// requireUser はセッショントークンを検証してユーザーIDを返します
// 検証に失敗した場合は401を返してfalseを返します
func (h *RoomHandler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, err := h.authn.Authenticate(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return claims.UserID(), true
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	userId, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var in createRoomRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := validateTitle(in.Title); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, err := h.svc.Create(r.Context(), userId, in.Title)
	if err != nil {
		log.Printf("Create room error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"room":     room,
		"roomLink": "/room/" + room.RoomId,
		"roomCode": room.RoomCode,
	})
}

func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	userId, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var in joinRoomRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	room, err := h.svc.Join(r.Context(), in.Input, userId)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidJoinInput):
			respondError(w, http.StatusBadRequest, "please enter a room code or link")
		case errors.Is(err, service.ErrRoomNotFound):
			respondError(w, http.StatusNotFound, "room not found")
		default:
			log.Printf("Join room error: %v", err)
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "roomId": room.RoomId})
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}
	roomId := normalizeID(chi.URLParam(r, "roomId"))
	if err := validateRoomId(roomId); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	room, ok, err := h.svc.Get(r.Context(), roomId)
	if err != nil {
		log.Printf("Get room error (roomId=%s): %v", roomId, err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "room not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"room": room})
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userId, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	roomId := normalizeID(chi.URLParam(r, "roomId"))
	if err := validateRoomId(roomId); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), roomId, userId); err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			respondError(w, http.StatusNotFound, "room not found")
		case errors.Is(err, service.ErrNotRoomOwner):
			respondError(w, http.StatusForbidden, "only the owner can delete the room")
		default:
			log.Printf("Delete room error (roomId=%s): %v", roomId, err)
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	userId, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	rooms, err := h.svc.ListByUser(r.Context(), userId)
	if err != nil {
		log.Printf("List rooms error (userId=%s): %v", userId, err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}
