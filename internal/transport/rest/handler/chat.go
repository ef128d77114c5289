package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"surveychat/internal/chat"
	"surveychat/internal/service"
	"surveychat/internal/transport/rest/middleware"
)

// ChatHandler handles conversation endpoints
type ChatHandler struct {
	convSvc *service.ConversationService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(convSvc *service.ConversationService) *ChatHandler {
	return &ChatHandler{convSvc: convSvc}
}

// SendMessageRequest is the request body for sending a chat message
type SendMessageRequest struct {
	Text string `json:"text"`
}

// Create handles POST /v1/conversations
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	participantID := middleware.GetParticipantID(r.Context())
	if participantID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	snap, err := h.convSvc.Create(r.Context(), participantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}

// Get handles GET /v1/conversations/{id}. Conversations no longer live on
// this instance are resumed from their cached session state.
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	snap, err := h.convSvc.Snapshot(id)
	if errors.Is(err, service.ErrConversationNotFound) {
		snap, err = h.convSvc.Resume(r.Context(), id, middleware.GetParticipantID(r.Context()))
	}
	if err != nil {
		writeConvError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// SendMessage handles POST /v1/conversations/{id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.convSvc.SendMessage(r.Context(), id, req.Text); err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, chat.ErrBusy):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeConvError(w, err)
		}
		return
	}

	snap, err := h.convSvc.Snapshot(id)
	if err != nil {
		writeConvError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

// StopAnimation handles POST /v1/conversations/{id}/stop
func (h *ChatHandler) StopAnimation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	stopped, err := h.convSvc.StopAnimation(id)
	if err != nil {
		writeConvError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"stopped": stopped})
}

// ToggleMode handles POST /v1/conversations/{id}/mode/toggle
func (h *ChatHandler) ToggleMode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	st, err := h.convSvc.ToggleMode(r.Context(), id)
	if err != nil {
		writeConvError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// ConfirmSwitch handles POST /v1/conversations/{id}/mode/confirm
func (h *ChatHandler) ConfirmSwitch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.convSvc.ConfirmSwitch(r.Context(), id); err != nil {
		writeConvError(w, err)
		return
	}

	snap, err := h.convSvc.Snapshot(id)
	if err != nil {
		writeConvError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DismissPopup handles POST /v1/conversations/{id}/mode/dismiss
func (h *ChatHandler) DismissPopup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.convSvc.DismissPopup(id); err != nil {
		writeConvError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

// GetMode handles GET /v1/conversations/{id}/mode
func (h *ChatHandler) GetMode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	conv, err := h.convSvc.Get(id)
	if err != nil {
		writeConvError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conv.ModeState())
}

// Close handles DELETE /v1/conversations/{id}
func (h *ChatHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.convSvc.Close(r.Context(), id); err != nil {
		writeConvError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func writeConvError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
