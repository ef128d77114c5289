package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"surveychat/internal/chat"
	"surveychat/internal/model"
	"surveychat/internal/service"
)

// EditHandler handles answer-correction endpoints
type EditHandler struct {
	convSvc *service.ConversationService
}

// NewEditHandler creates a new edit handler
func NewEditHandler(convSvc *service.ConversationService) *EditHandler {
	return &EditHandler{convSvc: convSvc}
}

// StartEditRequest is the request body for opening an edit session. The
// presentation layer carries the question from its answer listing.
type StartEditRequest struct {
	Question model.Question `json:"question"`
}

// CorrectionRequest is the request body for submitting a correction
type CorrectionRequest struct {
	Text string `json:"text"`
}

// Start handles POST /v1/conversations/{id}/edits
func (h *EditHandler) Start(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req StartEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question.Code == "" || req.Question.Text == "" {
		writeError(w, http.StatusBadRequest, "question code and text are required")
		return
	}

	snap, err := h.convSvc.StartEdit(id, req.Question)
	if err != nil {
		writeConvError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}

// SubmitCorrection handles POST /v1/edits/{editId}/messages
func (h *EditHandler) SubmitCorrection(w http.ResponseWriter, r *http.Request) {
	editID := mux.Vars(r)["editId"]

	var req CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.convSvc.SubmitCorrection(r.Context(), editID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEditNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, chat.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, chat.ErrBusy), errors.Is(err, chat.ErrEditCompleted):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// Close handles DELETE /v1/edits/{editId}
func (h *EditHandler) Close(w http.ResponseWriter, r *http.Request) {
	editID := mux.Vars(r)["editId"]

	if err := h.convSvc.CloseEdit(editID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}
