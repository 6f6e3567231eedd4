package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/weekboard/internal/apperr"
	"github.com/starford/weekboard/internal/boardservice"
	"github.com/starford/weekboard/internal/checksum"
	"github.com/starford/weekboard/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	svc *boardservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *boardservice.Service) *Handler {
	return &Handler{svc: svc}
}

// writeError maps domain errors to HTTP statuses. Persist failures get the
// user-facing save message; anything unrecognised is logged as internal.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalid), errors.Is(err, apperr.ErrNotConfirmed):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrNoSession):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrPersist):
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(session.MsgSaveFailed))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListWeeks handles GET /api/weeks.
//
//	@Summary		Get the board with all weeks
//	@Tags			weeks
//	@Produce		json
//	@Param			tag	query		string	false	"Filter by tag"
//	@Success		200	{object}	BoardResponse
//	@Router			/weeks [get]
func (h *Handler) ListWeeks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Board(r.URL.Query().Get("tag")))
}

// GetWeek handles GET /api/weeks/{index}.
//
//	@Summary		Get a single week by position
//	@Tags			weeks
//	@Produce		json
//	@Param			index	path		int	true	"Zero-based position"
//	@Success		200		{object}	models.Week
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/weeks/{index} [get]
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("index must be an integer"))
		return
	}
	week, err := h.svc.Week(index)
	if err != nil {
		writeError(w, "get week", err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

// GetSession handles GET /api/session.
//
//	@Summary		Get the edit session state
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	session.State
//	@Router			/session [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Session())
}

// OpenSession handles POST /api/session.
//
//	@Summary		Open a week for editing
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenSessionRequest	true	"Week to open"
//	@Success		200		{object}	OpenSessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/session [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Index == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("index is required"))
		return
	}
	opened, err := h.svc.Open(*req.Index)
	if err != nil {
		writeError(w, "open session", err)
		return
	}
	writeJSON(w, http.StatusOK, opened)
}

// SaveSession handles PUT /api/session.
//
//	@Summary		Submit the edit form and save
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SaveSessionRequest	true	"Edit form"
//	@Success		200		{object}	SessionResultResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/session [put]
func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	var req SaveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.Save(r.Context(), req.ID, req.Form)
	if err != nil {
		writeError(w, "save session", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteSession handles POST /api/session/delete.
//
//	@Summary		Reset the open week to its defaults
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DeleteSessionRequest	true	"Confirmation"
//	@Success		200		{object}	SessionResultResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/session/delete [post]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	var req DeleteSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.Delete(r.Context(), req.ID, req.Confirm)
	if err != nil {
		writeError(w, "delete week", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CancelSession handles DELETE /api/session.
//
//	@Summary		Close the edit session without saving
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	session.State
//	@Router			/session [delete]
func (h *Handler) CancelSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Cancel())
}

// Export handles GET /api/export.
//
//	@Summary		Download the serialized collection
//	@Tags			transfer
//	@Produce		json
//	@Success		200	{array}	models.Week
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Export()
	if err != nil {
		writeError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("ETag", checksum.ETag(snap.Checksum))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.Data)
}

// Import handles PUT /api/import.
//
//	@Summary		Replace week contents from an exported collection
//	@Tags			transfer
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header	string	false	"ETag from a previous export"
//	@Success		200			{object}	ImportResponse
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		500			{object}	errResponse
//	@Router			/import [put]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	snap, err := h.svc.Import(r.Context(), body, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "import", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(snap.Checksum))
	writeJSON(w, http.StatusOK, ImportResponse{Checksum: snap.Checksum})
}

// GetNav handles GET /api/nav.
//
//	@Summary		List navigation sections
//	@Tags			nav
//	@Produce		json
//	@Success		200	{object}	NavResponse
//	@Router			/nav [get]
func (h *Handler) GetNav(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NavResponse{Sections: h.svc.Nav()})
}

// SetNav handles PUT /api/nav/{page}.
//
//	@Summary		Switch the active section
//	@Tags			nav
//	@Produce		json
//	@Param			page	path		string	true	"Section id"
//	@Success		200		{object}	NavResponse
//	@Failure		404		{object}	errResponse
//	@Router			/nav/{page} [put]
func (h *Handler) SetNav(w http.ResponseWriter, r *http.Request) {
	sections, err := h.svc.Activate(chi.URLParam(r, "page"))
	if err != nil {
		writeError(w, "set nav", err)
		return
	}
	writeJSON(w, http.StatusOK, NavResponse{Sections: sections})
}
