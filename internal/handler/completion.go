package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rlindsey/tally/internal/apperr"
	"github.com/rlindsey/tally/internal/auth"
	"github.com/rlindsey/tally/internal/habit"
	"github.com/rlindsey/tally/internal/model"
	"github.com/rlindsey/tally/internal/stats"
	"github.com/rlindsey/tally/internal/websocket"
)

type CompletionHandler struct {
	ledger *habit.Ledger
	stats  *stats.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewCompletionHandler(ledger *habit.Ledger, st *stats.Service, hub *websocket.Hub, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{ledger: ledger, stats: st, hub: hub, logger: logger}
}

func (h *CompletionHandler) publish(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Publish(userID, msg)
	}
}

type completionRequest struct {
	Date string `json:"date"`
}

// Mark records a completion for a day. Marking the same day twice is a
// no-op that still reports success.
func (h *CompletionHandler) Mark(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	created, err := h.ledger.MarkComplete(userID, id, req.Date)
	switch {
	case apperr.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case apperr.IsNotFound(err):
		writeError(w, http.StatusNotFound, "habit not found")
		return
	case err != nil:
		h.logger.Error("mark complete", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to mark habit as completed")
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, map[string]string{"message": "habit already completed for this date"})
		return
	}

	h.publish(userID, websocket.NewMessage("completion", "marked", id, map[string]any{"date": req.Date}))

	writeJSON(w, http.StatusOK, map[string]string{"message": "habit marked as completed"})
}

// Unmark removes a day's completion. The habit may already be inactive.
func (h *CompletionHandler) Unmark(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	err = h.ledger.UnmarkComplete(userID, id, req.Date)
	switch {
	case apperr.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case apperr.IsNotFound(err):
		writeError(w, http.StatusNotFound, "no completion found for this date")
		return
	case err != nil:
		h.logger.Error("unmark complete", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove habit completion")
		return
	}

	h.publish(userID, websocket.NewMessage("completion", "unmarked", id, map[string]any{"date": req.Date}))

	writeJSON(w, http.StatusOK, map[string]string{"message": "habit completion removed"})
}

// ListByHabit returns one habit's completions in a date range, defaulting
// to the current year so far.
func (h *CompletionHandler) ListByHabit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	dates, err := h.stats.PerHabit(userID, id, r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	switch {
	case apperr.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case apperr.IsNotFound(err):
		writeError(w, http.StatusNotFound, "habit not found")
		return
	case err != nil:
		h.logger.Error("list completions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch completions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"completions": dates})
}

// Heatmap returns per-day completion buckets across all active habits,
// defaulting to the current year so far.
func (h *CompletionHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	buckets, err := h.stats.Heatmap(userID, r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	switch {
	case apperr.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("heatmap", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch completions")
		return
	}
	if buckets == nil {
		buckets = []model.DateBucket{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"completions": buckets})
}
