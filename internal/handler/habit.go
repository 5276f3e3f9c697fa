package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rlindsey/tally/internal/apperr"
	"github.com/rlindsey/tally/internal/auth"
	"github.com/rlindsey/tally/internal/habit"
	"github.com/rlindsey/tally/internal/model"
	"github.com/rlindsey/tally/internal/websocket"
)

type HabitHandler struct {
	registry *habit.Registry
	ledger   *habit.Ledger
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewHabitHandler(reg *habit.Registry, ledger *habit.Ledger, hub *websocket.Hub, logger *slog.Logger) *HabitHandler {
	return &HabitHandler{registry: reg, ledger: ledger, hub: hub, logger: logger}
}

func (h *HabitHandler) publish(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Publish(userID, msg)
	}
}

type habitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func validateHabitFields(title, description, color string) string {
	if title == "" || len(title) > 200 {
		return "title must be 1-200 characters"
	}
	if len(description) > 1000 {
		return "description must be at most 1000 characters"
	}
	if color != "" && !colorRe.MatchString(color) {
		return "color must be a hex color like #4285f4"
	}
	return ""
}

func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req habitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if msg := validateHabitFields(req.Title, req.Description, req.Color); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := h.registry.Create(userID, req.Title, req.Description, req.Color)
	if err != nil {
		h.logger.Error("create habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create habit")
		return
	}

	h.publish(userID, websocket.NewMessage("habit", "created", created.ID, nil))

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "habit created successfully",
		"habit":   created,
	})
}

func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	habits, err := h.registry.ListActive(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list habits", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch habits")
		return
	}
	if habits == nil {
		habits = []model.Habit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"habits": habits})
}

type habitUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	IsActive    *bool   `json:"is_active"`
}

func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req habitUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" || len(trimmed) > 200 {
			writeError(w, http.StatusBadRequest, "title must be 1-200 characters")
			return
		}
		req.Title = &trimmed
	}
	if req.Description != nil && len(*req.Description) > 1000 {
		writeError(w, http.StatusBadRequest, "description must be at most 1000 characters")
		return
	}
	if req.Color != nil && !colorRe.MatchString(*req.Color) {
		writeError(w, http.StatusBadRequest, "color must be a hex color like #4285f4")
		return
	}

	updated, err := h.registry.Update(userID, id, model.HabitUpdate{
		Title:       req.Title,
		Description: req.Description,
		Color:       req.Color,
		IsActive:    req.IsActive,
	})
	switch {
	case apperr.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	case apperr.IsNotFound(err):
		writeError(w, http.StatusNotFound, "habit not found")
		return
	case err != nil:
		h.logger.Error("update habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update habit")
		return
	}

	h.publish(userID, websocket.NewMessage("habit", "updated", id, nil))

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "habit updated successfully",
		"habit":   updated,
	})
}

// Delete soft-deletes: the habit is marked inactive and its completion
// history is preserved.
func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	err = h.registry.Deactivate(userID, id)
	switch {
	case apperr.IsNotFound(err):
		writeError(w, http.StatusNotFound, "habit not found")
		return
	case err != nil:
		h.logger.Error("deactivate habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete habit")
		return
	}

	h.publish(userID, websocket.NewMessage("habit", "deleted", id, nil))

	writeJSON(w, http.StatusOK, map[string]string{"message": "habit deleted successfully"})
}

// Get returns a habit, inactive ones included, with its last 30 days of
// completions.
func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	found, err := h.registry.Get(userID, id)
	switch {
	case apperr.IsNotFound(err):
		writeError(w, http.StatusNotFound, "habit not found")
		return
	case err != nil:
		h.logger.Error("get habit", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch habit details")
		return
	}

	recent, err := h.ledger.RecentCompletions(userID, id, 30)
	if err != nil {
		h.logger.Error("recent completions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch habit details")
		return
	}
	if recent == nil {
		recent = []model.Completion{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"habit": struct {
			*model.Habit
			RecentCompletions []model.Completion `json:"recentCompletions"`
		}{found, recent},
	})
}
