package handler

import (
	"log/slog"
	"net/http"

	"github.com/rlindsey/tally/internal/auth"
	"github.com/rlindsey/tally/internal/stats"
)

type StatsHandler struct {
	stats  *stats.Service
	logger *slog.Logger
}

func NewStatsHandler(st *stats.Service, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: st, logger: logger}
}

func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.stats.Summary(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch statistics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": summary})
}
