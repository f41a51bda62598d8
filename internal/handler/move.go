package handler

import (
	"log/slog"
	"net/http"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/httputil"
)

// MoveHandler exposes the move/merge engine.
type MoveHandler struct {
	tree   services.TreeService
	logger *slog.Logger
}

func NewMoveHandler(tree services.TreeService, logger *slog.Logger) *MoveHandler {
	return &MoveHandler{tree: tree, logger: logger}
}

// CheckConflicts dry-runs a move and reports the name collisions it would
// hit, so the client can ask the user for resolutions first.
// POST /api/move/check
func (h *MoveHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	var req services.MoveRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	report, err := h.tree.CheckConflicts(r.Context(), claims.UserID, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, report)
}

// Move executes a batch move with the supplied per-name resolutions.
// POST /api/move
func (h *MoveHandler) Move(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	var req services.MoveRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, res := range req.Resolutions {
		switch res {
		case services.ResolutionSkip, services.ResolutionMerge, services.ResolutionOverwrite, services.ResolutionRename:
		default:
			httputil.RespondError(w, http.StatusBadRequest, "unknown resolution "+string(res))
			return
		}
	}
	report, err := h.tree.Move(r.Context(), claims.UserID, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, report)
}
