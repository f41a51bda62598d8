package handler

import (
	"log/slog"
	"net/http"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/httputil"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage/selector"
)

// StorageHandler exposes the storage selector configuration. Admin only:
// the config carries backend credentials.
type StorageHandler struct {
	manager *selector.Manager
	logger  *slog.Logger
}

func NewStorageHandler(manager *selector.Manager, logger *slog.Logger) *StorageHandler {
	return &StorageHandler{manager: manager, logger: logger}
}

// Get returns the current storage configuration document.
// GET /api/admin/storage
func (h *StorageHandler) Get(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.manager.Current())
}

// Update replaces the storage configuration. The new active backend must
// construct cleanly before anything is persisted; rows written under the old
// mode keep resolving through their recorded backend either way.
// PUT /api/admin/storage
func (h *StorageHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cfg selector.Config
	if err := httputil.ParseJSON(w, r, &cfg); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.manager.SetConfig(r.Context(), cfg); err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.logger.Info("storage configuration updated", "mode", h.manager.Mode())
	httputil.RespondJSON(w, http.StatusOK, h.manager.Current())
}
