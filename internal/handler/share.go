package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/httputil"
)

// ShareHandler manages share tokens and the public routes they unlock.
type ShareHandler struct {
	shares services.ShareService
	files  services.FileService
	logger *slog.Logger
}

func NewShareHandler(shares services.ShareService, files services.FileService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{shares: shares, files: files, logger: logger}
}

// Create publishes a file or folder under a new token.
// POST /api/shares
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	var req struct {
		ItemID        int64  `json:"item_id"`
		Type          string `json:"type"`
		ExpiresInSecs *int64 `json:"expires_in_secs"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	create := &services.CreateShareRequest{ItemID: req.ItemID, Type: req.Type}
	if req.ExpiresInSecs != nil {
		if *req.ExpiresInSecs <= 0 {
			httputil.RespondError(w, http.StatusBadRequest, "expires_in_secs must be positive")
			return
		}
		ttl := time.Duration(*req.ExpiresInSecs) * time.Second
		create.TTL = &ttl
	}
	share, err := h.shares.Create(r.Context(), claims.UserID, create)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, share)
}

// List returns the caller's shares.
// GET /api/shares
func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	shares, err := h.shares.List(r.Context(), claims.UserID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"shares": shares})
}

// Revoke deletes a share token.
// DELETE /api/shares/{id}
func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.shares.Revoke(r.Context(), claims.UserID, id); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resolve returns the shared item behind a token. Unauthenticated.
// GET /public/shares/{token}
func (h *ShareHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	resolved, err := h.shares.Resolve(r.Context(), r.PathValue("token"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resolved)
}

// BrowseFolder lists a folder inside a folder share. Unauthenticated.
// GET /public/shares/{token}/folders/{id}
func (h *ShareHandler) BrowseFolder(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	contents, err := h.shares.ListFolder(r.Context(), r.PathValue("token"), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, contents)
}

// DownloadFile serves a file reachable through a share. Unauthenticated.
// GET /public/shares/{token}/files/{id}/download
func (h *ShareHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rng, err := parseRangeHeader(r.Header.Get("Range"))
	if err != nil {
		httputil.RespondError(w, http.StatusRequestedRangeNotSatisfiable, err.Error())
		return
	}
	file, err := h.shares.ResolveFile(r.Context(), r.PathValue("token"), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	result, err := h.files.Open(r.Context(), file, rng)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	serveDownload(w, r, result, rng)
}
