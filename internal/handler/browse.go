package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/httputil"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/pathcodec"
)

// BrowseHandler serves folder navigation by opaque path token, so folder
// paths never appear verbatim in URLs.
type BrowseHandler struct {
	folders services.FolderService
	codec   *pathcodec.Codec
	logger  *slog.Logger
}

func NewBrowseHandler(folders services.FolderService, codec *pathcodec.Codec, logger *slog.Logger) *BrowseHandler {
	return &BrowseHandler{folders: folders, codec: codec, logger: logger}
}

type browseResponse struct {
	*services.FolderContents
	PathToken string `json:"path_token"`
}

// Browse resolves a path token to a folder and lists it. The empty token
// (?token omitted) is the root.
// GET /api/browse
func (h *BrowseHandler) Browse(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)

	path := ""
	if token := r.URL.Query().Get("token"); token != "" {
		var err error
		if path, err = h.codec.Decode(token); err != nil {
			if errors.Is(err, pathcodec.ErrInvalidToken) {
				httputil.RespondError(w, http.StatusBadRequest, "invalid path token")
				return
			}
			handleError(w, h.logger, err)
			return
		}
	}

	folder, err := h.folders.ByPath(r.Context(), claims.UserID, path)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	contents, err := h.folders.Contents(r.Context(), claims.UserID, folder.ID, claims.UnlockedSet())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, browseResponse{
		FolderContents: contents,
		PathToken:      h.codec.Encode(contents.Path),
	})
}
