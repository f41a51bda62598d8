package handler

import (
	"log/slog"
	"net/http"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/auth"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/httputil"
)

// FolderHandler handles folder HTTP requests.
type FolderHandler struct {
	folders  services.FolderService
	tree     services.TreeService
	users    services.UserService
	sessions *auth.SessionManager
	logger   *slog.Logger
}

func NewFolderHandler(folders services.FolderService, tree services.TreeService, users services.UserService, sessions *auth.SessionManager, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{folders: folders, tree: tree, users: users, sessions: sessions, logger: logger}
}

// Create creates a folder.
// POST /api/folders
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	var req services.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	folder, err := h.folders.Create(r.Context(), claims.UserID, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// Contents lists a folder with its children. Folder id 0 is the root.
// GET /api/folders/{id}
func (h *FolderHandler) Contents(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	contents, err := h.folders.Contents(r.Context(), claims.UserID, id, claims.UnlockedSet())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, contents)
}

// Rename renames a folder.
// PATCH /api/folders/{id}
func (h *FolderHandler) Rename(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	folder, err := h.folders.Rename(r.Context(), claims.UserID, id, req.Name)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, folder)
}

// Delete removes a folder. With ?recursive=true the whole subtree goes,
// physical objects included; without it only an empty folder is accepted.
// DELETE /api/folders/{id}
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.URL.Query().Get("recursive") == "true" {
		err = h.tree.DeleteFolderRecursive(r.Context(), claims.UserID, id)
	} else {
		err = h.folders.Delete(r.Context(), claims.UserID, id)
	}
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Descendants returns the folder's id plus every folder id under it.
// GET /api/folders/{id}/descendants
func (h *FolderHandler) Descendants(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ids, err := h.tree.DescendantIDs(r.Context(), claims.UserID, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"folder_ids": ids})
}

type lockRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"new_password,omitempty"`
}

// Lock puts a password on a folder.
// POST /api/folders/{id}/lock
func (h *FolderHandler) Lock(w http.ResponseWriter, r *http.Request) {
	h.lockOp(w, r, func(claims *auth.SessionClaims, id int64, req *lockRequest) error {
		return h.folders.Lock(r.Context(), claims.UserID, id, req.Password)
	})
}

// Unlock verifies the folder password and reissues the session token with
// the folder added to its unlocked set.
// POST /api/folders/{id}/unlock
func (h *FolderHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req lockRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.folders.Unlock(r.Context(), claims.UserID, id, req.Password); err != nil {
		handleError(w, h.logger, err)
		return
	}
	user, err := h.users.Get(r.Context(), claims.UserID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	token, err := h.sessions.Extend(claims, user, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ChangePassword swaps the lock password.
// POST /api/folders/{id}/password
func (h *FolderHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	h.lockOp(w, r, func(claims *auth.SessionClaims, id int64, req *lockRequest) error {
		return h.folders.ChangePassword(r.Context(), claims.UserID, id, req.Password, req.NewPassword)
	})
}

// RemoveLock clears the lock.
// DELETE /api/folders/{id}/lock
func (h *FolderHandler) RemoveLock(w http.ResponseWriter, r *http.Request) {
	h.lockOp(w, r, func(claims *auth.SessionClaims, id int64, req *lockRequest) error {
		return h.folders.RemoveLock(r.Context(), claims.UserID, id, req.Password)
	})
}

func (h *FolderHandler) lockOp(w http.ResponseWriter, r *http.Request, op func(*auth.SessionClaims, int64, *lockRequest) error) {
	claims := httputil.GetClaims(r)
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req lockRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := op(claims, id, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
