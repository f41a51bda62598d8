package handler

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/httputil"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

// FileHandler handles file upload, download and management.
type FileHandler struct {
	files  services.FileService
	logger *slog.Logger
}

func NewFileHandler(files services.FileService, logger *slog.Logger) *FileHandler {
	return &FileHandler{files: files, logger: logger}
}

// Upload accepts a multipart request and streams each file part to the
// active storage backend without buffering it. A "folder_id" field, when
// present, must precede the file parts.
// POST /api/files
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	reader, err := r.MultipartReader()
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "expected multipart request")
		return
	}

	var folderID int64
	var caption string
	var uploaded []*models.File
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "malformed multipart body")
			return
		}

		if part.FormName() == "folder_id" {
			raw, err := io.ReadAll(io.LimitReader(part, 32))
			if err != nil {
				httputil.RespondError(w, http.StatusBadRequest, "invalid folder_id field")
				return
			}
			if folderID, err = strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64); err != nil {
				httputil.RespondError(w, http.StatusBadRequest, "invalid folder_id field")
				return
			}
			continue
		}
		if part.FormName() == "caption" {
			raw, err := io.ReadAll(io.LimitReader(part, 1024))
			if err != nil {
				httputil.RespondError(w, http.StatusBadRequest, "invalid caption field")
				return
			}
			caption = strings.TrimSpace(string(raw))
			continue
		}
		if part.FileName() == "" {
			continue
		}

		mimetype := part.Header.Get("Content-Type")
		if mimetype == "" {
			mimetype = "application/octet-stream"
		}
		file, err := h.files.Upload(r.Context(), claims.UserID, part, &services.UploadFileRequest{
			FileName: part.FileName(),
			Mimetype: mimetype,
			FolderID: folderID,
			Size:     -1,
			Caption:  caption,
		}, claims.UnlockedSet())
		if err != nil {
			part.Close()
			handleError(w, h.logger, err)
			return
		}
		uploaded = append(uploaded, file)
	}

	if len(uploaded) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "no file parts in request")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, map[string]interface{}{"files": uploaded})
}

// Get returns file metadata.
// GET /api/files/{id}
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	file, err := h.files.Get(r.Context(), claims.UserID, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, file)
}

// Download serves the file content: a redirect when the backend exposes a
// direct URL, a stream otherwise. Single byte ranges are honored.
// GET /api/files/{id}/download
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
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
	result, err := h.files.Download(r.Context(), claims.UserID, id, claims.UnlockedSet(), rng)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	serveDownload(w, r, result, rng)
}

// Rename renames a file within its folder.
// PATCH /api/files/{id}
func (h *FileHandler) Rename(w http.ResponseWriter, r *http.Request) {
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
	file, err := h.files.Rename(r.Context(), claims.UserID, id, req.Name)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, file)
}

// Delete removes a batch of files.
// POST /api/files/delete
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	var req struct {
		MessageIDs []int64 `json:"message_ids"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.MessageIDs) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "message_ids is required")
		return
	}
	report, err := h.files.Delete(r.Context(), claims.UserID, req.MessageIDs)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, report)
}

// parseRangeHeader parses a single "bytes=start-end" range. Multi-range and
// suffix requests are not supported and fall back to a full response.
func parseRangeHeader(header string) (*storage.Range, error) {
	if header == "" {
		return nil, nil
	}
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") || strings.HasPrefix(spec, "-") {
		return nil, nil
	}
	start, end, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, fmt.Errorf("malformed range %q", header)
	}
	offset, err := strconv.ParseInt(start, 10, 64)
	if err != nil || offset < 0 {
		return nil, fmt.Errorf("malformed range %q", header)
	}
	rng := &storage.Range{Offset: offset}
	if end != "" {
		last, err := strconv.ParseInt(end, 10, 64)
		if err != nil || last < offset {
			return nil, fmt.Errorf("malformed range %q", header)
		}
		rng.Length = last - offset + 1
	}
	return rng, nil
}

// serveDownload writes a download result: redirect, full body or partial
// content. The stream is always closed here.
func serveDownload(w http.ResponseWriter, r *http.Request, result *services.DownloadResult, rng *storage.Range) {
	if result.URL != "" {
		http.Redirect(w, r, result.URL, http.StatusFound)
		return
	}
	defer result.Body.Close()

	mimetype := result.File.Mimetype
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimetype)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.File.FileName}))
	w.Header().Set("Accept-Ranges", "bytes")

	if rng != nil {
		end := rng.Offset + result.Size - 1
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.Offset, end, result.File.Size))
		w.Header().Set("Content-Length", strconv.FormatInt(result.Size, 10))
		w.WriteHeader(http.StatusPartialContent)
	} else if result.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(result.Size, 10))
	}
	io.Copy(w, result.Body)
}
