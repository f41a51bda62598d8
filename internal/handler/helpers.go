package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/httputil"
)

// handleError maps domain errors to HTTP status codes. Conflicts carry the
// clashing item in the problem document so clients can offer resolutions.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var conflict *domain.ConflictError
	var backend *domain.BackendError

	switch {
	case errors.As(err, &conflict):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflict.Message, map[string]interface{}{
			"item_type": conflict.ItemType,
			"item_name": conflict.ItemName,
		})
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPreconditionFailed):
		httputil.RespondError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, "forbidden")
	case errors.As(err, &backend):
		logger.Error("storage backend error", "backend", backend.Backend, "op", backend.Op, "error", backend.Err)
		httputil.RespondError(w, http.StatusBadGateway, "storage backend unavailable")
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
