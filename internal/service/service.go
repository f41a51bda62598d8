// Package service implements the application services on top of the
// repository and storage layers. Services own the catalog/physical ordering
// rules: uploads write bytes before rows, deletions remove bytes before rows,
// and a physical failure during deletion is logged loudly while the catalog
// cleanup proceeds anyway.
package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/repositories"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

// BackendResolver hands out storage backends. The selector manager satisfies
// it; tests substitute fakes.
type BackendResolver interface {
	// Active returns the backend new uploads go to.
	Active(ctx context.Context) (storage.Backend, error)
	// ForType returns the backend for rows stored under t.
	ForType(ctx context.Context, t storage.Type) (storage.Backend, error)
}

// nameInUse reports whether any item in the parent folder already carries
// the name. Files and folders share one namespace per parent, so both
// tables are consulted.
func nameInUse(ctx context.Context, files repositories.FileRepository, folders repositories.FolderRepository, userID, parentID int64, name string) (bool, error) {
	f, err := files.GetByNameAndFolder(ctx, userID, name, parentID)
	if err != nil {
		return false, err
	}
	if f != nil {
		return true, nil
	}
	fo, err := folders.GetByNameAndParent(ctx, userID, name, parentID)
	if err != nil {
		return false, err
	}
	return fo != nil, nil
}

// splitExt splits a display name into stem and extension, keeping the dot
// with the extension. Dotfiles like ".env" count as all stem.
func splitExt(name string) (stem, ext string) {
	ext = path.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

// numberedName produces the n-th rename candidate for a taken name:
// "report.txt" becomes "report (1).txt", "report (2).txt" and so on.
func numberedName(name string, n int) string {
	stem, ext := splitExt(name)
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}
