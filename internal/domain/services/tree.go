package services

import (
	"context"
)

// Resolution is the caller-supplied policy for one conflicting item name.
type Resolution string

const (
	ResolutionSkip      Resolution = "skip"
	ResolutionMerge     Resolution = "merge"     // folders only
	ResolutionOverwrite Resolution = "overwrite" // replace the destination item
	ResolutionRename    Resolution = "rename"    // files only
)

// MoveRequest moves a batch of files and folders into a target folder.
// Resolutions is keyed by the display name of the conflicting item.
type MoveRequest struct {
	FileIDs        []int64               `json:"file_ids"`
	FolderIDs      []int64               `json:"folder_ids"`
	TargetFolderID int64                 `json:"target_folder_id"`
	Resolutions    map[string]Resolution `json:"resolutions"`
}

// MoveReport tallies what happened to each item in a batch move. Items are
// processed independently: one failure never aborts the rest.
type MoveReport struct {
	Moved       int      `json:"moved"`
	Skipped     int      `json:"skipped"`
	Merged      int      `json:"merged"`
	Overwritten int      `json:"overwritten"`
	Renamed     int      `json:"renamed"`
	Errors      int      `json:"errors"`
	Failures    []string `json:"failures,omitempty"`
}

// ConflictReport lists the item names that collide with the target folder's
// children, flattened across the folder-merge recursion.
type ConflictReport struct {
	FileConflicts   []string `json:"fileConflicts"`
	FolderConflicts []string `json:"folderConflicts"`
}

// Empty reports whether no conflicts were found.
func (r *ConflictReport) Empty() bool {
	return len(r.FileConflicts) == 0 && len(r.FolderConflicts) == 0
}

// TreeService is the move/merge/delete engine operating on one user's tree.
type TreeService interface {
	// CheckConflicts reports name collisions the given move would hit,
	// recursing into same-named folders so nested conflicts surface before
	// anything is committed.
	CheckConflicts(ctx context.Context, userID int64, req *MoveRequest) (*ConflictReport, error)

	// Move executes a batch move applying the request's resolutions.
	Move(ctx context.Context, userID int64, req *MoveRequest) (*MoveReport, error)

	// DescendantIDs returns the folder's id plus every transitively
	// contained folder id. Callers use it to disable a folder's own
	// subtree when offering move destinations.
	DescendantIDs(ctx context.Context, userID, folderID int64) ([]int64, error)

	// DeleteFolderRecursive removes a folder and its entire subtree:
	// physical objects best-effort first, then every catalog row in one
	// transaction.
	DeleteFolderRecursive(ctx context.Context, userID, folderID int64) error
}
