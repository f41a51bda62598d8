package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/repositories"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage/local"
)

// TreeService implements the move/merge/delete engine. Batch items are
// processed independently; the report carries per-item outcomes and failures
// never roll back earlier items.
type TreeService struct {
	folders  repositories.FolderRepository
	files    repositories.FileRepository
	backends BackendResolver
	tx       repositories.TransactionManager
	logger   *slog.Logger
}

var _ services.TreeService = (*TreeService)(nil)

func NewTreeService(
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	backends BackendResolver,
	tx repositories.TransactionManager,
	logger *slog.Logger,
) *TreeService {
	return &TreeService{
		folders:  folders,
		files:    files,
		backends: backends,
		tx:       tx,
		logger:   logger.With("service", "tree"),
	}
}

// DescendantIDs returns folderID plus every folder id transitively under it,
// computed with an iterative breadth-first walk.
func (s *TreeService) DescendantIDs(ctx context.Context, userID, folderID int64) ([]int64, error) {
	if _, err := s.folders.GetByID(ctx, folderID, userID); err != nil {
		return nil, err
	}

	ids := []int64{folderID}
	seen := map[int64]bool{folderID: true}
	queue := []int64{folderID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := s.folders.ListChildren(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			ids = append(ids, c.ID)
			queue = append(queue, c.ID)
		}
	}
	return ids, nil
}

// CheckConflicts reports every name collision the move would run into,
// recursing into same-named folder pairs so nested clashes surface up front.
func (s *TreeService) CheckConflicts(ctx context.Context, userID int64, req *services.MoveRequest) (*services.ConflictReport, error) {
	target, err := s.folders.GetByID(ctx, req.TargetFolderID, userID)
	if err != nil {
		return nil, err
	}

	report := &services.ConflictReport{}
	seenFile := map[string]bool{}
	seenFolder := map[string]bool{}
	addFile := func(name string) {
		if !seenFile[name] {
			seenFile[name] = true
			report.FileConflicts = append(report.FileConflicts, name)
		}
	}
	addFolder := func(name string) {
		if !seenFolder[name] {
			seenFolder[name] = true
			report.FolderConflicts = append(report.FolderConflicts, name)
		}
	}

	for _, id := range req.FileIDs {
		f, err := s.files.GetByID(ctx, id, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if f.FolderID == target.ID {
			continue
		}
		taken, err := s.nameTaken(ctx, userID, target.ID, f.FileName)
		if err != nil {
			return nil, err
		}
		if taken {
			addFile(f.FileName)
		}
	}

	for _, id := range req.FolderIDs {
		fo, err := s.folders.GetByID(ctx, id, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if fo.ParentID != nil && *fo.ParentID == target.ID {
			continue
		}
		if err := s.folderConflicts(ctx, userID, fo, target.ID, addFile, addFolder); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (s *TreeService) folderConflicts(ctx context.Context, userID int64, src *models.Folder, targetID int64, addFile, addFolder func(string)) error {
	dupFile, err := s.files.GetByNameAndFolder(ctx, userID, src.Name, targetID)
	if err != nil {
		return err
	}
	if dupFile != nil {
		addFolder(src.Name)
		return nil
	}
	dupFolder, err := s.folders.GetByNameAndParent(ctx, userID, src.Name, targetID)
	if err != nil {
		return err
	}
	if dupFolder == nil {
		return nil
	}
	addFolder(src.Name)

	// Same-named folder on both sides: a merge would descend, so check the
	// children against each other too.
	childFiles, err := s.files.ListByFolder(ctx, src.ID, userID)
	if err != nil {
		return err
	}
	for i := range childFiles {
		taken, err := s.nameTaken(ctx, userID, dupFolder.ID, childFiles[i].FileName)
		if err != nil {
			return err
		}
		if taken {
			addFile(childFiles[i].FileName)
		}
	}
	childFolders, err := s.folders.ListChildren(ctx, src.ID, userID)
	if err != nil {
		return err
	}
	for i := range childFolders {
		if err := s.folderConflicts(ctx, userID, &childFolders[i], dupFolder.ID, addFile, addFolder); err != nil {
			return err
		}
	}
	return nil
}

func (s *TreeService) nameTaken(ctx context.Context, userID, folderID int64, name string) (bool, error) {
	return nameInUse(ctx, s.files, s.folders, userID, folderID, name)
}

// Move executes a batch move. Each item is handled on its own: a failure is
// recorded in the report and processing continues with the next item.
func (s *TreeService) Move(ctx context.Context, userID int64, req *services.MoveRequest) (*services.MoveReport, error) {
	target, err := s.folders.GetByID(ctx, req.TargetFolderID, userID)
	if err != nil {
		return nil, err
	}

	rep := &services.MoveReport{}
	for _, id := range req.FileIDs {
		f, err := s.files.GetByID(ctx, id, userID)
		if err != nil {
			s.recordFailure(rep, fmt.Sprintf("file %d", id), err)
			continue
		}
		if f.FolderID == target.ID {
			rep.Skipped++
			continue
		}
		if err := s.moveFile(ctx, userID, f, target, req.Resolutions, "", rep); err != nil {
			s.recordFailure(rep, f.FileName, err)
		}
	}
	for _, id := range req.FolderIDs {
		fo, err := s.folders.GetByID(ctx, id, userID)
		if err != nil {
			s.recordFailure(rep, fmt.Sprintf("folder %d", id), err)
			continue
		}
		if fo.ParentID != nil && *fo.ParentID == target.ID {
			rep.Skipped++
			continue
		}
		if err := s.moveFolder(ctx, userID, fo, target, req.Resolutions, "", rep); err != nil {
			s.recordFailure(rep, fo.Name, err)
		}
	}
	return rep, nil
}

func (s *TreeService) recordFailure(rep *services.MoveReport, name string, err error) {
	rep.Errors++
	rep.Failures = append(rep.Failures, fmt.Sprintf("%s: %v", name, err))
	s.logger.Warn("move item failed", "item", name, "error", err)
}

// fallback is the resolution applied when the map has no entry for the item:
// empty at the top level (unresolved conflicts are errors), skip for files
// and merge for folders when descending inside a merge.
func resolutionFor(res map[string]services.Resolution, name string, fallback services.Resolution) services.Resolution {
	if r, ok := res[name]; ok {
		return r
	}
	return fallback
}

func (s *TreeService) moveFile(ctx context.Context, userID int64, f *models.File, target *models.Folder, res map[string]services.Resolution, fallback services.Resolution, rep *services.MoveReport) error {
	dupFile, err := s.files.GetByNameAndFolder(ctx, userID, f.FileName, target.ID)
	if err != nil {
		return err
	}
	dupFolder, err := s.folders.GetByNameAndParent(ctx, userID, f.FileName, target.ID)
	if err != nil {
		return err
	}
	if dupFile == nil && dupFolder == nil {
		f.FolderID = target.ID
		if err := s.files.Update(ctx, f); err != nil {
			return err
		}
		rep.Moved++
		return nil
	}

	switch resolutionFor(res, f.FileName, fallback) {
	case services.ResolutionSkip:
		rep.Skipped++
		return nil
	case services.ResolutionOverwrite:
		if dupFolder != nil {
			return &domain.ConflictError{Message: "a folder with this name exists at the destination", ItemType: "file", ItemName: f.FileName}
		}
		removeFilesPhysical(ctx, s.backends, s.logger, []models.File{*dupFile})
		if err := s.files.Delete(ctx, dupFile.MessageID, userID); err != nil {
			return err
		}
		f.FolderID = target.ID
		if err := s.files.Update(ctx, f); err != nil {
			return err
		}
		rep.Overwritten++
		return nil
	case services.ResolutionRename:
		name, err := s.availableName(ctx, userID, target.ID, f.FileName)
		if err != nil {
			return err
		}
		f.FileName = name
		f.FolderID = target.ID
		if err := s.files.Update(ctx, f); err != nil {
			return err
		}
		rep.Renamed++
		return nil
	default:
		return &domain.ConflictError{Message: "unresolved name conflict", ItemType: "file", ItemName: f.FileName}
	}
}

func (s *TreeService) moveFolder(ctx context.Context, userID int64, fo *models.Folder, target *models.Folder, res map[string]services.Resolution, fallback services.Resolution, rep *services.MoveReport) error {
	if fo.IsRoot() {
		return fmt.Errorf("%w: the root folder cannot be moved", domain.ErrPreconditionFailed)
	}
	if fo.ID == target.ID {
		return fmt.Errorf("%w: cannot move a folder into itself", domain.ErrPreconditionFailed)
	}
	desc, err := s.DescendantIDs(ctx, userID, fo.ID)
	if err != nil {
		return err
	}
	for _, id := range desc {
		if id == target.ID {
			return fmt.Errorf("%w: cannot move a folder into its own subtree", domain.ErrPreconditionFailed)
		}
	}

	dupFile, err := s.files.GetByNameAndFolder(ctx, userID, fo.Name, target.ID)
	if err != nil {
		return err
	}
	if dupFile != nil {
		if resolutionFor(res, fo.Name, fallback) == services.ResolutionSkip {
			rep.Skipped++
			return nil
		}
		return &domain.ConflictError{Message: "a file with this name exists at the destination", ItemType: "folder", ItemName: fo.Name}
	}
	dupFolder, err := s.folders.GetByNameAndParent(ctx, userID, fo.Name, target.ID)
	if err != nil {
		return err
	}
	if dupFolder == nil {
		pid := target.ID
		fo.ParentID = &pid
		if err := s.folders.Update(ctx, fo); err != nil {
			return err
		}
		rep.Moved++
		return nil
	}

	switch resolutionFor(res, fo.Name, fallback) {
	case services.ResolutionSkip:
		rep.Skipped++
		return nil
	case services.ResolutionOverwrite:
		if err := s.DeleteFolderRecursive(ctx, userID, dupFolder.ID); err != nil {
			return err
		}
		pid := target.ID
		fo.ParentID = &pid
		if err := s.folders.Update(ctx, fo); err != nil {
			return err
		}
		rep.Overwritten++
		return nil
	case services.ResolutionMerge:
		if err := s.mergeFolder(ctx, userID, fo, dupFolder, res, rep); err != nil {
			return err
		}
		rep.Merged++
		return nil
	default:
		return &domain.ConflictError{Message: "unresolved name conflict", ItemType: "folder", ItemName: fo.Name}
	}
}

// mergeFolder moves every child of src into dst, then drops the emptied src
// shell. Nested conflicts follow the same resolution map; children without an
// entry default to skip for files and merge for folders.
func (s *TreeService) mergeFolder(ctx context.Context, userID int64, src, dst *models.Folder, res map[string]services.Resolution, rep *services.MoveReport) error {
	childFiles, err := s.files.ListByFolder(ctx, src.ID, userID)
	if err != nil {
		return err
	}
	for i := range childFiles {
		if err := s.moveFile(ctx, userID, &childFiles[i], dst, res, services.ResolutionSkip, rep); err != nil {
			s.recordFailure(rep, childFiles[i].FileName, err)
		}
	}
	childFolders, err := s.folders.ListChildren(ctx, src.ID, userID)
	if err != nil {
		return err
	}
	for i := range childFolders {
		if err := s.moveFolder(ctx, userID, &childFolders[i], dst, res, services.ResolutionMerge, rep); err != nil {
			s.recordFailure(rep, childFolders[i].Name, err)
		}
	}

	// Skipped children stay behind, in which case the source shell stays too.
	nFiles, err := s.files.CountByFolder(ctx, src.ID, userID)
	if err != nil {
		return err
	}
	nFolders, err := s.folders.CountChildren(ctx, src.ID, userID)
	if err != nil {
		return err
	}
	if nFiles == 0 && nFolders == 0 {
		return s.folders.Delete(ctx, src.ID, userID)
	}
	return nil
}

func (s *TreeService) availableName(ctx context.Context, userID, folderID int64, name string) (string, error) {
	for n := 1; n < 1000; n++ {
		cand := numberedName(name, n)
		taken, err := s.nameTaken(ctx, userID, folderID, cand)
		if err != nil {
			return "", err
		}
		if !taken {
			return cand, nil
		}
	}
	return "", fmt.Errorf("%w: no free name variant for %q", domain.ErrConflict, name)
}

// DeleteFolderRecursive removes a folder subtree. Physical objects go first,
// best-effort and grouped per backend; the catalog rows are then removed in a
// single transaction so the tree never ends up half-deleted.
func (s *TreeService) DeleteFolderRecursive(ctx context.Context, userID, folderID int64) error {
	fo, err := s.folders.GetByID(ctx, folderID, userID)
	if err != nil {
		return err
	}
	if fo.IsRoot() {
		return fmt.Errorf("%w: the root folder cannot be deleted", domain.ErrPreconditionFailed)
	}

	closure, err := s.DescendantIDs(ctx, userID, folderID)
	if err != nil {
		return err
	}
	files, err := s.files.ListByFolders(ctx, userID, closure)
	if err != nil {
		return err
	}

	hadLocal, _ := removeFilesPhysical(ctx, s.backends, s.logger, files)
	if hadLocal {
		s.removeLocalDir(ctx, userID, fo)
	}

	return s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		if len(files) > 0 {
			ids := make([]int64, len(files))
			for i := range files {
				ids[i] = files[i].MessageID
			}
			if err := s.files.DeleteByIDs(txCtx, userID, ids); err != nil {
				return err
			}
		}
		return s.folders.DeleteByIDs(txCtx, userID, closure)
	})
}

// removeFilesPhysical deletes the physical objects behind the given rows,
// dispatching each on its stored backend type. Failures are logged and leave
// orphaned objects; the catalog cleanup must not be blocked by them. Reports
// whether any of the rows lived on local disk, plus the locators that could
// not be removed.
func removeFilesPhysical(ctx context.Context, backends BackendResolver, logger *slog.Logger, files []models.File) (hadLocal bool, failed []string) {
	groups := map[storage.Type][]storage.RemoveItem{}
	for i := range files {
		t := storage.Type(files[i].StorageType)
		groups[t] = append(groups[t], storage.RemoveItem{
			Locator:   files[i].FileID,
			MessageID: files[i].MessageID,
		})
	}
	for t, items := range groups {
		b, err := backends.ForType(ctx, t)
		if err != nil {
			logger.Error("backend unavailable, leaving objects orphaned",
				"backend", t, "count", len(items), "error", err)
			for _, it := range items {
				failed = append(failed, it.Locator)
			}
			continue
		}
		report := b.Remove(ctx, items)
		for _, fail := range report.Failed {
			logger.Error("physical delete failed, object orphaned",
				"backend", t, "locator", fail.Locator, "error", fail.Err)
			failed = append(failed, fail.Locator)
		}
	}
	_, hadLocal = groups[storage.TypeLocal]
	return hadLocal, failed
}

// removeLocalDir clears the on-disk directory of a deleted folder so empty
// directory trees do not pile up under the user's local root.
func (s *TreeService) removeLocalDir(ctx context.Context, userID int64, fo *models.Folder) {
	b, err := s.backends.ForType(ctx, storage.TypeLocal)
	if err != nil {
		return
	}
	p, err := s.folders.GetPath(ctx, fo.ID, userID)
	if err != nil || p == "" {
		return
	}
	report := b.Remove(ctx, []storage.RemoveItem{{
		Locator: path.Join(local.UserDir(userID), p),
		IsDir:   true,
	}})
	for _, fail := range report.Failed {
		s.logger.Warn("local directory cleanup failed", "locator", fail.Locator, "error", fail.Err)
	}
}
