package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/repositories"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

// In-memory repository fakes backing the service tests. They mirror the
// postgres implementations' contract: ErrNotFound for missing rows,
// ConflictError on unique violations, (nil, nil) from the name lookups.

type memStore struct {
	folders map[int64]*models.Folder
	files   map[int64]*models.File
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{
		folders: map[int64]*models.Folder{},
		files:   map[int64]*models.File{},
		nextID:  1,
	}
}

func (m *memStore) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memStore) snapshot() *memStore {
	c := &memStore{
		folders: make(map[int64]*models.Folder, len(m.folders)),
		files:   make(map[int64]*models.File, len(m.files)),
		nextID:  m.nextID,
	}
	for k, v := range m.folders {
		f := *v
		c.folders[k] = &f
	}
	for k, v := range m.files {
		f := *v
		c.files[k] = &f
	}
	return c
}

func (m *memStore) restore(s *memStore) {
	m.folders = s.folders
	m.files = s.files
	m.nextID = s.nextID
}

// addRoot seeds a root folder for the user and returns it.
func (m *memStore) addRoot(userID int64) *models.Folder {
	f := &models.Folder{ID: m.id(), Name: "root", UserID: userID}
	m.folders[f.ID] = f
	return f
}

func (m *memStore) addFolder(userID, parentID int64, name string) *models.Folder {
	f := &models.Folder{ID: m.id(), Name: name, ParentID: &parentID, UserID: userID}
	m.folders[f.ID] = f
	return f
}

func (m *memStore) addFile(userID, folderID int64, name, storageType, locator string) *models.File {
	f := &models.File{
		MessageID:   m.id(),
		FileName:    name,
		Mimetype:    "application/octet-stream",
		FileID:      locator,
		FolderID:    folderID,
		UserID:      userID,
		StorageType: storageType,
	}
	m.files[f.MessageID] = f
	return f
}

type fakeFolderRepo struct {
	store     *memStore
	failCount int // fail the next N mutating calls
}

func (r *fakeFolderRepo) mutate() error {
	if r.failCount > 0 {
		r.failCount--
		return errors.New("forced folder repo failure")
	}
	return nil
}

func (r *fakeFolderRepo) dup(f *models.Folder) bool {
	for _, other := range r.store.folders {
		if other.ID == f.ID || other.UserID != f.UserID || other.Name != f.Name {
			continue
		}
		if (other.ParentID == nil) != (f.ParentID == nil) {
			continue
		}
		if other.ParentID == nil || *other.ParentID == *f.ParentID {
			return true
		}
	}
	return false
}

func (r *fakeFolderRepo) Create(ctx context.Context, folder *models.Folder) error {
	if err := r.mutate(); err != nil {
		return err
	}
	if r.dup(folder) {
		return &domain.ConflictError{Message: "folder already exists", ItemType: "folder", ItemName: folder.Name}
	}
	folder.ID = r.store.id()
	cp := *folder
	r.store.folders[folder.ID] = &cp
	return nil
}

func (r *fakeFolderRepo) GetByID(ctx context.Context, id, userID int64) (*models.Folder, error) {
	f, ok := r.store.folders[id]
	if !ok || f.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFolderRepo) GetRoot(ctx context.Context, userID int64) (*models.Folder, error) {
	for _, f := range r.store.folders {
		if f.UserID == userID && f.ParentID == nil {
			cp := *f
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeFolderRepo) GetByNameAndParent(ctx context.Context, userID int64, name string, parentID int64) (*models.Folder, error) {
	for _, f := range r.store.folders {
		if f.UserID == userID && f.Name == name && f.ParentID != nil && *f.ParentID == parentID {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFolderRepo) Update(ctx context.Context, folder *models.Folder) error {
	if err := r.mutate(); err != nil {
		return err
	}
	if _, ok := r.store.folders[folder.ID]; !ok {
		return domain.ErrNotFound
	}
	if r.dup(folder) {
		return &domain.ConflictError{Message: "folder already exists", ItemType: "folder", ItemName: folder.Name}
	}
	cp := *folder
	r.store.folders[folder.ID] = &cp
	return nil
}

func (r *fakeFolderRepo) Delete(ctx context.Context, id, userID int64) error {
	if err := r.mutate(); err != nil {
		return err
	}
	f, ok := r.store.folders[id]
	if !ok || f.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.store.folders, id)
	return nil
}

func (r *fakeFolderRepo) DeleteByIDs(ctx context.Context, userID int64, ids []int64) error {
	if err := r.mutate(); err != nil {
		return err
	}
	for _, id := range ids {
		if f, ok := r.store.folders[id]; ok && f.UserID == userID {
			delete(r.store.folders, id)
		}
	}
	return nil
}

func (r *fakeFolderRepo) ListChildren(ctx context.Context, parentID, userID int64) ([]models.Folder, error) {
	var out []models.Folder
	for _, f := range r.store.folders {
		if f.UserID == userID && f.ParentID != nil && *f.ParentID == parentID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFolderRepo) CountChildren(ctx context.Context, parentID, userID int64) (int64, error) {
	children, _ := r.ListChildren(ctx, parentID, userID)
	return int64(len(children)), nil
}

func (r *fakeFolderRepo) GetPath(ctx context.Context, id, userID int64) (string, error) {
	f, ok := r.store.folders[id]
	if !ok || f.UserID != userID {
		return "", domain.ErrNotFound
	}
	path := ""
	for f.ParentID != nil {
		if path == "" {
			path = f.Name
		} else {
			path = f.Name + "/" + path
		}
		f = r.store.folders[*f.ParentID]
	}
	return path, nil
}

func (r *fakeFolderRepo) ListByUser(ctx context.Context, userID int64) ([]models.Folder, error) {
	var out []models.Folder
	for _, f := range r.store.folders {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeFileRepo struct {
	store      *memStore
	failCreate bool
}

func (r *fakeFileRepo) dup(f *models.File) bool {
	for _, other := range r.store.files {
		if other.MessageID != f.MessageID && other.UserID == f.UserID &&
			other.FolderID == f.FolderID && other.FileName == f.FileName {
			return true
		}
	}
	return false
}

func (r *fakeFileRepo) Create(ctx context.Context, file *models.File) error {
	if r.failCreate {
		return errors.New("forced file repo failure")
	}
	if r.dup(file) {
		return &domain.ConflictError{Message: "file already exists", ItemType: "file", ItemName: file.FileName}
	}
	if file.MessageID == 0 {
		file.MessageID = r.store.id()
	}
	cp := *file
	r.store.files[file.MessageID] = &cp
	return nil
}

func (r *fakeFileRepo) GetByID(ctx context.Context, messageID, userID int64) (*models.File, error) {
	f, ok := r.store.files[messageID]
	if !ok || f.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFileRepo) GetByNameAndFolder(ctx context.Context, userID int64, name string, folderID int64) (*models.File, error) {
	for _, f := range r.store.files {
		if f.UserID == userID && f.FolderID == folderID && f.FileName == name {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFileRepo) Update(ctx context.Context, file *models.File) error {
	if _, ok := r.store.files[file.MessageID]; !ok {
		return domain.ErrNotFound
	}
	if r.dup(file) {
		return &domain.ConflictError{Message: "file already exists", ItemType: "file", ItemName: file.FileName}
	}
	cp := *file
	r.store.files[file.MessageID] = &cp
	return nil
}

func (r *fakeFileRepo) Delete(ctx context.Context, messageID, userID int64) error {
	f, ok := r.store.files[messageID]
	if !ok || f.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.store.files, messageID)
	return nil
}

func (r *fakeFileRepo) DeleteByIDs(ctx context.Context, userID int64, messageIDs []int64) error {
	for _, id := range messageIDs {
		if f, ok := r.store.files[id]; ok && f.UserID == userID {
			delete(r.store.files, id)
		}
	}
	return nil
}

func (r *fakeFileRepo) ListByFolder(ctx context.Context, folderID, userID int64) ([]models.File, error) {
	var out []models.File
	for _, f := range r.store.files {
		if f.UserID == userID && f.FolderID == folderID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageID < out[j].MessageID })
	return out, nil
}

func (r *fakeFileRepo) ListByFolders(ctx context.Context, userID int64, folderIDs []int64) ([]models.File, error) {
	in := map[int64]bool{}
	for _, id := range folderIDs {
		in[id] = true
	}
	var out []models.File
	for _, f := range r.store.files {
		if f.UserID == userID && in[f.FolderID] {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageID < out[j].MessageID })
	return out, nil
}

func (r *fakeFileRepo) CountByFolder(ctx context.Context, folderID, userID int64) (int64, error) {
	files, _ := r.ListByFolder(ctx, folderID, userID)
	return int64(len(files)), nil
}

// fakeTxManager snapshots the store before fn and restores it when fn
// errors, mimicking transactional rollback. When a user repo is attached
// its rows roll back too.
type fakeTxManager struct {
	store *memStore
	users *fakeUserRepo
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	snap := m.store.snapshot()
	var userSnap map[int64]*models.User
	if m.users != nil {
		userSnap = make(map[int64]*models.User, len(m.users.users))
		for id, u := range m.users.users {
			cp := *u
			userSnap[id] = &cp
		}
	}
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		if m.users != nil {
			m.users.users = userSnap
		}
		return err
	}
	return nil
}

// fakeBackend records calls and serves canned content.
type fakeBackend struct {
	typ         storage.Type
	uploaded    map[string][]byte
	removed     []string
	failRemove  bool
	failUpload  bool
	url         string
	lastCaption string
}

func newFakeBackend(t storage.Type) *fakeBackend {
	return &fakeBackend{typ: t, uploaded: map[string][]byte{}}
}

func (b *fakeBackend) Type() storage.Type { return b.typ }

func (b *fakeBackend) Upload(ctx context.Context, body io.Reader, req storage.UploadRequest) (*storage.UploadResult, error) {
	if b.failUpload {
		return nil, &domain.BackendError{Backend: string(b.typ), Op: "upload", Err: errors.New("forced upload failure")}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	b.lastCaption = req.Caption
	locator := fmt.Sprintf("%s/%d/%s", b.typ, req.UserID, req.FileName)
	b.uploaded[locator] = data
	return &storage.UploadResult{Locator: locator, Size: int64(len(data))}, nil
}

func (b *fakeBackend) Remove(ctx context.Context, items []storage.RemoveItem) *storage.RemoveReport {
	report := &storage.RemoveReport{}
	for _, item := range items {
		if b.failRemove {
			report.Failed = append(report.Failed, storage.RemoveFailure{Locator: item.Locator, Err: errors.New("forced remove failure")})
			continue
		}
		delete(b.uploaded, item.Locator)
		b.removed = append(b.removed, item.Locator)
		report.Succeeded = append(report.Succeeded, item.Locator)
	}
	return report
}

func (b *fakeBackend) GetURL(ctx context.Context, locator string) (string, error) {
	return b.url, nil
}

func (b *fakeBackend) Stream(ctx context.Context, locator string, rng *storage.Range) (io.ReadCloser, int64, error) {
	data, ok := b.uploaded[locator]
	if !ok {
		return nil, 0, &domain.BackendError{Backend: string(b.typ), Op: "stream", Locator: locator, Err: errors.New("no such object")}
	}
	if rng != nil {
		end := int64(len(data))
		if rng.Length > 0 && rng.Offset+rng.Length < end {
			end = rng.Offset + rng.Length
		}
		data = data[rng.Offset:end]
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

type fakeResolver struct {
	active   storage.Type
	backends map[storage.Type]storage.Backend
}

func newFakeResolver(active *fakeBackend, others ...*fakeBackend) *fakeResolver {
	r := &fakeResolver{active: active.typ, backends: map[storage.Type]storage.Backend{active.typ: active}}
	for _, b := range others {
		r.backends[b.typ] = b
	}
	return r
}

func (r *fakeResolver) Active(ctx context.Context) (storage.Backend, error) {
	return r.ForType(ctx, r.active)
}

func (r *fakeResolver) ForType(ctx context.Context, t storage.Type) (storage.Backend, error) {
	b, ok := r.backends[t]
	if !ok {
		return nil, fmt.Errorf("no backend for type %q", t)
	}
	return b, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
