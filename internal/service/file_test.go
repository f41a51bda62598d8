package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

type fileFixture struct {
	store *memStore
	files *fakeFileRepo
	local *fakeBackend
	s3    *fakeBackend
	svc   *FileService
}

// newFileFixture wires a file service whose active backend is local, with an
// s3 backend available for rows recorded under it.
func newFileFixture() *fileFixture {
	store := newMemStore()
	folders := &fakeFolderRepo{store: store}
	files := &fakeFileRepo{store: store}
	localBackend := newFakeBackend(storage.TypeLocal)
	s3Backend := newFakeBackend(storage.TypeS3)
	resolver := newFakeResolver(localBackend, s3Backend)
	svc := NewFileService(files, folders, resolver, &fakeTxManager{store: store}, testLogger())
	return &fileFixture{store: store, files: files, local: localBackend, s3: s3Backend, svc: svc}
}

func TestFileUpload(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)

	file, err := fx.svc.Upload(context.Background(), testUserID, strings.NewReader("hello"), &services.UploadFileRequest{
		FileName: "hello.txt",
		Mimetype: "text/plain",
		FolderID: root.ID,
		Size:     -1,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "hello.txt", file.FileName)
	assert.Equal(t, string(storage.TypeLocal), file.StorageType)
	assert.Equal(t, int64(5), file.Size)
	assert.Equal(t, []byte("hello"), fx.local.uploaded[file.FileID])

	stored, err := fx.files.GetByID(context.Background(), file.MessageID, testUserID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, stored.FolderID)
}

func TestFileUpload_AutoRename(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)
	fx.store.addFile(testUserID, root.ID, "hello.txt", "local", "l1")

	file, err := fx.svc.Upload(context.Background(), testUserID, strings.NewReader("x"), &services.UploadFileRequest{
		FileName: "hello.txt",
		FolderID: root.ID,
		Size:     -1,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello (1).txt", file.FileName)
}

func TestFileUpload_FolderNameBlocksFile(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)
	fx.store.addFolder(testUserID, root.ID, "docs")

	// Files and folders share a namespace: a sibling folder named "docs"
	// forces the numbered variant just like a sibling file would.
	file, err := fx.svc.Upload(context.Background(), testUserID, strings.NewReader("x"), &services.UploadFileRequest{
		FileName: "docs",
		FolderID: root.ID,
		Size:     -1,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "docs (1)", file.FileName)
}

func TestFileUpload_Caption(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)

	_, err := fx.svc.Upload(context.Background(), testUserID, strings.NewReader("x"), &services.UploadFileRequest{
		FileName: "hello.txt",
		FolderID: root.ID,
		Size:     -1,
		Caption:  "holiday snapshot",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "holiday snapshot", fx.local.lastCaption)
}

func TestFileUpload_PhysicalFailureLeavesNoRow(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)
	fx.local.failUpload = true

	_, err := fx.svc.Upload(context.Background(), testUserID, strings.NewReader("x"), &services.UploadFileRequest{
		FileName: "hello.txt",
		FolderID: root.ID,
		Size:     -1,
	}, nil)
	require.Error(t, err)
	assert.Empty(t, fx.store.files)
}

func TestFileUpload_CatalogFailureRemovesObject(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)
	fx.files.failCreate = true

	_, err := fx.svc.Upload(context.Background(), testUserID, strings.NewReader("x"), &services.UploadFileRequest{
		FileName: "hello.txt",
		FolderID: root.ID,
		Size:     -1,
	}, nil)
	require.Error(t, err)
	assert.Empty(t, fx.local.uploaded, "uploaded object must be compensated away")
}

func TestFileUpload_LockedFolder(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)
	vault := fx.store.addFolder(testUserID, root.ID, "vault")
	hash := "x"
	fx.store.folders[vault.ID].IsLocked = true
	fx.store.folders[vault.ID].Password = &hash

	_, err := fx.svc.Upload(context.Background(), testUserID, strings.NewReader("x"), &services.UploadFileRequest{
		FileName: "hello.txt",
		FolderID: vault.ID,
		Size:     -1,
	}, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = fx.svc.Upload(context.Background(), testUserID, strings.NewReader("x"), &services.UploadFileRequest{
		FileName: "hello.txt",
		FolderID: vault.ID,
		Size:     -1,
	}, map[int64]bool{vault.ID: true})
	assert.NoError(t, err)
}

func TestFileDownload_DispatchesByStoredType(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)
	f := fx.store.addFile(testUserID, root.ID, "old.txt", "s3", "k1")
	fx.s3.uploaded["k1"] = []byte("from s3")

	// Active mode is local; the row was written under s3 and must still
	// resolve through s3.
	result, err := fx.svc.Download(context.Background(), testUserID, f.MessageID, nil, nil)
	require.NoError(t, err)
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	require.NoError(t, err)
	assert.Equal(t, "from s3", string(data))
}

func TestFileDownload_PrefersDirectURL(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)
	f := fx.store.addFile(testUserID, root.ID, "pic.jpg", "s3", "k1")
	fx.s3.url = "https://cdn.example.com/k1"

	result, err := fx.svc.Download(context.Background(), testUserID, f.MessageID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k1", result.URL)
	assert.Nil(t, result.Body)
}

func TestFileDownload_Range(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)
	f := fx.store.addFile(testUserID, root.ID, "data.bin", "local", "l1")
	fx.local.uploaded["l1"] = []byte("0123456789")

	result, err := fx.svc.Download(context.Background(), testUserID, f.MessageID, nil, &storage.Range{Offset: 2, Length: 4})
	require.NoError(t, err)
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(data))
	assert.Equal(t, int64(4), result.Size)
}

func TestFileRename_Conflict(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)
	f := fx.store.addFile(testUserID, root.ID, "a.txt", "local", "l1")
	fx.store.addFile(testUserID, root.ID, "b.txt", "local", "l2")

	_, err := fx.svc.Rename(context.Background(), testUserID, f.MessageID, "b.txt")
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := fx.svc.Rename(context.Background(), testUserID, f.MessageID, "c.txt")
	require.NoError(t, err)
	assert.Equal(t, "c.txt", got.FileName)
}

func TestFileRename_FolderNameConflict(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)
	f := fx.store.addFile(testUserID, root.ID, "a.txt", "local", "l1")
	fx.store.addFolder(testUserID, root.ID, "docs")

	_, err := fx.svc.Rename(context.Background(), testUserID, f.MessageID, "docs")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestFileDelete_Batch(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)
	a := fx.store.addFile(testUserID, root.ID, "a.txt", "local", "la")
	b := fx.store.addFile(testUserID, root.ID, "b.txt", "s3", "kb")
	keep := fx.store.addFile(testUserID, root.ID, "keep.txt", "local", "lk")

	report, err := fx.svc.Delete(context.Background(), testUserID, []int64{a.MessageID, b.MessageID, 99999})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Deleted)
	assert.Empty(t, report.PhysicalFailures)

	assert.Contains(t, fx.local.removed, "la")
	assert.Contains(t, fx.s3.removed, "kb")
	_, err = fx.files.GetByID(context.Background(), keep.MessageID, testUserID)
	assert.NoError(t, err)
}

func TestFileDelete_PhysicalFailureReported(t *testing.T) {
	fx := newFileFixture()
	root := fx.store.addRoot(testUserID)
	a := fx.store.addFile(testUserID, root.ID, "a.txt", "s3", "ka")
	fx.s3.failRemove = true

	report, err := fx.svc.Delete(context.Background(), testUserID, []int64{a.MessageID})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, []string{"ka"}, report.PhysicalFailures)

	// Catalog row is gone regardless.
	_, err = fx.files.GetByID(context.Background(), a.MessageID, testUserID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
