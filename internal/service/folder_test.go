package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
)

type folderFixture struct {
	store *memStore
	svc   *FolderService
}

func newFolderFixture() *folderFixture {
	store := newMemStore()
	svc := NewFolderService(&fakeFolderRepo{store: store}, &fakeFileRepo{store: store}, testLogger())
	return &folderFixture{store: store, svc: svc}
}

func TestFolderCreate(t *testing.T) {
	fx := newFolderFixture()
	root := fx.store.addRoot(testUserID)

	folder, err := fx.svc.Create(context.Background(), testUserID, &services.CreateFolderRequest{Name: "docs"})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *folder.ParentID)

	// Same name under the same parent is a conflict.
	_, err = fx.svc.Create(context.Background(), testUserID, &services.CreateFolderRequest{Name: "docs"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Same name under a different parent is fine.
	_, err = fx.svc.Create(context.Background(), testUserID, &services.CreateFolderRequest{Name: "docs", ParentID: &folder.ID})
	assert.NoError(t, err)
}

func TestFolderCreate_FileNameConflict(t *testing.T) {
	fx := newFolderFixture()
	root := fx.store.addRoot(testUserID)
	fx.store.addFile(testUserID, root.ID, "report", "local", "l1")

	// A sibling file occupies the name just like a sibling folder.
	_, err := fx.svc.Create(context.Background(), testUserID, &services.CreateFolderRequest{Name: "report"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestFolderRename_FileNameConflict(t *testing.T) {
	fx := newFolderFixture()
	root := fx.store.addRoot(testUserID)
	folder := fx.store.addFolder(testUserID, root.ID, "docs")
	fx.store.addFile(testUserID, root.ID, "report", "local", "l1")

	_, err := fx.svc.Rename(context.Background(), testUserID, folder.ID, "report")
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Renaming to the current name stays a no-op.
	got, err := fx.svc.Rename(context.Background(), testUserID, folder.ID, "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", got.Name)
}

func TestFolderCreate_InvalidNames(t *testing.T) {
	fx := newFolderFixture()
	fx.store.addRoot(testUserID)

	for _, name := range []string{"", "a/b", ".", ".."} {
		_, err := fx.svc.Create(context.Background(), testUserID, &services.CreateFolderRequest{Name: name})
		assert.ErrorIs(t, err, domain.ErrValidation, "name %q must be rejected", name)
	}
}

func TestFolderRename_Root(t *testing.T) {
	fx := newFolderFixture()
	root := fx.store.addRoot(testUserID)

	_, err := fx.svc.Rename(context.Background(), testUserID, root.ID, "other")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestFolderDelete_RequiresEmpty(t *testing.T) {
	fx := newFolderFixture()
	root := fx.store.addRoot(testUserID)
	folder := fx.store.addFolder(testUserID, root.ID, "docs")
	f := fx.store.addFile(testUserID, folder.ID, "a.txt", "local", "la")

	err := fx.svc.Delete(context.Background(), testUserID, folder.ID)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	delete(fx.store.files, f.MessageID)
	assert.NoError(t, fx.svc.Delete(context.Background(), testUserID, folder.ID))
}

func TestFolderLockCycle(t *testing.T) {
	fx := newFolderFixture()
	root := fx.store.addRoot(testUserID)
	folder := fx.store.addFolder(testUserID, root.ID, "vault")
	ctx := context.Background()

	require.NoError(t, fx.svc.Lock(ctx, testUserID, folder.ID, "hunter22"))

	// Locking twice conflicts.
	assert.ErrorIs(t, fx.svc.Lock(ctx, testUserID, folder.ID, "other"), domain.ErrConflict)

	// Wrong password is rejected on every verifying operation.
	assert.ErrorIs(t, fx.svc.Unlock(ctx, testUserID, folder.ID, "wrong"), domain.ErrUnauthorized)
	assert.ErrorIs(t, fx.svc.ChangePassword(ctx, testUserID, folder.ID, "wrong", "next1234"), domain.ErrUnauthorized)
	assert.ErrorIs(t, fx.svc.RemoveLock(ctx, testUserID, folder.ID, "wrong"), domain.ErrUnauthorized)

	require.NoError(t, fx.svc.Unlock(ctx, testUserID, folder.ID, "hunter22"))
	require.NoError(t, fx.svc.ChangePassword(ctx, testUserID, folder.ID, "hunter22", "next1234"))
	assert.ErrorIs(t, fx.svc.Unlock(ctx, testUserID, folder.ID, "hunter22"), domain.ErrUnauthorized)
	require.NoError(t, fx.svc.RemoveLock(ctx, testUserID, folder.ID, "next1234"))

	got, err := fx.svc.Get(ctx, testUserID, folder.ID)
	require.NoError(t, err)
	assert.False(t, got.IsLocked)
	assert.Nil(t, got.Password)
}

func TestFolderContents_LockGate(t *testing.T) {
	fx := newFolderFixture()
	root := fx.store.addRoot(testUserID)
	vault := fx.store.addFolder(testUserID, root.ID, "vault")
	inner := fx.store.addFolder(testUserID, vault.ID, "inner")
	ctx := context.Background()

	require.NoError(t, fx.svc.Lock(ctx, testUserID, vault.ID, "hunter22"))

	// Locked folder and everything under it is unreadable without
	// unlocking, the lock gating the whole chain.
	_, err := fx.svc.Contents(ctx, testUserID, vault.ID, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = fx.svc.Contents(ctx, testUserID, inner.ID, nil)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	unlocked := map[int64]bool{vault.ID: true}
	contents, err := fx.svc.Contents(ctx, testUserID, vault.ID, unlocked)
	require.NoError(t, err)
	assert.Equal(t, "vault", contents.Folder.Name)
	assert.Equal(t, "vault", contents.Path)

	_, err = fx.svc.Contents(ctx, testUserID, inner.ID, unlocked)
	assert.NoError(t, err)
}

func TestFolderContents_Root(t *testing.T) {
	fx := newFolderFixture()
	root := fx.store.addRoot(testUserID)
	fx.store.addFolder(testUserID, root.ID, "docs")
	fx.store.addFile(testUserID, root.ID, "a.txt", "local", "la")

	contents, err := fx.svc.Contents(context.Background(), testUserID, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "", contents.Path)
	assert.Len(t, contents.Folders, 1)
	assert.Len(t, contents.Files, 1)
}

func TestFolderByPath(t *testing.T) {
	fx := newFolderFixture()
	root := fx.store.addRoot(testUserID)
	docs := fx.store.addFolder(testUserID, root.ID, "docs")
	deep := fx.store.addFolder(testUserID, docs.ID, "2024")
	ctx := context.Background()

	got, err := fx.svc.ByPath(ctx, testUserID, "docs/2024")
	require.NoError(t, err)
	assert.Equal(t, deep.ID, got.ID)

	got, err = fx.svc.ByPath(ctx, testUserID, "")
	require.NoError(t, err)
	assert.Equal(t, root.ID, got.ID)

	_, err = fx.svc.ByPath(ctx, testUserID, "docs/missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
