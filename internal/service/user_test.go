package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

// fakeUserRepo mirrors the postgres contract: Create also seeds the root
// folder, Delete cascades the catalog. failRoot fails Create after the user
// row is in, mimicking a root folder insert failure mid-transaction.
type fakeUserRepo struct {
	store    *memStore
	users    map[int64]*models.User
	nextID   int64
	failRoot bool
}

func newFakeUserRepo(store *memStore) *fakeUserRepo {
	return &fakeUserRepo{store: store, users: map[int64]*models.User{}, nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Username == user.Username {
			return &domain.ConflictError{Message: "username already taken", ItemType: "user", ItemName: user.Username}
		}
	}
	user.ID = r.nextID
	r.nextID++
	cp := *user
	r.users[user.ID] = &cp
	if r.failRoot {
		return errors.New("forced root folder insert failure")
	}
	r.store.addRoot(user.ID)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.users, id)
	for fid, f := range r.store.folders {
		if f.UserID == id {
			delete(r.store.folders, fid)
		}
	}
	for mid, f := range r.store.files {
		if f.UserID == id {
			delete(r.store.files, mid)
		}
	}
	return nil
}

type userFixture struct {
	store *memStore
	users *fakeUserRepo
	local *fakeBackend
	s3    *fakeBackend
	svc   *UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	fx := &userFixture{store: newMemStore()}
	fx.users = newFakeUserRepo(fx.store)
	fx.local = newFakeBackend(storage.TypeLocal)
	fx.s3 = newFakeBackend(storage.TypeS3)
	fx.svc = NewUserService(
		fx.users,
		&fakeFolderRepo{store: fx.store},
		&fakeFileRepo{store: fx.store},
		newFakeResolver(fx.local, fx.s3),
		&fakeTxManager{store: fx.store, users: fx.users},
		testLogger(),
	)
	return fx
}

func TestUserRegister(t *testing.T) {
	fx := newUserFixture(t)
	ctx := context.Background()

	user, err := fx.svc.Register(ctx, "alice", "correct horse battery", false)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "correct horse battery", user.Password)

	// Registration seeds the root folder.
	root, err := (&fakeFolderRepo{store: fx.store}).GetRoot(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)

	var conflict *domain.ConflictError
	_, err = fx.svc.Register(ctx, "alice", "another password", false)
	assert.ErrorAs(t, err, &conflict)
}

func TestUserRegister_RootInsertFailureRollsBack(t *testing.T) {
	fx := newUserFixture(t)
	ctx := context.Background()
	fx.users.failRoot = true

	_, err := fx.svc.Register(ctx, "alice", "correct horse battery", false)
	require.Error(t, err)

	// The user row rolls back with the failed root insert; no rootless
	// account survives, and the name is free to register again.
	_, err = fx.svc.Authenticate(ctx, "alice", "correct horse battery")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	fx.users.failRoot = false
	user, err := fx.svc.Register(ctx, "alice", "correct horse battery", false)
	require.NoError(t, err)
	root, err := (&fakeFolderRepo{store: fx.store}).GetRoot(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)
}

func TestUserRegister_Validation(t *testing.T) {
	fx := newUserFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Register(ctx, "ab", "long enough pw", false)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = fx.svc.Register(ctx, "alice", "short", false)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserAuthenticate(t *testing.T) {
	fx := newUserFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Register(ctx, "alice", "correct horse battery", false)
	require.NoError(t, err)

	user, err := fx.svc.Authenticate(ctx, "alice", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	// Wrong password and unknown user fail identically.
	_, badPass := fx.svc.Authenticate(ctx, "alice", "wrong password!")
	_, badUser := fx.svc.Authenticate(ctx, "nobody", "correct horse battery")
	assert.ErrorIs(t, badPass, domain.ErrUnauthorized)
	assert.ErrorIs(t, badUser, domain.ErrUnauthorized)
	assert.Equal(t, badPass.Error(), badUser.Error())
}

func TestUserDelete(t *testing.T) {
	fx := newUserFixture(t)
	ctx := context.Background()

	user, err := fx.svc.Register(ctx, "alice", "correct horse battery", false)
	require.NoError(t, err)
	folders := &fakeFolderRepo{store: fx.store}
	root, err := folders.GetRoot(ctx, user.ID)
	require.NoError(t, err)
	docs := fx.store.addFolder(user.ID, root.ID, "docs")
	fx.store.addFile(user.ID, docs.ID, "a.txt", "local", "u1/docs/a.txt")
	fx.store.addFile(user.ID, docs.ID, "b.bin", "s3", "kb")
	fx.local.uploaded["u1/docs/a.txt"] = []byte("x")
	fx.s3.uploaded["kb"] = []byte("y")

	other, err := fx.svc.Register(ctx, "bob", "another password", false)
	require.NoError(t, err)

	require.NoError(t, fx.svc.Delete(ctx, user.ID))

	// Physical objects removed on each backend, plus the user's local dir.
	assert.Contains(t, fx.local.removed, "u1/docs/a.txt")
	assert.Contains(t, fx.local.removed, "u1")
	assert.Contains(t, fx.s3.removed, "kb")

	// Catalog rows are gone; the other user is untouched.
	_, err = fx.svc.Get(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = folders.GetRoot(ctx, other.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, fx.svc.Delete(ctx, user.ID), domain.ErrNotFound)
}
