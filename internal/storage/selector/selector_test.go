package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func localSection(t *testing.T) json.RawMessage {
	t.Helper()
	return json.RawMessage(fmt.Sprintf(`{"root_path":%q}`, t.TempDir()))
}

func writeConfig(t *testing.T, cfg Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storage.json")
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestNewManagerCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "storage.json")

	m, err := NewManager(path, testLogger())
	require.NoError(t, err)
	assert.Equal(t, storage.TypeLocal, m.Mode())

	// The default document is written to disk and loads again.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg Config
	require.NoError(t, json.Unmarshal(raw, &cfg))
	assert.Equal(t, storage.TypeLocal, cfg.StorageMode)

	m2, err := NewManager(path, testLogger())
	require.NoError(t, err)
	assert.Equal(t, storage.TypeLocal, m2.Mode())
}

func TestNewManagerRejectsBadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewManager(path, testLogger())
	assert.Error(t, err)

	path = writeConfig(t, Config{StorageMode: "tape"})
	_, err = NewManager(path, testLogger())
	assert.Error(t, err)
}

func TestActiveAndForType(t *testing.T) {
	path := writeConfig(t, Config{StorageMode: storage.TypeLocal, Local: localSection(t)})
	m, err := NewManager(path, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	active, err := m.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.TypeLocal, active.Type())

	// Instances are cached.
	again, err := m.ForType(ctx, storage.TypeLocal)
	require.NoError(t, err)
	assert.Same(t, active, again)

	_, err = m.ForType(ctx, "tape")
	assert.Error(t, err)
}

func TestSetConfigPersistsAndInvalidates(t *testing.T) {
	path := writeConfig(t, Config{StorageMode: storage.TypeLocal, Local: localSection(t)})
	m, err := NewManager(path, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	before, err := m.Active(ctx)
	require.NoError(t, err)

	newSection := localSection(t)
	require.NoError(t, m.SetConfig(ctx, Config{StorageMode: storage.TypeLocal, Local: newSection}))

	// The cached instance is dropped so the new section takes effect.
	after, err := m.Active(ctx)
	require.NoError(t, err)
	assert.NotSame(t, before, after)

	// The new document survives a reload.
	m2, err := NewManager(path, testLogger())
	require.NoError(t, err)
	assert.Equal(t, storage.TypeLocal, m2.Mode())
	assert.JSONEq(t, string(newSection), string(m2.Current().Local))
}

func TestSetConfigRejectsInvalid(t *testing.T) {
	path := writeConfig(t, Config{StorageMode: storage.TypeLocal, Local: localSection(t)})
	m, err := NewManager(path, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	err = m.SetConfig(ctx, Config{StorageMode: "tape"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// A mode whose section cannot build is rejected before persisting.
	err = m.SetConfig(ctx, Config{StorageMode: storage.TypeLocal, Local: json.RawMessage(`{"root_path":""}`)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, storage.TypeLocal, m.Mode())
}
