// Package selector owns the persisted storage configuration document and
// hands out backend instances. One variant is active at a time: new uploads
// go there. Reads and deletes dispatch by the storage type recorded on the
// file row, so existing data stays reachable after a mode change.
package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage/botapi"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage/local"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage/s3"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/storage/webdav"
)

// Config is the persisted selector document. Each section is kept raw so a
// backend's config schema stays private to its package.
type Config struct {
	StorageMode storage.Type    `json:"storage_mode"`
	Local       json.RawMessage `json:"local,omitempty"`
	WebDAV      json.RawMessage `json:"webdav,omitempty"`
	S3          json.RawMessage `json:"s3,omitempty"`
	BotAPI      json.RawMessage `json:"botapi,omitempty"`
}

func (c *Config) section(t storage.Type) json.RawMessage {
	switch t {
	case storage.TypeLocal:
		return c.Local
	case storage.TypeWebDAV:
		return c.WebDAV
	case storage.TypeS3:
		return c.S3
	case storage.TypeBotAPI:
		return c.BotAPI
	}
	return nil
}

// newBackend instantiates the variant t from its config section.
func newBackend(ctx context.Context, t storage.Type, raw json.RawMessage) (storage.Backend, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	switch t {
	case storage.TypeLocal:
		return local.NewFromJSON(raw)
	case storage.TypeWebDAV:
		return webdav.NewFromJSON(raw)
	case storage.TypeS3:
		return s3.NewFromJSON(ctx, raw)
	case storage.TypeBotAPI:
		return botapi.NewFromJSON(raw)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", t)
	}
}

// Manager loads the selector document, caches instantiated backends and
// invalidates the cache when the document is rewritten, so credential
// changes take effect without a restart.
type Manager struct {
	mu     sync.RWMutex
	path   string
	cfg    Config
	cache  map[storage.Type]storage.Backend
	logger *slog.Logger
}

// NewManager reads the document at path, creating a local-mode default when
// none exists yet.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	m := &Manager{
		path:   path,
		cache:  make(map[storage.Type]storage.Backend),
		logger: logger,
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &m.cfg); err != nil {
			return nil, fmt.Errorf("parse storage config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		m.cfg = Config{
			StorageMode: storage.TypeLocal,
			Local:       json.RawMessage(`{"root_path":"data/files"}`),
		}
		if err := m.persist(); err != nil {
			return nil, err
		}
		logger.Info("storage config created", "path", path, "mode", m.cfg.StorageMode)
	default:
		return nil, fmt.Errorf("read storage config %s: %w", path, err)
	}

	if !m.cfg.StorageMode.Valid() {
		return nil, fmt.Errorf("storage config %s: invalid storage_mode %q", path, m.cfg.StorageMode)
	}

	return m, nil
}

// Active returns the backend receiving new uploads.
func (m *Manager) Active(ctx context.Context) (storage.Backend, error) {
	m.mu.RLock()
	mode := m.cfg.StorageMode
	m.mu.RUnlock()
	return m.ForType(ctx, mode)
}

// ForType returns the backend for an already-stored file's storage type.
func (m *Manager) ForType(ctx context.Context, t storage.Type) (storage.Backend, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown storage type: %s", t)
	}

	m.mu.RLock()
	backend, ok := m.cache[t]
	m.mu.RUnlock()
	if ok {
		return backend, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if backend, ok := m.cache[t]; ok {
		return backend, nil
	}

	backend, err := newBackend(ctx, t, m.cfg.section(t))
	if err != nil {
		return nil, fmt.Errorf("init %s backend: %w", t, err)
	}
	m.cache[t] = backend
	return backend, nil
}

// Mode returns the active storage mode.
func (m *Manager) Mode() storage.Type {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.StorageMode
}

// Current returns a copy of the persisted document.
func (m *Manager) Current() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// SetConfig validates, persists and applies a new document. Every cached
// client is dropped so the next call rebuilds it with fresh credentials.
func (m *Manager) SetConfig(ctx context.Context, cfg Config) error {
	if !cfg.StorageMode.Valid() {
		return fmt.Errorf("%w: invalid storage_mode %q", domain.ErrValidation, cfg.StorageMode)
	}

	// Fail before persisting if the new active section cannot build.
	if _, err := newBackend(ctx, cfg.StorageMode, cfg.section(cfg.StorageMode)); err != nil {
		return fmt.Errorf("%w: %s config: %v", domain.ErrValidation, cfg.StorageMode, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.cfg
	m.cfg = cfg
	if err := m.persist(); err != nil {
		m.cfg = old
		return err
	}

	m.cache = make(map[storage.Type]storage.Backend)
	m.logger.Info("storage config updated", "mode", cfg.StorageMode)
	return nil
}

// persist writes the document atomically. Callers hold the lock.
func (m *Manager) persist() error {
	raw, err := json.MarshalIndent(&m.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage config: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".storage-*.json")
	if err != nil {
		return fmt.Errorf("write storage config: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write storage config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write storage config: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write storage config: %w", err)
	}

	return nil
}
