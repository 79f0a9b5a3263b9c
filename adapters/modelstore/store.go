// Package modelstore persists fitted models as checksummed JSON artifacts.
package modelstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"eosphase/domain/core"
	"eosphase/internal"
	"eosphase/internal/model"

	"github.com/dustin/go-humanize"
)

const (
	// Format identifies an artifact written by this package.
	Format = "eosphase-model"
	// Version is bumped on incompatible payload changes.
	Version = 1
	// DefaultFileName is the artifact name the CLI writes inside its output directory.
	DefaultFileName = "model.joblib"
)

// envelope wraps the model payload. Checksum is the hex SHA-256 of Payload.
type envelope struct {
	Format   string          `json:"format"`
	Version  int             `json:"version"`
	Kind     model.Kind      `json:"kind"`
	Checksum string          `json:"checksum"`
	Payload  json.RawMessage `json:"payload"`
}

// Store saves and loads model artifacts.
type Store struct {
	logger *internal.Logger
}

// NewStore creates a store logging under the "modelstore" component.
func NewStore() *Store {
	return &Store{logger: internal.NewDefaultLogger("modelstore")}
}

// WithLogger replaces the store's logger.
func (s *Store) WithLogger(logger *internal.Logger) *Store {
	s.logger = logger
	return s
}

// Save writes m to path with the default store.
func Save(m *model.Model, path string) (string, error) {
	return NewStore().Save(m, path)
}

// Load reads a model from path with the default store.
func Load(path string) (*model.Model, error) {
	return NewStore().Load(path)
}

// Save encodes m and atomically replaces path with it. The parent directory
// is created when missing. It returns the path written.
func (s *Store) Save(m *model.Model, path string) (string, error) {
	if m == nil {
		return "", fmt.Errorf("save %s: nil model", path)
	}
	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode model: %w", err)
	}
	data, err := json.Marshal(envelope{
		Format:   Format,
		Version:  Version,
		Kind:     m.Kind,
		Checksum: core.NewHash(payload).String(),
		Payload:  payload,
	})
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}

	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	s.logger.Info("saved %s model to %s (%s)", m.Kind, path, humanize.Bytes(uint64(len(data))))
	return path, nil
}

// writeAtomic writes data to a temporary file beside path and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// Load reads and verifies an artifact. Every failure is a deserialization error.
func (s *Store) Load(path string) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, core.NewDeserializationError(path, "file does not exist")
		}
		return nil, core.NewDeserializationError(path, err.Error())
	}
	if len(data) == 0 {
		return nil, core.NewDeserializationError(path, "file is empty")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, core.NewDeserializationError(path, fmt.Sprintf("corrupt or truncated artifact: %v", err))
	}
	if env.Format != Format {
		return nil, core.NewDeserializationError(path, fmt.Sprintf("unexpected format %q", env.Format))
	}
	if env.Version != Version {
		return nil, core.NewDeserializationError(path, fmt.Sprintf("unsupported version %d (want %d)", env.Version, Version))
	}
	if _, err := model.ParseKind(string(env.Kind)); err != nil {
		return nil, core.NewDeserializationError(path, fmt.Sprintf("unknown model kind %q", env.Kind))
	}
	if !core.NewHash(env.Payload).Equals(core.Hash(env.Checksum)) {
		return nil, core.NewDeserializationError(path, "checksum mismatch")
	}

	var m model.Model
	if err := json.Unmarshal(env.Payload, &m); err != nil {
		return nil, core.NewDeserializationError(path, fmt.Sprintf("decode payload: %v", err))
	}
	if m.Kind != env.Kind {
		return nil, core.NewDeserializationError(path,
			fmt.Sprintf("envelope kind %q does not match payload kind %q", env.Kind, m.Kind))
	}
	if err := m.Validate(); err != nil {
		return nil, core.NewDeserializationError(path, err.Error())
	}

	s.logger.Debug("loaded %s model from %s", m.Kind, path)
	return &m, nil
}
