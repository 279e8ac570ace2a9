package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"stamp_card/internal/model"
)

// StateStore persists the whole AppState as a single document
type StateStore interface {
	// Load returns the stored state, or a default state when nothing usable is stored.
	Load(ctx context.Context) (*model.AppState, error)
	// Save overwrites the stored document with state. Last writer wins.
	Save(ctx context.Context, state *model.AppState) error
	// Driver names the backend, e.g. "file"
	Driver() string
}

type fileStateStore struct {
	path         string
	defaultAdmin model.AdminCredentials
}

// NewFileStateStore creates a StateStore backed by a JSON file
func NewFileStateStore(path string, defaultAdmin model.AdminCredentials) StateStore {
	return &fileStateStore{path: path, defaultAdmin: defaultAdmin}
}

func (s *fileStateStore) Driver() string { return "file" }

// Load reads the state file. A missing or corrupt file yields the default state.
func (s *fileStateStore) Load(_ context.Context) (*model.AppState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("WARN: could not read state file %s, starting empty: %v", s.path, err)
		}
		return model.NewAppState(s.defaultAdmin), nil
	}
	state, err := decodeState(data, s.defaultAdmin)
	if err != nil {
		log.Printf("WARN: state file %s is not valid, starting empty: %v", s.path, err)
		return model.NewAppState(s.defaultAdmin), nil
	}
	return state, nil
}

// Save writes the state to a temp file next to the target and renames it into place
func (s *fileStateStore) Save(_ context.Context, state *model.AppState) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}

func encodeState(state *model.AppState) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// decodeState parses a stored document. A document without an admin gets
// defaultAdmin so the admin can still log in.
func decodeState(data []byte, defaultAdmin model.AdminCredentials) (*model.AppState, error) {
	state := &model.AppState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	if state.Admin.Username == "" {
		log.Printf("WARN: stored state has no admin, using the configured default")
		state.Admin = defaultAdmin
	}
	state.Normalize()
	return state, nil
}

func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	// Each writer gets its own temp file so concurrent saves never share one.
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to chmod %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
