package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

const (
	sessionDirName   = ".mesctl/sessions"
	sessionFilePerms = 0600 // Read/write for owner only
	sessionDirPerms  = 0700 // Read/write/execute for owner only
)

// FileStore keeps the session as a JSON file
type FileStore struct {
	path string
}

// NewFileStore creates a store at path. An empty path selects the default
// location under the home directory for the given environment.
func NewFileStore(path, env string) (*FileStore, error) {
	if path == "" {
		var err error
		path, err = DefaultPath(env)
		if err != nil {
			return nil, err
		}
	}
	return &FileStore{path: path}, nil
}

// DefaultPath returns ~/.mesctl/sessions/session-<env>.json
func DefaultPath(env string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if env == "" {
		env = "default"
	}
	return filepath.Join(homeDir, sessionDirName, fmt.Sprintf("session-%s.json", env)), nil
}

// Path returns the file backing the store
func (f *FileStore) Path() string {
	return f.path
}

// Get implements Store
func (f *FileStore) Get(ctx context.Context) (*model.Session, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return &model.Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return &s, nil
}

// Set implements Store
func (f *FileStore) Set(ctx context.Context, s *model.Session) error {
	if err := os.MkdirAll(filepath.Dir(f.path), sessionDirPerms); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(f.path, data, sessionFilePerms); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear implements Store
func (f *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}
