package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"smart-shopping-list/internal/shopping"

	"github.com/google/uuid"
)

// FileStore keeps every shopping list in its own JSON file under basePath.
// It is meant for single-process setups and local development; the version
// check is done under a process-wide lock.
type FileStore struct {
	basePath string
	mu       sync.Mutex
}

var _ shopping.Store = (*FileStore)(nil)

// NewFileStore creates a new FileStore and ensures the base directory exists.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) path(listID string) string {
	return filepath.Join(s.basePath, filepath.Base(listID)+".json")
}

// Create stores a new list and returns its id.
func (s *FileStore) Create(_ context.Context, list *shopping.List) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	if _, err := os.Stat(s.path(list.ID)); err == nil {
		return "", fmt.Errorf("list %s already exists", list.ID)
	}
	if list.Items == nil {
		list.Items = []shopping.Item{}
	}
	if list.Collaborators == nil {
		list.Collaborators = []string{}
	}
	now := time.Now().UTC()
	list.Version = 1
	list.CreatedAt = now
	list.UpdatedAt = now

	if err := s.save(list); err != nil {
		return "", err
	}
	return list.ID, nil
}

// Read loads a list from disk.
func (s *FileStore) Read(_ context.Context, listID string) (*shopping.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(listID)
}

// Write replaces the items of a list if its version still equals baseVersion.
func (s *FileStore) Write(_ context.Context, listID string, items []shopping.Item, baseVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(listID)
	if err != nil {
		return 0, err
	}
	if list.Version != baseVersion {
		return 0, fmt.Errorf("list %s at version %d: %w", listID, baseVersion, shopping.ErrStaleWrite)
	}
	if items == nil {
		items = []shopping.Item{}
	}
	list.Items = items
	list.Version++
	list.UpdatedAt = time.Now().UTC()
	if err := s.save(list); err != nil {
		return 0, err
	}
	return list.Version, nil
}

// Delete removes the list file.
func (s *FileStore) Delete(_ context.Context, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(listID)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("list %s: %w", listID, shopping.ErrListNotFound)
		}
		return fmt.Errorf("failed to remove list file: %w", err)
	}
	return nil
}

// ListByUser scans every list file and returns those the user is a member of.
func (s *FileStore) ListByUser(_ context.Context, userID string) ([]shopping.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(s.basePath, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob list files: %w", err)
	}

	var lists []shopping.List
	for _, match := range matches {
		data, err := os.ReadFile(match)
		if err != nil {
			return nil, fmt.Errorf("failed to read list file %s: %w", match, err)
		}
		var l shopping.List
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("failed to unmarshal list file %s: %w", match, err)
		}
		if l.HasMember(userID) {
			lists = append(lists, l)
		}
	}
	return lists, nil
}

func (s *FileStore) load(listID string) (*shopping.List, error) {
	data, err := os.ReadFile(s.path(listID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("list %s: %w", listID, shopping.ErrListNotFound)
		}
		return nil, fmt.Errorf("failed to read list file: %w", err)
	}

	var l shopping.List
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to unmarshal list: %w", err)
	}
	return &l, nil
}

// save writes to a temp file first so a crash never leaves a half-written list.
func (s *FileStore) save(list *shopping.List) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal list: %w", err)
	}

	tmp := s.path(list.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write list file: %w", err)
	}
	if err := os.Rename(tmp, s.path(list.ID)); err != nil {
		return fmt.Errorf("failed to replace list file: %w", err)
	}
	return nil
}
