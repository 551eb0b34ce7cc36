package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps all keys in one JSON document on disk. Every write
// rewrites the whole file through a temp file and an atomic rename.
type FileStore struct {
	filePath string
	mu       sync.Mutex
}

// NewFileStore creates a store backed by filePath. The file is created on
// the first write.
func NewFileStore(filePath string) *FileStore {
	return &FileStore{filePath: filePath}
}

// Get reads key from the document on disk.
func (f *FileStore) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.loadUnlocked()
	if err != nil {
		return nil, false, err
	}
	v, ok := data[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Put stores value under key and rewrites the document.
func (f *FileStore) Put(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.loadUnlocked()
	if err != nil {
		return err
	}
	data[key] = string(value)
	return f.saveUnlocked(data)
}

// Delete removes key, rewriting the document only if it was present.
func (f *FileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.loadUnlocked()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return f.saveUnlocked(data)
}

// Close is a no-op; the file is not held open.
func (f *FileStore) Close() error { return nil }

// loadUnlocked reads the document (must be called with lock held). A
// corrupted file is moved aside to <path>.backup and treated as empty.
func (f *FileStore) loadUnlocked() (map[string]string, error) {
	data := map[string]string{}

	raw, err := os.ReadFile(f.filePath)
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		backupPath := f.filePath + ".backup"
		if rerr := os.Rename(f.filePath, backupPath); rerr != nil {
			return nil, fmt.Errorf("failed to back up corrupted store file: %w", rerr)
		}
		return map[string]string{}, nil
	}
	if data == nil {
		data = map[string]string{}
	}
	return data, nil
}

// saveUnlocked writes the document (must be called with lock held)
func (f *FileStore) saveUnlocked(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tempPath := f.filePath + ".tmp"
	if err := os.WriteFile(tempPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempPath, f.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
