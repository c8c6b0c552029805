// Package prefs is a small durable key-value store for consumer preferences
// (auto-refresh toggles, last-viewed repositories). Values live in a single
// JSON file, loaded once at open and rewritten atomically on every change, so
// preferences survive restarts.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bdougie/contributor.info-sub015/errors"
)

// Store is a file-backed preference store. It is safe for concurrent use.
type Store struct {
	path string

	mu     sync.RWMutex
	values map[string]json.RawMessage
}

// Open loads the preference file at path, creating the parent directory if
// needed. A missing file is an empty store; a corrupt file is an error rather
// than silent data loss.
func Open(path string) (*Store, error) {
	if path == "" {
		err := errors.New(errors.CodeInvalidConfig, "preferences path must not be empty")
		return nil, errors.WithContext(err, "field", "path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create preferences directory")
	}

	s := &Store{
		path:   path,
		values: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to read preferences file")
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.values); err != nil {
			wrapped := errors.Wrap(err, errors.CodeInternal, "preferences file is corrupt")
			return nil, errors.WithContext(wrapped, "path", path)
		}
	}

	return s, nil
}

// Get unmarshals the value stored under key into out. It reports whether the
// key exists; a missing key leaves out untouched.
func (s *Store) Get(key string, out interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		wrapped := errors.Wrap(err, errors.CodeInternal, "failed to decode preference")
		return false, errors.WithContext(wrapped, "key", key)
	}
	return true, nil
}

// Set stores value under key and persists the store to disk.
func (s *Store) Set(key string, value interface{}) error {
	if key == "" {
		return errors.New(errors.CodeInvalidInput, "preference key must not be empty")
	}

	raw, err := json.Marshal(value)
	if err != nil {
		wrapped := errors.Wrap(err, errors.CodeInvalidInput, "preference value is not serializable")
		return errors.WithContext(wrapped, "key", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = raw
	return s.flushLocked()
}

// Delete removes key and persists the store. Deleting a missing key is a
// no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flushLocked()
}

// Keys returns all stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// flushLocked writes the store to a temporary file and renames it into place,
// so readers never observe a partially written file. Callers hold s.mu.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode preferences")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".prefs-*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to create temporary preferences file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeInternal, "failed to write preferences")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeInternal, "failed to write preferences")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeInternal, "failed to replace preferences file")
	}

	return nil
}
