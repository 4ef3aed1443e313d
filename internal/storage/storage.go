// Package storage provides the durable key/value store backing order caches,
// snapshot backups, and the offline sync queue.
//
// Two scopes are exposed: Durable survives restarts (one JSON file per key
// under the state directory), Session lives only for the process. Writers
// always store a complete value for a key; there are no partial patches, so a
// torn write can at worst lose one whole snapshot, never corrupt it.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Scope selects the persistence tier for a key.
type Scope int

const (
	// Durable keys survive process restarts.
	Durable Scope = iota
	// Session keys are discarded when the process exits.
	Session
)

// Store is a namespaced key/value store. The zero value is not usable; call
// Open.
type Store struct {
	dir string

	mu      sync.RWMutex
	session map[string][]byte
}

// Open prepares a store rooted at dir, creating it when missing.
func Open(dir string) (*Store, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, fmt.Errorf("storage dir is empty")
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{
		dir:     trimmed,
		session: make(map[string][]byte),
	}, nil
}

// Put serializes value and stores the complete result under key.
func (s *Store) Put(scope Scope, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if scope == Session {
		s.mu.Lock()
		s.session[key] = data
		s.mu.Unlock()
		return nil
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Get loads the value stored under key into dest. It reports false with a nil
// error when the key has never been written; decode failures surface as
// errors so callers can fall back to their backup slot.
func (s *Store) Get(scope Scope, key string, dest any) (bool, error) {
	var data []byte
	if scope == Session {
		s.mu.RLock()
		data = s.session[key]
		s.mu.RUnlock()
		if data == nil {
			return false, nil
		}
	} else {
		raw, err := os.ReadFile(s.path(key))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return false, nil
			}
			return false, fmt.Errorf("read %s: %w", key, err)
		}
		data = raw
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Delete removes key from the given scope. Deleting a missing key is a no-op.
func (s *Store) Delete(scope Scope, key string) error {
	if scope == Session {
		s.mu.Lock()
		delete(s.session, key)
		s.mu.Unlock()
		return nil
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	// Keys use ':' as a namespace separator; keep filenames portable.
	name := strings.ReplaceAll(key, ":", "_") + ".json"
	return filepath.Join(s.dir, name)
}

// Key builders for the namespaces the sync core uses.

// OrdersKey holds the primary snapshot of a station's four collections.
func OrdersKey(stationID int) string {
	return fmt.Sprintf("orders:%d", stationID)
}

// OrdersBackupKey holds the redundant snapshot copy written alongside the
// primary, read only when the primary is missing or unreadable.
func OrdersBackupKey(stationID int) string {
	return fmt.Sprintf("orders:%d:backup", stationID)
}

// LocalOrdersKey holds the backlog of walk-in orders created at a station
// before the server acknowledged them.
func LocalOrdersKey(stationID int) string {
	return fmt.Sprintf("local-orders:%d", stationID)
}

// SyncQueueKey holds writes recorded while degraded, pending replay.
const SyncQueueKey = "sync-queue"
