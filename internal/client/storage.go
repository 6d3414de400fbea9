package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StateKey is the fixed storage key of the session snapshot.
const StateKey = "photoshare.session"

// LocalStorage is a string key/value file, the command-line stand-in for a
// browser's localStorage.
type LocalStorage struct {
	mu   sync.Mutex
	path string
}

func NewLocalStorage(path string) *LocalStorage {
	return &LocalStorage{path: path}
}

func (l *LocalStorage) GetItem(key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	items, err := l.readLocked()
	if err != nil {
		return "", false, err
	}
	value, ok := items[key]
	return value, ok, nil
}

func (l *LocalStorage) SetItem(key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	items, err := l.readLocked()
	if err != nil {
		return err
	}
	items[key] = value
	return l.writeLocked(items)
}

func (l *LocalStorage) RemoveItem(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	items, err := l.readLocked()
	if err != nil {
		return err
	}
	delete(items, key)
	return l.writeLocked(items)
}

func (l *LocalStorage) readLocked() (map[string]string, error) {
	items := map[string]string{}
	raw, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return items, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.path, err)
	}
	return items, nil
}

func (l *LocalStorage) writeLocked(items map[string]string) error {
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return err
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}

// LoadSession rehydrates the session from storage. A missing or unreadable
// snapshot yields a signed-out session.
func LoadSession(storage *LocalStorage) (*Session, error) {
	raw, ok, err := storage.GetItem(StateKey)
	if err != nil {
		return nil, err
	}
	var state State
	if ok {
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			state = State{}
		}
	}
	return NewSession(state), nil
}

// PersistTo saves every session change to storage. onErr may be nil.
func PersistTo(session *Session, storage *LocalStorage, onErr func(error)) {
	session.Subscribe(func(state State) {
		raw, err := json.Marshal(state)
		if err == nil {
			err = storage.SetItem(StateKey, string(raw))
		}
		if err != nil && onErr != nil {
			onErr(err)
		}
	})
}
