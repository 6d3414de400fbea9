package userstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xxxsen/photoshare/internal/model"
	appErr "github.com/xxxsen/photoshare/internal/pkg/errors"
)

type memoryStore struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func init() {
	Register("memory", func(args interface{}) (Store, error) {
		return NewMemoryStore(), nil
	})
}

// NewMemoryStore returns a process-local store, used for development and tests.
func NewMemoryStore() Store {
	return &memoryStore{users: make(map[string]*model.User)}
}

func (s *memoryStore) Put(ctx context.Context, user *model.User) error {
	if err := validateKey(user.Email); err != nil {
		return err
	}
	s.mu.Lock()
	s.users[user.Email] = cloneUser(user)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Get(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[email]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *memoryStore) SetProfileImage(ctx context.Context, email, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return appErr.ErrNotFound
	}
	user.ProfileImageURL = key
	user.ProfileImageUpdatedAt = at
	return nil
}

func (s *memoryStore) ClearProfileImage(ctx context.Context, email, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok || user.ProfileImageURL != key {
		return nil
	}
	user.ProfileImageURL = ""
	user.ProfileImageUpdatedAt = time.Time{}
	return nil
}

func (s *memoryStore) ListWithProfileImage(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.User, 0, len(s.users))
	for _, user := range s.users {
		if user.HasProfileImage() {
			out = append(out, cloneUser(user))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
