package userstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/photoshare/internal/config"
	"github.com/xxxsen/photoshare/internal/model"
)

// Store is the credential store. Records are keyed by email and every
// backend must return appErr.ErrNotFound for a missing key.
type Store interface {
	// Put writes the whole record unconditionally, replacing any previous one.
	Put(ctx context.Context, user *model.User) error
	Get(ctx context.Context, email string) (*model.User, error)
	// SetProfileImage updates an existing record only.
	SetProfileImage(ctx context.Context, email, key string, at time.Time) error
	// ClearProfileImage removes the reference if it still equals key.
	ClearProfileImage(ctx context.Context, email, key string) error
	ListWithProfileImage(ctx context.Context) ([]*model.User, error)
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.StoreConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("user_store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported user store type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode store config: %w", err)
	}
	return nil
}

func validateKey(email string) error {
	if email == "" {
		return fmt.Errorf("email key must not be empty")
	}
	return nil
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
