package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/photoshare/internal/model"
	appErr "github.com/xxxsen/photoshare/internal/pkg/errors"
	"github.com/xxxsen/photoshare/internal/pkg/jwt"
	"github.com/xxxsen/photoshare/internal/pkg/password"
	"github.com/xxxsen/photoshare/internal/userstore"
)

type AuthService struct {
	users      userstore.Store
	jwtSecret  []byte
	jwtTTL     time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(users userstore.Store, secret []byte, ttl time.Duration, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		jwtSecret:  secret,
		jwtTTL:     ttl,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Signup writes the record unconditionally: signing up again with the same
// email replaces the previous record, profile image included.
// TODO: decide with product whether duplicates should be rejected with 409.
func (s *AuthService) Signup(ctx context.Context, email, plainPassword, name string) error {
	hash, err := password.HashWithCost(plainPassword, s.bcryptCost)
	if err != nil {
		return appErr.Infrastructure(err)
	}
	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Put(ctx, user); err != nil {
		return appErr.Infrastructure(err)
	}
	logutil.GetLogger(ctx).Info("user registered", zap.String("email", email))
	return nil
}

// Login returns the user and a signed session token. Unknown emails and
// wrong passwords produce different messages.
func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	if email == "" {
		return nil, "", appErr.NotFound(appErr.MsgUserNotFound)
	}
	user, err := s.users.Get(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, "", appErr.NotFound(appErr.MsgUserNotFound)
		}
		return nil, "", appErr.Infrastructure(err)
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		if password.IsMismatch(err) {
			return nil, "", appErr.Auth(appErr.MsgIncorrectPassword)
		}
		return nil, "", appErr.Infrastructure(err)
	}
	token, err := jwt.GenerateToken(user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", appErr.Infrastructure(err)
	}
	return user, token, nil
}
