package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/photoshare/internal/blobstore"
	"github.com/xxxsen/photoshare/internal/model"
	appErr "github.com/xxxsen/photoshare/internal/pkg/errors"
	"github.com/xxxsen/photoshare/internal/userstore"
)

type ProfileService struct {
	users     userstore.Store
	blobs     blobstore.Store
	uploadTTL time.Duration
	readTTL   time.Duration
	now       func() time.Time
	newKey    func(filename string) string
}

func NewProfileService(users userstore.Store, blobs blobstore.Store, uploadTTL, readTTL time.Duration) *ProfileService {
	return &ProfileService{
		users:     users,
		blobs:     blobs,
		uploadTTL: uploadTTL,
		readTTL:   readTTL,
		now:       time.Now,
		newKey:    newObjectKey,
	}
}

// RequestUpload issues the upload capability for email's profile image.
// The record points at the new key before the client has uploaded anything;
// Profile and the reconcile job cope with the object never arriving.
func (s *ProfileService) RequestUpload(ctx context.Context, email, filename, contentType string) (*model.UploadTicket, error) {
	filename = strings.TrimSpace(filename)
	contentType = strings.TrimSpace(contentType)
	if filename == "" || contentType == "" {
		return nil, appErr.ClientInput(appErr.MsgMissingFields)
	}
	key := s.newKey(filename)
	uploadURL, err := s.blobs.PresignPut(ctx, key, contentType, s.uploadTTL)
	if err != nil {
		return nil, appErr.Infrastructure(err)
	}
	if err := s.users.SetProfileImage(ctx, email, key, s.now().UTC()); err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.NotFound(appErr.MsgUserNotFound)
		}
		return nil, appErr.Infrastructure(err)
	}
	readURL, err := s.blobs.PresignGet(ctx, key, s.readTTL)
	if err != nil {
		return nil, appErr.Infrastructure(err)
	}
	logutil.GetLogger(ctx).Info("profile image upload url issued",
		zap.String("email", email),
		zap.String("key", key),
		zap.String("content_type", contentType),
	)
	return &model.UploadTicket{ObjectKey: key, UploadURL: uploadURL, ReadURL: readURL}, nil
}

// Profile returns the user's public fields. The image URL is re-signed on
// every call and left out while the object is missing.
func (s *ProfileService) Profile(ctx context.Context, email string) (*model.Profile, error) {
	user, err := s.users.Get(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.NotFound(appErr.MsgUserNotFound)
		}
		return nil, appErr.Infrastructure(err)
	}
	profile := &model.Profile{
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}
	if !user.HasProfileImage() {
		return profile, nil
	}
	exists, err := s.blobs.Exists(ctx, user.ProfileImageURL)
	if err != nil {
		logutil.GetLogger(ctx).Warn("check profile image failed",
			zap.String("email", email), zap.String("key", user.ProfileImageURL), zap.Error(err))
		return profile, nil
	}
	if !exists {
		return profile, nil
	}
	readURL, err := s.blobs.PresignGet(ctx, user.ProfileImageURL, s.readTTL)
	if err != nil {
		return nil, appErr.Infrastructure(err)
	}
	profile.ProfileImageURL = readURL
	return profile, nil
}
