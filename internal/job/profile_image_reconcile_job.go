package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/photoshare/internal/blobstore"
	"github.com/xxxsen/photoshare/internal/metrics"
	"github.com/xxxsen/photoshare/internal/userstore"
)

const ProfileImageReconcileJobName = "profile_image_reconcile"

// ProfileImageReconcileJob clears profile image references whose object
// never showed up in the blob store. References younger than grace are left
// alone since their upload may still be in flight.
type ProfileImageReconcileJob struct {
	users   userstore.Store
	blobs   blobstore.Store
	grace   time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewProfileImageReconcileJob(users userstore.Store, blobs blobstore.Store, grace time.Duration, m *metrics.Metrics) *ProfileImageReconcileJob {
	return &ProfileImageReconcileJob{users: users, blobs: blobs, grace: grace, metrics: m, now: time.Now}
}

func (j *ProfileImageReconcileJob) Name() string {
	return ProfileImageReconcileJobName
}

func (j *ProfileImageReconcileJob) Run(ctx context.Context) error {
	if j.users == nil || j.blobs == nil {
		return nil
	}
	grace := j.grace
	if grace <= 0 {
		grace = 10 * time.Minute
	}
	cutoff := j.now().Add(-grace)
	users, err := j.users.ListWithProfileImage(ctx)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("job", j.Name()))
	cleared := 0
	for _, user := range users {
		if !user.ProfileImageUpdatedAt.IsZero() && user.ProfileImageUpdatedAt.After(cutoff) {
			continue
		}
		exists, err := j.blobs.Exists(ctx, user.ProfileImageURL)
		if err != nil {
			logger.Warn("check object failed", zap.String("email", user.Email), zap.Error(err))
			continue
		}
		if exists {
			continue
		}
		if err := j.users.ClearProfileImage(ctx, user.Email, user.ProfileImageURL); err != nil {
			return err
		}
		cleared++
		logger.Info("dangling profile image cleared",
			zap.String("email", user.Email),
			zap.String("key", user.ProfileImageURL),
		)
	}
	j.metrics.ObserveReconciled(cleared)
	return nil
}
