package job

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/photoshare/internal/blobstore"
	"github.com/xxxsen/photoshare/internal/metrics"
	"github.com/xxxsen/photoshare/internal/model"
	"github.com/xxxsen/photoshare/internal/userstore"
)

func TestProfileImageReconcileJob(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0).UTC()
	users := userstore.NewMemoryStore()
	blobs, err := blobstore.NewLocalStore(t.TempDir(), "http://localhost:8080", []byte("s"), 0)
	require.NoError(t, err)

	seed := func(email, key string, at time.Time) {
		require.NoError(t, users.Put(ctx, &model.User{Email: email}))
		require.NoError(t, users.SetProfileImage(ctx, email, key, at))
	}
	seed("dangling@x.com", "k-dangling", now.Add(-time.Hour))
	seed("fresh@x.com", "k-fresh", now.Add(-time.Minute))
	seed("uploaded@x.com", "k-uploaded", now.Add(-time.Hour))
	require.NoError(t, users.Put(ctx, &model.User{Email: "plain@x.com"}))
	require.NoError(t, blobs.Save(ctx, "k-uploaded", strings.NewReader("img")))

	j := NewProfileImageReconcileJob(users, blobs, 10*time.Minute, metrics.New())
	j.now = func() time.Time { return now }
	require.Equal(t, "profile_image_reconcile", j.Name())
	require.NoError(t, j.Run(ctx))

	got, err := users.Get(ctx, "dangling@x.com")
	require.NoError(t, err)
	require.False(t, got.HasProfileImage())

	got, err = users.Get(ctx, "fresh@x.com")
	require.NoError(t, err)
	require.Equal(t, "k-fresh", got.ProfileImageURL)

	got, err = users.Get(ctx, "uploaded@x.com")
	require.NoError(t, err)
	require.Equal(t, "k-uploaded", got.ProfileImageURL)
}

func TestProfileImageReconcileJobNilDeps(t *testing.T) {
	require.NoError(t, NewProfileImageReconcileJob(nil, nil, 0, nil).Run(context.Background()))
}
