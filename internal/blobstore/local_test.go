package blobstore

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/photoshare/internal/config"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "http://localhost:8080/", []byte("secret"), 16)
	require.NoError(t, err)
	return store
}

func tokenOf(t *testing.T, raw string) (string, url.Values) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return strings.TrimPrefix(u.Path, "/blobs/"), u.Query()
}

func TestLocalStoreSignAndVerify(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	putURL, err := store.PresignPut(ctx, "k1.png", "image/png", time.Minute)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(putURL, "http://localhost:8080/blobs/k1.png?"))
	key, q := tokenOf(t, putURL)
	require.Equal(t, "60", q.Get("expires"))

	require.NoError(t, store.Verify("PUT", key, "image/png", q.Get("token")))
	require.ErrorIs(t, store.Verify("PUT", key, "image/jpeg", q.Get("token")), ErrSignatureInvalid)
	require.ErrorIs(t, store.Verify("GET", key, "", q.Get("token")), ErrSignatureInvalid)
	require.ErrorIs(t, store.Verify("PUT", "k2.png", "image/png", q.Get("token")), ErrSignatureInvalid)
	require.ErrorIs(t, store.Verify("PUT", key, "image/png", "garbage"), ErrSignatureInvalid)

	other, err := NewLocalStore(t.TempDir(), "http://localhost:8080", []byte("other"), 0)
	require.NoError(t, err)
	require.ErrorIs(t, other.Verify("PUT", key, "image/png", q.Get("token")), ErrSignatureInvalid)

	getURL, err := store.PresignGet(ctx, "k1.png", time.Hour)
	require.NoError(t, err)
	key, q = tokenOf(t, getURL)
	require.NoError(t, store.Verify("GET", key, "", q.Get("token")))
}

func TestLocalStoreVerifyExpired(t *testing.T) {
	store := newTestLocalStore(t)
	base := time.Now()
	store.now = func() time.Time { return base }

	putURL, err := store.PresignPut(context.Background(), "k1.png", "image/png", time.Minute)
	require.NoError(t, err)
	_, q := tokenOf(t, putURL)

	store.now = func() time.Time { return base.Add(61 * time.Second) }
	require.ErrorIs(t, store.Verify("PUT", "k1.png", "image/png", q.Get("token")), ErrSignatureInvalid)
}

func TestLocalStoreSaveOpenExists(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "k1.png")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, store.Save(ctx, "k1.png", bytes.NewReader([]byte("png-bytes"))))
	exists, err = store.Exists(ctx, "k1.png")
	require.NoError(t, err)
	require.True(t, exists)

	f, err := store.Open(ctx, "k1.png")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))

	require.ErrorIs(t, store.Save(ctx, "big.png", bytes.NewReader(make([]byte, 17))), ErrObjectTooLarge)
	exists, err = store.Exists(ctx, "big.png")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestLocalStoreRejectsBadKeys(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()
	for _, key := range []string{"", ".", "..", ".hidden", "a/b", `a\b`} {
		_, err := store.PresignPut(ctx, key, "image/png", time.Minute)
		require.ErrorIs(t, err, ErrInvalidKey, key)
		require.ErrorIs(t, store.Save(ctx, key, strings.NewReader("x")), ErrInvalidKey, key)
	}
}

func TestLocalStoreFromConfig(t *testing.T) {
	_, err := New(config.StoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.Error(t, err)

	store, err := New(config.StoreConfig{Type: "local", Data: map[string]interface{}{
		"dir":        t.TempDir(),
		"public_url": "http://localhost:8080",
		"secret":     "s",
	}})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())
	_, ok := store.(FileServer)
	require.True(t, ok)
	require.Equal(t, int64(5<<20), store.(FileServer).MaxObjectSize())
}
