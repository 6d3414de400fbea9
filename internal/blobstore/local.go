package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const defaultLocalMaxSize = 5 << 20

var (
	ErrInvalidKey       = errors.New("invalid object key")
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrObjectTooLarge   = errors.New("object too large")
)

type localConfig struct {
	Dir       string `json:"dir"`
	PublicURL string `json:"public_url"`
	Secret    string `json:"secret"`
	MaxSize   int64  `json:"max_size"`
}

// blobClaims binds a signed URL to one method, one key and, for uploads,
// one content type.
type blobClaims struct {
	Method      string `json:"m"`
	Key         string `json:"k"`
	ContentType string `json:"ct,omitempty"`
	jwtlib.RegisteredClaims
}

// LocalStore keeps objects on disk and serves them through signed URLs
// routed back to this process under /blobs/:key.
type LocalStore struct {
	dir       string
	publicURL string
	secret    []byte
	maxSize   int64
	now       func() time.Time
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return NewLocalStore(cfg.Dir, cfg.PublicURL, []byte(cfg.Secret), cfg.MaxSize)
}

func NewLocalStore(dir, publicURL string, secret []byte, maxSize int64) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	if publicURL == "" {
		return nil, fmt.Errorf("local store public_url is required")
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("local store secret is required")
	}
	if maxSize <= 0 {
		maxSize = defaultLocalMaxSize
	}
	return &LocalStore{
		dir:       dir,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		secret:    secret,
		maxSize:   maxSize,
		now:       time.Now,
	}, nil
}

func (s *LocalStore) Type() string {
	return "local"
}

func (s *LocalStore) MaxObjectSize() int64 {
	return s.maxSize
}

func (s *LocalStore) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return s.sign("PUT", key, contentType, ttl)
}

func (s *LocalStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return s.sign("GET", key, "", ttl)
}

func (s *LocalStore) sign(method, key, contentType string, ttl time.Duration) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	now := s.now()
	claims := blobClaims{
		Method:      method,
		Key:         key,
		ContentType: contentType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("expires", fmt.Sprintf("%d", int64(ttl/time.Second)))
	q.Set("token", token)
	return s.publicURL + "/blobs/" + url.PathEscape(key) + "?" + q.Encode(), nil
}

// Verify checks a token taken from a signed URL. contentType is only
// compared for uploads.
func (s *LocalStore) Verify(method, key, contentType, token string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	claims := &blobClaims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (interface{}, error) {
		if t.Method.Alg() != jwtlib.SigningMethodHS256.Alg() {
			return nil, ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwtlib.WithExpirationRequired(), jwtlib.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return ErrSignatureInvalid
	}
	if claims.Method != method || claims.Key != key {
		return ErrSignatureInvalid
	}
	if method == "PUT" && claims.ContentType != "" && claims.ContentType != contentType {
		return ErrSignatureInvalid
	}
	return nil
}

func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	n, err := io.Copy(tmp, io.LimitReader(r, s.maxSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if n > s.maxSize {
		return ErrObjectTooLarge
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, key))
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.dir, key))
}

func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.dir, key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.HasPrefix(key, ".") {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, "/\\") {
		return ErrInvalidKey
	}
	return nil
}
