package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xxxsen/photoshare/internal/blobstore"
	"github.com/xxxsen/photoshare/internal/config"
	"github.com/xxxsen/photoshare/internal/handler"
	"github.com/xxxsen/photoshare/internal/metrics"
	"github.com/xxxsen/photoshare/internal/service"
	"github.com/xxxsen/photoshare/internal/userstore"
)

var testSecret = []byte("test-secret")

type fixture struct {
	router http.Handler
	users  userstore.Store
	blobs  *blobstore.LocalStore
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := userstore.NewMemoryStore()
	blobs, err := blobstore.NewLocalStore(t.TempDir(), "http://localhost:8080", testSecret, 0)
	require.NoError(t, err)
	m := metrics.New()

	authService := service.NewAuthService(users, testSecret, time.Hour, bcrypt.MinCost)
	profileService := service.NewProfileService(users, blobs, time.Minute, time.Hour)

	router := handler.NewRouter(handler.RouterDeps{
		Auth:        handler.NewAuthHandler(authService, m),
		Upload:      handler.NewUploadHandler(profileService, m),
		Profile:     handler.NewProfileHandler(profileService),
		Blobs:       handler.NewBlobHandler(blobs),
		Metrics:     m,
		MetricsPath: "/metrics",
		JWTSecret:   testSecret,
		CORS: config.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"POST"},
			AllowHeaders: []string{"Content-Type"},
		},
	})
	return &fixture{router: router, users: users, blobs: blobs}
}

func (f *fixture) do(t *testing.T, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func (f *fixture) postJSON(t *testing.T, target string, payload interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	headers := map[string]string{"Content-Type": "application/json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return f.do(t, http.MethodPost, target, bytes.NewReader(raw), headers)
}

func (f *fixture) signupAndLogin(t *testing.T, email, password, name string) string {
	t.Helper()
	resp := f.postJSON(t, "/signup", map[string]string{"email": email, "password": password, "name": name}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	resp = f.postJSON(t, "/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var data struct {
		JWT string `json:"jwt"`
	}
	decodeData(t, resp, &data)
	require.NotEmpty(t, data.JWT)
	return data.JWT
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	env := decode(t, resp)
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func requireFailure(t *testing.T, resp *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, resp.Code, resp.Body.String())
	env := decode(t, resp)
	require.False(t, env.Success)
	require.Equal(t, message, env.Error)
	var data struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, message, data.Message)
}

// localTarget turns an absolute signed URL into a request target for the
// in-process router.
func localTarget(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.RequestURI()
}
