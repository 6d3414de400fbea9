package handler_test

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/photoshare/internal/pkg/errors"
	"github.com/xxxsen/photoshare/internal/pkg/jwt"
)

type uploadData struct {
	Message               string `json:"message"`
	ProfileImageUploadURL string `json:"profileImageUploadURL"`
	SignedProfileImageURL string `json:"signedProfileImageURL"`
}

func TestUploadFlow(t *testing.T) {
	f := setupRouter(t)
	token := f.signupAndLogin(t, "a@x.com", "pw", "A")

	resp := f.postJSON(t, "/upload", map[string]string{
		"profileImageFilename":    "me.png",
		"profileImageContentType": "image/png",
	}, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var data uploadData
	decodeData(t, resp, &data)
	require.Equal(t, "Profile image updated successfully!", data.Message)
	require.NotEqual(t, data.ProfileImageUploadURL, data.SignedProfileImageURL)

	putURL, err := url.Parse(data.ProfileImageUploadURL)
	require.NoError(t, err)
	require.Equal(t, "60", putURL.Query().Get("expires"))
	getURL, err := url.Parse(data.SignedProfileImageURL)
	require.NoError(t, err)
	require.Equal(t, "3600", getURL.Query().Get("expires"))

	key := strings.TrimPrefix(putURL.Path, "/blobs/")
	require.True(t, strings.HasSuffix(key, "-me.png"))
	user, err := f.users.Get(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.Equal(t, key, user.ProfileImageURL)

	// the object is not there until the client uploads it
	resp = f.do(t, http.MethodGet, localTarget(t, data.SignedProfileImageURL), nil, nil)
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = f.do(t, http.MethodPut, localTarget(t, data.ProfileImageUploadURL), bytes.NewReader([]byte("png-bytes")),
		map[string]string{"Content-Type": "image/jpeg"})
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = f.do(t, http.MethodPut, localTarget(t, data.ProfileImageUploadURL), bytes.NewReader([]byte("png-bytes")),
		map[string]string{"Content-Type": "image/png"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(t, http.MethodGet, localTarget(t, data.SignedProfileImageURL), nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "png-bytes", resp.Body.String())
	require.Equal(t, "image/png", resp.Header().Get("Content-Type"))

	resp = f.do(t, http.MethodGet, localTarget(t, data.ProfileImageUploadURL), nil, nil)
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = f.do(t, http.MethodGet, "/profile", nil, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, resp.Code)
	var profile struct {
		Email           string `json:"email"`
		Name            string `json:"name"`
		ProfileImageURL string `json:"profileImageURL"`
	}
	decodeData(t, resp, &profile)
	require.Equal(t, "a@x.com", profile.Email)
	require.Contains(t, profile.ProfileImageURL, "/blobs/"+key+"?")
}

func TestUploadRequiresToken(t *testing.T) {
	f := setupRouter(t)
	f.signupAndLogin(t, "a@x.com", "pw", "A")
	body := map[string]string{"profileImageFilename": "me.png", "profileImageContentType": "image/png"}

	resp := f.postJSON(t, "/upload", body, "")
	requireFailure(t, resp, http.StatusUnauthorized, appErr.MsgMissingToken)
	require.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))

	raw, _ := jwt.GenerateToken("a@x.com", testSecret, time.Hour)
	resp = f.do(t, http.MethodPost, "/upload", strings.NewReader(`{}`), map[string]string{"Authorization": raw})
	requireFailure(t, resp, http.StatusUnauthorized, appErr.MsgMissingToken)

	resp = f.postJSON(t, "/upload", body, "not-a-jwt")
	requireFailure(t, resp, http.StatusUnauthorized, appErr.MsgInvalidToken)

	foreign, err := jwt.GenerateToken("a@x.com", []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	resp = f.postJSON(t, "/upload", body, foreign)
	requireFailure(t, resp, http.StatusUnauthorized, appErr.MsgInvalidToken)

	expired, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwt.Claims{
		UserID: "a@x.com",
		Email:  "a@x.com",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "a@x.com",
			IssuedAt:  jwtlib.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString(testSecret)
	require.NoError(t, err)
	resp = f.postJSON(t, "/upload", body, expired)
	requireFailure(t, resp, http.StatusUnauthorized, appErr.MsgInvalidToken)

	user, err := f.users.Get(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.False(t, user.HasProfileImage())
}

func TestUploadValidation(t *testing.T) {
	f := setupRouter(t)
	token := f.signupAndLogin(t, "a@x.com", "pw", "A")

	resp := f.postJSON(t, "/upload", map[string]string{"profileImageFilename": "me.png"}, token)
	requireFailure(t, resp, http.StatusBadRequest, appErr.MsgMissingFields)

	resp = f.postJSON(t, "/upload", map[string]string{"profileImageContentType": "image/png"}, token)
	requireFailure(t, resp, http.StatusBadRequest, appErr.MsgMissingFields)

	resp = f.do(t, http.MethodPost, "/upload", nil, map[string]string{"Authorization": "Bearer " + token})
	requireFailure(t, resp, http.StatusBadRequest, appErr.MsgMissingFields)

	resp = f.do(t, http.MethodPost, "/upload", strings.NewReader("{oops"), map[string]string{"Authorization": "Bearer " + token})
	requireFailure(t, resp, http.StatusBadRequest, appErr.MsgMalformedJSON)

	user, err := f.users.Get(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.False(t, user.HasProfileImage())
}

func TestUploadForUnknownUser(t *testing.T) {
	f := setupRouter(t)
	token, err := jwt.GenerateToken("ghost@x.com", testSecret, time.Hour)
	require.NoError(t, err)

	resp := f.postJSON(t, "/upload", map[string]string{
		"profileImageFilename":    "me.png",
		"profileImageContentType": "image/png",
	}, token)
	requireFailure(t, resp, http.StatusUnauthorized, appErr.MsgUserNotFound)
}

func TestRepeatedUploadsReplaceReference(t *testing.T) {
	f := setupRouter(t)
	token := f.signupAndLogin(t, "a@x.com", "pw", "A")
	body := map[string]string{"profileImageFilename": "me.png", "profileImageContentType": "image/png"}

	var first, second uploadData
	decodeData(t, f.postJSON(t, "/upload", body, token), &first)
	decodeData(t, f.postJSON(t, "/upload", body, token), &second)
	require.NotEqual(t, first.ProfileImageUploadURL, second.ProfileImageUploadURL)

	u, err := url.Parse(second.ProfileImageUploadURL)
	require.NoError(t, err)
	user, err := f.users.Get(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.Equal(t, strings.TrimPrefix(u.Path, "/blobs/"), user.ProfileImageURL)
}

func TestBlobTooLarge(t *testing.T) {
	f := setupRouter(t)
	token := f.signupAndLogin(t, "a@x.com", "pw", "A")
	var data uploadData
	decodeData(t, f.postJSON(t, "/upload", map[string]string{
		"profileImageFilename":    "big.png",
		"profileImageContentType": "image/png",
	}, token), &data)

	resp := f.do(t, http.MethodPut, localTarget(t, data.ProfileImageUploadURL),
		bytes.NewReader(make([]byte, f.blobs.MaxObjectSize()+1)),
		map[string]string{"Content-Type": "image/png"})
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupRouter(t)
	f.signupAndLogin(t, "a@x.com", "pw", "A")

	resp := f.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "photoshare_auth_events_total")
}
