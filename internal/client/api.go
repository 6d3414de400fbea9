package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the backend or the blob store.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

type LoginUser struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type LoginResult struct {
	JWT  string    `json:"jwt"`
	User LoginUser `json:"user"`
}

type UploadURLs struct {
	Message               string `json:"message"`
	ProfileImageUploadURL string `json:"profileImageUploadURL"`
	SignedProfileImageURL string `json:"signedProfileImageURL"`
}

type Profile struct {
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"createdAt"`
	ProfileImageURL string    `json:"profileImageURL"`
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type messageData struct {
	Message string `json:"message"`
}

// API talks to the photoshare backend.
type API struct {
	baseURL string
	http    *http.Client
}

func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (a *API) Signup(ctx context.Context, name, email, password string) (string, error) {
	var out messageData
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := a.call(ctx, http.MethodPost, "/signup", "", body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (a *API) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := a.call(ctx, http.MethodPost, "/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) RequestUpload(ctx context.Context, token, filename, contentType string) (*UploadURLs, error) {
	var out UploadURLs
	body := map[string]string{
		"profileImageFilename":    filename,
		"profileImageContentType": contentType,
	}
	if err := a.call(ctx, http.MethodPost, "/upload", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Profile(ctx context.Context, token string) (*Profile, error) {
	var out Profile
	if err := a.call(ctx, http.MethodGet, "/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PutObject sends raw bytes to a pre-signed upload URL. The content type
// must match the one the URL was signed for.
func (a *API) PutObject(ctx context.Context, url, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (a *API) call(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: failureMessage(env, decodeErr, raw)}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s response: %w", path, decodeErr)
	}
	if !env.Success {
		return &APIError{Status: resp.StatusCode, Message: failureMessage(env, nil, raw)}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}

func failureMessage(env envelope, decodeErr error, raw []byte) string {
	if decodeErr != nil {
		return strings.TrimSpace(string(raw))
	}
	if env.Error != "" {
		return env.Error
	}
	var msg messageData
	if len(env.Data) > 0 && json.Unmarshal(env.Data, &msg) == nil {
		return msg.Message
	}
	return ""
}
