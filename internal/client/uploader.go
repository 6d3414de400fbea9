package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the largest profile image the client will send.
const MaxImageSize int64 = 5 * 1024 * 1024

var (
	ErrNotImage      = errors.New("please select an image file")
	ErrImageTooLarge = errors.New("image is larger than 5MB")
	ErrNoFile        = errors.New("no file selected")
	ErrLoginRequired = errors.New("please log in first")
	ErrBusy          = errors.New("an upload is already in progress")
)

type UploadState int

const (
	StateIdle UploadState = iota
	StateFileSelected
	StateRequestingUploadURL
	StateUploadingToBlobStore
	StateDone
	StateFailed
)

func (s UploadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileSelected:
		return "file_selected"
	case StateRequestingUploadURL:
		return "requesting_upload_url"
	case StateUploadingToBlobStore:
		return "uploading_to_blob_store"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type SelectedFile struct {
	Path        string
	Name        string
	ContentType string
	Size        int64
}

type UploadResult struct {
	UploadURL string
	ReadURL   string
}

// Uploader drives one profile-image upload at a time: ask the backend for
// pre-signed URLs, then PUT the bytes straight to the blob store.
type Uploader struct {
	api     *API
	session *Session

	mu           sync.Mutex
	state        UploadState
	file         *SelectedFile
	lastErr      error
	onTransition func(from, to UploadState)
}

func NewUploader(api *API, session *Session) *Uploader {
	return &Uploader{api: api, session: session}
}

// OnTransition registers a callback fired on every state change.
func (u *Uploader) OnTransition(fn func(from, to UploadState)) {
	u.mu.Lock()
	u.onTransition = fn
	u.mu.Unlock()
}

func (u *Uploader) State() UploadState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *Uploader) File() *SelectedFile {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.file == nil {
		return nil
	}
	f := *u.file
	return &f
}

func (u *Uploader) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastErr
}

// Select validates path as a candidate profile image. A rejected file
// clears any previous selection and leaves the uploader idle.
func (u *Uploader) Select(path string) error {
	if u.busy() {
		return ErrBusy
	}
	file, err := inspectImage(path)
	if err != nil {
		u.mu.Lock()
		u.file = nil
		u.lastErr = err
		u.mu.Unlock()
		u.transition(StateIdle)
		return err
	}
	u.mu.Lock()
	u.file = file
	u.lastErr = nil
	u.mu.Unlock()
	u.transition(StateFileSelected)
	return nil
}

// Submit uploads the selected file. Nothing is sent when no file is
// selected or the session is signed out. On failure the selection is kept
// so the caller can retry.
func (u *Uploader) Submit(ctx context.Context) (*UploadResult, error) {
	if u.busy() {
		return nil, ErrBusy
	}
	file := u.File()
	if file == nil {
		return nil, ErrNoFile
	}
	if !u.session.IsLoggedIn() {
		return nil, ErrLoginRequired
	}
	u.transition(StateRequestingUploadURL)
	urls, err := u.api.RequestUpload(ctx, u.session.Token(), file.Name, file.ContentType)
	if err != nil {
		return nil, u.fail(err)
	}
	u.transition(StateUploadingToBlobStore)
	if err := u.put(ctx, file, urls.ProfileImageUploadURL); err != nil {
		return nil, u.fail(err)
	}
	u.session.SetProfileImage(urls.SignedProfileImageURL)
	u.mu.Lock()
	u.file = nil
	u.lastErr = nil
	u.mu.Unlock()
	u.transition(StateDone)
	return &UploadResult{UploadURL: urls.ProfileImageUploadURL, ReadURL: urls.SignedProfileImageURL}, nil
}

func (u *Uploader) put(ctx context.Context, file *SelectedFile, url string) error {
	f, err := os.Open(file.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return u.api.PutObject(ctx, url, file.ContentType, f, file.Size)
}

func (u *Uploader) fail(err error) error {
	u.mu.Lock()
	u.lastErr = err
	u.mu.Unlock()
	u.transition(StateFailed)
	return err
}

func (u *Uploader) busy() bool {
	s := u.State()
	return s == StateRequestingUploadURL || s == StateUploadingToBlobStore
}

func (u *Uploader) transition(to UploadState) {
	u.mu.Lock()
	from := u.state
	u.state = to
	fn := u.onTransition
	u.mu.Unlock()
	if fn != nil && from != to {
		fn(from, to)
	}
}

func inspectImage(path string) (*SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotImage
	}
	if info.Size() > MaxImageSize {
		return nil, ErrImageTooLarge
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, err
	}
	contentType := strings.TrimSpace(strings.SplitN(mt.String(), ";", 2)[0])
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotImage
	}
	return &SelectedFile{
		Path:        path,
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
	}, nil
}
