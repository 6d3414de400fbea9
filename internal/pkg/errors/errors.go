package errors

import (
	"errors"

	"github.com/xxxsen/photoshare/internal/pkg/errcode"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
)

const (
	MsgMissingBody         = "Missing request body"
	MsgMalformedJSON       = "Malformed JSON input"
	MsgUserNotFound        = "User not found"
	MsgIncorrectPassword   = "Incorrect password"
	MsgMissingToken        = "Missing or invalid token"
	MsgInvalidToken        = "Invalid token"
	MsgMissingFields       = "Missing required fields"
	MsgRegistered          = "User registered successfully!"
	MsgProfileImageUpdated = "Profile image updated successfully!"
)

// Error carries the classification used by the handler boundary.
type Error struct {
	Kind    errcode.Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ClientInput(msg string) error {
	return &Error{Kind: errcode.KindClientInput, Message: msg, Err: ErrInvalid}
}

func Auth(msg string) error {
	return &Error{Kind: errcode.KindAuth, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: errcode.KindNotFound, Message: msg, Err: ErrNotFound}
}

// Infrastructure keeps the message of err verbatim.
func Infrastructure(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: errcode.KindInfrastructure, Message: err.Error(), Err: err}
}

func KindOf(err error) errcode.Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return errcode.KindInfrastructure
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
