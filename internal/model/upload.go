package model

import "time"

// UploadTicket is what the upload flow hands back to the client: a
// single-use PUT capability and a preview URL for the same object.
type UploadTicket struct {
	ObjectKey string
	UploadURL string
	ReadURL   string
}

// Profile is the client-facing projection of a User.
type Profile struct {
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"createdAt"`
	ProfileImageURL string    `json:"profileImageURL,omitempty"`
}
