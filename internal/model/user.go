package model

import "time"

// User is the credential record keyed by Email. PasswordHash never leaves
// the server.
type User struct {
	Email                 string    `json:"email"`
	Name                  string    `json:"name"`
	PasswordHash          string    `json:"-"`
	CreatedAt             time.Time `json:"createdAt"`
	ProfileImageURL       string    `json:"profileImageUrl,omitempty"`
	ProfileImageUpdatedAt time.Time `json:"profileImageUpdatedAt,omitempty"`
}

func (u *User) HasProfileImage() bool {
	return u != nil && u.ProfileImageURL != ""
}
