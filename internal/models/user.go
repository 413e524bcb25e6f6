package models

import "time"

type User struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordDigest []byte    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserPatch carries the optional profile fields of a partial update.
// A nil field means "leave unchanged".
type UserPatch struct {
	Username *string
	Email    *string
}

func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil
}
