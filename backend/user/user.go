package user

import "unicode/utf8"

// MaxNameLen is the longest accepted display name, in characters.
const MaxNameLen = 20

// User represents the single credential record the application consults.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
}

// DisplayName falls back to the username when no display name is set.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

type Database interface {
	FirstUser() (*User, error)
	GetUserByID(id int) (*User, error)
	UpdateUserName(id int, name string) error
	UpsertAdmin(username, password string) error
}

// ValidName reports whether a submitted display name is non-empty and within bounds.
func ValidName(name string) bool {
	return name != "" && utf8.RuneCountInString(name) <= MaxNameLen
}
