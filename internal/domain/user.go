package domain

import "time"

// User represents a registered account, including the stored credential hash.
type User struct {
	ID           int64
	DisplayName  string
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	CreatedAt    time.Time
}

// PublicUser is the externally visible view of a User. The type has no
// password hash field at all, so encoding one can never leak the credential.
type PublicUser struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
}

// Public projects the user into its externally visible view.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
	}
}
