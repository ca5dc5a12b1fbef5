package model

import "time"

const (
	RoleUser      = "USER"
	RoleSuperuser = "SUPERUSER"
)

// User represents a row of the `users` table. Handlers expose their own
// response shapes, so no json tags here.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	IsSuperuser  bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role is the access token role claim for u.
func (u User) Role() string {
	if u.IsSuperuser {
		return RoleSuperuser
	}
	return RoleUser
}
