// internal/domain/user.go
package domain

import "time"

// Role is the closed set of authorization roles carried by a principal.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Principal is the authenticated caller as seen by the core: an identity
// (the unique username) plus its role. It is produced by the JWT layer
// before any handler runs.
type Principal struct {
	Identity string
	Role     Role
}

// IsAdmin reports whether the principal carries the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// User represents an account in the billing system.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"` // Unique username
	PasswordHash []byte    `db:"password_hash" json:"-"`
	Salt         []byte    `db:"salt" json:"-"`
	Email        string    `db:"email" json:"email"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RoleOf maps the stored admin flag to the closed Role set.
func (u *User) RoleOf() Role {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// NewUser creates a new User instance. Accounts start inactive until the
// activation link is followed.
func NewUser(username, email string, passwordHash, salt []byte) *User {
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		Salt:         salt,
		Email:        email,
		IsActive:     false,
		IsAdmin:      false,
		CreatedAt:    time.Now().UTC(),
	}
}
