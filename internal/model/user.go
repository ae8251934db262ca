package model

import "time"

// Role is the access level carried in the bearer token's role claim.
type Role string

const (
	RoleUser  Role = "user"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user record as stored in the
// `users` table. The core only reads ID and Role; the remaining
// fields exist so that seeding and staff lookups have somewhere to
// live.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address.
//	Name         – display name.
//	PasswordHash – bcrypt hashed password (never serialized).
//	Role         – user, staff or admin.
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`        // users.id
	Email        string    `json:"email"`     // users.email
	Name         string    `json:"name"`      // users.name
	PasswordHash string    `json:"-"`         // users.password_hash
	Role         Role      `json:"role"`      // users.role
	IsActive     bool      `json:"isActive"`  // users.is_active
	CreatedAt    time.Time `json:"createdAt"` // users.created_at
	UpdatedAt    time.Time `json:"updatedAt"` // users.updated_at
}

// Actor is the authenticated caller of an operation, built from the
// token claims at the transport edge and passed into every service call.
type Actor struct {
	UserID uint64
	Role   Role
}

// Is reports whether the actor holds any of the given roles.
func (a Actor) Is(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// Privileged is true for admin and staff actors.
func (a Actor) Privileged() bool { return a.Is(RoleAdmin, RoleStaff) }
