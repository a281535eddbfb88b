// Package models defines the flat value structs persisted by the server:
// users and their protected key material, purchase orders, and attachments.
package models

import "time"

// Role labels what a user may do in the purchase-order workflow.
// A user can hold several roles.
type Role string

const (
	RoleSender     Role = "sender"
	RoleSupervisor Role = "supervisor"
	RolePurchaser  Role = "purchaser"
	RoleAdmin      Role = "admin"
)

// User is an account in the community. PublicKeyPEM is immutable after
// creation. PasswordHash is the bcrypt login hash and is unrelated to the
// password-derived key that protects the private key.
type User struct {
	ID           string
	Email        string
	FullName     string
	PublicKeyPEM []byte
	PasswordHash []byte
	Roles        []Role
	CreatedAt    time.Time
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// ProtectedKey is a user's private key at rest: an opaque AES-GCM blob
// sealed under the password-derived key, plus the per-user derivation salt.
// The plaintext private key never appears outside a single unlocked
// operation, and the salt is unique per user.
type ProtectedKey struct {
	UserID string
	Blob   []byte
	Salt   []byte
}
