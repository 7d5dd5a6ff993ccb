// Package auth implements the authentication boundary: login, logout and
// CSRF token issuance, on top of the security core.
package auth

// Role names the back-office roles recognised by the admin surface.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// User is a back-office account. The marketing site has no self-service
// registration; accounts are seeded at startup.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	IsActive     bool
}
