package auth

import "time"

// User represents an authenticated user account. Every account is bound to an
// employee record, which carries the role and service used for authorization.
type User struct {
	ID           int64
	EmployeeID   int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
