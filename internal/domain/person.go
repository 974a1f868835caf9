package domain

import "time"

// Role enumerates the mutually exclusive account roles. A person is assigned
// exactly one role at registration and keeps it for the account's lifetime.
type Role string

const (
	RoleConsumer Role = "CONSUMER"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleConsumer, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// Person is the account aggregate for consumers, providers and admins.
type Person struct {
	ID                 string
	FirstName          string
	LastName           string
	Email              string
	PasswordHash       string
	Role               Role
	ProfileDescription string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
