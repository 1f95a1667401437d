package domain

import "time"

// UserRole distinguishes passengers from drivers holding a user account.
type UserRole string

const (
	UserRolePassenger UserRole = "passenger"
	UserRoleDriver    UserRole = "driver"
)

// User represents an account holder.
type User struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Role      UserRole
	CreatedAt time.Time
}
