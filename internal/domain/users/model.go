package users

import "time"

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

// User es una cuenta del sistema. PasswordHash nunca sale del paquete en un DTO.
type User struct {
	ID       int64
	Username string // único
	Email    string // único

	PasswordHash string

	Name  string
	Phone string

	Role      string
	IsActive  bool
	LastLogin *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
