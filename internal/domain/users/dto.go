package users

import (
	"strings"
	"time"
)

type CreateInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Phone    string `json:"phone" validate:"max=20"`
	Role     string `json:"role" validate:"omitempty,oneof=admin manager viewer"`
}

func (in CreateInput) normalized() CreateInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	return in
}

// UpdateInput reemplaza los datos de perfil. Password vacío conserva el actual;
// el rol y el estado se cambian por sus endpoints dedicados.
type UpdateInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
	Name     string `json:"name" validate:"max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Phone    string `json:"phone" validate:"max=20"`
}

func (in UpdateInput) normalized() UpdateInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}

type RoleInput struct {
	Role string `json:"role" validate:"required,oneof=admin manager viewer"`
}

type StatusInput struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// DTO es la representación pública; no incluye la contraseña.
type DTO struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func ToDTO(u User) DTO {
	return DTO{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
