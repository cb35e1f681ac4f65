package dto

import "time"

// CreateRoleRequest alta de rol.
type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,max=50"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	Active      *bool    `json:"active"`
}

// UpdateRoleRequest actualización parcial de rol.
type UpdateRoleRequest struct {
	Description *string   `json:"description"`
	Permissions *[]string `json:"permissions"`
	Active      *bool     `json:"active"`
}

// RoleResponse salida de un rol.
type RoleResponse struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
