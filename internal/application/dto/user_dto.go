package dto

import "time"

// CreateUserRequest alta de usuario por un administrador.
type CreateUserRequest struct {
	FirstName      string `json:"first_name" validate:"required,max=100"`
	LastName       string `json:"last_name" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	ProfessionalID string `json:"professional_id"`
	Specialty      string `json:"specialty"`
	Role           string `json:"role" validate:"required"`
	Status         string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
}

// UpdateUserRequest actualización parcial: solo se aplican los campos presentes.
type UpdateUserRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	ProfessionalID *string `json:"professional_id"`
	Specialty      *string `json:"specialty"`
	Role           *string `json:"role"`
	Status         *string `json:"status"`
}

// RegisterRequest registro público.
type RegisterRequest struct {
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	Phone          string `json:"phone"`
	ProfessionalID string `json:"professional_id"`
	Specialty      string `json:"specialty"`
	Role           string `json:"role" validate:"omitempty"`
}

// UserResponse perfil público del usuario (sin hash de contraseña).
type UserResponse struct {
	ID             string     `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Address        string     `json:"address"`
	Status         string     `json:"status"`
	ProfessionalID string     `json:"professional_id"`
	Specialty      string     `json:"specialty"`
	Role           string     `json:"role"`
	LastAccess     *time.Time `json:"last_access,omitempty"`
}

// UserListResponse listado paginado.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
