package dto

import "time"

// LoginRequest credenciales; Role opcional restringe el ingreso a ese rol.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

// LoginResponse perfil + expiración de la sesión. El token viaja en la cookie.
type LoginResponse struct {
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// ChangePasswordRequest cambio de contraseña del propio usuario.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// PermissionsResponse permisos del rol del usuario autenticado.
type PermissionsResponse struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// SessionsPurgeResponse resultado de cerrar todas las sesiones.
type SessionsPurgeResponse struct {
	Deleted int64 `json:"deleted"`
}
