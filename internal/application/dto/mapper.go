package dto

import "github.com/jhoicas/clinica-api/internal/domain/entity"

// NewUserResponse perfil público: nunca incluye el hash de la contraseña.
func NewUserResponse(u *entity.User) UserResponse {
	if u == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Phone:          u.Phone,
		Address:        u.Address,
		Status:         string(u.Status),
		ProfessionalID: u.ProfessionalID,
		Specialty:      u.Specialty,
		Role:           u.Role,
		LastAccess:     u.LastAccess,
	}
}

// NewRoleResponse salida de un rol.
func NewRoleResponse(r *entity.Role) RoleResponse {
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return RoleResponse{
		Name:        r.Name,
		Description: r.Description,
		Permissions: perms,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
