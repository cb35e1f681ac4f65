package repository

import (
	"context"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// RoleRepository catálogo de roles administrado por el administrador.
// GetByName devuelve (nil, nil) si no existe; los inactivos también se devuelven.
type RoleRepository interface {
	Create(ctx context.Context, role *entity.Role) error
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	Update(ctx context.Context, role *entity.Role) error
	List(ctx context.Context) ([]*entity.Role, error)
}
