package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/clinica-api/internal/application/permission"
)

// ModuleService verifica qué módulos puede usar un rol.
// Es el único punto de la capa HTTP que conoce la resolución de permisos.
type ModuleService struct {
	resolver *permission.Resolver
}

// NewModuleService construye el servicio de módulos.
func NewModuleService(resolver *permission.Resolver) *ModuleService {
	return &ModuleService{resolver: resolver}
}

// HasAccess informa si el rol tiene el módulo o la acción.
// Devuelve false (sin error) si no lo tiene; error solo ante fallos de
// infraestructura al leer la tabla de roles.
func (s *ModuleService) HasAccess(ctx context.Context, role, module string) (bool, error) {
	if module == "" {
		return false, fmt.Errorf("module: el nombre del módulo es obligatorio")
	}
	perms, err := s.resolver.Resolve(ctx, role)
	if err != nil {
		return false, err
	}
	return permission.HasAccess(perms, module), nil
}
