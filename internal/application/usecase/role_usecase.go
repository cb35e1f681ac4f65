package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

// RoleUseCase administración del catálogo de roles.
type RoleUseCase struct {
	repo  repository.RoleRepository
	audit audit.Emitter
	now   func() time.Time
}

// NewRoleUseCase construye el caso de uso.
func NewRoleUseCase(repo repository.RoleRepository, emitter audit.Emitter) *RoleUseCase {
	if emitter == nil {
		emitter = audit.Nop{}
	}
	return &RoleUseCase{repo: repo, audit: emitter, now: time.Now}
}

// List todos los roles, activos e inactivos.
func (uc *RoleUseCase) List(ctx context.Context) ([]dto.RoleResponse, error) {
	roles, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, dto.NewRoleResponse(r))
	}
	return out, nil
}

// Get rol por nombre (sin distinguir mayúsculas ni acentos).
func (uc *RoleUseCase) Get(ctx context.Context, name string) (*dto.RoleResponse, error) {
	role, err := uc.repo.GetByName(ctx, entity.NormalizeRoleName(name))
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrRoleNotFound
	}
	out := dto.NewRoleResponse(role)
	return &out, nil
}

// Create alta de rol. Activo por defecto.
func (uc *RoleUseCase) Create(ctx context.Context, actor Actor, in dto.CreateRoleRequest) (*dto.RoleResponse, error) {
	name := entity.NormalizeRoleName(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: el nombre del rol es obligatorio", domain.ErrInvalidInput)
	}
	existing, err := uc.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	now := uc.now().UTC()
	role := &entity.Role{
		Name:        name,
		Description: in.Description,
		Permissions: entity.NewPermissionSet(in.Permissions...).List(),
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, role); err != nil {
		return nil, err
	}
	uc.audit.Emit(actor.event(audit.ActionCreate, "role", name))
	out := dto.NewRoleResponse(role)
	return &out, nil
}

// Update cambia descripción, permisos o estado.
func (uc *RoleUseCase) Update(ctx context.Context, actor Actor, name string, in dto.UpdateRoleRequest) (*dto.RoleResponse, error) {
	role, err := uc.repo.GetByName(ctx, entity.NormalizeRoleName(name))
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrRoleNotFound
	}
	if in.Description != nil {
		role.Description = *in.Description
	}
	if in.Permissions != nil {
		role.Permissions = entity.NewPermissionSet(*in.Permissions...).List()
	}
	if in.Active != nil {
		role.Active = *in.Active
	}
	role.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Update(ctx, role); err != nil {
		return nil, err
	}
	uc.audit.Emit(actor.event(audit.ActionUpdate, "role", role.Name))
	out := dto.NewRoleResponse(role)
	return &out, nil
}

// Deactivate baja lógica: el rol queda inactivo y sus usuarios conservan solo dashboard.
func (uc *RoleUseCase) Deactivate(ctx context.Context, actor Actor, name string) error {
	role, err := uc.repo.GetByName(ctx, entity.NormalizeRoleName(name))
	if err != nil {
		return err
	}
	if role == nil {
		return domain.ErrRoleNotFound
	}
	role.Active = false
	role.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Update(ctx, role); err != nil {
		return err
	}
	uc.audit.Emit(actor.event(audit.ActionDelete, "role", role.Name))
	return nil
}
