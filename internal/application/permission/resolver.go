// Package permission resuelve los módulos y acciones que un rol puede usar.
//
// Orden de evaluación (fijo):
//  1. Tabla de permisos forzados (si está habilitada).
//  2. Registro del rol en la tabla de roles: activo -> sus permisos;
//     inactivo -> ninguno.
//  3. DefaultTable para roles conocidos sin registro; rol desconocido -> ninguno.
//  4. Unión con "dashboard".
package permission

import (
	"context"
	"fmt"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// RoleLookup lectura de la tabla de roles. Devuelve (nil, nil) si no existe.
type RoleLookup interface {
	GetByName(ctx context.Context, name string) (*entity.Role, error)
}

// Resolver estrategia de tres niveles. No muta estado.
type Resolver struct {
	roles     RoleLookup
	overrides map[string][]string
	defaults  map[string][]string
}

// Option configura el Resolver.
type Option func(*Resolver)

// WithOverrides habilita una tabla de permisos forzados.
func WithOverrides(table map[string][]string) Option {
	return func(r *Resolver) { r.overrides = table }
}

// WithDefaults reemplaza la tabla por defecto.
func WithDefaults(table map[string][]string) Option {
	return func(r *Resolver) { r.defaults = table }
}

// NewResolver construye el resolver con DefaultTable y sin overrides.
func NewResolver(roles RoleLookup, opts ...Option) *Resolver {
	r := &Resolver{roles: roles, defaults: DefaultTable}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve devuelve los permisos del rol. Solo los fallos de infraestructura
// al leer la tabla de roles se propagan como error.
func (r *Resolver) Resolve(ctx context.Context, role string) (entity.PermissionSet, error) {
	name := entity.NormalizeRoleName(role)
	set := entity.NewPermissionSet()

	switch {
	case name == "":
	case r.overrides[name] != nil:
		set.Add(r.overrides[name]...)
	default:
		perms, err := r.fromTables(ctx, name)
		if err != nil {
			return nil, err
		}
		set.Add(perms...)
	}

	set.Add(entity.ModuleDashboard)
	return set, nil
}

func (r *Resolver) fromTables(ctx context.Context, name string) ([]string, error) {
	if r.roles != nil {
		rec, err := r.roles.GetByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolver permisos de %q: %w", name, err)
		}
		if rec != nil {
			if !rec.Active {
				return nil, nil
			}
			return rec.Permissions, nil
		}
	}
	return r.defaults[name], nil
}

// HasAccess pertenencia del módulo al conjunto.
func HasAccess(perms entity.PermissionSet, module string) bool {
	return perms.Has(module)
}
