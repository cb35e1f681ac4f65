package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// RoleRepository roles en memoria por nombre normalizado.
type RoleRepository struct {
	s *Store
}

func copyRole(r *entity.Role) *entity.Role {
	c := *r
	c.Permissions = append([]string(nil), r.Permissions...)
	return &c
}

// Create inserta el rol; nombre repetido es domain.ErrDuplicate.
func (r *RoleRepository) Create(_ context.Context, role *entity.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	name := entity.NormalizeRoleName(role.Name)
	if _, ok := r.s.roles[name]; ok {
		return domain.ErrDuplicate
	}
	c := copyRole(role)
	c.Name = name
	r.s.roles[name] = c
	return nil
}

// GetByName devuelve el rol (activo o no) o (nil, nil).
func (r *RoleRepository) GetByName(_ context.Context, name string) (*entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles[entity.NormalizeRoleName(name)]
	if !ok {
		return nil, nil
	}
	return copyRole(role), nil
}

// Update reemplaza descripción, permisos y estado.
func (r *RoleRepository) Update(_ context.Context, role *entity.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	name := entity.NormalizeRoleName(role.Name)
	cur, ok := r.s.roles[name]
	if !ok {
		return domain.ErrRoleNotFound
	}
	c := copyRole(role)
	c.Name = name
	c.CreatedAt = cur.CreatedAt
	r.s.roles[name] = c
	return nil
}

// List ordenado por nombre.
func (r *RoleRepository) List(_ context.Context) ([]*entity.Role, error) {
	r.s.mu.RLock()
	out := make([]*entity.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, copyRole(role))
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
