package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo catálogo de roles; permissions es TEXT[].
type RoleRepo struct {
	q       Querier
	timeout time.Duration
}

// NewRoleRepository construye el adaptador de roles.
func NewRoleRepository(q Querier, timeout time.Duration) *RoleRepo {
	return &RoleRepo{q: q, timeout: timeout}
}

// Create inserta el rol con el nombre normalizado.
func (r *RoleRepo) Create(ctx context.Context, role *entity.Role) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	query := `
		INSERT INTO roles (name, description, permissions, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		entity.NormalizeRoleName(role.Name), role.Description, permissionsOrEmpty(role.Permissions),
		role.Active, role.CreatedAt, role.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

// GetByName rol activo o inactivo; (nil, nil) si no existe.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	query := `
		SELECT name, description, permissions, active, created_at, updated_at
		FROM roles WHERE name = $1`
	role, err := scanRole(r.q.QueryRow(ctx, query, entity.NormalizeRoleName(name)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

// Update descripción, permisos y estado.
func (r *RoleRepo) Update(ctx context.Context, role *entity.Role) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	query := `
		UPDATE roles SET description = $2, permissions = $3, active = $4, updated_at = $5
		WHERE name = $1`
	tag, err := r.q.Exec(ctx, query,
		entity.NormalizeRoleName(role.Name), role.Description, permissionsOrEmpty(role.Permissions),
		role.Active, role.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// List ordenado por nombre.
func (r *RoleRepo) List(ctx context.Context) ([]*entity.Role, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	rows, err := r.q.Query(ctx, `
		SELECT name, description, permissions, active, created_at, updated_at
		FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()
	var out []*entity.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func scanRole(row pgx.Row) (*entity.Role, error) {
	var role entity.Role
	if err := row.Scan(&role.Name, &role.Description, &role.Permissions, &role.Active, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return nil, err
	}
	return &role, nil
}

func permissionsOrEmpty(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}
