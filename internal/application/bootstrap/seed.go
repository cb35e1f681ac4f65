// Package bootstrap deja una instalación nueva utilizable: roles por defecto
// en la tabla de roles y un administrador inicial. Es idempotente.
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinica-api/internal/application/permission"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

var roleDescriptions = map[string]string{
	entity.RoleAdministrador: "Acceso completo",
	entity.RoleMedico:        "Personal médico",
	entity.RoleEnfermera:     "Enfermería",
	entity.RoleRecepcionista: "Recepción y agenda",
	entity.RoleLaboratorio:   "Laboratorio clínico",
	entity.RoleUltrasonido:   "Estudios de ultrasonido",
}

// PasswordHasher lo implementa *auth.PasswordHasher.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
}

// Admin datos del administrador inicial. Email vacío = no crear.
type Admin struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Report lo que Seed creó en esta ejecución.
type Report struct {
	RolesCreated []string
	AdminCreated bool
}

// Seeder crea lo que falte sin tocar lo existente.
type Seeder struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	hasher PasswordHasher
	now    func() time.Time
}

// NewSeeder construye el seeder.
func NewSeeder(users repository.UserRepository, roles repository.RoleRepository, hasher PasswordHasher) *Seeder {
	return &Seeder{users: users, roles: roles, hasher: hasher, now: time.Now}
}

// Seed inserta los roles conocidos con sus permisos por defecto y el administrador.
func (s *Seeder) Seed(ctx context.Context, admin Admin) (*Report, error) {
	rep := &Report{}
	now := s.now().UTC()
	for _, name := range entity.KnownRoles {
		existing, err := s.roles.GetByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("seed rol %s: %w", name, err)
		}
		if existing != nil {
			continue
		}
		role := &entity.Role{
			Name:        name,
			Description: roleDescriptions[name],
			Permissions: entity.NewPermissionSet(permission.DefaultTable[name]...).List(),
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.roles.Create(ctx, role); err != nil {
			return nil, fmt.Errorf("seed rol %s: %w", name, err)
		}
		rep.RolesCreated = append(rep.RolesCreated, name)
	}

	created, err := s.seedAdmin(ctx, admin, now)
	if err != nil {
		return nil, err
	}
	rep.AdminCreated = created
	return rep, nil
}

func (s *Seeder) seedAdmin(ctx context.Context, admin Admin, now time.Time) (bool, error) {
	email := entity.NormalizeEmail(admin.Email)
	if email == "" {
		return false, nil
	}
	if len(admin.Password) < 8 {
		return false, fmt.Errorf("%w: la contraseña del administrador debe tener al menos 8 caracteres", domain.ErrInvalidInput)
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("seed administrador: %w", err)
	}
	if existing != nil {
		return false, nil
	}
	hash, err := s.hasher.Hash(ctx, admin.Password)
	if err != nil {
		return false, err
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		FirstName:    orDefault(admin.FirstName, "Administrador"),
		LastName:     orDefault(admin.LastName, "Sistema"),
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleAdministrador,
		Status:       entity.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, fmt.Errorf("seed administrador: %w", err)
	}
	return true, nil
}

func orDefault(s, def string) string {
	if v := strings.TrimSpace(s); v != "" {
		return v
	}
	return def
}
