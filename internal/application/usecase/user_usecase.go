package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

// PasswordHasher contrato mínimo para hashear contraseñas (lo implementa *auth.PasswordHasher).
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
}

// Actor quién ejecuta la operación, para auditoría.
type Actor struct {
	ID        string
	IP        string
	UserAgent string
}

func (a Actor) event(action, entityName, entityID string) audit.Event {
	return audit.Event{
		Action:    action,
		ActorID:   a.ID,
		Entity:    entityName,
		EntityID:  entityID,
		IP:        a.IP,
		UserAgent: a.UserAgent,
	}
}

// UserUseCase administración de usuarios del personal.
type UserUseCase struct {
	repo   repository.UserRepository
	tx     repository.TxRunner
	hasher PasswordHasher
	audit  audit.Emitter
	now    func() time.Time
}

// NewUserUseCase construye el caso de uso. tx ejecuta la baja lógica junto con
// el cierre de sesiones.
func NewUserUseCase(repo repository.UserRepository, tx repository.TxRunner, hasher PasswordHasher, emitter audit.Emitter) *UserUseCase {
	if emitter == nil {
		emitter = audit.Nop{}
	}
	return &UserUseCase{repo: repo, tx: tx, hasher: hasher, audit: emitter, now: time.Now}
}

// GetByID obtiene un usuario por ID. ErrUserNotFound si no existe.
func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	out := dto.NewUserResponse(user)
	return &out, nil
}

// List lista usuarios con filtros opcionales de rol y estado.
func (uc *UserUseCase) List(ctx context.Context, role, status string, page dto.PageRequest) (*dto.UserListResponse, error) {
	page.DefaultPage()
	f := repository.UserFilter{Limit: page.Limit, Offset: page.Offset}
	if strings.TrimSpace(role) != "" {
		f.Role = entity.NormalizeRoleName(role)
	}
	if strings.TrimSpace(status) != "" {
		st, err := entity.ParseUserStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidStatus, err)
		}
		f.Status = st
	}
	users, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, dto.NewUserResponse(u))
	}
	return &dto.UserListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// Create alta por un administrador; puede asignar cualquier rol, incluso uno
// creado en la tabla de roles.
func (uc *UserUseCase) Create(ctx context.Context, actor Actor, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := entity.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email no válido", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, fmt.Errorf("%w: nombre y apellidos son obligatorios", domain.ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: la contraseña debe tener al menos 8 caracteres", domain.ErrInvalidInput)
	}
	role := entity.NormalizeRoleName(in.Role)
	if role == "" {
		return nil, domain.ErrInvalidRole
	}
	status := entity.StatusActive
	if strings.TrimSpace(in.Status) != "" {
		st, err := entity.ParseUserStatus(in.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidStatus, err)
		}
		status = st
	}

	existing, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := uc.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	user := &entity.User{
		ID:             uuid.New().String(),
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          email,
		Phone:          strings.TrimSpace(in.Phone),
		Address:        strings.TrimSpace(in.Address),
		PasswordHash:   hash,
		ProfessionalID: strings.TrimSpace(in.ProfessionalID),
		Specialty:      strings.TrimSpace(in.Specialty),
		Role:           role,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.audit.Emit(actor.event(audit.ActionCreate, "user", user.ID))
	out := dto.NewUserResponse(user)
	return &out, nil
}

// Update aplica los campos presentes. Pasar a un estado distinto de active
// cierra las sesiones del usuario en la misma transacción.
func (uc *UserUseCase) Update(ctx context.Context, actor Actor, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	var out dto.UserResponse
	err := uc.tx.RunUsers(ctx, func(users repository.UserRepository, sessions repository.SessionRepository) error {
		user, err := users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		if err := applyUpdate(user, in); err != nil {
			return err
		}
		user.UpdatedAt = uc.now().UTC()
		if err := users.Update(ctx, user); err != nil {
			return err
		}
		if !user.IsActive() {
			if _, err := sessions.DeleteByUser(ctx, user.ID, ""); err != nil {
				return err
			}
		}
		out = dto.NewUserResponse(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.audit.Emit(actor.event(audit.ActionUpdate, "user", id))
	return &out, nil
}

func applyUpdate(u *entity.User, in dto.UpdateUserRequest) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&u.FirstName, in.FirstName)
	set(&u.LastName, in.LastName)
	set(&u.Phone, in.Phone)
	set(&u.Address, in.Address)
	set(&u.ProfessionalID, in.ProfessionalID)
	set(&u.Specialty, in.Specialty)
	if u.FirstName == "" || u.LastName == "" {
		return fmt.Errorf("%w: nombre y apellidos no pueden quedar vacíos", domain.ErrInvalidInput)
	}
	if in.Role != nil {
		role := entity.NormalizeRoleName(*in.Role)
		if role == "" {
			return domain.ErrInvalidRole
		}
		u.Role = role
	}
	if in.Status != nil {
		st, err := entity.ParseUserStatus(*in.Status)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidStatus, err)
		}
		u.Status = st
	}
	return nil
}

// Delete baja lógica: estado inactive y cierre de todas sus sesiones. Un
// administrador no puede darse de baja a sí mismo.
func (uc *UserUseCase) Delete(ctx context.Context, actor Actor, id string) error {
	if id == actor.ID {
		return fmt.Errorf("%w: no puede desactivar su propia cuenta", domain.ErrConflict)
	}
	err := uc.tx.RunUsers(ctx, func(users repository.UserRepository, sessions repository.SessionRepository) error {
		user, err := users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		user.Status = entity.StatusInactive
		user.UpdatedAt = uc.now().UTC()
		if err := users.Update(ctx, user); err != nil {
			return err
		}
		_, err = sessions.DeleteByUser(ctx, id, "")
		return err
	})
	if err != nil {
		return err
	}
	uc.audit.Emit(actor.event(audit.ActionDelete, "user", id))
	return nil
}
