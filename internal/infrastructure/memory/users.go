package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

// UserRepository usuarios en memoria. Devuelve copias: el llamador no puede
// mutar el estado guardado.
type UserRepository struct {
	s    *Store
	undo *undoLog
}

func copyUser(u *entity.User) *entity.User {
	c := *u
	if u.LastAccess != nil {
		t := *u.LastAccess
		c.LastAccess = &t
	}
	return &c
}

// Create inserta el usuario; email duplicado es domain.ErrEmailAlreadyExists.
func (r *UserRepository) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := entity.NormalizeEmail(user.Email)
	if _, ok := r.s.userByEmail[email]; ok {
		return domain.ErrEmailAlreadyExists
	}
	if _, ok := r.s.users[user.ID]; ok {
		return domain.ErrDuplicate
	}
	r.undo.user(r.s, user.ID)
	r.undo.email(r.s, email)
	c := copyUser(user)
	c.Email = email
	r.s.users[c.ID] = c
	r.s.userByEmail[email] = c.ID
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

// GetByEmail búsqueda sin distinguir mayúsculas.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.userByEmail[entity.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return copyUser(r.s.users[id]), nil
}

// Update reemplaza los datos editables. La contraseña se cambia con UpdatePassword.
func (r *UserRepository) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	email := entity.NormalizeEmail(user.Email)
	r.undo.user(r.s, cur.ID)
	if email != cur.Email {
		if _, taken := r.s.userByEmail[email]; taken {
			return domain.ErrEmailAlreadyExists
		}
		r.undo.email(r.s, cur.Email)
		r.undo.email(r.s, email)
		delete(r.s.userByEmail, cur.Email)
		r.s.userByEmail[email] = cur.ID
	}
	c := copyUser(user)
	c.Email = email
	c.PasswordHash = cur.PasswordHash
	c.CreatedAt = cur.CreatedAt
	r.s.users[c.ID] = c
	return nil
}

// UpdatePassword guarda el nuevo hash.
func (r *UserRepository) UpdatePassword(_ context.Context, id, passwordHash string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	r.undo.user(r.s, id)
	u.PasswordHash = passwordHash
	u.UpdatedAt = at
	return nil
}

// TouchLastAccess registra el último ingreso.
func (r *UserRepository) TouchLastAccess(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	r.undo.user(r.s, id)
	t := at
	u.LastAccess = &t
	return nil
}

// List filtra por rol y estado, ordenado por apellidos y nombre.
func (r *UserRepository) List(_ context.Context, f repository.UserFilter) ([]*entity.User, error) {
	r.s.mu.RLock()
	out := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Status != "" && u.Status != f.Status {
			continue
		}
		out = append(out, copyUser(u))
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*entity.User{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}
