// Package memory almacenamiento en memoria del proceso: usuarios, sesiones y
// roles. Pensado para desarrollo local (STORAGE=memory) y tests; los datos se
// pierden al reiniciar.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
)

// Store estado compartido por los repositorios en memoria.
type Store struct {
	mu sync.RWMutex

	users       map[string]*entity.User    // por id
	userByEmail map[string]string          // email -> id
	sessions    map[string]*entity.Session // por hash del token
	roles       map[string]*entity.Role

	txMu sync.Mutex
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		users:       make(map[string]*entity.User),
		userByEmail: make(map[string]string),
		sessions:    make(map[string]*entity.Session),
		roles:       make(map[string]*entity.Role),
	}
}

// Users repositorio de usuarios sobre el store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Sessions repositorio de sesiones sobre el store.
func (s *Store) Sessions() *SessionRepository { return &SessionRepository{s: s} }

// Roles repositorio de roles sobre el store.
func (s *Store) Roles() *RoleRepository { return &RoleRepository{s: s} }

// RunUsers ejecuta fn de forma serializada frente a otras transacciones. Si
// fn falla se deshacen solo las claves que fn modificó; lo que otras
// peticiones escribieron mientras tanto se conserva.
func (s *Store) RunUsers(ctx context.Context, fn func(users repository.UserRepository, sessions repository.SessionRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	undo := newUndoLog()
	if err := fn(&UserRepository{s: s, undo: undo}, &SessionRepository{s: s, undo: undo}); err != nil {
		s.rollback(undo)
		return err
	}
	return nil
}

// undoLog valor previo de cada clave tocada dentro de una transacción.
// nil significa que la clave no existía. Se escribe con s.mu tomado.
type undoLog struct {
	users    map[string]*entity.User
	emails   map[string]*string
	sessions map[string]*entity.Session
}

func newUndoLog() *undoLog {
	return &undoLog{
		users:    make(map[string]*entity.User),
		emails:   make(map[string]*string),
		sessions: make(map[string]*entity.Session),
	}
}

// user guarda el valor previo del usuario id; solo cuenta el primero.
func (u *undoLog) user(s *Store, id string) {
	if u == nil {
		return
	}
	if _, seen := u.users[id]; seen {
		return
	}
	var prev *entity.User
	if cur, ok := s.users[id]; ok {
		prev = copyUser(cur)
	}
	u.users[id] = prev
}

func (u *undoLog) email(s *Store, email string) {
	if u == nil {
		return
	}
	if _, seen := u.emails[email]; seen {
		return
	}
	var prev *string
	if id, ok := s.userByEmail[email]; ok {
		prev = &id
	}
	u.emails[email] = prev
}

func (u *undoLog) session(s *Store, hash string) {
	if u == nil {
		return
	}
	if _, seen := u.sessions[hash]; seen {
		return
	}
	var prev *entity.Session
	if cur, ok := s.sessions[hash]; ok {
		c := *cur
		prev = &c
	}
	u.sessions[hash] = prev
}

func (s *Store) rollback(u *undoLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, prev := range u.users {
		if prev == nil {
			delete(s.users, id)
		} else {
			s.users[id] = prev
		}
	}
	for email, prev := range u.emails {
		if prev == nil {
			delete(s.userByEmail, email)
		} else {
			s.userByEmail[email] = *prev
		}
	}
	for hash, prev := range u.sessions {
		if prev == nil {
			delete(s.sessions, hash)
		} else {
			s.sessions[hash] = prev
		}
	}
}

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.SessionRepository = (*SessionRepository)(nil)
	_ repository.RoleRepository    = (*RoleRepository)(nil)
	_ repository.TxRunner          = (*Store)(nil)
)
