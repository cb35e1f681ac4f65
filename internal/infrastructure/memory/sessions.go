package memory

import (
	"context"
	"time"

	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// SessionRepository sesiones en memoria indexadas por hash del token.
type SessionRepository struct {
	s    *Store
	undo *undoLog
}

// Create inserta la sesión; un hash repetido es domain.ErrDuplicate.
func (r *SessionRepository) Create(_ context.Context, sess *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[sess.TokenHash]; ok {
		return domain.ErrDuplicate
	}
	r.undo.session(r.s, sess.TokenHash)
	c := *sess
	r.s.sessions[sess.TokenHash] = &c
	return nil
}

// FindByTokenHash solo devuelve sesiones con expires_at > now.
func (r *SessionRepository) FindByTokenHash(_ context.Context, tokenHash string, now time.Time) (*entity.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sess, ok := r.s.sessions[tokenHash]
	if !ok || sess.ExpiredAt(now) {
		return nil, nil
	}
	c := *sess
	return &c, nil
}

// DeleteByTokenHash no falla si la sesión no existe.
func (r *SessionRepository) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[tokenHash]; ok {
		r.undo.session(r.s, tokenHash)
	}
	delete(r.s.sessions, tokenHash)
	return nil
}

// DeleteByUser elimina las sesiones del usuario salvo exceptTokenHash.
func (r *SessionRepository) DeleteByUser(_ context.Context, userID, exceptTokenHash string) (int64, error) {
	return r.deleteWhere(func(s *entity.Session) bool {
		return s.UserID == userID && s.TokenHash != exceptTokenHash
	}), nil
}

// DeleteAll vacía la tabla.
func (r *SessionRepository) DeleteAll(_ context.Context) (int64, error) {
	return r.deleteWhere(func(*entity.Session) bool { return true }), nil
}

// DeleteExpired elimina las sesiones con expires_at <= now.
func (r *SessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(func(s *entity.Session) bool { return s.ExpiredAt(now) }), nil
}

func (r *SessionRepository) deleteWhere(match func(*entity.Session) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, s := range r.s.sessions {
		if match(s) {
			r.undo.session(r.s, k)
			delete(r.s.sessions, k)
			n++
		}
	}
	return n
}
