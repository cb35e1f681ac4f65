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

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo sesiones sobre la tabla sessions (pool o tx).
type SessionRepo struct {
	q       Querier
	timeout time.Duration
}

// NewSessionRepository construye el adaptador de sesiones.
func NewSessionRepository(q Querier, timeout time.Duration) *SessionRepo {
	return &SessionRepo{q: q, timeout: timeout}
}

// Create inserta la sesión.
func (r *SessionRepo) Create(ctx context.Context, s *entity.Session) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	query := `
		INSERT INTO sessions (id, user_id, token_hash, user_agent, ip, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, s.ID, s.UserID, s.TokenHash, s.UserAgent, s.IP, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FindByTokenHash solo devuelve sesiones con expires_at > now.
func (r *SessionRepo) FindByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*entity.Session, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	query := `
		SELECT id, user_id, token_hash, user_agent, ip, expires_at, created_at
		FROM sessions WHERE token_hash = $1 AND expires_at > $2`
	var s entity.Session
	err := r.q.QueryRow(ctx, query, tokenHash, now).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.UserAgent, &s.IP, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

// DeleteByTokenHash idempotente.
func (r *SessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.q.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUser elimina las sesiones del usuario salvo exceptTokenHash.
func (r *SessionRepo) DeleteByUser(ctx context.Context, userID, exceptTokenHash string) (int64, error) {
	if !isUUID(userID) {
		return 0, nil
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	tag, err := r.q.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1 AND token_hash <> $2`, userID, exceptTokenHash)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAll vacía la tabla y devuelve cuántas filas había.
func (r *SessionRepo) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	tag, err := r.q.Exec(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("delete all sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired limpieza de filas vencidas.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	tag, err := r.q.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
