package repository

import (
	"context"
	"time"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// SessionRepository persistencia de sesiones. FindByTokenHash filtra por
// expires_at > now; una sesión expirada equivale a "no encontrada".
type SessionRepository interface {
	Create(ctx context.Context, s *entity.Session) error
	FindByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*entity.Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteByUser(ctx context.Context, userID, exceptTokenHash string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
