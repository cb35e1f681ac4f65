package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

// SessionMeta datos del cliente guardados junto a la sesión.
type SessionMeta struct {
	UserAgent string
	IP        string
}

// SessionStore sesiones ligadas al hash del token. La vigencia es siempre
// creación + entity.SessionTTL.
type SessionStore struct {
	repo repository.SessionRepository
	now  func() time.Time
}

// NewSessionStore construye el store; now nil usa time.Now.
func NewSessionStore(repo repository.SessionRepository, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{repo: repo, now: now}
}

// Create registra una sesión nueva para token. Dos logins del mismo usuario
// generan dos sesiones independientes.
func (s *SessionStore) Create(ctx context.Context, userID, token string, meta SessionMeta) (*entity.Session, error) {
	if userID == "" || token == "" {
		return nil, errors.New("sesión: userID y token son obligatorios")
	}
	now := s.now().UTC()
	sess := &entity.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: entity.HashToken(token),
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		ExpiresAt: now.Add(entity.SessionTTL),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("crear sesión: %w", err)
	}
	return sess, nil
}

// FindByToken devuelve la sesión viva para token o (nil, nil). Una sesión
// expirada se trata como ausente aunque la fila siga existiendo.
func (s *SessionStore) FindByToken(ctx context.Context, token string) (*entity.Session, error) {
	if token == "" {
		return nil, nil
	}
	now := s.now().UTC()
	sess, err := s.repo.FindByTokenHash(ctx, entity.HashToken(token), now)
	if err != nil {
		return nil, fmt.Errorf("buscar sesión: %w", err)
	}
	if sess == nil || sess.ExpiredAt(now) {
		return nil, nil
	}
	return sess, nil
}

// DeleteByToken es idempotente: borrar una sesión inexistente no es error.
func (s *SessionStore) DeleteByToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.DeleteByTokenHash(ctx, entity.HashToken(token)); err != nil {
		return fmt.Errorf("eliminar sesión: %w", err)
	}
	return nil
}

// DeleteAll cierra todas las sesiones y devuelve cuántas había.
func (s *SessionStore) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("eliminar sesiones: %w", err)
	}
	return n, nil
}

// RevokeUser cierra las sesiones del usuario salvo la de exceptToken (vacío = todas).
func (s *SessionStore) RevokeUser(ctx context.Context, userID, exceptToken string) (int64, error) {
	except := ""
	if exceptToken != "" {
		except = entity.HashToken(exceptToken)
	}
	n, err := s.repo.DeleteByUser(ctx, userID, except)
	if err != nil {
		return 0, fmt.Errorf("revocar sesiones de %s: %w", userID, err)
	}
	return n, nil
}

// DeleteExpired borra las filas vencidas.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purgar sesiones vencidas: %w", err)
	}
	return n, nil
}

// Sweep purga sesiones vencidas cada interval hasta que ctx termine.
func (s *SessionStore) Sweep(ctx context.Context, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.DeleteExpired(ctx)
			if err != nil {
				log.Error().Err(err).Msg("limpieza de sesiones")
				continue
			}
			if n > 0 {
				log.Info().Int64("deleted", n).Msg("sesiones vencidas eliminadas")
			}
		}
	}
}
