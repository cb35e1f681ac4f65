package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/pkg/jwt"
)

// TokenService emite y verifica tokens de sesión (lo implementa *jwt.Signer).
type TokenService interface {
	Issue(userID string) (string, time.Time, error)
	Verify(token string) (*jwt.Claims, bool)
}

// UserReader lectura de usuarios por id.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// IdentityResolver token -> usuario. Camino único: el token debe verificar,
// debe existir una sesión viva para él con el mismo sujeto y el usuario debe
// estar activo.
type IdentityResolver struct {
	tokens   TokenService
	sessions *SessionStore
	users    UserReader
}

// NewIdentityResolver construye el resolver.
func NewIdentityResolver(tokens TokenService, sessions *SessionStore, users UserReader) *IdentityResolver {
	return &IdentityResolver{tokens: tokens, sessions: sessions, users: users}
}

// Resolve devuelve (nil, nil) para cualquier fallo esperado: token ausente,
// inválido o vencido, sesión inexistente, usuario inexistente o no activo.
// Solo los errores de infraestructura se propagan.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, nil
	}
	claims, ok := r.tokens.Verify(token)
	if !ok {
		return nil, nil
	}
	sess, err := r.sessions.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != claims.UserID() {
		return nil, nil
	}
	user, err := r.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolver identidad: %w", err)
	}
	if !user.IsActive() {
		return nil, nil
	}
	return user, nil
}
