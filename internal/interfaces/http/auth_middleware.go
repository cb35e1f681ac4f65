package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

// Locals keys para el usuario autenticado y su token en Fiber.
const (
	LocalUser  = "user"
	LocalToken = "session_token"
)

// identityResolver lo implementa *auth.IdentityResolver.
type identityResolver interface {
	Resolve(ctx context.Context, token string) (*entity.User, error)
}

// TokenFromRequest lee la cookie de sesión y, si no está, el header
// Authorization: Bearer <token>.
func TokenFromRequest(c *fiber.Ctx) string {
	if tok := strings.TrimSpace(c.Cookies(SessionCookieName)); tok != "" {
		return tok
	}
	scheme, tok, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

// RequireAuth resuelve la identidad de la petición y la deja en c.Locals.
// Sin identidad válida responde 401; un fallo de infraestructura, 500.
func RequireAuth(resolver identityResolver, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "sesión requerida"})
		}
		user, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			return respondError(c, log, err)
		}
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "sesión inválida o expirada"})
		}
		c.Locals(LocalUser, user)
		c.Locals(LocalToken, token)
		return c.Next()
	}
}

// GetUser devuelve el usuario autenticado (después de RequireAuth).
func GetUser(c *fiber.Ctx) *entity.User {
	u, _ := c.Locals(LocalUser).(*entity.User)
	return u
}

// GetUserID devuelve el ID del usuario autenticado o "".
func GetUserID(c *fiber.Ctx) string {
	if u := GetUser(c); u != nil {
		return u.ID
	}
	return ""
}

// GetToken devuelve el token de la sesión actual.
func GetToken(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalToken).(string)
	return s
}
