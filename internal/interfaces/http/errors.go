package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-api/internal/application/auth"
	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Orden relevante: los errores específicos antes que los genéricos.
var errorTable = []errorMapping{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidStatus, fiber.StatusBadRequest, "INVALID_STATUS"},
	{domain.ErrInvalidRole, fiber.StatusBadRequest, "INVALID_ROLE"},
	{domain.ErrInvalidCredentials, fiber.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrInactiveAccount, fiber.StatusForbidden, "ACCOUNT_INACTIVE"},
	{domain.ErrRoleMismatch, fiber.StatusForbidden, "ROLE_MISMATCH"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrUserNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrRoleNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "EMAIL_EXISTS"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
}

// respondError traduce err a la respuesta HTTP. Los errores no clasificados
// se registran y salen como 500 sin detalle.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	if rl, ok := auth.IsRateLimited(err); ok {
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.RateLimitResponse{
			Code:      "RATE_LIMITED",
			Message:   domain.ErrRateLimited.Error(),
			ResetTime: rl.ResetTime.UTC(),
		})
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			msg := err.Error()
			// No distinguir email inexistente de contraseña incorrecta.
			if m.target == domain.ErrInvalidCredentials {
				msg = domain.ErrInvalidCredentials.Error()
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: msg})
		}
	}
	if log != nil {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo JSON inválido"})
}
