package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

// moduleChecker es el contrato mínimo que necesita el middleware para verificar módulos.
// Lo implementa *usecase.ModuleService.
type moduleChecker interface {
	HasAccess(ctx context.Context, role, module string) (bool, error)
}

// RequirePermission verifica que el rol del usuario autenticado incluya el
// módulo o la acción. Debe usarse DESPUÉS de RequireAuth.
//
// Comportamiento:
//   - 403 Forbidden → el rol no tiene el permiso.
//   - 500 Internal Server Error → fallo al leer la tabla de roles.
func RequirePermission(module string, checker moduleChecker, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "sesión requerida"})
		}

		ok, err := checker.HasAccess(c.UserContext(), user.Role, module)
		if err != nil {
			log.Error().Err(err).Str("module", module).Str("role", user.Role).Msg("verificación de permisos")
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Code:    "INTERNAL",
				Message: "error interno del servidor",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "el rol no tiene acceso al módulo '" + module + "'",
			})
		}
		return c.Next()
	}
}
