package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-api/internal/application/auth"
	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

// SessionHandler operaciones administrativas sobre sesiones.
type SessionHandler struct {
	uc  *auth.AuthUseCase
	log *logger.Logger
}

// NewSessionHandler construye el handler.
func NewSessionHandler(uc *auth.AuthUseCase, log *logger.Logger) *SessionHandler {
	return &SessionHandler{uc: uc, log: log}
}

// DeleteAll godoc
// @Summary      Cerrar todas las sesiones
// @Description  Elimina todas las sesiones, incluida la del administrador que lo solicita.
// @Tags         sessions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SessionsPurgeResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/sessions [delete]
func (h *SessionHandler) DeleteAll(c *fiber.Ctx) error {
	n, err := h.uc.SignOutEveryone(c.UserContext(), GetUserID(c), requestMeta(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SessionsPurgeResponse{Deleted: n})
}
