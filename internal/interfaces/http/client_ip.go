package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClientID clave del limitador: primera IP de X-Forwarded-For, luego
// X-Real-IP, luego la dirección remota; "unknown" si no hay ninguna.
func ClientID(c *fiber.Ctx) string {
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(c.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}
