package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-api/internal/domain/entity"
)

// SessionCookieName cookie que transporta el token de sesión.
const SessionCookieName = "session-token"

// CookieConfig atributos de la cookie según el entorno.
type CookieConfig struct {
	Production bool
	Domain     string // solo se aplica en producción
}

func (cfg CookieConfig) build(value string, maxAge int, expires time.Time) *fiber.Cookie {
	ck := &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if cfg.Production {
		ck.Secure = true
		ck.SameSite = fiber.CookieSameSiteStrictMode
		ck.Domain = cfg.Domain
	}
	return ck
}

func setSessionCookie(c *fiber.Ctx, cfg CookieConfig, token string, expires time.Time) {
	c.Cookie(cfg.build(token, int(entity.SessionTTL/time.Second), expires))
}

func clearSessionCookie(c *fiber.Ctx, cfg CookieConfig) {
	c.Cookie(cfg.build("", -1, time.Unix(0, 0)))
}
