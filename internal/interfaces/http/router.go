package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/jhoicas/clinica-api/internal/application/auth"
	"github.com/jhoicas/clinica-api/internal/application/permission"
	"github.com/jhoicas/clinica-api/internal/application/usecase"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	UserUC         *usecase.UserUseCase
	RoleUC         *usecase.RoleUseCase
	Modules        *usecase.ModuleService
	Identity       *auth.IdentityResolver
	Cookies        CookieConfig
	AllowedOrigins []string
	RequestTimeout time.Duration
	Log            *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	if len(deps.AllowedOrigins) > 0 {
		app.Use(corsMiddleware(deps.AllowedOrigins))
	}

	api := app.Group("/api", RequestTimeout(deps.RequestTimeout))
	requireAuth := RequireAuth(deps.Identity, log)
	can := func(module string) fiber.Handler {
		return RequirePermission(module, deps.Modules, log)
	}

	// Auth: register/login/logout públicos, el resto con sesión.
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.Cookies, log)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Get("/me", requireAuth, authHandler.Me)
	authGroup.Get("/permissions", requireAuth, authHandler.Permissions)
	authGroup.Put("/password", requireAuth, authHandler.ChangePassword)

	users := api.Group("/users", requireAuth, can(permission.ModuleUsuarios))
	userHandler := NewUserHandler(deps.UserUC, log)
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	roles := api.Group("/roles", requireAuth, can(permission.ModuleRoles))
	roleHandler := NewRoleHandler(deps.RoleUC, log)
	roles.Get("/", roleHandler.List)
	roles.Post("/", roleHandler.Create)
	roles.Get("/:name", roleHandler.Get)
	roles.Put("/:name", roleHandler.Update)
	roles.Delete("/:name", roleHandler.Deactivate)

	sessionHandler := NewSessionHandler(deps.AuthUC, log)
	api.Delete("/sessions", requireAuth, can(permission.ModuleUsuarios), sessionHandler.DeleteAll)
}

// RequestTimeout acota el contexto de la petición que llega a casos de uso y
// repositorios. d <= 0 no aplica límite.
func RequestTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// La cookie de sesión exige credenciales; con comodín no se pueden permitir.
func corsMiddleware(origins []string) fiber.Handler {
	joined := strings.Join(origins, ",")
	return cors.New(cors.Config{
		AllowOrigins:     joined,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: joined != "*",
	})
}
