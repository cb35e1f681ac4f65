// @title        Clínica API
// @version      1.0
// @description  Autenticación, sesiones y permisos por rol de la clínica.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	_ "github.com/jhoicas/clinica-api/docs"
	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/auth"
	"github.com/jhoicas/clinica-api/internal/application/bootstrap"
	"github.com/jhoicas/clinica-api/internal/application/permission"
	"github.com/jhoicas/clinica-api/internal/application/ratelimit"
	"github.com/jhoicas/clinica-api/internal/application/usecase"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
	"github.com/jhoicas/clinica-api/internal/infrastructure/amqp"
	"github.com/jhoicas/clinica-api/internal/infrastructure/memory"
	"github.com/jhoicas/clinica-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/clinica-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/clinica-api/internal/interfaces/http"
	"github.com/jhoicas/clinica-api/pkg/config"
	"github.com/jhoicas/clinica-api/pkg/jwt"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

// repositories implementación de almacenamiento elegida por STORAGE.
type repositories struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	roles    repository.RoleRepository
	tx       repository.TxRunner
	pool     *pgxpool.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage).
		Msg("iniciando aplicación")

	ctx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	repos := openStorage(ctx, cfg, log)
	if repos.pool != nil {
		defer repos.pool.Close()
	}

	signer, err := jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("firmador JWT")
	}

	limiterCfg := ratelimit.Config{
		MaxAttempts:   cfg.RateLimit.MaxAttempts,
		Window:        cfg.RateLimit.Window,
		BlockDuration: cfg.RateLimit.BlockDuration,
	}.WithDefaults()
	limiterStore, rdb := openLimiterStore(ctx, cfg, limiterCfg, log)
	if rdb != nil {
		defer rdb.Close()
	}
	limiter := ratelimit.New(limiterCfg, limiterStore, nil)

	var sink audit.Sink = audit.NewLogSink(log.Named("audit"))
	if cfg.Audit.Sink == "amqp" {
		publisher := amqp.NewAuditPublisher(cfg.Audit.AMQPURL, cfg.Audit.Queue)
		defer publisher.Close()
		sink = publisher
	}
	dispatcher := audit.NewDispatcher(sink, log.Named("audit"), cfg.Audit.Buffer)

	var permOpts []permission.Option
	if cfg.Permissions.ForcedOverrides {
		permOpts = append(permOpts, permission.WithOverrides(permission.ForcedOverrides))
	}
	resolver := permission.NewResolver(repos.roles, permOpts...)

	hasher := auth.NewPasswordHasher(cfg.BcryptCost, int64(runtime.NumCPU()))
	if repos.pool == nil {
		seedMemory(ctx, cfg, repos, hasher, log)
	}
	sessions := auth.NewSessionStore(repos.sessions, time.Now)
	if cfg.Session.SweepInterval > 0 {
		go sessions.Sweep(ctx, cfg.Session.SweepInterval, log.Named("sessions"))
	}

	authUC := auth.NewAuthUseCase(auth.Deps{
		Users:       repos.users,
		Sessions:    sessions,
		Tokens:      signer,
		Hasher:      hasher,
		Limiter:     limiter,
		Permissions: resolver,
		Audit:       dispatcher,
		Log:         log.Named("auth"),
	})
	userUC := usecase.NewUserUseCase(repos.users, repos.tx, hasher, dispatcher)
	roleUC := usecase.NewRoleUseCase(repos.roles, dispatcher)
	moduleSvc := usecase.NewModuleService(resolver)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Clínica API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:   authUC,
		UserUC:   userUC,
		RoleUC:   roleUC,
		Modules:  moduleSvc,
		Identity: auth.NewIdentityResolver(signer, sessions, repos.users),
		Cookies: httpRouter.CookieConfig{
			Production: cfg.App.IsProduction(),
			Domain:     cfg.Session.CookieDomain,
		},
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Log:            log.Named("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	cancelBackground()
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("auditoría: eventos pendientes sin entregar")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) repositories {
	if cfg.Storage == "memory" {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.New()
		return repositories{users: store.Users(), sessions: store.Sessions(), roles: store.Roles(), tx: store}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	timeout := cfg.DB.QueryTimeout
	return repositories{
		users:    postgres.NewUserRepository(pool, timeout),
		sessions: postgres.NewSessionRepository(pool, timeout),
		roles:    postgres.NewRoleRepository(pool, timeout),
		tx:       postgres.NewTxRunner(pool, timeout),
		pool:     pool,
	}
}

func openLimiterStore(ctx context.Context, cfg *config.Config, limiterCfg ratelimit.Config, log *logger.Logger) (ratelimit.Store, *goredis.Client) {
	if cfg.RateLimit.Store != "redis" {
		return ratelimit.NewMemoryStore(), nil
	}
	rdb, err := infraredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	return infraredis.NewRateLimitStore(rdb, limiterCfg), rdb
}

// En memoria no hay cmd/seed previo: roles y administrador se crean al arrancar.
func seedMemory(ctx context.Context, cfg *config.Config, repos repositories, hasher *auth.PasswordHasher, log *logger.Logger) {
	rep, err := bootstrap.NewSeeder(repos.users, repos.roles, hasher).Seed(ctx, bootstrap.Admin{
		Email:    cfg.Seed.AdminEmail,
		Password: cfg.Seed.AdminPassword,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("datos iniciales en memoria")
	}
	log.Info().Strs("roles", rep.RolesCreated).Bool("admin", rep.AdminCreated).Msg("datos iniciales en memoria")
}
