// seed aplica el esquema embebido y carga los datos iniciales: roles por
// defecto con sus permisos y el administrador inicial.
//
// Uso: go run ./cmd/seed [-admin-email admin@clinica.mx -admin-password ...] [-migrate-only]
// Sin flags toma ADMIN_EMAIL y ADMIN_PASSWORD del entorno.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/clinica-api/internal/application/auth"
	"github.com/jhoicas/clinica-api/internal/application/bootstrap"
	"github.com/jhoicas/clinica-api/internal/infrastructure/postgres"
	"github.com/jhoicas/clinica-api/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	adminEmail := flag.String("admin-email", cfg.Seed.AdminEmail, "email del administrador inicial")
	adminPassword := flag.String("admin-password", cfg.Seed.AdminPassword, "contraseña del administrador inicial")
	migrateOnly := flag.Bool("migrate-only", false, "solo aplicar migraciones")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migraciones: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Migraciones aplicadas: %d %v\n", len(applied), applied)
	if *migrateOnly {
		return
	}

	timeout := cfg.DB.QueryTimeout
	seeder := bootstrap.NewSeeder(
		postgres.NewUserRepository(pool, timeout),
		postgres.NewRoleRepository(pool, timeout),
		auth.NewPasswordHasher(cfg.BcryptCost, 1),
	)
	rep, err := seeder.Seed(ctx, bootstrap.Admin{Email: *adminEmail, Password: *adminPassword})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Datos iniciales: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Roles creados: %v\n", rep.RolesCreated)
	switch {
	case *adminEmail == "":
		fmt.Println("Administrador: omitido (sin -admin-email)")
	case rep.AdminCreated:
		fmt.Printf("Administrador creado: %s\n", *adminEmail)
	default:
		fmt.Printf("Administrador ya existía: %s\n", *adminEmail)
	}
}
