package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// VersionTable tabla donde tern guarda la versión aplicada.
const VersionTable = "schema_version"

// Migrate aplica con tern los scripts embebidos de migrations/ (NNN_nombre.sql)
// que estén por encima de la versión actual. Devuelve los nombres aplicados.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("adquirir conexión: %w", err)
	}
	defer conn.Release()

	m, err := migrate.NewMigrator(ctx, conn.Conn(), VersionTable)
	if err != nil {
		return nil, fmt.Errorf("crear migrador: %w", err)
	}
	scripts, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	if err := m.LoadMigrations(scripts); err != nil {
		return nil, fmt.Errorf("cargar migraciones: %w", err)
	}

	var applied []string
	m.OnStart = func(_ int32, name, direction, _ string) {
		if direction == "up" {
			applied = append(applied, name)
		}
	}
	if err := m.Migrate(ctx); err != nil {
		return applied, fmt.Errorf("aplicar migraciones: %w", err)
	}
	return applied, nil
}
