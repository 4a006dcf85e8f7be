package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var files embed.FS

// Up applies every pending migration to the database behind databaseDNS.
func Up(databaseDNS string) error {
	url, err := migrateURL(databaseDNS)
	if err != nil {
		return err
	}

	source, err := iofs.New(files, "sql")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			logger.Log.Warn("failed to close migrations", zap.NamedError("source", sourceErr), zap.NamedError("database", dbErr))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		logger.Log.Info("database migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}

// migrateURL rewrites a postgres URL to the pgx/v5 driver scheme.
func migrateURL(databaseDNS string) (string, error) {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(databaseDNS, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseDNS, prefix), nil
		}
	}
	if strings.HasPrefix(databaseDNS, "pgx5://") {
		return databaseDNS, nil
	}
	return "", fmt.Errorf("database dns must be a postgres:// url, got %q", databaseDNS)
}
