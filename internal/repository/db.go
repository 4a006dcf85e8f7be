package repository

import (
	"context"
	"errors"

	"github.com/Bessima/bookbind-pay/internal/config/db"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/Bessima/bookbind-pay/internal/migrations"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// OpenDB connects to postgres and brings the schema up to date.
func OpenDB(rootContext context.Context, databaseDNS string) (*db.DB, error) {
	dbObj, err := db.NewDB(rootContext, databaseDNS)
	if err != nil {
		logger.Log.Error(
			"Unable to connect to database",
			zap.String("path", databaseDNS),
			zap.String("error", err.Error()),
		)
		return nil, err
	}

	if err := migrations.Up(databaseDNS); err != nil {
		dbObj.Close()
		return nil, err
	}
	return dbObj, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
