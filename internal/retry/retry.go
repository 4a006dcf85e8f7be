package retry

import (
	"context"
	"errors"
	"time"

	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type Config struct {
	Attempts  int
	Delays    []time.Duration
	Retryable func(err error) bool
}

// DefaultConfig retries only connection-class postgres failures: 1s, 3s, 5s.
var DefaultConfig = Config{
	Attempts:  4,
	Delays:    []time.Duration{time.Second, 3 * time.Second, 5 * time.Second},
	Retryable: IsConnectionError,
}

func IsConnectionError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code)
	}
	return false
}

func DoRetry(ctx context.Context, fn func() error, configs ...Config) error {
	_, err := DoRetryWithResult(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	}, configs...)
	return err
}

func DoRetryWithResult[T any](ctx context.Context, fn func() (T, error), configs ...Config) (T, error) {
	cfg := DefaultConfig
	if len(configs) > 0 {
		cfg = configs[0]
	}

	var result T
	var err error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		result, err = fn()
		if err == nil || cfg.Retryable == nil || !cfg.Retryable(err) {
			return result, err
		}
		if attempt >= len(cfg.Delays) {
			break
		}

		logger.Log.Warn("retrying after transient error",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(cfg.Delays[attempt]):
		}
	}
	return result, err
}
