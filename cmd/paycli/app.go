package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Bessima/bookbind-pay/internal/clients/backend"
	"github.com/Bessima/bookbind-pay/internal/config"
	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/identity"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"go.uber.org/zap"
)

// app holds what every command needs: config, the persisted session and the backend client.
type app struct {
	conf     *config.ClientConfig
	store    *identity.SQLiteStore
	identity *identity.Context
	client   *backend.Client
}

func newApp() (*app, error) {
	conf, err := config.InitClientConfig()
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	if err := logger.Initialize(conf.LogLevel); err != nil {
		logger.Log.Warn(err.Error())
	}

	store, err := identity.NewSQLiteStore(conf.SessionDB)
	if err != nil {
		return nil, err
	}

	identityCtx := identity.New(store, identity.WithSignedOutHook(func() {
		logger.Log.Info("session cleared")
	}))

	return &app{
		conf:     conf,
		store:    store,
		identity: identityCtx,
		client:   backend.NewClient(conf.APIURL, identityCtx),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Log.Warn("failed to close session store", zap.Error(err))
	}
	_ = logger.Log.Sync()
}

func withApp(run func(ctx context.Context, a *app, args []string) error) func(args []string) error {
	return func(args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		return run(ctx, a, args)
	}
}

// explain turns a settlement error into the message shown to the customer.
func explain(err error) error {
	if kind := customerror.KindOf(err); kind != "" {
		return errors.New(customerror.UserMessage(kind))
	}
	if errors.Is(err, customerror.ErrUnauthenticated) {
		return errors.New(customerror.UserMessage(customerror.Unauthenticated))
	}
	return err
}
