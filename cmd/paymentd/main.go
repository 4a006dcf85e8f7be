package main

import (
	"context"
	"github.com/Bessima/bookbind-pay/internal/clients/razorpay"
	"github.com/Bessima/bookbind-pay/internal/config"
	"github.com/Bessima/bookbind-pay/internal/handlers"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/Bessima/bookbind-pay/internal/repository"
	"github.com/Bessima/bookbind-pay/internal/service"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		logger.Log.Error("paymentd stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run() error {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conf, err := config.InitConfig(os.Args[1:])
	if err != nil {
		return err
	}

	if err := logger.Initialize(conf.LogLevel); err != nil {
		logger.Log.Warn(err.Error())
	}
	defer logger.Log.Sync() //nolint:errcheck

	dbObj, err := repository.OpenDB(rootCtx, conf.DatabaseDNS)
	if err != nil {
		return err
	}
	defer dbObj.Close()

	provider := razorpay.NewProvider(conf.RazorpayKeyID, conf.RazorpayKeySecret)

	serverService := service.NewServerService(rootCtx, conf.Address, dbObj)

	jwtConfig := &handlers.JWTConfig{
		SecretKey:      conf.JWTSecret,
		AccessTokenTTL: conf.AccessTokenTTL,
	}
	serverService.SetRouter(jwtConfig, provider, conf.Currency)

	serverErr := make(chan error, 1)
	logger.Log.Info("Running Server on", zap.String("address", conf.Address))
	go serverService.RunServer(&serverErr)

	// Ждем сигнал завершения или ошибку сервера
	select {
	case <-rootCtx.Done():
		logger.Log.Info("Received shutdown signal, shutting down.")
	case err = <-serverErr:
		if err != nil {
			logger.Log.Error("Server error", zap.Error(err))
		}
	}

	if shutdownErr := serverService.Shutdown(); shutdownErr != nil {
		logger.Log.Error("Server shutdown error", zap.Error(shutdownErr))
	}

	return err
}
