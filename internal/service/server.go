package service

import (
	"context"
	"github.com/Bessima/bookbind-pay/internal/clients/razorpay"
	"github.com/Bessima/bookbind-pay/internal/config/db"
	"github.com/Bessima/bookbind-pay/internal/handlers"
	middleware "github.com/Bessima/bookbind-pay/internal/middlewares"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/Bessima/bookbind-pay/internal/repository"
	"github.com/go-chi/chi/v5"
	"net"
	"net/http"
	"time"
)

type ServerService struct {
	Server *http.Server
	db     *db.DB
}

func NewServerService(rootContext context.Context, address string, db *db.DB) ServerService {
	server := &http.Server{
		Addr:              address,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return rootContext
		},
	}
	return ServerService{Server: server, db: db}
}

func (serverService *ServerService) SetRouter(jwtConfig *handlers.JWTConfig, provider razorpay.ProviderI, currency string) {
	serverService.Server.Handler = serverService.getRouter(jwtConfig, provider, currency)
}

func (serverService *ServerService) getRouter(jwtConfig *handlers.JWTConfig, provider razorpay.ProviderI, currency string) chi.Router {
	router := chi.NewRouter()

	router.Use(logger.RequestLogger)

	userRepository := repository.NewUserRepository(serverService.db)
	orderRepository := repository.NewOrderRepository(serverService.db)
	paymentRepository := repository.NewPaymentRepository(serverService.db)

	authHandler := handlers.NewAuthHandler(jwtConfig, userRepository)
	orderHandler := handlers.NewOrderHandler(orderRepository)
	paymentService := NewPaymentService(orderRepository, paymentRepository, provider, currency)
	paymentsHandler := handlers.NewPaymentsHandler(paymentService)

	router.Post("/auth/login", authHandler.LoginHandler)

	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(authHandler))

		r.Post("/auth/logout", authHandler.LogoutHandler)
		r.Get("/users/me", authHandler.MeHandler)
		r.Get("/orders/my", orderHandler.GetOrders)
		r.Get("/orders/my/{id}", orderHandler.GetOrder)
		r.Post("/payments/create-order", paymentsHandler.CreateOrder)
		r.Post("/payments/verify", paymentsHandler.Verify)
	})

	return router
}

func (serverService *ServerService) RunServer(serverErr *chan error) {
	if err := serverService.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		*serverErr <- err
	} else {
		*serverErr <- nil
	}
}

func (serverService *ServerService) Shutdown() error {
	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if shutdownErr := serverService.Server.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	return nil
}
