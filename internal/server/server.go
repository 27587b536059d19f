package server

import (
	"beautypro-payments/internal/handler"
	"beautypro-payments/internal/middleware"
	"beautypro-payments/internal/ratelimit"
	"beautypro-payments/internal/service"
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Deps struct {
	PaymentService service.PaymentService
	PayoutService  service.PayoutService
	SellerService  service.SellerService

	// Limiters are optional; nil disables limiting for the route class.
	WebhookLimiter ratelimit.Limiter
	SellerLimiter  ratelimit.Limiter

	AdminAPIKey string
	Logger      *slog.Logger
}

type Server struct {
	echo           *echo.Echo
	deps           Deps
	paymentHandler *handler.PaymentHandler
	sellerHandler  *handler.SellerHandler
	adminHandler   *handler.AdminHandler
}

func NewServer(deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:           e,
		deps:           deps,
		paymentHandler: handler.NewPaymentHandler(deps.PaymentService, deps.Logger),
		sellerHandler:  handler.NewSellerHandler(deps.SellerService, deps.PayoutService),
		adminHandler:   handler.NewAdminHandler(deps.PayoutService, deps.Logger),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- payment provider webhooks --------
	payments := api.Group("/payments")
	payments.GET("/webhook", s.paymentHandler.WebhookHealth)
	payments.POST("/webhook", s.paymentHandler.Webhook,
		middleware.RateLimit(s.deps.WebhookLimiter, "webhook", s.deps.Logger))

	// -------- seller dashboard --------
	seller := api.Group("/seller",
		middleware.SellerAuth(),
		middleware.RateLimit(s.deps.SellerLimiter, "seller", s.deps.Logger))
	seller.PATCH("/orders/:id/status", s.sellerHandler.UpdateOrderStatus)
	seller.GET("/payouts", s.sellerHandler.ListPayouts)

	// -------- back office --------
	admin := api.Group("/admin", middleware.AdminKey(s.deps.AdminAPIKey))
	admin.POST("/payouts/reconcile", s.adminHandler.ReconcilePayouts)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
