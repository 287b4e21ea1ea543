package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/memphis-pe/oc-api/internal/application/auth"
	"github.com/memphis-pe/oc-api/internal/application/device"
	"github.com/memphis-pe/oc-api/internal/application/notifier"
	"github.com/memphis-pe/oc-api/internal/application/order"
	"github.com/memphis-pe/oc-api/internal/application/supplier"
	"github.com/memphis-pe/oc-api/internal/config"
	"github.com/memphis-pe/oc-api/internal/domain"
	"github.com/memphis-pe/oc-api/internal/transport/http/handler"
	appmiddleware "github.com/memphis-pe/oc-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router. The notifier service
// is shared with the change-feed poller, so it is built in main and passed in.
func NewRouter(cfg *config.Config, deps *Deps, notifierSvc notifier.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(deps.UserRepo, deps.SessionRepo, deps.JWTProvider)
	orderSvc := order.NewService(deps.OrderRepo, deps.S3Store)
	supplierSvc := supplier.NewService(deps.SupplierRepo)
	deviceSvc := device.NewService(deps.TokenRepo, deps.PushSender)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(authSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	supplierH := handler.NewSupplierHandler(supplierSvc)
	deviceH := handler.NewDeviceHandler(deviceSvc)
	notifH := handler.NewNotificationHandler(notifierSvc)
	rucH := handler.NewRUCHandler(deps.RUCClient)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", sessionH.Register)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			// Any authenticated user
			r.Get("/orders", orderH.List)
			r.Post("/orders", orderH.Create)
			r.Get("/orders/export", orderH.Export)
			r.Get("/orders/{id}", orderH.Get)
			r.Put("/orders/{id}", orderH.Update)

			r.Get("/suppliers", supplierH.List)
			r.Post("/suppliers", supplierH.Create)
			r.Get("/suppliers/{id}", supplierH.Get)
			r.Put("/suppliers/{id}", supplierH.Update)

			r.Get("/devices", deviceH.List)
			r.Post("/devices", deviceH.Register)
			r.Delete("/devices/{id}", deviceH.Deactivate)

			r.With(sensitiveRL.Limit).Get("/ruc/{ruc}", rucH.Get)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Delete("/orders/{id}", orderH.Delete)
				r.Delete("/suppliers/{id}", supplierH.Delete)
				r.Post("/notifications/test", notifH.SendTest)
			})
		})
	})

	return r
}
