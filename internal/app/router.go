package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/linemk/storefront/internal/app/handlers"
	"github.com/linemk/storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/storefront/internal/lib/logger/handlers/urllog"
	"github.com/linemk/storefront/internal/service"
)

// Services - всё, что нужно роутеру от бизнес-логики
type Services struct {
	Auth    service.AuthServiceInterface
	Orders  service.OrderService
	Catalog service.CatalogService
}

// NewRouter собирает chi-роутер со всеми эндпоинтами API
func NewRouter(log *slog.Logger, jwtSecret string, svc Services) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", handlers.RegisterHandler(log, svc.Auth))
		r.Post("/auth/login", handlers.LoginHandler(log, svc.Auth))

		r.Get("/products", handlers.ListProductsHandler(log, svc.Catalog))
		r.Get("/products/featured", handlers.ListFeaturedProductsHandler(log, svc.Catalog))
		r.Get("/products/{id}", handlers.GetProductHandler(log, svc.Catalog))

		r.Group(func(r chi.Router) {
			r.Use(jwtmiddleware.NewJWTMiddleware(jwtSecret))

			r.Post("/orders", handlers.PlaceOrderHandler(log, svc.Orders))
			r.Get("/orders/my", handlers.MyOrdersHandler(log, svc.Orders))
			r.Patch("/orders/{id}/cancel", handlers.CancelOrderHandler(log, svc.Orders))

			r.Group(func(r chi.Router) {
				r.Use(jwtmiddleware.RequireAdmin)

				r.Get("/orders", handlers.AllOrdersHandler(log, svc.Orders))
				r.Put("/orders/{id}/status", handlers.UpdateStatusHandler(log, svc.Orders))
				r.Post("/products", handlers.CreateProductHandler(log, svc.Catalog))
				r.Post("/products/{id}/variants", handlers.AddVariantHandler(log, svc.Catalog))
				r.Get("/sizes", handlers.ListSizesHandler(log, svc.Catalog))
				r.Post("/sizes", handlers.CreateSizeHandler(log, svc.Catalog))
				r.Patch("/users/{id}/admin", handlers.SetAdminHandler(log, svc.Auth))
			})
		})
	})

	return router
}
