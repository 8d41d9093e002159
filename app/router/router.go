package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mars3lo-orders/app/controller"
	"mars3lo-orders/models"
)

type Controllers struct {
	Auth     *controller.AuthController
	Stock    *controller.StockController
	Cart     *controller.CartController
	Order    *controller.OrderController
	Realtime *controller.RealtimeController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// SetupRoutes builds the HTTP handler of the API
func SetupRoutes(controllers *Controllers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	showroom := controllers.Auth.RequireRole(models.RoleShowroom)
	warehouse := controllers.Auth.RequireRole(models.RoleWarehouse)
	anyRole := controllers.Auth.RequireRole(models.RoleShowroom, models.RoleWarehouse)

	// Websocket connections outlive the request timeout
	r.With(anyRole).Get("/realtime", controllers.Realtime.Serve)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/ping", pingHandler)
		r.Post("/login", controllers.Auth.Login)
		r.Post("/logout", controllers.Auth.Logout)

		// Stock ledger
		r.With(anyRole).Get("/stock", controllers.Stock.List)
		r.With(anyRole).Get("/stock/categories", controllers.Stock.Categories)

		// Showroom cart of the logged-in session
		r.Route("/cart", func(r chi.Router) {
			r.Use(showroom)
			r.Get("/", controllers.Cart.Get)
			r.Delete("/", controllers.Cart.Clear)
			r.Put("/lines", controllers.Cart.SetLine)
			r.Delete("/groups", controllers.Cart.ClearGroup)
			r.Get("/totals", controllers.Cart.Totals)
			r.Get("/export", controllers.Cart.Export)
			r.Post("/submit", controllers.Cart.Submit)
		})

		// Orders
		r.Route("/orders", func(r chi.Router) {
			r.With(anyRole).Get("/", controllers.Order.List)
			r.Route("/{id}", func(r chi.Router) {
				r.With(anyRole).Get("/", controllers.Order.Get)
				r.With(anyRole).Get("/export", controllers.Order.Export)
				r.With(warehouse).Post("/review", controllers.Order.Review)
				r.With(warehouse).Post("/cancel", controllers.Order.Cancel)
				r.With(warehouse).Post("/archive", controllers.Order.Archive)
				r.With(warehouse).Delete("/", controllers.Order.Delete)
			})
		})
	})

	return r
}
