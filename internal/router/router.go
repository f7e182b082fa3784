package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/morningcafe/ordering-api/internal/cart"
	"github.com/morningcafe/ordering-api/internal/catalog"
	"github.com/morningcafe/ordering-api/internal/config"
	"github.com/morningcafe/ordering-api/internal/database"
	"github.com/morningcafe/ordering-api/internal/enum"
	"github.com/morningcafe/ordering-api/internal/handler"
	mw "github.com/morningcafe/ordering-api/internal/middleware"
	"github.com/morningcafe/ordering-api/internal/service"
	"github.com/morningcafe/ordering-api/internal/session"
)

// New creates a Chi router with all application routes wired up.
// Cart routes ride on the session cookie; order routes require a token;
// admin routes additionally require the ADMIN role.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, sessions session.Store) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Domain wiring
	catalogProvider := catalog.NewPostgresProvider(queries)
	cartStore := cart.NewStore(sessions, catalogProvider)
	pricer := cart.NewPricer(catalogProvider)

	newCheckoutStore := func(db database.DBTX) service.CheckoutStore {
		return database.New(db)
	}
	checkoutService := service.NewCheckoutService(pool, newCheckoutStore, cartStore, catalogProvider)
	statusService := service.NewStatusService(queries)
	orderQueries := service.NewOrderQueryService(queries)

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Menu browsing (public)
	menuHandler := handler.NewMenuHandler(queries)
	menuHandler.RegisterRoutes(r)

	// Cart and checkout: session-scoped, auth optional so guests can order
	r.Group(func(r chi.Router) {
		r.Use(mw.EnsureSession)
		r.Use(mw.OptionalAuthenticate(cfg.JWTSecret))

		cartHandler := handler.NewCartHandler(cartStore, pricer, checkoutService)
		cartHandler.RegisterRoutes(r)
	})

	// Customer routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		authHandler.RegisterProtectedRoutes(r)

		orderHandler := handler.NewOrderHandler(orderQueries, statusService)
		orderHandler.RegisterRoutes(r)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRole(enum.RoleAdmin))

		adminHandler := handler.NewAdminOrderHandler(orderQueries, statusService)
		r.Route("/admin", adminHandler.RegisterRoutes)
	})

	return r
}
