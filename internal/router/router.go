package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kruathai-pos/api/internal/config"
	"github.com/kruathai-pos/api/internal/database"
	"github.com/kruathai-pos/api/internal/enum"
	"github.com/kruathai-pos/api/internal/handler"
	mw "github.com/kruathai-pos/api/internal/middleware"
	"github.com/kruathai-pos/api/internal/service"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // front-of-house dev server
			"http://localhost:3000", // back-office dev server
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (login and refresh are public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	r.Route("/auth", func(r chi.Router) {
		authHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			authHandler.RegisterProtectedRoutes(r)
		})
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Menu
		categoryHandler := handler.NewCategoryHandler(queries)
		r.Route("/menu/categories", categoryHandler.RegisterRoutes)

		menuItemHandler := handler.NewMenuItemHandler(queries)
		r.Route("/menu/items", menuItemHandler.RegisterRoutes)

		// Orders
		orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
			return database.New(db)
		})
		orderHandler := handler.NewOrderHandler(orderService, queries)
		r.Route("/orders", orderHandler.RegisterRoutes)

		// Cashier shifts
		shiftService := service.NewShiftService(pool, func(db database.DBTX) service.ShiftStore {
			return database.New(db)
		})
		shiftHandler := handler.NewShiftHandler(shiftService, queries)
		r.Route("/shifts", shiftHandler.RegisterRoutes)

		// Inventory
		inventoryHandler := handler.NewInventoryHandler(queries, pool, func(db database.DBTX) handler.InventoryStore {
			return database.New(db)
		})
		r.Route("/inventory", inventoryHandler.RegisterRoutes)

		// Employees and time tracking
		employeeHandler := handler.NewEmployeeHandler(queries)
		r.Route("/employees", employeeHandler.RegisterRoutes)

		timeTrackingHandler := handler.NewTimeTrackingHandler(queries, pool, func(db database.DBTX) handler.TimeTrackingStore {
			return database.New(db)
		})
		r.Route("/time-tracking", timeTrackingHandler.RegisterRoutes)

		// Admin-only back office
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			auditLogHandler := handler.NewAuditLogHandler(queries)
			r.Route("/audit-logs", auditLogHandler.RegisterRoutes)

			dashboardHandler := handler.NewDashboardHandler(queries)
			r.Route("/dashboard", dashboardHandler.RegisterRoutes)
		})

		// Settings: reads are open to staff, writes are admin-only
		// (enforced inside the handler).
		settingsHandler := handler.NewSettingsHandler(queries, pool, func(db database.DBTX) handler.SettingsStore {
			return database.New(db)
		})
		r.Route("/settings", settingsHandler.RegisterRoutes)
	})

	return r
}
