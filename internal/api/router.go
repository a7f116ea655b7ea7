// Package api wires together all HTTP routes for the CoreBiz backend.
//
// Route grouping philosophy:
//   - /api/auth/register and /api/auth/login are the only business routes
//     reachable without a token, and both sit behind the stricter auth rate
//     limiter to slow credential stuffing.
//   - Everything else under /api/ requires a Bearer token; the auth middleware
//     binds the caller's company id into the context, and handlers scope every
//     query by it. Admin-only groups additionally require the admin role.
package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/corebiz/corebiz/internal/api/handlers"
	"github.com/corebiz/corebiz/internal/audit"
	"github.com/corebiz/corebiz/internal/config"
	"github.com/corebiz/corebiz/internal/db/models"
	"github.com/corebiz/corebiz/internal/db/repositories"
	"github.com/corebiz/corebiz/internal/middleware"
)

// BackgroundServices holds references to background resources that must be
// stopped during graceful shutdown. The caller (cmd/server) is responsible
// for calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	shipper      audit.Shipper
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines and flushes the audit shipper. It
// should be called after the HTTP server has been shut down so that in-flight
// requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	if bg.shipper != nil {
		if err := bg.shipper.Close(); err != nil {
			slog.Warn("failed to close audit shipper", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	sqlxDB := sqlx.NewDb(db, "postgres")

	companyRepo := repositories.NewCompanyRepository(sqlxDB)
	userRepo := repositories.NewUserRepository(sqlxDB)
	customerRepo := repositories.NewCustomerRepository(sqlxDB)
	saleRepo := repositories.NewSaleRepository(sqlxDB)
	auditRepo := repositories.NewAuditRepository(sqlxDB)
	dashboardRepo := repositories.NewDashboardRepository(sqlxDB)

	shipper := buildAuditShipper(cfg)
	recorder := audit.NewRecorder(auditRepo, shipper, cfg.Audit.Enabled)

	authHandlers := handlers.NewAuthHandlers(companyRepo, userRepo, recorder, cfg.Auth.TokenTTL)
	companyHandlers := handlers.NewCompanyHandlers(companyRepo, recorder)
	userHandlers := handlers.NewUserHandlers(userRepo, recorder)
	customerHandlers := handlers.NewCustomerHandlers(customerRepo, saleRepo, recorder)
	saleHandlers := handlers.NewSaleHandlers(saleRepo, customerRepo, recorder)
	dashboardHandlers := handlers.NewDashboardHandlers(dashboardRepo)
	auditHandlers := handlers.NewAuditHandlers(auditRepo)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	router.GET("/health", healthCheckHandler(db))
	router.GET("/version", versionHandler())

	generalLimiter := middleware.NewRateLimiter(generalRateLimitConfig(cfg))
	authLimiter := middleware.NewRateLimiter(authRateLimitConfig(cfg))
	exportLimiter := middleware.NewRateLimiter(middleware.ExportRateLimitConfig())

	apiGroup := router.Group("/api")
	if cfg.Security.RateLimiting.Enabled {
		apiGroup.Use(middleware.RateLimitMiddleware(generalLimiter))
	}

	// Public auth endpoints behind the stricter limiter.
	authGroup := apiGroup.Group("/auth")
	if cfg.Security.RateLimiting.Enabled {
		authGroup.Use(middleware.RateLimitMiddleware(authLimiter))
	}
	{
		authGroup.POST("/register", authHandlers.RegisterHandler())
		authGroup.POST("/login", authHandlers.LoginHandler())
	}

	// Everything below requires a valid token, an active user, and an active
	// company.
	authed := apiGroup.Group("")
	authed.Use(middleware.AuthMiddleware(userRepo))
	{
		authed.GET("/auth/me", authHandlers.MeHandler())
		authed.POST("/auth/logout", authHandlers.LogoutHandler())
		authed.POST("/auth/change-password", authHandlers.ChangePasswordHandler())

		authed.GET("/company", companyHandlers.GetCompanyHandler())

		// Company mutation and user management are admin-only.
		adminGroup := authed.Group("")
		adminGroup.Use(middleware.RequireRole(models.RoleAdmin))
		{
			adminGroup.PUT("/company", companyHandlers.UpdateCompanyHandler())
			adminGroup.POST("/company/deactivate", companyHandlers.DeactivateCompanyHandler())

			adminGroup.GET("/users", userHandlers.ListUsersHandler())
			adminGroup.POST("/users", userHandlers.CreateUserHandler())
			adminGroup.PUT("/users/:id", userHandlers.UpdateUserHandler())
			adminGroup.POST("/users/:id/activate", userHandlers.ActivateUserHandler())
			adminGroup.POST("/users/:id/deactivate", userHandlers.DeactivateUserHandler())

			adminGroup.GET("/audit", auditHandlers.ListAuditLogsHandler())
			adminGroup.GET("/audit/summary/stats", auditHandlers.GetAuditSummaryHandler())
			adminGroup.GET("/audit/:id", auditHandlers.GetAuditLogHandler())
		}

		// GetUserHandler enforces the staff-may-only-read-self rule itself.
		authed.GET("/users/:id", userHandlers.GetUserHandler())

		authed.GET("/customers", customerHandlers.ListCustomersHandler())
		authed.POST("/customers", customerHandlers.CreateCustomerHandler())
		authed.GET("/customers/:id", customerHandlers.GetCustomerHandler())
		authed.PUT("/customers/:id", customerHandlers.UpdateCustomerHandler())
		authed.PUT("/customers/:id/status", customerHandlers.UpdateCustomerStatusHandler())
		authed.GET("/customers/:id/sales", customerHandlers.ListCustomerSalesHandler())

		authed.GET("/sales", saleHandlers.ListSalesHandler())
		authed.POST("/sales", saleHandlers.CreateSaleHandler())

		exportGroup := authed.Group("/sales/export")
		if cfg.Security.RateLimiting.Enabled {
			exportGroup.Use(middleware.RateLimitMiddleware(exportLimiter))
		}
		exportGroup.GET("", saleHandlers.ExportSalesHandler())

		authed.GET("/sales/:id", saleHandlers.GetSaleHandler())
		authed.PUT("/sales/:id", saleHandlers.UpdateSaleHandler())
		authed.PATCH("/sales/:id/status", saleHandlers.UpdateSaleStatusHandler())
		authed.DELETE("/sales/:id", saleHandlers.DeleteSaleHandler())

		authed.GET("/dashboard/stats", dashboardHandlers.StatsHandler())
		authed.GET("/dashboard/sales-by-month", dashboardHandlers.SalesByMonthHandler())
		// Revenue rankings expose per-customer totals, so staff may not read them.
		authed.GET("/dashboard/top-customers", middleware.RequireRole(models.RoleAdmin), dashboardHandlers.TopCustomersHandler())
		authed.GET("/dashboard/recent-activity", dashboardHandlers.RecentActivityHandler())
	}

	bg := &BackgroundServices{
		shipper:      shipper,
		rateLimiters: []*middleware.RateLimiter{generalLimiter, authLimiter, exportLimiter},
	}

	return router, bg
}

// generalRateLimitConfig maps the security config onto the limiter, falling
// back to the built-in defaults for zero values.
func generalRateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.Security.RateLimiting.RequestsPerMinute > 0 {
		rl.RequestsPerMinute = cfg.Security.RateLimiting.RequestsPerMinute
	}
	if cfg.Security.RateLimiting.Burst > 0 {
		rl.BurstSize = cfg.Security.RateLimiting.Burst
	}
	return rl
}

func authRateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.AuthRateLimitConfig()
	if cfg.Security.RateLimiting.AuthRequestsPerMinute > 0 {
		rl.RequestsPerMinute = cfg.Security.RateLimiting.AuthRequestsPerMinute
	}
	if cfg.Security.RateLimiting.AuthBurst > 0 {
		rl.BurstSize = cfg.Security.RateLimiting.AuthBurst
	}
	return rl
}

// buildAuditShipper assembles the configured shipper chain. Returns nil when
// no shipper is enabled; the recorder treats a nil shipper as database-only
// auditing.
func buildAuditShipper(cfg *config.Config) audit.Shipper {
	if !cfg.Audit.Enabled || len(cfg.Audit.Shippers) == 0 {
		return nil
	}

	configs := make([]audit.ShipperConfig, 0, len(cfg.Audit.Shippers))
	for _, s := range cfg.Audit.Shippers {
		sc := audit.ShipperConfig{
			Enabled: s.Enabled,
			Type:    s.Type,
		}
		if s.Webhook != nil {
			sc.Webhook = &audit.WebhookConfig{
				URL:           s.Webhook.URL,
				Headers:       s.Webhook.Headers,
				Timeout:       time.Duration(s.Webhook.TimeoutSecs) * time.Second,
				BatchSize:     s.Webhook.BatchSize,
				FlushInterval: time.Duration(s.Webhook.FlushInterval) * time.Second,
			}
		}
		if s.File != nil {
			sc.File = &audit.FileConfig{
				Path:       s.File.Path,
				MaxSizeMB:  s.File.MaxSizeMB,
				MaxBackups: s.File.MaxBackups,
			}
		}
		configs = append(configs, sc)
	}

	shipper, err := audit.NewMultiShipper(configs)
	if err != nil {
		slog.Error("failed to initialize audit shippers, continuing with database-only auditing", "error", err)
		return nil
	}
	return shipper
}

// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured request logging via slog.
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
