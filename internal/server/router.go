package server

import (
	"errors"
	"time"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/audit"
	"warehouse-backend/internal/auth"
	"warehouse-backend/internal/bom"
	"warehouse-backend/internal/config"
	"warehouse-backend/internal/inventory"
	"warehouse-backend/internal/ledger"
	"warehouse-backend/internal/metrics"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Config   *config.Config
	Store    repository.Store
	Engine   *ledger.Engine
	Bom      *bom.Service
	Sessions auth.SessionStore
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// NewApp wires middleware and every route.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "warehouse-backend",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    16 * 1024 * 1024,
		ErrorHandler: errorHandler(d.Logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(requestLogger(d.Logger, d.Metrics))
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.Config.AllowedOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))

	api := app.Group("/api")

	// Public
	api.Get("/health", inventory.HealthHandler(d.Store))
	api.Post("/auth/login", auth.LoginHandler(d.Config, d.Store, d.Sessions))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(d.Config, d.Sessions))
	admin := auth.RequireRole(models.RoleAdmin)

	protected.Get("/auth/me", auth.MeHandler(d.Store))
	protected.Post("/auth/logout", auth.LogoutHandler(d.Sessions))

	// Users
	protected.Get("/users", admin, auth.ListUsersHandler(d.Store))
	protected.Post("/users", admin, auth.CreateUserHandler(d.Store))
	protected.Delete("/users/:id", admin, auth.DeleteUserHandler(d.Store))

	// Inventory
	protected.Get("/inventory", inventory.ListInventoryHandler(d.Store))
	protected.Get("/inventory/stats", inventory.StatsHandler(d.Engine))
	protected.Get("/inventory/:code", inventory.GetInventoryHandler(d.Store))
	protected.Post("/inventory", admin, inventory.CreateInventoryHandler(d.Store))
	protected.Patch("/inventory/items/:id", admin, inventory.UpdateInventoryItemHandler(d.Store))
	protected.Patch("/inventory/:code", admin, inventory.UpdateInventoryByCodeHandler(d.Store))
	protected.Delete("/inventory", admin, inventory.ResetInventoryHandler(d.Store, d.Logger))
	protected.Delete("/inventory/:code", admin, inventory.DeleteInventoryHandler(d.Store))

	// Ledger
	protected.Get("/transactions", inventory.ListTransactionsHandler(d.Store))
	protected.Post("/transactions", admin, inventory.CreateTransactionHandler(d.Engine))

	// Exchange queue
	protected.Get("/exchange-queue", inventory.ListExchangeQueueHandler(d.Engine))
	protected.Post("/exchange-queue/:id/process", admin, inventory.ProcessExchangeHandler(d.Engine, d.Store, d.Logger))

	// BOM
	protected.Get("/bom", inventory.ListBomHandler(d.Bom))
	protected.Get("/bom-guides", inventory.ListBomGuideNamesHandler(d.Bom))
	protected.Get("/bom/:guideName", inventory.GetBomHandler(d.Bom))
	protected.Get("/bom/:guideName/check", inventory.CheckBomHandler(d.Bom))
	protected.Post("/bom", admin, inventory.CreateBomHandler(d.Bom, d.Store))
	protected.Delete("/bom/:guideName", admin, inventory.DeleteBomHandler(d.Bom, d.Store))

	// Warehouse layout
	protected.Get("/warehouse/layout", inventory.ListLayoutHandler(d.Store))
	protected.Get("/warehouse/locations", inventory.ListLocationsHandler(d.Store))
	protected.Post("/warehouse/layout", admin, inventory.CreateZoneHandler(d.Store))
	protected.Delete("/warehouse/layout/:id", admin, inventory.DeleteZoneHandler(d.Store))

	// Bulk
	protected.Post("/upload/master", admin, inventory.UploadMasterHandler(d.Store, d.Logger))
	protected.Post("/upload/bom", admin, inventory.UploadBomHandler(d.Store, d.Logger))
	protected.Post("/upload/inventory-add", admin, inventory.UploadInventoryAddHandler(d.Engine))
	protected.Post("/upload/inventory-sync", admin, inventory.UploadInventorySyncHandler(d.Store, d.Logger))
	protected.Post("/restore-backup", admin, inventory.RestoreBackupHandler(d.Store, d.Logger))

	protected.Get("/audit-logs", admin, audit.ListAuditLogsHandler(d.Store))

	return app
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		_, known := apperror.As(err)
		var fe *fiber.Error
		if !known && errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}

		appErr := apperror.From(err)
		if appErr.HTTPStatus < fiber.StatusInternalServerError {
			return c.Status(appErr.HTTPStatus).JSON(appErr)
		}
		if appErr.HTTPStatus != fiber.StatusServiceUnavailable {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		message := appErr.Message
		if !known {
			message = "Server error"
		}
		return c.Status(appErr.HTTPStatus).JSON(fiber.Map{"code": appErr.Code, "message": message})
	}
}

func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if appErr, ok := apperror.As(err); ok {
		return appErr.HTTPStatus
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

func requestLogger(log *zap.Logger, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := statusOf(c, err)
		m.RecordHTTPRequest(c.Method(), c.Route().Path, status)

		fields := []zap.Field{
			zap.String("requestId", c.GetRespHeader(fiber.HeaderXRequestID)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if status >= fiber.StatusInternalServerError {
			log.Warn("request", fields...)
		} else {
			log.Debug("request", fields...)
		}
		return err
	}
}
