package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/walletgrid/walletgrid/internal/audit"
	"github.com/walletgrid/walletgrid/internal/config"
	"github.com/walletgrid/walletgrid/internal/freeze"
	"github.com/walletgrid/walletgrid/internal/ledger"
	"github.com/walletgrid/walletgrid/internal/middleware"
	"github.com/walletgrid/walletgrid/internal/registry"
	"github.com/walletgrid/walletgrid/internal/wallets"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Ledger fleet: one adapter per registered asset, Postgres when a pool
	// is available, in-memory otherwise.
	reg := registry.Default()
	adapters := make(map[string]ledger.QueryAdapter, len(reg.Assets()))
	for _, desc := range reg.List() {
		if d.DB != nil {
			adapters[desc.Asset] = ledger.NewPostgresAdapter(d.DB, desc, d.Cfg.ScatterRowCap)
		} else {
			adapters[desc.Asset] = ledger.NewInMemory(desc, d.Cfg.ScatterRowCap)
		}
	}

	var sink audit.Sink
	if d.DB != nil {
		sink = audit.NewPostgresSink(d.DB)
	} else {
		sink = audit.NewMemorySink()
	}

	walletSvc, err := wallets.NewService(reg, adapters, d.Cfg.LedgerTimeout, d.Cfg.MaxPageSize, d.Logger)
	if err != nil {
		return err
	}
	coordinator, err := freeze.NewCoordinator(reg, adapters, sink, d.Cfg.LedgerTimeout, d.Logger)
	if err != nil {
		return err
	}

	walletHandler := wallets.NewHandler(walletSvc)
	freezeHandler := freeze.NewHandler(coordinator)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterWalletRoutes(api, walletHandler)
	RegisterFreezeRoutes(api, freezeHandler)

	return nil
}
