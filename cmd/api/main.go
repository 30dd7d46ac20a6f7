package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pos-ledger/internal/config"
	"go-pos-ledger/internal/events"
	"go-pos-ledger/internal/handler"
	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/middleware"
	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"
	"go-pos-ledger/internal/service"
	"go-pos-ledger/internal/ws"
	"go-pos-ledger/pkg/database"
	"go-pos-ledger/pkg/jwt"
	"go-pos-ledger/pkg/logger"
	"go-pos-ledger/pkg/tracing"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Setup(cfg.LogLevel, !cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, "go-pos-ledger", cfg.OTelEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(database.Options{DSN: cfg.DatabaseURL, Debug: !cfg.IsProduction()})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// 3. Repositories
	productRepo := repository.NewProductRepo(db)
	recipeRepo := repository.NewRecipeRepo(db)
	stockRepo := repository.NewStockRepo(db)
	receiptRepo := repository.NewReceiptRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	rfidRepo := repository.NewRFIDRepo(db)
	movementRepo := repository.NewMovementRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 4. Seed default privileges, roles, and admin user
	seeder := service.NewSeedService(privilegeRepo, roleRepo, userRepo, stockRepo, productRepo, recipeRepo, rfidRepo)
	if err := seeder.SeedAccess(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Warn().Err(err).Msg("seeding access control failed")
	}

	// 5. Stock ledger
	isolation, err := repository.ParseIsolation(cfg.LedgerIsolation)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid LEDGER_ISOLATION")
	}
	policy, err := ledger.ParseUnrecipedPolicy(cfg.UnrecipedPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid UNRECIPED_POLICY")
	}
	stockStore := repository.NewPostgresStockStore(db, isolation)
	stockLedger := ledger.NewStockLedger(stockStore,
		ledger.WithMaxAttempts(cfg.LedgerMaxAttempts),
		ledger.WithRetryDelay(cfg.RetryBase()),
	)

	guard, closeGuard := newGuard(ctx, cfg)
	defer closeGuard()

	// 6. Setup WebSocket Hub and event sinks
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := ws.NewHub()
	go wsHub.Run(hubCtx)

	sinks := []events.Sink{events.NewHubSink(wsHub)}
	var kafkaSink *events.KafkaSink
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaSink = events.NewKafkaSink(events.NewKafkaWriter(brokers, cfg.KafkaTopic))
		sinks = append(sinks, kafkaSink)
		log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("kafka events enabled")
	}
	dispatcher := events.NewDispatcher(sinks...)

	// 7. Dependency Injection (Wiring Layers)
	resolver := ledger.NewRecipeResolver(recipeRepo)
	checker := ledger.NewAvailabilityChecker(resolver, stockStore, policy)
	coordinator := ledger.NewCoordinator(productRepo, checker, stockLedger, receiptRepo, auditRepo, guard, dispatcher)

	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL())
	authService := service.NewAuthService(userRepo, auditRepo, tokens)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)
	catalogService := service.NewCatalogService(productRepo, stockRepo, rfidRepo)
	replenishService := service.NewReplenishmentService(stockLedger, rfidRepo, auditRepo, dispatcher)
	reportService := service.NewReportService(stockRepo, receiptRepo, auditRepo, movementRepo)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo, privilegeRepo)
	orderHandler := handler.NewOrderHandler(coordinator)
	productHandler := handler.NewProductHandler(catalogService)
	stockHandler := handler.NewStockHandler(catalogService, replenishService, reportService)
	reportHandler := handler.NewReportHandler(reportService)

	// 8. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "POS Ledger v1.0",
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New())

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(tokens, userRepo))

	// Orders
	protected.Post("/orders", middleware.RequirePrivilege(model.PrivOrderCreate), orderHandler.CreateOrder)

	// Products
	protected.Get("/products", middleware.RequirePrivilege(model.PrivProductView), productHandler.GetProducts)
	protected.Put("/products/:id/availability", middleware.RequirePrivilege(model.PrivProductUpdate), productHandler.SetAvailability)

	// Stock and replenishment
	protected.Get("/stock", middleware.RequirePrivilege(model.PrivStockView), stockHandler.GetStock)
	protected.Get("/stock/low", middleware.RequirePrivilege(model.PrivStockView), stockHandler.GetLowStock)
	protected.Get("/stock/:id/movements", middleware.RequirePrivilege(model.PrivStockView), stockHandler.GetMovements)
	protected.Post("/stock/:id/replenish", middleware.RequirePrivilege(model.PrivStockReplenish), stockHandler.Replenish)
	protected.Get("/rfid", middleware.RequireAnyPrivilege(model.PrivRFIDScan, model.PrivStockReplenish), stockHandler.GetTags)
	protected.Post("/rfid/scan", middleware.RequirePrivilege(model.PrivRFIDScan), stockHandler.ScanRFID)

	// Receipts, audit trail and dashboard
	protected.Get("/receipts", middleware.RequirePrivilege(model.PrivReceiptView), reportHandler.GetReceipts)
	protected.Get("/receipts/:id", middleware.RequirePrivilege(model.PrivReceiptView), reportHandler.GetReceipt)
	protected.Get("/logs", middleware.RequirePrivilege(model.PrivLogView), reportHandler.GetLogs)
	protected.Get("/dashboard/stats", middleware.RequirePrivilege(model.PrivDashboardView), reportHandler.GetDashboardStats)
	protected.Get("/dashboard/sales", middleware.RequirePrivilege(model.PrivDashboardView), reportHandler.GetSales)
	protected.Get("/dashboard/stock-movement", middleware.RequirePrivilege(model.PrivDashboardView), reportHandler.GetStockMovement)

	// User Management
	protected.Get("/users/:id", middleware.RequirePrivilege(model.PrivUserManage), userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege(model.PrivUserManage), userHandler.CreateUser)
	protected.Put("/users/:id/privileges", middleware.RequirePrivilege(model.PrivUserManage), userHandler.UpdateUserPrivileges)
	protected.Get("/roles", roleHandler.GetRoles)
	protected.Get("/privileges", roleHandler.GetPrivileges)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		select {
		case wsHub.Register <- c:
		case <-hubCtx.Done():
			return
		}
		defer func() {
			select {
			case wsHub.Unregister <- c:
			case <-hubCtx.Done():
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown
	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			log.Panic().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	stopHub()
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka writer close failed")
		}
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown failed")
	}

	log.Info().Msg("Server exited")
}

// newGuard returns a Redis backed checkout guard when REDIS_URL is set, and
// an in-process one otherwise.
func newGuard(ctx context.Context, cfg *config.Config) (ledger.InFlightGuard, func()) {
	if cfg.RedisURL == "" {
		log.Info().Msg("checkout guard: in-process")
		return ledger.NewMemoryGuard(), func() {}
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	log.Info().Msg("checkout guard: redis")
	return ledger.NewRedisGuard(rdb, cfg.GuardTTL()), func() { _ = rdb.Close() }
}
