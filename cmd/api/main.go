package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-printshop-ws/internal/config"
	"go-printshop-ws/internal/handler"
	"go-printshop-ws/internal/jobs"
	"go-printshop-ws/internal/lock"
	"go-printshop-ws/internal/metrics"
	"go-printshop-ws/internal/middleware"
	"go-printshop-ws/internal/repository"
	"go-printshop-ws/internal/service"
	"go-printshop-ws/internal/ws"
	"go-printshop-ws/pkg/database"
	"go-printshop-ws/pkg/jwt"
	"go-printshop-ws/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLog.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		zapLog.Fatal("failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zapLog.Fatal("failed to migrate database", zap.Error(err))
	}

	// 3. Machine lock: Redis when configured, in-process otherwise
	var locker lock.Locker = lock.NewLocalLocker()
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLog.Fatal("failed to connect redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL, cfg.Redis.LockWait, cfg.Redis.LockInterval)
		zapLog.Info("using redis machine lock", zap.String("addr", cfg.Redis.Addr))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub(zapLog.Named("ws"))
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	materialRepo := repository.NewMaterialRepo(db)
	ledgerRepo := repository.NewLedgerRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	purchaseRepo := repository.NewPurchaseRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	machineRepo := repository.NewMachineRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	printRepo := repository.NewPrintLogRepo(db)
	userRepo := repository.NewUserRepo(db)

	coord := service.NewCoordinator(db, locker, m, zapLog.Named("tx"))

	authService := service.NewAuthService(userRepo, jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Expire, cfg.JWT.Issuer), zapLog.Named("auth"))
	catalogService := service.NewCatalogService(coord, productRepo, materialRepo, ledgerRepo, supplierRepo, machineRepo, printRepo, wsHub, zapLog.Named("catalog"))
	schedulerService := service.NewSchedulerService(coord, machineRepo, reservationRepo, orderRepo, wsHub, m, zapLog.Named("scheduler"))
	ledgerService := service.NewLedgerService(coord, productRepo, materialRepo, ledgerRepo, purchaseRepo, saleRepo, wsHub, m, zapLog.Named("ledger"))
	orderService := service.NewOrderService(coord, orderRepo, productRepo, materialRepo, ledgerRepo, printRepo, wsHub, m, zapLog.Named("orders"))
	entityService := service.NewEntityService(coord, service.EntityRepos{
		Products:     productRepo,
		Materials:    materialRepo,
		Suppliers:    supplierRepo,
		Purchases:    purchaseRepo,
		Sales:        saleRepo,
		Orders:       orderRepo,
		Machines:     machineRepo,
		Reservations: reservationRepo,
		PrintLogs:    printRepo,
		Ledger:       ledgerRepo,
	}, wsHub, zapLog.Named("records"))

	if _, created, err := authService.EnsureAdmin(cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.FullName); err != nil {
		zapLog.Warn("failed to seed admin user", zap.Error(err))
	} else if created {
		zapLog.Info("default admin user created, change its password", zap.String("email", cfg.Admin.Email))
	}

	scheduler, err := jobs.Start(zapLog.Named("jobs"),
		jobs.StockAlert(cfg.Jobs.StockAlertSchedule, catalogService, wsHub, zapLog.Named("jobs")),
	)
	if err != nil {
		zapLog.Fatal("failed to start jobs", zap.Error(err))
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.Server.AppName,
	})

	// Middleware
	app.Use(fiberlogger.New()) // Logging request
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New())        // CORS

	// 7. Routes
	handler.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Catalog:  handler.NewCatalogHandler(catalogService),
		Schedule: handler.NewScheduleHandler(schedulerService),
		Ledger:   handler.NewLedgerHandler(ledgerService),
		Order:    handler.NewOrderHandler(orderService),
		Record:   handler.NewRecordHandler(entityService),
	}.Register(app, middleware.RequireAuth(authService))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(wsHub.Serve))

	// 8. Graceful Shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		zapLog.Info("listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			zapLog.Panic("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		zapLog.Error("server forced to shutdown", zap.Error(err))
	}

	<-scheduler.Stop().Done()
	wsHub.Stop()
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := database.Close(db); err != nil {
		zapLog.Error("failed to close database", zap.Error(err))
	}

	zapLog.Info("server exited")
}
