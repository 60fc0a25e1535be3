package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Suscripta-api/internal/application/allocation"
	"github.com/jhoicas/Suscripta-api/internal/application/audit"
	"github.com/jhoicas/Suscripta-api/internal/application/billing"
	"github.com/jhoicas/Suscripta-api/internal/application/inventory"
	"github.com/jhoicas/Suscripta-api/internal/application/lifecycle"
	"github.com/jhoicas/Suscripta-api/internal/application/orders"
	"github.com/jhoicas/Suscripta-api/internal/application/renewal"
	"github.com/jhoicas/Suscripta-api/internal/application/repair"
	"github.com/jhoicas/Suscripta-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Suscripta-api/internal/interfaces/http"
	"github.com/jhoicas/Suscripta-api/pkg/config"
	"github.com/jhoicas/Suscripta-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	unitRepo := postgres.NewInventoryRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	packageRepo := postgres.NewPackageRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	renewalRepo := postgres.NewInventoryRenewalRepository(pool)
	activityRepo := postgres.NewActivityLogRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	auditor := audit.NewRecorder(activityRepo, log)

	// El asignador y la garantía comparten el candado por unidad: una
	// reparación y una asignación sobre la misma credencial se serializan.
	locks := allocation.NewKeyedMutex()
	allocatorUC := allocation.NewAllocatorUseCase(locks, txRunner, unitRepo, orderRepo, auditor)
	warrantyUC := allocation.NewWarrantyUseCase(allocatorUC, locks, txRunner, unitRepo, orderRepo, packageRepo, auditor)

	inventoryUC := inventory.NewUseCase(unitRepo, auditor)
	ordersUC := orders.NewUseCase(orderRepo, packageRepo, customerRepo, auditor)
	renewOrderUC := renewal.NewRenewOrderUseCase(orderRepo, packageRepo, customerRepo, auditor)
	renewStockUC := renewal.NewRenewStockUseCase(unitRepo, renewalRepo, auditor)
	refundUC := billing.NewRefundUseCase(orderRepo, packageRepo, customerRepo, auditor)
	sweepUC := lifecycle.NewSweepUseCase(unitRepo, orderRepo, log)
	repairUC := repair.NewUseCase(unitRepo, orderRepo, auditor, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs. El JSON lo genera
	// `swag init` a partir de las anotaciones; sin él la API arranca igual.
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Suscripta API",
		}))
	} else {
		log.Warn().Msg("docs/swagger.json no encontrado; UI de swagger deshabilitada")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		InventoryUC: inventoryUC,
		OrdersUC:    ordersUC,
		Allocator:   allocatorUC,
		Warranty:    warrantyUC,
		RenewOrder:  renewOrderUC,
		RenewStock:  renewStockUC,
		Refund:      refundUC,
		Repair:      repairUC,
		Sweep:       sweepUC,
		Activity:    activityRepo,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
