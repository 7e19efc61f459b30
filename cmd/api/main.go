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
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Costeo-api/docs"
	"github.com/jhoicas/Costeo-api/internal/application/costing"
	"github.com/jhoicas/Costeo-api/internal/application/inventory"
	"github.com/jhoicas/Costeo-api/internal/application/manufacturing"
	"github.com/jhoicas/Costeo-api/internal/domain/entity"
	"github.com/jhoicas/Costeo-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Costeo-api/internal/interfaces/http"
	"github.com/jhoicas/Costeo-api/pkg/config"
	"github.com/jhoicas/Costeo-api/pkg/logger"
)

// @title        Costeo API
// @version      1.0
// @description  Costeo de recetas y reactor de inventario para lotes de producción.
// @BasePath     /
// @securityDefinitions.apikey Bearer
// @in           header
// @name         Authorization
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
		Bool("reactor", cfg.Reactor.Enabled).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	materialRepo := postgres.NewRawMaterialRepository(pool)
	receiptRepo := postgres.NewStockReceiptRepository(pool)
	recipeRepo := postgres.NewRecipeRepository(pool)
	productRepo := postgres.NewFinalProductRepository(pool)
	recordRepo := postgres.NewInventoryRecordRepository(pool)
	movementRepo := postgres.NewInventoryMovementRepository(pool)
	batchRepo := postgres.NewBatchRepository(pool)
	conversionRepo := postgres.NewUnitConversionRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner)
	stockQueryUC := inventory.NewStockQueryUseCase(recordRepo, movementRepo)
	costingUC := costing.NewCostingUseCase(txRunner, materialRepo, receiptRepo, recipeRepo, productRepo, log.Component("costing"))
	receiptUC := costing.NewReceiptUseCase(receiptRepo, materialRepo, registerMovementUC, costingUC, log.Component("receipts"))
	reactor := manufacturing.NewReactor(
		registerMovementUC, materialRepo, productRepo, conversionRepo, batchRepo,
		manufacturing.ReactorConfig{
			FinalProductUnit:         cfg.Reactor.FinalProductUnit,
			FinalProductReorderPoint: cfg.Reactor.FinalProductReorderPoint,
		},
		log.Component("reactor"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Minute, // UpdateAllCosts recorre todas las recetas
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    docs.SwaggerInfo.Title,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CostingUC:  costingUC,
		ReceiptUC:  receiptUC,
		StockQuery: stockQueryUC,
		Reactor:    reactor,
		JWTSecret:  cfg.JWT.Secret,
		JWTIssuer:  cfg.JWT.Issuer,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})

	if cfg.Reactor.Enabled {
		events := make(chan entity.BatchEvent, 64)
		listener := postgres.NewChangeListener(pool, cfg.Reactor.Channel, log.Component("listener"))
		g.Go(func() error {
			return listener.Listen(gctx, events)
		})
		g.Go(func() error {
			return reactor.Run(gctx, events, cfg.Reactor.Workers)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("aplicación finalizada con error")
		stop()
		pool.Close()
		os.Exit(1)
	}
	log.Info().Msg("aplicación detenida")
}
