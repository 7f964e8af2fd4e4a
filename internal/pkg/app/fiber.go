package app

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	slogfiber "github.com/samber/slog-fiber"
)

type Delivery interface {
	AddHandlers(router fiber.Router, auth fiber.Handler)
}

type FiberApp struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger
}

// NewFiberApp mounts every delivery under config.Prefix. statisticsMW may be nil.
func NewFiberApp(
	config WebConfig,
	deliveries []Delivery,
	checkers []HealthChecker,
	statisticsMW fiber.Handler,
	auth fiber.Handler,
	logger *slog.Logger,
) *FiberApp {
	app := fiber.New(fiber.Config{
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		ErrorHandler:          ErrorHandler(logger),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(slogfiber.New(logger))

	router := app.Group(config.Prefix)
	if statisticsMW != nil {
		router.Use(statisticsMW)
	}

	router.Get("/health", healthHandler(checkers))
	for _, delivery := range deliveries {
		delivery.AddHandlers(router, auth)
	}

	return &FiberApp{
		app:    app,
		addr:   config.Host + ":" + config.Port,
		logger: logger,
	}
}

func (a *FiberApp) App() *fiber.App {
	return a.app
}

func (a *FiberApp) Start() error {
	a.logger.Info("listen", slog.String("addr", a.addr))
	return a.app.Listen(a.addr)
}

func (a *FiberApp) Shutdown(ctx context.Context) error {
	return a.app.ShutdownWithContext(ctx)
}
