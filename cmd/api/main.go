package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"snippets/internal/config"
	"snippets/internal/database"
	"snippets/internal/database/migration"
	handlers "snippets/internal/http/handler"
	"snippets/internal/http/middleware"
	"snippets/internal/http/view"
	"snippets/internal/logging"
	"snippets/internal/otel"
	"snippets/internal/repository/postgres"
	"snippets/internal/service"
	"snippets/internal/storage"
)

// @title Snippets API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.Stdout(cfg.Location())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server_exit", err, nil)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, log *logging.Logger) error {
	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error("tracing_shutdown_failed", err, nil)
		}
	}()

	// PostgreSQL connection pool, schema created on first start
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	// S3-compatible object storage for snippet code
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		return err
	}

	snippetRepo := postgres.NewSnippetPostgres(db)
	snippetSvc := service.NewSnippetService(objStore, snippetRepo, cfg.Snippet.MaxSize)

	// Loaded up front; fiber.New skips the second parse.
	views := view.New()
	if err := views.Load(); err != nil {
		return err
	}
	app := handlers.NewApp(views)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log))
	app.Use(metrics.Handler())

	deps := handlers.Deps{
		DB:            db,
		Snippets:      snippetSvc,
		PresignExpiry: cfg.Snippet.PresignExpiry(),
	}
	handlers.RegisterRoutes(app, deps)

	app.Get(middleware.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterSwagger(app, cfg.AppHost)

	for _, r := range handlers.Routes(deps) {
		log.Info("route_registered", map[string]any{"name": r.Name, "method": r.Method, "path": r.Path})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()
	log.Info("server_started", map[string]any{"port": cfg.Port})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_stopping", nil)
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	return app.ShutdownWithContext(sctx)
}
