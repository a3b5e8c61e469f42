package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"tutorbill/internal/amqp"
	"tutorbill/internal/backend"
	"tutorbill/internal/cache"
	"tutorbill/internal/cli"
	apphttp "tutorbill/internal/http"
	"tutorbill/internal/invoice"
	"tutorbill/internal/log"
	"tutorbill/internal/middleware/ratelimit"
	"tutorbill/internal/middleware/security"
	"tutorbill/internal/records"
	"tutorbill/internal/services"
)

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.Must(logger, "Configuration validation failed", cfg.Validate())

	ctx, stop := cli.ShutdownContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	cli.Must(logger, "Invalid backend configuration", err)
	store, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	cli.Must(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	defer store.Close()

	// Publishing is optional: without a broker the view works on its own.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without billing events", log.FieldError, err)
		} else {
			defer client.Close()
			events = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	janitor := cache.NewJanitor()
	var generator records.InvoiceGenerator = invoice.NewHTTPGenerator(cfg.InvoiceGeneratorURL, cfg.InvoiceTimeout)
	if cfg.InvoiceCacheSize > 0 {
		cached := invoice.NewCachingGenerator(generator, cfg.InvoiceCacheSize, cfg.InvoiceCacheTTL)
		janitor.Register(cached.Cache())
		generator = cached
	}

	source := records.NewDeduped(store.Store)
	view := services.NewMonthlyView(source, generator, events, cfg.StartMonth(time.Now()))
	if err := view.Reload(ctx); err != nil {
		// The server still starts; /readyz reports not ready until a reload succeeds.
		logger.Warn("Initial load failed", log.FieldError, err, log.FieldMonth, view.Month().String())
	}

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		cli.Must(logger, "Invalid trusted proxy", detector.AddTrustedProxy(cidr), "cidr", cidr)
	}
	var limiter *ratelimit.Limiter
	if cfg.RateLimit > 0 {
		limiter = ratelimit.NewLimiter(cfg.RateLimit)
	}

	srv := apphttp.NewServer(":"+cfg.Port, view, apphttp.Options{
		Creator:        source,
		Months:         store.Store,
		AllowedOrigins: cfg.CORSOrigins,
		Limiter:        limiter,
		Detector:       detector,
		Logger:         logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.InvoiceTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting tutorbill server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			log.FieldMonth, view.Month().String(),
			"amqp_enabled", events != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return cli.IgnoreCanceled(janitor.Run(gctx, cfg.CleanupInterval))
	})

	if limiter != nil {
		g.Go(func() error {
			return cli.IgnoreCanceled(limiter.RunCleanup(gctx, cfg.CleanupInterval))
		})
	}

	cli.Must(logger, "Server error", g.Wait(), "port", cfg.Port)

	m := srv.Metrics()
	logger.Info("Server stopped gracefully",
		"requests", m.TotalRequests,
		"server_errors", m.ServerErrors)
}
