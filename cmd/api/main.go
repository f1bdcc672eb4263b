package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wmcproducts/partner-site/internal/admin"
	"github.com/wmcproducts/partner-site/internal/api/router"
	"github.com/wmcproducts/partner-site/internal/app/bootstrap"
	"github.com/wmcproducts/partner-site/internal/auth"
	appconfig "github.com/wmcproducts/partner-site/internal/config"
	httpmiddleware "github.com/wmcproducts/partner-site/internal/http/middleware"
	"github.com/wmcproducts/partner-site/internal/leads"
	"github.com/wmcproducts/partner-site/internal/observability/metrics"
	"github.com/wmcproducts/partner-site/pkg/logging"
)

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting partner-site API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store", cfg.StoreBackend,
		"relay", cfg.RelayProvider,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.BuildRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	leadRelay, err := bootstrap.BuildRelay(ctx, cfg, logger)
	if err != nil {
		return err
	}

	sessions, redisClient, err := bootstrap.BuildSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	metricsHandler, leadMetrics := setupMetrics()
	gateway := leads.NewGateway(leadRelay, store.Repo, leads.GatewayConfig{
		RelayTimeout: cfg.RelayTimeout,
		StoreTimeout: cfg.StoreTimeout,
	}, logger, leadMetrics)

	routerCfg := &router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(gateway, store.Repo, logger),
		AdminHandler:       admin.NewHandler(store.Repo, logger, leadMetrics),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		SubmitLimiter:      perMinute(cfg.SubmitRatePerMin, cfg.SubmitBurst),
		LoginLimiter:       perMinute(cfg.LoginRatePerMin, cfg.LoginBurst),
	}

	// The console stays unmounted when no operator account is configured.
	provider, err := bootstrap.BuildAuthProvider(cfg, sessions, logger)
	if err != nil {
		logger.Warn("admin console disabled", "error", err)
	} else {
		routerCfg.AuthProvider = provider
		routerCfg.AuthHandler = auth.NewHandler(provider, cfg.CookieSecure, logger)
	}

	for _, rl := range []*httpmiddleware.RateLimiter{routerCfg.SubmitLimiter, routerCfg.LoginLimiter} {
		if rl != nil {
			go rl.Run(ctx, 5*time.Minute)
		}
	}

	srv := newServer(cfg, router.New(routerCfg))
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newServer(cfg *appconfig.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RelayTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// setupMetrics registers lead metrics and the Go runtime collectors on a
// private registry.
func setupMetrics() (http.Handler, *metrics.LeadMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewLeadMetrics(reg)
}

func perMinute(n, burst int) *httpmiddleware.RateLimiter {
	if n <= 0 {
		return nil
	}
	return httpmiddleware.NewRateLimiter(float64(n)/60, burst)
}
