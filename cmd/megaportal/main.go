package main

import (
	"context"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/prot-alx/megaportal-backend-api-sub000/internal/auth"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/config"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/httpapi"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/hub"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/lifecycle"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/notify"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/store/postgres"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/telemetry"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/token"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("megaportal-backend")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	st := postgres.NewStore(pool)
	tokens := token.NewService(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	guard := auth.NewGuard(tokens, st)

	connections := hub.New(cfg.HeartbeatInterval, cfg.HeartbeatTimeout)
	notifier := notify.NewNotifier(connections)
	manager := lifecycle.NewManager(st, st, st, st, notifier)

	handler := httpapi.NewHandler(st, tokens, guard, manager, connections, st, httpapi.Options{
		CookieSecure:  cfg.CookieSecure,
		AllowedOrigin: cfg.ClientURL,
	})
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.Handle("/", handler.AuthMiddleware(handler.Routes()))

	chain := otelhttp.NewHandler(
		httpapi.LoggingMiddleware(httpapi.CORSMiddleware(cfg.ClientURL, limiter.Middleware(mux))),
		"megaportal-backend",
	)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     chain,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go connections.Run(ctx)

	go func() {
		logrus.Infof("megaportal-backend listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("shutdown error: %v", err)
	}
}
