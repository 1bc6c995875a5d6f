package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	memberauth "github.com/clubware/go-memberauth"
	"github.com/clubware/go-memberauth/metrics"
	"github.com/clubware/go-memberauth/middleware/jwtware"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Debug)

	ctx := context.Background()

	repo, err := setupPersistence(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize persistence: %v", err)
	}

	sink := metrics.NewSink()

	tokens := memberauth.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetAccessTokenTTL(),
		cfg.GetRefreshTokenTTL(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		logger,
	)

	provider := memberauth.NewProfileProvider(repo.Profiles()).WithLogger(logger)

	auther := memberauth.NewAuthenticator(provider, tokens, repo.Profiles()).
		WithLogger(logger).
		WithActivitySink(sink)

	routeAuth, err := memberauth.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize HTTP authenticator: %v", err)
	}
	routeAuth.Logger = logger
	routeAuth.WithValidationListeners(func(_ router.Context, claims jwtware.AuthClaims) error {
		logger.Debug("session token validated", "subject", claims.Subject())
		return nil
	})

	mailer := memberauth.NewLogMailer(logger)

	activations := memberauth.NewActivationTokens(repo).WithLogger(logger)
	resets := memberauth.NewResetTokenStore(repo, cfg.GetResetTokenTTL()).WithLogger(logger)

	controller := memberauth.NewAuthController(
		memberauth.WithControllerLogger(logger),
		memberauth.WithControllerDebug(cfg.Debug),
		memberauth.WithControllerRepo(repo),
		memberauth.WithControllerConfig(cfg),
		memberauth.WithControllerAuth(auther, routeAuth),
		memberauth.WithControllerHandlers(
			memberauth.NewRegisterProfileHandler(repo, mailer, cfg.GetActivationURL()).
				WithLogger(logger).
				WithActivitySink(sink),
			memberauth.NewActivateProfileHandler(activations).
				WithLogger(logger).
				WithActivitySink(sink),
			memberauth.NewInitializePasswordResetHandler(resets, repo, mailer, cfg.GetFrontendURL()).
				WithLogger(logger).
				WithActivitySink(sink),
			memberauth.NewFinalizePasswordResetHandler(resets, repo).
				WithLogger(logger).
				WithActivitySink(sink),
		),
	)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	memberauth.RegisterAuthRoutes(srv.Router().Group("/"), controller)

	if interval := cfg.GetBroadcastInterval(); interval > 0 {
		broadcast := memberauth.NewBroadcastFactHandler(repo, mailer, cfg.GetFrontendURL()).
			WithLogger(logger).
			WithActivitySink(sink)
		go runBroadcastLoop(ctx, broadcast, interval, logger)
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg, logger)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", "addr", addr)

	srv.Serve(addr)

	waitExitSignal()
}

func setupPersistence(ctx context.Context, cfg *Config) (memberauth.RepositoryManager, error) {
	db, err := sql.Open(sqliteshim.ShimName, cfg.Persistence.GetDSN())
	if err != nil {
		return nil, err
	}

	persistence.RegisterModel((*memberauth.Profile)(nil))
	persistence.RegisterModel((*memberauth.ResetToken)(nil))

	client, err := persistence.New(cfg.Persistence, db, sqlitedialect.New())
	if err != nil {
		return nil, err
	}

	migrationsFS, err := fs.Sub(memberauth.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}

	return memberauth.NewRepositoryManager(client.DB()), nil
}

func runBroadcastLoop(ctx context.Context, handler *memberauth.BroadcastFactHandler, interval time.Duration, logger memberauth.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("fact broadcast scheduled", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := handler.Execute(ctx, memberauth.BroadcastFactMessage{}); err != nil {
				logger.Error("fact broadcast failed", "error", err)
			}
		}
	}
}

func serveMetrics(cfg *Config, logger memberauth.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port+1)
	logger.Info("starting metrics endpoint", "addr", addr, "path", cfg.Metrics.Path)

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics endpoint error", "error", err)
	}
}

func waitExitSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

// slogAdapter bridges the module's Logger interface onto log/slog
type slogAdapter struct {
	l *slog.Logger
}

func newLogger(debug bool) slogAdapter {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slogAdapter{l: slog.New(handler)}
}

func (s slogAdapter) Debug(format string, args ...any) { s.l.Debug(format, args...) }
func (s slogAdapter) Info(format string, args ...any)  { s.l.Info(format, args...) }
func (s slogAdapter) Warn(format string, args ...any)  { s.l.Warn(format, args...) }
func (s slogAdapter) Error(format string, args ...any) { s.l.Error(format, args...) }
