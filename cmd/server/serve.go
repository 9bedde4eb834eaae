package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnshRaj112/diary-backend/internal/config"
	"github.com/AnshRaj112/diary-backend/internal/database"
	"github.com/AnshRaj112/diary-backend/internal/handlers"
	"github.com/AnshRaj112/diary-backend/internal/middleware"
	"github.com/AnshRaj112/diary-backend/internal/routes"
	"github.com/AnshRaj112/diary-backend/internal/services"
	"github.com/AnshRaj112/diary-backend/internal/store"
	"github.com/AnshRaj112/diary-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := newLogger(cfg)
			defer log.Sync()
			return serve(cfg, log)
		},
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	return logger.New(logger.Options{
		Level:      cfg.LogLevel,
		FilePath:   cfg.LogFile,
		Production: cfg.IsProduction(),
	})
}

func serve(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Entry store
	var entries services.EntryStore
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory entry store; entries are lost on restart")
		entries = store.NewMemory()
	default:
		client, db, err := database.ConnectMongo(cfg.MongoURI, log)
		if err != nil {
			return fmt.Errorf("connect to MongoDB: %w", err)
		}
		defer database.DisconnectMongo(client)

		mongoStore := store.NewMongo(db)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Warn("failed to ensure MongoDB entry indexes", zap.Error(err))
		}
		entries = mongoStore
	}

	// Profiles
	var profiles services.ProfileStore
	if cfg.PostgresURI != "" {
		pg, err := database.ConnectPostgres(cfg.PostgresURI, log)
		if err != nil {
			return fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		defer database.DisconnectPostgres(pg)

		pgProfiles := store.NewPostgresProfiles(pg)
		if err := pgProfiles.InitTables(ctx); err != nil {
			return fmt.Errorf("init profile tables: %w", err)
		}
		profiles = pgProfiles
	} else {
		log.Warn("POSTGRES_URI not set; profiles are kept in memory")
		profiles = store.NewMemoryProfiles()
	}

	// Sessions and rate limiting
	var rdb *redis.Client
	if cfg.RedisURI != "" {
		var err error
		rdb, err = database.ConnectRedis(cfg.RedisURI, log)
		if err != nil {
			return fmt.Errorf("connect to Redis: %w", err)
		}
		defer database.DisconnectRedis(rdb)
	}

	opts := services.RepositoryOptions{Timeout: cfg.StoreTimeout}
	var bus *services.ChangeBus
	if rdb != nil {
		bus = services.NewChangeBus(rdb, log)
		opts.OnChange = func(userID string) {
			pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := bus.Publish(pubCtx, userID); err != nil {
				log.Warn("failed to publish entry change", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}

	registry := services.NewRegistry(entries, log, opts, cfg.RepoIdleTTL)
	if bus != nil {
		// Feeds on this instance follow writes made through other instances
		go bus.Run(ctx, func(userID string) { registry.Refresh(ctx, userID) })
	}
	h := handlers.New(registry, services.NewProfileService(profiles, log), log)

	r := newRouter(cfg, log, h, tokenVerifier(cfg, rdb, log), rdb)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("diary backend running", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// tokenVerifier accepts Redis sessions and signed ID tokens, whichever are
// configured. nil means every request is anonymous.
func tokenVerifier(cfg *config.Config, rdb *redis.Client, log *zap.Logger) services.TokenVerifier {
	var chain services.ChainVerifier
	if rdb != nil {
		chain = append(chain, services.NewSessionVerifier(rdb))
	}
	if cfg.JWTSecret != "" {
		chain = append(chain, services.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer))
	}
	if len(chain) == 0 {
		log.Warn("neither REDIS_URI nor JWT_SECRET set; all requests are anonymous")
		return nil
	}
	return chain
}

func newRouter(cfg *config.Config, log *zap.Logger, h *handlers.Handler, verifier services.TokenVerifier, rdb *redis.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → per-IP limit
	// Non-production: Redis-based rate limit when Redis is available
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Info("production security enabled")
	} else if rdb != nil {
		r.Use(middleware.RedisRateLimit(rdb, log))
	}

	r.Use(middleware.Authenticate(verifier, log))

	routes.SetupRoutes(r, h)
	return r
}
