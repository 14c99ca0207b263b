package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"faceted-catalog-service/internal/api"
	"faceted-catalog-service/internal/catalog"
	"faceted-catalog-service/internal/config"
	"faceted-catalog-service/internal/facet"
	"faceted-catalog-service/internal/store"
)

const serviceName = "FacetedCatalogService"

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "INFO: .env file not found, relying on system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.AppEnv, cfg.LogLevel)
	log.Info().Str("env", cfg.AppEnv).Str("service", serviceName).Msg("starting service")

	// --- Database Connection ---
	db, err := sqlx.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database connection")
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	log.Info().Msg("database connection established")

	if cfg.RunMigrations {
		if err := runMigrations(db, cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		log.Info().Msg("migrations completed successfully")
	}

	// --- Facet Cache ---
	facetCache, redisClient, err := setupFacetCache(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}

	// --- Catalog Service ---
	dbStore := store.NewPostgresStore(db)
	aggregator := facet.NewAggregator(dbStore, facetCache, log.Logger)
	service := catalog.NewService(dbStore, aggregator, catalog.Options{
		PageSize:     cfg.Catalog.PageSize,
		FacetTimeout: cfg.Catalog.FacetTimeout,
		QueryTimeout: cfg.Catalog.QueryTimeout,
	}, log.Logger)

	httpAPIHandler := api.NewHTTPHandler(service, log.Logger)
	grpcAPIHandler := api.NewGRPCHandler(service, log.Logger)

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter)
	registerHealthCheck(httpRouter, dbStore)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		log.Info().Str("port", cfg.HttpServer.Port).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server ListenAndServe error")
		}
		log.Info().Msg("HTTP server has stopped")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer := setupGRPCServer(grpcAPIHandler)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.GrpcServer.Port).Msg("failed to listen for gRPC")
	}

	go func() {
		log.Info().Str("port", cfg.GrpcServer.Port).Msg("gRPC server listening")
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Fatal().Err(err).Msg("gRPC server Serve error")
		}
		log.Info().Msg("gRPC server has stopped")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(httpServer, grpcServer, db, redisClient, shutdownComplete)

	<-shutdownComplete
	log.Info().Msg("service shutdown sequence finished")
}

func setupLogger(env, level string) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else if parsed, err := zerolog.ParseLevel(level); err == nil && level != "" {
		zerolog.SetGlobalLevel(parsed)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", serviceName).Logger()
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sqlx.DB, path string) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// setupFacetCache picks Redis when REDIS_URL is set and a TTL is configured,
// the in-process cache for a TTL alone, and no cache otherwise.
func setupFacetCache(cfg *config.Config) (facet.Cache, *redis.Client, error) {
	ttl := cfg.Catalog.FacetCacheTTL
	if ttl <= 0 {
		log.Info().Msg("facet cache disabled")
		return nil, nil, nil
	}
	if cfg.Redis.URL == "" {
		log.Info().Dur("ttl", ttl).Msg("using in-process facet cache")
		return facet.NewMemoryCache(ttl), nil, nil
	}

	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping failed: %w", err)
	}
	log.Info().Dur("ttl", ttl).Msg("using redis facet cache")
	return facet.NewRedisCache(client, ttl), client, nil
}

func setupBaseMiddleware(router *chi.Mux) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(api.RequestLogger(log.Logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
}

type pinger interface {
	Ping(ctx context.Context) error
}

func registerHealthCheck(router *chi.Mux, db pinger) {
	router.Get("/api/v1/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		dbStatus := "healthy"
		if err := db.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
			log.Warn().Err(err).Msg("health check DB ping failed")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": serviceName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"database":    dbStatus,
		})
	})
}

func setupGRPCServer(handler *api.GRPCHandler) *grpc.Server {
	s := grpc.NewServer()

	api.RegisterCatalogQueryServer(s, handler)
	grpc_health_v1.RegisterHealthServer(s, health.NewServer())
	reflection.Register(s)
	log.Info().Str("service", api.CatalogQueryServiceName).Msg("gRPC services registered")

	return s
}

func waitForShutdown(httpServer *http.Server, grpcServer *grpc.Server, db *sqlx.DB, redisClient *redis.Client, shutdownComplete chan struct{}) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	receivedSignal := <-sigChan
	log.Info().Str("signal", receivedSignal.String()).Msg("starting graceful shutdown")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server graceful shutdown failed")
	} else {
		log.Info().Msg("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		log.Info().Msg("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		log.Warn().Err(shutdownCtx.Err()).Msg("gRPC graceful shutdown timed out, forcing stop")
		grpcServer.Stop()
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis client")
		}
	}
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing database connection")
	}
}
