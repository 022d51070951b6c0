package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/careportal/careportal/internal/config"
	"github.com/careportal/careportal/internal/domain/appointment"
	"github.com/careportal/careportal/internal/domain/identity"
	"github.com/careportal/careportal/internal/domain/labreport"
	"github.com/careportal/careportal/internal/domain/prescription"
	"github.com/careportal/careportal/internal/platform/blobstore"
	"github.com/careportal/careportal/internal/platform/db"
	"github.com/careportal/careportal/internal/platform/gate"
	"github.com/careportal/careportal/internal/platform/middleware"
	"github.com/careportal/careportal/internal/platform/session"
	"github.com/careportal/careportal/internal/platform/validate"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "portal-server",
		Short: "Care portal API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s)\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Migrations directory")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return err
			}

			for _, s := range statuses {
				mark := "pending"
				if s.Applied {
					mark = "applied"
				}
				fmt.Printf("%-40s %s\n", s.Name, mark)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Migrations directory")

	cmd.AddCommand(upCmd)
	cmd.AddCommand(statusCmd)
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Session store
	var sessions session.Store
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		if err := redisStore.Ping(ctx); err != nil {
			logger.Fatal().Err(err).Msg("redis unreachable")
		}
		sessions = redisStore
		logger.Info().Msg("using redis session store")
	} else {
		sessions = session.NewMemoryStore()
		logger.Warn().Msg("REDIS_URL not set, sessions are in-memory and lost on restart")
	}

	// Blob store for lab report files
	var blobs blobstore.Store
	if cfg.MinioEndpoint != "" {
		blobs, err = blobstore.NewMinioStore(ctx, blobstore.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to object storage")
		}
		logger.Info().Str("bucket", cfg.MinioBucket).Msg("using minio blob store")
	} else {
		blobs = blobstore.NewMemoryStore()
		logger.Warn().Msg("MINIO_ENDPOINT not set, lab report files are in-memory")
	}

	transactor := db.NewTransactor(pool)
	secret := []byte(cfg.SessionSecret)

	// Domain wiring
	identityRepo := identity.NewRepo(pool)
	identitySvc := identity.NewService(identityRepo, sessions, transactor, cfg.SessionTTL)

	rxRepo := prescription.NewRepo(pool)
	rxSvc := prescription.NewService(rxRepo)

	apptRepo := appointment.NewRepo(pool)
	apptSvc := appointment.NewService(apptRepo, rxRepo, identitySvc, transactor)

	labRepo := labreport.NewRepo(pool)
	labSvc := labreport.NewService(labRepo, blobs, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	// Session gate
	portalGate := gate.New(sessions, identitySvc, secret, cfg.GateFailClosed, logger)
	e.Use(portalGate.Middleware())

	// Routes
	identity.NewHandler(identitySvc, secret, cfg.SessionTTL).RegisterRoutes(e)
	appointment.NewHandler(apptSvc).RegisterRoutes(e)
	prescription.NewHandler(rxSvc).RegisterRoutes(e)
	labreport.NewHandler(labSvc).RegisterRoutes(e)

	// Anonymous landing pages. The gate redirects authenticated callers on
	// these paths to their role root before the handler runs.
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/login")
	})
	e.GET("/login", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "sign in at POST /login"})
	})

	// Health check endpoints
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
