package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/billing"
	"github.com/clinic/clinic/internal/domain/directory"
	"github.com/clinic/clinic/internal/domain/identity"
	"github.com/clinic/clinic/internal/domain/review"
	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/jobs"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/middleware"
)

func main() {
	root := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic appointment platform API server",
	}
	root.AddCommand(serveCmd(), migrateCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg)

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	jwtCfg := auth.JWTConfig{
		SigningKey: []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		TokenTTL:   cfg.TokenTTL(),
	}
	txRunner := &db.PoolTxRunner{Pool: pool}

	userRepo := identity.NewRepoPG(pool)
	doctorRepo := directory.NewDoctorRepoPG(pool)
	patientRepo := directory.NewPatientRepoPG(pool)
	specialtyRepo := directory.NewSpecialtyRepoPG(pool)
	scheduleRepo := scheduling.NewScheduleRepoPG(pool)
	appointmentRepo := scheduling.NewAppointmentRepoPG(pool)
	paymentRepo := billing.NewRepoPG(pool)
	reviewRepo := review.NewRepoPG(pool)

	schedulingSvc := scheduling.NewService(scheduleRepo, appointmentRepo, doctorRepo, paymentRepo, txRunner, logger)
	wallet := directory.NewWallet(doctorRepo, patientRepo)
	billingSvc := billing.NewService(paymentRepo, appointmentRepo, wallet, txRunner, logger)
	directorySvc := directory.NewService(doctorRepo, patientRepo, specialtyRepo,
		schedulingSvc, appointmentRepo, paymentRepo, txRunner, logger)
	reviewSvc := review.NewService(reviewRepo, doctorRepo, txRunner, logger)
	identitySvc := identity.NewService(userRepo, profileCreator{dir: directorySvc}, jwtCfg, txRunner, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestID())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		Skip:              func(c echo.Context) bool { return c.Request().URL.Path == "/health" },
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	public := e.Group("/api/v1")
	api := e.Group("/api/v1", auth.JWTMiddleware(jwtCfg))

	identity.NewHandler(identitySvc).RegisterRoutes(public, api)
	scheduling.NewHandler(schedulingSvc, directorySvc).RegisterRoutes(api)
	billing.NewHandler(billingSvc, directorySvc).RegisterRoutes(api)
	review.NewHandler(reviewSvc, directorySvc).RegisterRoutes(api)
	directory.NewHandler(directorySvc).RegisterRoutes(api)

	runner := cron.New()
	reminder := jobs.NewReminder(appointmentRepo, logger)
	if err := reminder.Schedule(runner, cfg.ReminderSpec); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	runner.Start()
	defer runner.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		errCh <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator, logger zerolog.Logger) error {
					applied, err := m.Up(ctx)
					if err != nil {
						return err
					}
					logger.Info().Int("applied", applied).Msg("migrations complete")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator, _ zerolog.Logger) error {
					statuses, err := m.Status(ctx)
					if err != nil {
						return err
					}
					for _, s := range statuses {
						state := "pending"
						if s.Applied {
							state = "applied"
						}
						fmt.Printf("%03d  %-40s %s\n", s.Version, s.Name, state)
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *db.Migrator, zerolog.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	return fn(ctx, db.NewMigrator(pool, cfg.MigrationsDir), logger)
}

// profileCreator adapts the directory service to the narrow interface the
// identity service registers profiles through.
type profileCreator struct {
	dir *directory.Service
}

func (p profileCreator) CreatePatientProfile(ctx context.Context, userID uuid.UUID, fullName string) error {
	_, err := p.dir.CreatePatientProfile(ctx, userID, fullName)
	return err
}

func (p profileCreator) CreateDoctorProfile(ctx context.Context, userID uuid.UUID, fullName string) error {
	_, err := p.dir.CreateDoctorProfile(ctx, userID, fullName)
	return err
}
