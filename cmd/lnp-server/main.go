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
	"github.com/spf13/viper"

	"github.com/lnp/vigilancia/internal/config"
	"github.com/lnp/vigilancia/internal/domain/alert"
	"github.com/lnp/vigilancia/internal/domain/epiweek"
	"github.com/lnp/vigilancia/internal/domain/expediente"
	"github.com/lnp/vigilancia/internal/domain/geography"
	"github.com/lnp/vigilancia/internal/domain/sample"
	"github.com/lnp/vigilancia/internal/domain/surveillance"
	"github.com/lnp/vigilancia/internal/platform/db"
	"github.com/lnp/vigilancia/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lnp-server",
		Short: "National parasitology surveillance API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(rulesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the surveillance API server",
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

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

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
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// ruleEntry mirrors one entry of the rules YAML file.
type ruleEntry struct {
	ParasiteField      string `mapstructure:"parasite_field"`
	Name               string `mapstructure:"name"`
	Active             bool   `mapstructure:"active"`
	WindowDays         int    `mapstructure:"window_days"`
	CautionThreshold   int    `mapstructure:"caution_threshold"`
	AlertThreshold     int    `mapstructure:"alert_threshold"`
	EmergencyThreshold int    `mapstructure:"emergency_threshold"`
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage outbreak detection rules",
	}

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load alert rules from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.RulesFile
			}

			v := viper.New()
			v.SetConfigFile(file)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read rules file %s: %w", file, err)
			}

			var entries []ruleEntry
			if err := v.UnmarshalKey("rules", &entries); err != nil {
				return fmt.Errorf("parse rules file %s: %w", file, err)
			}
			if len(entries) == 0 {
				return fmt.Errorf("rules file %s contains no rules", file)
			}

			rules := make([]*alert.Rule, 0, len(entries))
			for _, e := range entries {
				rules = append(rules, &alert.Rule{
					ParasiteField:      e.ParasiteField,
					Name:               e.Name,
					Active:             e.Active,
					WindowDays:         e.WindowDays,
					CautionThreshold:   e.CautionThreshold,
					AlertThreshold:     e.AlertThreshold,
					EmergencyThreshold: e.EmergencyThreshold,
				})
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := alert.NewService(alert.NewRuleRepoPG(pool), alert.NewAlertRepoPG(pool))
			if err := svc.LoadRules(ctx, rules); err != nil {
				return fmt.Errorf("load rules: %w", err)
			}

			fmt.Printf("Loaded %d rule(s) from %s.\n", len(rules), file)
			return nil
		},
	}
	loadCmd.Flags().String("file", "", "Path to the rules YAML file (defaults to RULES_FILE)")
	cmd.AddCommand(loadCmd)

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

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")

	// Geography catalog
	geoSvc := geography.NewService(
		geography.NewRegionRepoPG(pool),
		geography.NewDepartmentRepoPG(pool),
		geography.NewMunicipalityRepoPG(pool),
		geography.NewFacilityRepoPG(pool),
	)
	geography.NewHandler(geoSvc).RegisterRoutes(apiV1)

	// Patient records
	recordSvc := expediente.NewService(expediente.NewRepoPG(pool), geoSvc)
	expediente.NewHandler(recordSvc).RegisterRoutes(apiV1)

	// Epidemiological weeks
	weekSvc := epiweek.NewService(epiweek.NewRepoPG(pool))
	epiweek.NewHandler(weekSvc).RegisterRoutes(apiV1)

	// Outbreak alerts
	ruleRepo := alert.NewRuleRepoPG(pool)
	alertRepo := alert.NewAlertRepoPG(pool)
	alertSvc := alert.NewService(ruleRepo, alertRepo)
	alert.NewHandler(alertSvc).RegisterRoutes(apiV1)
	detector := alert.NewDetector(ruleRepo, alertRepo, geoSvc, logger)

	// Samples
	sampleSvc := sample.NewService(sample.NewRepoPG(pool), weekSvc, geoSvc,
		recordSvc, detector, db.PoolTxRunner{Pool: pool}, logger)
	sample.NewHandler(sampleSvc).RegisterRoutes(apiV1)

	// Surveillance dashboards, export and measures
	queries := surveillance.NewQueries(pool)
	surveillance.NewHandler(queries).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
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
