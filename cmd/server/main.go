package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/Skufu/glucorisk/internal/assessment"
	"github.com/Skufu/glucorisk/internal/config"
	"github.com/Skufu/glucorisk/internal/model"
	"github.com/Skufu/glucorisk/internal/observability"
	"github.com/Skufu/glucorisk/internal/risk"
	"github.com/Skufu/glucorisk/internal/store"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// History lists previously recorded assessments.
type History interface {
	Recent(ctx context.Context, limit int) ([]assessment.Result, error)
}

type ModelInfo struct {
	Format   string        `json:"format"`
	Version  string        `json:"version"`
	Features []string      `json:"features"`
	Metrics  model.Metrics `json:"metrics"`
}

type routerDeps struct {
	service *assessment.Service
	db      HealthChecker
	history History
	model   ModelInfo
	metrics http.Handler
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// run wires the service and serves until ctx is cancelled. Resources opened
// here are released before it returns.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	table, err := cfg.ReferenceTable()
	if err != nil {
		return fmt.Errorf("reference averages unavailable: %w", err)
	}

	scorer, err := model.Load(cfg.ModelPath)
	if err != nil {
		return err
	}
	logger.Info("model loaded",
		"version", scorer.Version,
		"accuracy", scorer.Metrics.Accuracy,
		"averages_policy", table.Policy(),
	)
	if scorer.Metrics.TrainedAt == nil {
		logger.Warn("model artifact has no training metadata; regenerate it with cmd/train", "path", cfg.ModelPath)
	}

	metrics := observability.NewMetrics()
	opts := []assessment.Option{
		assessment.WithObserver(metrics),
		assessment.WithModelVersion(scorer.Version),
	}

	deps := routerDeps{
		model: ModelInfo{
			Format:   scorer.Format,
			Version:  scorer.Version,
			Features: scorer.Features,
			Metrics:  scorer.Metrics,
		},
		metrics: metrics.Handler(),
	}

	if cfg.EnableDB {
		if cfg.RunMigrations {
			if err := store.Migrate(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("database migration failed: %w", err)
			}
		}

		pool, err := store.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer pool.Close()

		repo := store.NewAssessmentRepository(pool)
		deps.db = repo
		deps.history = repo
		opts = append(opts, assessment.WithRecorder(repo))
	}

	assembler := risk.NewAssembler(table, risk.WithZeroAsMissing(cfg.ZeroIsMissing))
	deps.service = assessment.NewService(assembler, scorer, logger, opts...)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           setupRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return listenAndServe(ctx, server, logger)
}

func setupRouter(deps routerDeps) *gin.Engine {
	// Misspelled keys would otherwise be imputed silently.
	binding.EnableDecoderDisallowUnknownFields = true

	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if deps.db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled", "model": deps.model.Version})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := deps.db.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     "unhealthy",
				"model":  deps.model.Version,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"db":     "ok",
			"model":  deps.model.Version,
		})
	})

	if deps.metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.metrics))
	}

	h := &handler{
		service: deps.service,
		history: deps.history,
		model:   deps.model,
	}

	api := router.Group("/api/v1")
	{
		api.POST("/assessments", h.createAssessment)
		api.GET("/assessments/recent", h.recentAssessments)
		api.POST("/bmi", h.deriveBMI)
		api.GET("/reference-averages", h.referenceAverages)
		api.GET("/model", h.modelInfo)
	}

	return router
}

// listenAndServe runs server until ctx is cancelled or the listener fails, then
// shuts it down gracefully.
func listenAndServe(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Info("server listening", "addr", server.Addr)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
