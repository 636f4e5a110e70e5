package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/atriumcrm/atrium/internal/activity"
	"github.com/atriumcrm/atrium/internal/analytics"
	"github.com/atriumcrm/atrium/internal/api"
	"github.com/atriumcrm/atrium/internal/auth"
	"github.com/atriumcrm/atrium/internal/cache"
	"github.com/atriumcrm/atrium/internal/config"
	"github.com/atriumcrm/atrium/internal/contact"
	"github.com/atriumcrm/atrium/internal/deal"
	"github.com/atriumcrm/atrium/internal/metrics"
	"github.com/atriumcrm/atrium/internal/org"
	"github.com/atriumcrm/atrium/internal/ratelimit"
	"github.com/atriumcrm/atrium/internal/task"
	"github.com/atriumcrm/atrium/internal/user"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Atrium API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	redisCache, err := cache.NewRedis(cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer redisCache.Close()
	slog.Info("connected to redis")

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (total, idle, acquired int32) {
		st := pool.Stat()
		return st.TotalConns(), st.IdleConns(), st.AcquiredConns()
	})

	userStore := user.NewStore(pool)
	orgStore := org.NewStore(pool)
	contactStore := contact.NewStore(pool)
	dealStore := deal.NewStore(pool)
	taskStore := task.NewStore(pool)
	activityStore := activity.NewStore(pool)

	authService := auth.NewService(userStore, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	orgService := org.NewService(orgStore, userStore)
	contactService := contact.NewService(contactStore)

	analyticsService := analytics.NewService(dealStore, redisCache, cfg.Cache.AnalyticsTTL)
	analyticsService.SetMetrics(m)

	dealService := deal.NewService(dealStore, contactService, analyticsService)
	taskService := task.NewService(taskStore, dealStore, activityStore)
	activityService := activity.NewService(activityStore, dealStore)

	limiter := ratelimit.New(cfg.RateLimit.Default, cfg.RateLimit.Window)

	router := api.NewRouter(api.RouterDeps{
		Auth:           authService,
		Orgs:           orgService,
		Contacts:       contactService,
		Deals:          dealService,
		Tasks:          taskService,
		Activities:     activityService,
		Analytics:      analyticsService,
		Limiter:        limiter,
		Metrics:        m,
		Cache:          redisCache,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
