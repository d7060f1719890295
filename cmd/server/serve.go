package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shopassist/internal/chatbot"
	"shopassist/internal/config"
	"shopassist/internal/handler"
	"shopassist/internal/logger"
	"shopassist/internal/repository"
	"shopassist/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the database schema before serving")
	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting shopassist",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	table, err := chatbot.DefaultPatternTable()
	if err != nil {
		return err
	}

	repo, err := openRepository(cfg, log)
	if err != nil {
		return err
	}
	defer repo.Close()

	if migrate {
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
		log.Info("database schema is up to date")
	}

	cache := newCache(ctx, cfg, log)
	if closer, ok := cache.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ranker := service.NewRanker(
		cfg.Ranking.WeightRating,
		cfg.Ranking.WeightPrice,
		cfg.Ranking.WeightRecency,
	)
	catalog := service.NewCatalogService(repo, cache, ranker, cfg.Catalog, log)
	chat := service.NewChatService(repo, catalog, table, cfg.Catalog.ChatResultLimit, log)

	router := newRouter(cfg, log, repo, catalog, chat)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info("shutting down server", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// newCache connects to Redis when configured. An unreachable Redis disables
// caching instead of failing startup.
func newCache(ctx context.Context, cfg *config.Config, log *zap.Logger) repository.Cache {
	if !cfg.Redis.Enabled {
		log.Info("catalog cache disabled")
		return repository.NopCache{}
	}

	cache, err := repository.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	if err != nil {
		log.Warn("catalog cache unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		return repository.NopCache{}
	}
	log.Info("catalog cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
	return cache
}

func newRouter(
	cfg *config.Config,
	log *zap.Logger,
	repo *repository.PostgresRepository,
	catalog *service.CatalogService,
	chat *service.ChatService,
) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)

	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = cfg.Server.AllowedMethods
	corsConfig.AllowHeaders = cfg.Server.AllowedHeaders
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if err := repo.Ping(c.Request.Context()); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"service":    "shopassist",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	apiV1 := router.Group("/api/v1")
	handler.NewProductHandler(catalog).Register(apiV1.Group("/products"))
	handler.NewChatHandler(chat).Register(apiV1.Group("/chat"), cfg.Chat.UserHeader)

	// Implemented in embed.go (production) or static_dev.go (development)
	setupStaticFiles(router, log)

	return router
}
