package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/askdocs/internal/ai"
	"github.com/xxxsen/askdocs/internal/config"
	"github.com/xxxsen/askdocs/internal/db"
	"github.com/xxxsen/askdocs/internal/docsource"
	"github.com/xxxsen/askdocs/internal/embedcache"
	"github.com/xxxsen/askdocs/internal/handler"
	"github.com/xxxsen/askdocs/internal/job"
	"github.com/xxxsen/askdocs/internal/repo"
	"github.com/xxxsen/askdocs/internal/schedule"
	"github.com/xxxsen/askdocs/internal/service"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	var configPath string

	rootCmd := &cobra.Command{
		Use:   "askdocs",
		Short: "askdocs RAG server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run askdocs server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			return runServer(cfg, conn)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "ingest documents from the configured source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			return runIngest(cfg, conn)
		},
	}
	ingestCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "re-embed every stored chunk with the configured embed model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			return runReindex(cfg, conn)
		},
	}
	reindexCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(runCmd, ingestCmd, reindexCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func setup(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, conn, nil
}

func buildManager(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (*ai.Manager, error) {
	genProvider, err := ai.NewProvider(cfg.AI.Generate.Provider, cfg.AI.Generate.ProviderArgs())
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	embProvider, err := ai.NewEmbedProvider(cfg.AI.Embed.Provider, cfg.AI.Embed.ProviderArgs())
	if err != nil {
		return nil, fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(embProvider, cfg.AI.Embed.Model)
	if cfg.EmbedCache.DBEnable && cacheRepo != nil {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	}
	embedder = embedcache.WrapLruCacheToEmbedder(
		embedder,
		cfg.EmbedCache.MemorySize,
		time.Duration(cfg.EmbedCache.MemoryTTLMinutes)*time.Minute,
	)
	return ai.NewManager(
		ai.NewGenerator(genProvider, cfg.AI.Generate.Model),
		embedder,
		ai.ManagerConfig{
			Timeout:       cfg.AI.Timeout,
			MaxInflight:   cfg.AI.MaxInflight,
			MaxInputChars: cfg.AI.MaxInputChars,
		},
	), nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("collection", cfg.Collection),
		zap.String("generate_provider", cfg.AI.Generate.Provider),
		zap.String("generate_model", cfg.AI.Generate.Model),
		zap.String("embed_provider", cfg.AI.Embed.Provider),
		zap.String("embed_model", cfg.AI.Embed.Model),
	)

	chunkRepo := repo.NewChunkRepo(conn)
	cacheRepo := repo.NewEmbeddingCacheRepo(conn)
	manager, err := buildManager(cfg, cacheRepo)
	if err != nil {
		return err
	}
	indexService := service.NewIndexService(chunkRepo, manager, cfg.Collection)
	ragService := service.NewRAGService(indexService, manager, cfg.Retrieval.TopK)

	router := handler.NewRouter(handler.RouterDeps{
		Query:         handler.NewQueryHandler(ragService),
		Meta:          handler.NewMetaHandler(indexService, conn),
		CORSAllowlist: cfg.CORSAllowlist,
		RateQPS:       cfg.RateLimit.QPS,
		RateBurst:     cfg.RateLimit.Burst,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.Jobs.Enable {
		cleanup := job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Jobs.CacheMaxAgeDays)
		if err := scheduler.AddJob(cleanup, cfg.Jobs.CacheCleanupSpec); err != nil {
			return fmt.Errorf("schedule cleanup job: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runIngest(cfg *config.Config, conn *sql.DB) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cacheRepo := repo.NewEmbeddingCacheRepo(conn)
	manager, err := buildManager(cfg, cacheRepo)
	if err != nil {
		return err
	}
	indexService := service.NewIndexService(repo.NewChunkRepo(conn), manager, cfg.Collection)
	source, err := docsource.New(cfg.Ingest.Source)
	if err != nil {
		return fmt.Errorf("init document source: %w", err)
	}
	ingest := service.NewIngestService(source, indexService, nil, cfg.Ingest.Concurrency)
	summary, err := ingest.Run(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("ingest done",
		zap.Int("documents", summary.Documents),
		zap.Int("chunks", summary.Chunks),
		zap.Int("skipped", summary.Skipped),
	)
	return nil
}

func runReindex(cfg *config.Config, conn *sql.DB) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cacheRepo := repo.NewEmbeddingCacheRepo(conn)
	manager, err := buildManager(cfg, cacheRepo)
	if err != nil {
		return err
	}
	indexService := service.NewIndexService(repo.NewChunkRepo(conn), manager, cfg.Collection)
	n, err := indexService.Reindex(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("reindex done", zap.Int("chunks", n))
	return nil
}
