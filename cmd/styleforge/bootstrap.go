package main

import (
	"context"
	"fmt"
	"time"

	"github.com/auracore/styleforge/internal/config"
	"github.com/auracore/styleforge/internal/database"
	"github.com/auracore/styleforge/internal/descriptor"
	"github.com/auracore/styleforge/internal/generator"
	"github.com/auracore/styleforge/internal/logging"
	"github.com/auracore/styleforge/internal/orchestrator"
	"github.com/auracore/styleforge/internal/profile"
	"github.com/auracore/styleforge/internal/prompt"
	"github.com/auracore/styleforge/internal/redis"
	"github.com/auracore/styleforge/internal/usage"
	"github.com/auracore/styleforge/internal/vision"
	"github.com/auracore/styleforge/internal/weights"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app bundles the wired orchestrator with the resources main commands
// need to close on their way out.
type app struct {
	orch        *orchestrator.Orchestrator
	repo        *database.Repository
	db          *database.Client
	redis       *redis.Manager
	weights     *weights.Store
	logManager  *logging.Manager
	genSettings generator.Settings
}

// bootstrap loads config and wires every collaborator the orchestrator
// depends on, using a real OpenAI-compatible vision client and Postgres
// usage tracker, but generator.Fake for image generation — the CLI is an
// operator tool for exercising extraction, synthesis and prompt
// construction, not a production image-generation front end.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	logManager, err := logging.Setup(cfg.Logging.Directory, level, cfg.Logging.MaxSessionsToKeep)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	db, err := database.New(&cfg.Postgres, logManager.Logger("database"))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisManager := redis.NewManager(&cfg.Redis, logManager.Logger("redis"))

	repo := database.NewRepository(db.DB)

	usageTracker := usage.NewPostgresTracker(db.DB)

	visionClient := vision.NewClient(vision.Settings{
		BaseURL:        cfg.Vision.BaseURL,
		APIKey:         cfg.Vision.APIKey,
		Model:          cfg.Vision.Model,
		MaxConcurrency: cfg.Vision.MaxConcurrency,
		Timeout:        time.Duration(cfg.Vision.TimeoutSeconds) * time.Second,
	}, usageTracker, logManager.Logger("vision"))

	extractor := descriptor.NewExtractor(visionClient, repo, logManager.Logger("extractor"), logManager.QualityLogger(), descriptor.Config{
		Concurrency:       int64(cfg.Pipeline.ImageConcurrency),
		Model:             cfg.Vision.Model,
		ConfidenceFloor:   cfg.Pipeline.ConfidenceFloor,
		CompletenessFloor: cfg.Pipeline.CompletenessFloor,
	})

	synthesizer := profile.NewSynthesizer(repo)

	weightRedis, err := redisManager.GetClient(redis.WeightCacheDBIndex)
	if err != nil {
		logManager.Logger("redis").Warn("weight cache redis unavailable, falling back to in-process weight cache", zap.Error(err))
	}

	weightStore := weights.NewStore(repo, weightRedis, logManager.Logger("weights"))

	builder := prompt.NewBuilder(repo, weightStore, logManager.Logger("prompt"), prompt.BuilderConfig{
		CacheCapacity:           cfg.Prompt.CacheCapacity,
		CacheTTL:                time.Duration(cfg.Prompt.CacheTTLSeconds) * time.Second,
		DefaultBrandDNAStrength: cfg.Prompt.DefaultBrandDNAStrength,
	})

	genAdapter := &generator.Fake{}

	orch := orchestrator.New(repo, extractor, synthesizer, builder, weightStore, genAdapter, usageTracker, logManager.Logger("orchestrator"))

	genSettings := generator.Settings{Provider: cfg.Generator.Provider}
	if genSettings.Provider == "" {
		genSettings.Provider = "fake"
	}

	return &app{
		orch:        orch,
		repo:        repo,
		db:          db,
		redis:       redisManager,
		weights:     weightStore,
		logManager:  logManager,
		genSettings: genSettings,
	}, nil
}

func (a *app) Close() {
	a.weights.Close()
	a.redis.Close()
	_ = a.db.Close()
	_ = a.logManager.Sync()
}
