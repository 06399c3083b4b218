package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/propertyworker/config"
	"sjsage522/propertyworker/internal/scraper"
	"sjsage522/propertyworker/logger"
	"sjsage522/propertyworker/services/cache"
	"sjsage522/propertyworker/services/publisher"
	"sjsage522/propertyworker/services/sink"
	"sjsage522/propertyworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("start_page", cfg.StartPage).
		Int("end_page", cfg.EndPage).
		Int("batch_size", cfg.BatchSize).
		Msg("Starting application")

	// Set up context cancelled by interrupt signals; the loop honors it
	// between pages only.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize optional services
	services := initializeServices(ctx, &cfg)
	defer services.Cleanup()

	// Initialize sinks
	csvSink, err := sink.NewCSVSink(cfg.OutputDir, cfg.CSVFileName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create CSV sink")
	}
	jsonSink, err := sink.NewJSONSink(cfg.OutputDir, cfg.JSONFileName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create JSON sink")
	}

	// Wire the harvesting pipeline
	stats := &scraper.RunStats{}
	detail := scraper.NewRegistrationFetcher(cfg.SiteBaseURL, services.Cache)
	harvester := scraper.NewPageHarvester(cfg.ListingAPIURL, cfg.CityCode, detail, cfg.DetailDelay, stats)

	w := worker.NewWorker(worker.Params{
		Harvester: harvester,
		CSV:       csvSink,
		Snapshot:  jsonSink,
		Publisher: services.Publisher,
		Postgres:  services.Postgres,
		Stats:     stats,
		StartPage: cfg.StartPage,
		EndPage:   cfg.EndPage,
		BatchSize: cfg.BatchSize,
		PageDelay: cfg.PageDelay,
	})

	projects := w.Run(ctx)
	log.Info().Int("count", len(projects)).Msg("Run finished")

	w.LogSummary()
}

// Services holds the optional service dependencies
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Postgres  *sink.PostgresSink
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Postgres != nil {
		s.Postgres.Close()
	}
}

// initializeServices initializes the optional services the configuration
// enables; the scraper runs fine with none of them.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	}

	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	if cfg.PostgresDSN != "" {
		pg, err := sink.NewPostgresSink(cfg.PostgresDSN)
		if err != nil {
			logger.Warn("Postgres sink unavailable: %v", err)
		} else {
			services.Postgres = pg
			logger.Info("Connected to Postgres")
		}
	}

	return services
}
