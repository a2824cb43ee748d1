// Package main is the entry point for the teammate-matching bot backend.
// It wires configuration, logging, the SQLite connection pools, schema
// migrations, the Redis read cache and the ops HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/cache"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/config"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/constants"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/database"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/repository"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/server"
	"github.com/Tw1zzzzz/CisBot2-sub001/internal/utils"
	"github.com/Tw1zzzzz/CisBot2-sub001/migrations"
	"github.com/Tw1zzzzz/CisBot2-sub001/scripts"
)

// Version information is set during build time through linker flags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// init loads environment variables from a .env file if present.
func init() {
	// Not finding a .env file is non-fatal; configuration may be provided
	// by other means.
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found or couldn't be loaded")
	}
}

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", constants.DefaultConfigPath, "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("CisBot2 Backend\nVersion: %s\nCommit: %s\nBuild Date: %s\n", version, commit, buildDate)
		os.Exit(0)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.App.Version = version
	}

	utils.InitLogger(cfg)

	log.Info().
		Str("version", cfg.App.Version).
		Str("environment", cfg.App.Environment).
		Msg("Starting CisBot2 backend")

	ctx := context.Background()

	mgr := database.NewManager(&cfg.Database, prometheus.DefaultRegisterer)
	if err := mgr.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := migrations.Run(ctx, mgr); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	if cfg.App.IsDevelopment() {
		if err := scripts.NewSeeder(mgr).SeedDatabase(ctx); err != nil {
			log.Warn().Err(err).Msg("Database seeding failed")
		}
	}

	store := repository.NewStore(mgr)

	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		// The cache is an accelerator; the bot runs without it.
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, running without read cache")
	} else {
		warmCache(ctx, store, redisCache)
	}

	srv := server.NewServer(cfg, mgr, redisCache)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}

// warmCache pre-populates the read cache with the profiles most likely to be
// viewed. Failures are logged and ignored.
func warmCache(ctx context.Context, store *repository.Store, redisCache *cache.RedisCache) {
	profiles, err := store.Warmup.PopularProfiles(ctx, constants.MaxSearchLimit)
	if err != nil {
		log.Warn().Err(err).Msg("Cache warmup query failed")
		return
	}
	redisCache.WarmProfiles(ctx, profiles)
}
