package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vortex-trading/vortex/internal/adapters/dexscreener"
	"github.com/vortex-trading/vortex/internal/advisory"
	"github.com/vortex-trading/vortex/internal/bus"
	"github.com/vortex-trading/vortex/internal/config"
	"github.com/vortex-trading/vortex/internal/engine"
	"github.com/vortex-trading/vortex/internal/market"
	"github.com/vortex-trading/vortex/internal/narrative"
	"github.com/vortex-trading/vortex/internal/notify"
	"github.com/vortex-trading/vortex/internal/pricing"
	"github.com/vortex-trading/vortex/internal/pump"
	"github.com/vortex-trading/vortex/internal/selector"
	"github.com/vortex-trading/vortex/internal/store"
	"github.com/vortex-trading/vortex/internal/telemetry"
	"github.com/vortex-trading/vortex/internal/trading"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults when empty)")
	demo := flag.Bool("demo", false, "use the built-in demo token universe instead of DexScreener")
	queries := flag.String("queries", "solana", "comma-separated DexScreener search queries")
	flag.Parse()

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	cfg := loadConfig(*configPath)
	setupLogging(cfg)

	log.Info().Msg("========================================")
	log.Info().Msg("VORTEX Paper Trading Engine - Starting")
	log.Info().Msg("========================================")
	log.Info().
		Str("instance_id", cfg.General.InstanceID).
		Str("pricing_mode", cfg.Pricing.Mode).
		Bool("advisory", cfg.Advisory.Enabled).
		Bool("demo", *demo).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	// Market data.
	var provider market.Provider
	if *demo {
		provider = market.NewStubProvider(market.DemoUniverse())
	} else {
		provider = dexscreener.New("", cfg.Engine.ProviderTimeout, strings.Split(*queries, ","))
	}

	// Analysis state and core components.
	analysisStore := store.NewAnalysisStore()
	portfolio := trading.NewPortfolio(
		decimal.NewFromFloat(cfg.Trading.StartingBalanceUSD),
		decimal.NewFromFloat(cfg.Trading.FeeRate),
	)
	classifier := narrative.NewClassifier(cfg.Narratives)
	scorer := narrative.NewScorer(classifier)
	analyzer := pump.NewAnalyzer(classifier)
	exits := trading.NewExitEngine(cfg.Exits)
	sel := selector.New(cfg.Selector)

	var advisor *advisory.Client
	if cfg.Advisory.Enabled {
		// No external advisory wire-up yet; runs against the stub until a
		// real provider lands.
		advisor = advisory.NewClient(advisory.NewStubProvider(), cfg.Advisory.Timeout)
	}

	var priceSource pricing.Source
	if cfg.Pricing.Mode == "feed" {
		priceSource = pricing.NewFeedSource(func(address string) (decimal.Decimal, bool) {
			if snap, ok := analysisStore.Snapshot(address); ok {
				return snap.PriceUSD, true
			}
			return decimal.Zero, false
		})
	} else {
		priceSource = pricing.NewSimulatedSource(cfg.Pricing.Seed, cfg.Pricing.Volatility, func(address string) narrative.Strength {
			if n, ok := analysisStore.Narrative(address); ok {
				return cfg.Narratives.StrengthFor(n.NarrativeType)
			}
			return narrative.StrengthWeak
		})
	}

	// Event fan-out: in-memory bus always, Kafka export when enabled.
	inmem := bus.NewInMemoryBus()
	var publisher bus.Publisher = inmem
	if cfg.Kafka.Enabled {
		kafka, err := bus.NewKafkaExporter(cfg.Kafka.Brokers, cfg.General.InstanceID, cfg.Kafka.TopicPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect Kafka exporter")
		}
		publisher = bus.MultiPublisher{inmem, kafka}
	}
	defer publisher.Close()

	eng := engine.New(cfg, provider, analysisStore, portfolio, analyzer, scorer, advisor, sel, exits, priceSource, publisher)

	if cfg.Telemetry.Enabled {
		hub := telemetry.NewHub(inmem.Subscribe(256))
		go hub.Run(ctx)
		server := telemetry.NewServer(cfg.Telemetry.Addr, hub, eng.Health)
		go server.Start(ctx)
	}

	if cfg.Telegram.Enabled {
		notifier, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect Telegram notifier")
		}
		go notifier.Run(ctx, inmem.Subscribe(64))
	}

	eng.Start(ctx)

	<-ctx.Done()
	eng.Stop()
	log.Info().Msg("VORTEX Paper Trading Engine - Shutdown complete")
}

func loadConfig(path string) *config.Config {
	var cfg *config.Config
	var err error
	if path == "" {
		cfg = config.Default()
	} else {
		cfg, err = config.Load(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMicro

	level, err := zerolog.ParseLevel(cfg.General.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out zerolog.Logger
	if cfg.General.LogFormat == "console" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		out = zerolog.New(os.Stdout)
	}
	log.Logger = out.With().Timestamp().Str("service", "vortex").Logger()
}
