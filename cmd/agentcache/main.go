// =============================================================================
// agentcache entry point
// =============================================================================
// Operational CLI over one cache namespace.
//
// Usage:
//
//	agentcache get <key>              # read through the tiers
//	agentcache set <key> <value>      # write through the tiers
//	agentcache del <key>              # invalidate a key
//	agentcache stats                  # print lifetime counters
//	agentcache clear                  # empty the cache
//	agentcache refresh                # pull fresh data from the remote tier
//	agentcache serve                  # expose Prometheus metrics
//	agentcache version
// =============================================================================
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/agentcache/cache"
	"github.com/BaSui01/agentcache/config"
	"github.com/BaSui01/agentcache/internal/metrics"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "get", "set", "del", "stats", "clear", "refresh":
		runCacheCommand(os.Args[1], os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// openCache loads config, builds the logger, and initializes one
// facade over the configured namespace.
func openCache(fs *flag.FlagSet, args []string) (*cache.TieredCache[string], *config.Config, *zap.Logger) {
	configPath := fs.String("config", "", "Path to config file")
	namespace := fs.String("namespace", "", "Cache namespace (overrides config)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *namespace != "" {
		cfg.Cache.Namespace = *namespace
	}

	logger := initLogger(cfg.Log)

	var remote cache.RemoteStore[string]
	if cfg.Redis.Enabled {
		remote = cache.NewRedisRemote[string](cache.RedisRemoteConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Cache.L3TTL,
		}, cfg.Cache.Namespace, logger)
	} else {
		remote = cache.NewNoopRemote[string]()
	}

	tiers := cache.New[string](cache.Config{
		Namespace:  cfg.Cache.Namespace,
		Dir:        cfg.Cache.Dir,
		MaxEntries: cfg.Cache.MaxEntries,
		L1TTL:      cfg.Cache.L1TTL,
		L2TTL:      cfg.Cache.L2TTL,
	}, remote, logger)

	if err := tiers.Initialize(context.Background()); err != nil {
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}

	return tiers, cfg, logger
}

func runCacheCommand(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	tiers, _, logger := openCache(fs, args)
	defer logger.Sync()
	defer tiers.Destroy()

	ctx := context.Background()
	rest := fs.Args()

	switch cmd {
	case "get":
		if len(rest) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: agentcache get <key>")
			os.Exit(1)
		}
		value, err := tiers.Get(ctx, rest[0])
		if cache.IsCacheMiss(err) {
			fmt.Println("(miss)")
			os.Exit(1)
		}
		fmt.Println(value)

	case "set":
		if len(rest) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: agentcache set <key> <value>")
			os.Exit(1)
		}
		tiers.Set(ctx, rest[0], rest[1])
		fmt.Println("OK")

	case "del":
		if len(rest) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: agentcache del <key>")
			os.Exit(1)
		}
		tiers.Invalidate(ctx, rest[0])
		fmt.Println("OK")

	case "stats":
		out, _ := json.MarshalIndent(tiers.Stats(), "", "  ")
		fmt.Println(string(out))

	case "clear":
		tiers.Clear(ctx)
		fmt.Println("OK")

	case "refresh":
		if err := tiers.Refresh(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Refresh failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("OK")
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":9091", "Metrics listen address")
	tiers, cfg, logger := openCache(fs, args)
	defer logger.Sync()
	defer tiers.Destroy()

	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(tiers))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	logger.Info("Serving cache metrics",
		zap.String("version", Version),
		zap.String("addr", *addr),
		zap.String("namespace", cfg.Cache.Namespace),
	)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Fatal("Metrics server failed", zap.Error(err))
	}
}

func printVersion() {
	fmt.Printf("agentcache %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`agentcache - tiered cache for the agent orchestration layer

Usage:
  agentcache <command> [options] [args]

Commands:
  get <key>          Read a key through the tiers
  set <key> <value>  Write a key through the tiers
  del <key>          Invalidate a key in every tier
  stats              Print lifetime cache counters
  clear              Empty the cache (counters are retained)
  refresh            Pull fresh data down from the remote tier
  serve              Expose Prometheus metrics over HTTP
  version            Show version information
  help               Show this help message

Options:
  --config <path>      Path to configuration file (YAML)
  --namespace <name>   Cache namespace (overrides config)
  --addr <addr>        Listen address for 'serve' (default :9091)

Examples:
  agentcache set greeting hello
  agentcache get greeting
  agentcache stats --namespace embeddings
  agentcache serve --config /etc/agentcache/config.yaml`)
}

// initLogger builds the process logger from config.
func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
