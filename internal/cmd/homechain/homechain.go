// Package homechain parses registry server flags and starts the service.
package homechain

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/homechain/internal/platform/cmd"
	"github.com/louisbranch/homechain/internal/platform/logging"
	server "github.com/louisbranch/homechain/internal/services/homechain/app"
	"github.com/louisbranch/homechain/internal/services/homechain/eventbus"
	"go.uber.org/zap"
)

// Config holds homechain command configuration.
type Config struct {
	Port           int                  `env:"HOMECHAIN_PORT" envDefault:"8090"`
	Addr           string               `env:"HOMECHAIN_ADDR"`
	DBPath         string               `env:"HOMECHAIN_DB_PATH" envDefault:"data/homechain.db"`
	MetricsAddr    string               `env:"HOMECHAIN_METRICS_ADDR"`
	LogLevel       string               `env:"HOMECHAIN_LOG_LEVEL" envDefault:"info"`
	RateLimitRPS   float64              `env:"HOMECHAIN_RATE_LIMIT_RPS" envDefault:"30"`
	RateLimitBurst int                  `env:"HOMECHAIN_RATE_LIMIT_BURST" envDefault:"60"`
	AMQP           eventbus.AMQPConfig  `envPrefix:"HOMECHAIN_AMQP_"`
	Outbox         eventbus.RelayConfig `envPrefix:"HOMECHAIN_OUTBOX_"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The registry server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The registry server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite registry database")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (empty disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.AMQP.URL, "amqp-url", cfg.AMQP.URL, "RabbitMQ URL (empty uses the in-process bus)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ListenAddr resolves the gRPC listen address.
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Run starts the registry service.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.LogLevel, entrypoint.ServiceHomechain)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceHomechain, logger, func(ctx context.Context) error {
		logger.Info("starting", zap.String("addr", cfg.ListenAddr()), zap.String("db", cfg.DBPath))
		return server.Run(ctx, server.Config{
			Addr:           cfg.ListenAddr(),
			DBPath:         cfg.DBPath,
			MetricsAddr:    cfg.MetricsAddr,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			AMQP:           cfg.AMQP,
			Relay:          cfg.Outbox,
			Logger:         logger,
		})
	})
}
