package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/openbrewery-elt/pkg/cache"
	"github.com/Sternrassler/openbrewery-elt/pkg/client"
	"github.com/Sternrassler/openbrewery-elt/pkg/config"
	"github.com/Sternrassler/openbrewery-elt/pkg/logging"
	"github.com/Sternrassler/openbrewery-elt/pkg/metrics"
	"github.com/Sternrassler/openbrewery-elt/pkg/openbrewery"
	"github.com/Sternrassler/openbrewery-elt/pkg/pagination"
	"github.com/Sternrassler/openbrewery-elt/pkg/pipeline"
	"github.com/Sternrassler/openbrewery-elt/pkg/ratelimit"
	"github.com/Sternrassler/openbrewery-elt/pkg/warehouse"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "brewery-ingest: %v\n", err)
		os.Exit(2)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Fatal().Err(err).Msg("Ingestion failed")
	}
}

// run performs one ingestion. The warehouse connector is created first so
// that bad credentials fail before any API traffic.
func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	if cfg.MetricsAddr != "" {
		srv, err := metrics.Serve(cfg.MetricsAddr, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	whLogger := logging.NewLogger("warehouse")
	conn, err := warehouse.NewConnector(ctx, warehouse.Config{
		ProjectID:       cfg.ProjectID,
		CredentialsFile: cfg.CredentialsFile,
		Location:        cfg.Location,
		Logger:          &whLogger,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = connectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
	}

	c, err := client.New(clientConfig(cfg, redisClient))
	if err != nil {
		return fmt.Errorf("create request client: %w", err)
	}
	defer c.Close()

	operator := openbrewery.NewOperator(c, openbrewery.OperatorConfig{
		Pagination: pagination.Config{
			RequestsPerSecond: cfg.PageRateLimit,
			MaxPages:          cfg.MaxPages,
		},
	})

	result, err := pipeline.Run(ctx, operator, conn, pipeline.Config{
		Dataset:    cfg.Dataset,
		Table:      cfg.Table,
		PerPage:    cfg.PerPage,
		OutputFile: cfg.OutputFile,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Int("records", result.Records).
		Str("table", warehouse.TableID(cfg.Dataset, cfg.Table)).
		Msg("Ingestion finished")
	return nil
}

// clientConfig maps the process configuration onto the request client.
// A Redis client enables the response cache and the shared rate limit state.
func clientConfig(cfg config.Config, redisClient *redis.Client) client.Config {
	cc := openbrewery.NewClientConfig(cfg.BreweryHost)
	cc.Timeout = cfg.HTTPTimeout
	cc.MaxRetries = cfg.HTTPMaxRetries

	if redisClient != nil {
		cc.Cache = cache.NewManager(redisClient, cfg.CacheTTL)
		cc.RateLimit = ratelimit.NewTracker(redisClient, rateLimitScope(cc.Host), logging.NewLogger("ratelimit"))
	}
	return cc
}

// rateLimitScope keys the rate limit state by API host.
func rateLimitScope(host string) string {
	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return host
	}
	return u.Host
}

func connectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return redisClient, nil
}
