package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookcatalog/cache"
	"bookcatalog/config"
	"bookcatalog/db"
	"bookcatalog/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type serveOptions struct {
	addr            string
	backend         string
	elasticURL      string
	index           string
	sqlDSN          string
	snapshotPath    string
	redisAddr       string
	logLevel        string
	shutdownTimeout time.Duration
}

func newServeCommand() *cobra.Command {
	var opts serveOptions

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			cfg = opts.apply(cmd.Flags(), cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runServe(cmd.Context(), cfg, opts.shutdownTimeout)
		},
	}

	flags := serveCmd.Flags()
	flags.StringVar(&opts.addr, "addr", "", "listen address (default :3000)")
	flags.StringVar(&opts.backend, "store", "", "record store: elastic, sqlite, postgres or memory")
	flags.StringVar(&opts.elasticURL, "elastic-url", "", "Elasticsearch URL")
	flags.StringVar(&opts.index, "index", "", "Elasticsearch index name")
	flags.StringVar(&opts.sqlDSN, "sql-dsn", "", "sqlite file or postgres DSN")
	flags.StringVar(&opts.snapshotPath, "snapshot", "", "JSON snapshot file for the memory store")
	flags.StringVar(&opts.redisAddr, "redis", "", "Redis address for the activity journal")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	flags.DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 15*time.Second, "graceful shutdown timeout")

	return serveCmd
}

// apply overlays the flags the user actually set.
func (opts serveOptions) apply(flags *pflag.FlagSet, cfg config.Config) config.Config {
	if flags.Changed("addr") {
		cfg.HTTP.Addr = opts.addr
	}
	if flags.Changed("store") {
		cfg.Store.Backend = opts.backend
	}
	if flags.Changed("elastic-url") {
		cfg.Store.ElasticURL = opts.elasticURL
	}
	if flags.Changed("index") {
		cfg.Store.Index = opts.index
	}
	if flags.Changed("sql-dsn") {
		cfg.Store.SQLDSN = opts.sqlDSN
	}
	if flags.Changed("snapshot") {
		cfg.Store.SnapshotPath = opts.snapshotPath
	}
	if flags.Changed("redis") {
		cfg.Redis.Addr = opts.redisAddr
		cfg.Redis.Enabled = opts.redisAddr != ""
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}

	return cfg
}

func runServe(ctx context.Context, cfg config.Config, shutdownTimeout time.Duration) error {
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	library, err := db.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if err := library.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}()

	var requestCache cache.RequestCacher
	if cfg.Redis.Enabled {
		redisClient, err := config.SetupRedis(cfg.Redis.Addr)
		if err != nil {
			return err
		}
		redisCache := cache.CreateRedisCache(redisClient, cfg.Redis.MaxEntries)
		defer redisCache.Close()
		requestCache = redisCache
	} else {
		requestCache = cache.CreateMemoryCache(cfg.Redis.MaxEntries)
	}

	gin.SetMode(gin.ReleaseMode)
	handler, err := service.NewServer(library, requestCache, logger).Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("store", cfg.Store.Backend),
			zap.Bool("redis", cfg.Redis.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")

	return nil
}
