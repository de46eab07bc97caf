package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/staywizard/internal/authgate"
	"github.com/iliyamo/staywizard/internal/config"
	"github.com/iliyamo/staywizard/internal/database"
	"github.com/iliyamo/staywizard/internal/draft"
	"github.com/iliyamo/staywizard/internal/flow"
	"github.com/iliyamo/staywizard/internal/handler"
	"github.com/iliyamo/staywizard/internal/logging"
	"github.com/iliyamo/staywizard/internal/middleware"
	"github.com/iliyamo/staywizard/internal/queue"
	"github.com/iliyamo/staywizard/internal/repository"
	"github.com/iliyamo/staywizard/internal/router"
	"github.com/iliyamo/staywizard/internal/service"
	"github.com/iliyamo/staywizard/internal/submitclient"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis backs drafts, the cache and the rate limiter.  Without it the
	// service still runs, but drafts only live as long as the process.
	var backend draft.Backend
	rdb := config.NewRedisClient()
	if rdb != nil {
		backend = draft.NewRedisBackend(rdb)
	} else {
		logger.Warn("redis unavailable: drafts kept in memory, cache and rate limit disabled")
		backend = draft.NewMemoryBackend()
	}

	var hooks []submitclient.Hook
	cacheCfg := config.LoadCacheConfig()
	if rdb != nil {
		hooks = append(hooks, &service.CachePurger{RDB: rdb, Prefix: cacheCfg.Prefix, Log: logger})
	}

	var receipts handler.ReceiptLister
	if cfg.DBEnabled() {
		db, err := database.Open(cfg)
		if err != nil {
			logger.Fatal("mysql", zap.Error(err))
		}
		defer db.Close()
		repo := repository.NewReceiptRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatal("receipts schema", zap.Error(err))
		}
		receipts = repo
		hooks = append(hooks, &service.ReceiptRecorder{Repo: repo})
	} else {
		logger.Info("mysql not configured: receipts disabled")
	}

	if cfg.RabbitURL != "" {
		hooks = append(hooks, &service.Publisher{URL: cfg.RabbitURL, Log: logger})
	}

	client := submitclient.New(cfg.SubmissionAPIURL,
		submitclient.WithHTTPClient(&http.Client{Timeout: cfg.SubmitTimeout}),
		submitclient.WithHooks(hooks...),
		submitclient.WithLogger(logger),
	)

	flows := flow.NewRegistry(flow.Deps{
		Backend:   backend,
		Submitter: client,
		GateConfig: authgate.Config{
			AuthURL:       authURL(cfg.AuthEntryURL),
			PendingMaxAge: cfg.PendingMaxAge,
		},
		Prefix:   cfg.DraftPrefix,
		DraftTTL: cfg.DraftTTL,
		Logger:   logger,
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	router.RegisterRoutes(e, router.Deps{
		Flows:           handler.NewFlowHandler(flows, receipts, logger),
		JWTSecret:       cfg.JWTSecret,
		RDB:             rdb,
		Cache:           cacheCfg,
		RateLimit:       config.LoadRateLimitConfig(),
		SubmitRateLimit: config.LoadSubmitRateLimitConfig(),
		Log:             logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		sweepSessions(gctx, flows, cfg.SessionIdle, logger)
		return nil
	})
	if cfg.RabbitURL != "" {
		g.Go(func() error {
			c := queue.Consumer{URL: cfg.RabbitURL, Dir: "logs", Log: logger}
			if err := c.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server stopped")
}

// authURL expands the auth entry template for a flow.  "{flow}" is
// replaced by the escaped flow id.
func authURL(tpl string) func(string) string {
	return func(flowID string) string {
		return strings.ReplaceAll(tpl, "{flow}", url.QueryEscape(flowID))
	}
}

// sweepSessions drops idle in-memory sessions until ctx is done.
func sweepSessions(ctx context.Context, flows *flow.Registry, idle time.Duration, logger *zap.Logger) {
	if idle <= 0 {
		return
	}
	t := time.NewTicker(idle / 4)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := flows.Sweep(idle); n > 0 {
				logger.Debug("idle sessions dropped", zap.Int("count", n), zap.Int("live", flows.Len()))
			}
		}
	}
}
