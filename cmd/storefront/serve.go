package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/grocery-storefront/internal/api/grpcx"
	"github.com/jcmexdev/grocery-storefront/internal/api/httpx"
	"github.com/jcmexdev/grocery-storefront/internal/catalog"
	"github.com/jcmexdev/grocery-storefront/internal/coordinator"
	"github.com/jcmexdev/grocery-storefront/internal/fulfillment"
	"github.com/jcmexdev/grocery-storefront/internal/navigation"
	"github.com/jcmexdev/grocery-storefront/internal/orderstore/sqlite"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/cache"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/config"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/metrics"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP and gRPC APIs and the fulfillment consumer",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "HTTP port (overrides PORT)"},
			&cli.IntFlag{Name: "grpc-port", Usage: "gRPC port"},
			&cli.StringFlag{Name: "db", Usage: "SQLite database path or URL (overrides DATABASE_URL)"},
			&cli.BoolFlag{Name: "mock-tracking", Usage: "answer lookups with synthetic orders"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.Port = c.Int("port")
			}
			if c.IsSet("grpc-port") {
				cfg.GRPCPort = c.Int("grpc-port")
			}
			if c.IsSet("db") {
				cfg.DatabaseURL = c.String("db")
			}
			if c.IsSet("mock-tracking") {
				cfg.MockTracking = c.Bool("mock-tracking")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(c.Context, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.Tracer())
	if err != nil {
		return fmt.Errorf("setup tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	cat, err := catalog.Default()
	if err != nil {
		return err
	}

	store, err := sqlite.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.UpsertProducts(ctx, cat.All()); err != nil {
		return err
	}

	var lookup tracking.Lookup = tracking.NewStoreLookup(store)
	if cfg.MockTracking {
		lookup = tracking.NewMock()
	}
	lookup = tracking.NewRetrying(
		tracking.WithTimeout(lookup, cfg.TrackingTimeout),
		tracking.WithAttempts(cfg.TrackingAttempts),
	)

	var (
		warmer      coordinator.Warmer
		invalidator httpx.Invalidator
		cacheCheck  httpx.HandlerOption
	)
	if cfg.RedisEnabled() {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, "storefront")
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "redis not reachable, lookups bypass the cache until it is", "addr", cfg.RedisAddr, "error", err)
		}
		cached := tracking.NewCached(lookup, redisCache, cfg.TrackingCacheTTL)
		lookup, warmer, invalidator = cached, cached, cached
		cacheCheck = httpx.WithHealthCheck("redis", redisCache.Ping)
	}

	var publisher coordinator.Publisher
	var consumer *fulfillment.Consumer
	if cfg.KafkaEnabled() {
		brokers := fulfillment.ParseBrokers(cfg.KafkaBrokers)
		p := fulfillment.NewPublisher(brokers, cfg.KafkaPlacedTopic)
		defer p.Close()
		publisher = p

		var inv fulfillment.Invalidator
		if invalidator != nil {
			inv = invalidator
		}
		consumer = fulfillment.NewConsumer(brokers, cfg.KafkaStatusTopic, cfg.KafkaGroupID, store, inv)
		defer consumer.Close()
	}

	placement := coordinator.NewPlacement(store, publisher, warmer, store.SagaLogs())
	sessions := httpx.NewSessions(func() *navigation.Controller {
		return navigation.New(
			navigation.WithOrderSink(placement),
			navigation.WithLookup(lookup),
			navigation.WithTrackingTimeout(cfg.TrackingTimeout),
		)
	}, httpx.DefaultSessionTTL)
	defer sessions.Close()

	opts := []httpx.HandlerOption{
		httpx.WithStatusAdmin(store),
		httpx.WithMetrics(metrics.NewServerMetrics("http")),
		httpx.WithHealthCheck("sqlite", store.Ping),
	}
	if invalidator != nil {
		opts = append(opts, httpx.WithInvalidator(invalidator))
	}
	if cacheCheck != nil {
		opts = append(opts, cacheCheck)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           httpx.NewRouter(httpx.NewHandler(cat, lookup, sessions, opts...)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpcx.NewGRPCServer(lookup)
	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr(), err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("storefront HTTP API running", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("storefront gRPC API running", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	if consumer != nil {
		g.Go(func() error {
			slog.Info("fulfillment consumer running", "topic", cfg.KafkaStatusTopic)
			return consumer.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
