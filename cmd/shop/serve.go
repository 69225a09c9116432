package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/shopflow/internal/auth"
	"github.com/nikolayk812/shopflow/internal/config"
	"github.com/nikolayk812/shopflow/internal/domain"
	"github.com/nikolayk812/shopflow/internal/gateway/razorpay"
	"github.com/nikolayk812/shopflow/internal/handler"
	"github.com/nikolayk812/shopflow/internal/messaging"
	"github.com/nikolayk812/shopflow/internal/migrations"
	"github.com/nikolayk812/shopflow/internal/observability"
	"github.com/nikolayk812/shopflow/internal/port"
	"github.com/nikolayk812/shopflow/internal/relay"
	"github.com/nikolayk812/shopflow/internal/repository"
	"github.com/nikolayk812/shopflow/internal/service"
	"github.com/nikolayk812/shopflow/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config.Load: %w", err)
			}

			logger, err := observability.NewLogger(cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("observability.NewLogger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")

	return cmd
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger, migrate bool) error {
	if migrate {
		if err := migrations.Up(cfg.Database.URL); err != nil {
			return fmt.Errorf("migrations.Up: %w", err)
		}
	}

	pool, err := newPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	products, err := repository.NewProduct(pool)
	if err != nil {
		return fmt.Errorf("repository.NewProduct: %w", err)
	}
	carts, err := repository.NewCart(pool)
	if err != nil {
		return fmt.Errorf("repository.NewCart: %w", err)
	}
	orders, err := repository.NewOrder(pool)
	if err != nil {
		return fmt.Errorf("repository.NewOrder: %w", err)
	}

	gateway, err := razorpay.NewClient(razorpay.Config{
		BaseURL:   cfg.Payment.BaseURL,
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
	})
	if err != nil {
		return fmt.Errorf("razorpay.NewClient: %w", err)
	}

	images, closeImages, err := newImageStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeImages()

	payments, err := service.NewPaymentService(orders, gateway, service.PaymentConfig{
		KeyID:          cfg.Payment.KeyID,
		KeySecret:      cfg.Payment.KeySecret,
		GatewayTimeout: cfg.Payment.GatewayTimeout,
	}, logger.Named("payments"))
	if err != nil {
		return fmt.Errorf("service.NewPaymentService: %w", err)
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.SigningKey, auth.WithTTL(cfg.Auth.TokenTTL))
	if err != nil {
		return fmt.Errorf("auth.NewTokenManager: %w", err)
	}
	authn := auth.NewAuthenticator(tokens)

	productHandlers := handler.NewProductHandlers(service.NewProductService(products, images, logger.Named("products")))
	orderHandlers := handler.NewOrderHandlers(authn, service.NewOrderService(orders, domain.AdminPolicy{Strict: cfg.Orders.StrictAdminTransitions}, logger.Named("orders")))

	router := handler.NewRouter(
		handler.WithMiddlewares(observability.RequestLogger(logger), observability.Recovery(logger)),
		handler.WithHealthHandlers(handler.NewHealthHandlers(pool)),
		handler.WithProductRoutes(productHandlers.Routes),
		handler.WithCartRoutes(handler.NewCartHandlers(authn, service.NewCartService(carts)).Routes),
		handler.WithOrderRoutes(orderHandlers.Routes),
		handler.WithPaymentRoutes(handler.NewPaymentHandlers(authn, payments).Routes),
		handler.WithAdminRoutes(
			handler.AdminRoutes(productHandlers.AdminRoutes, orderHandlers.AdminRoutes),
			authn.RequireAuth(auth.RoleAdmin),
		),
	)

	if cfg.Kafka.Enabled() {
		publisher, err := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("messaging.NewKafkaPublisher: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("close kafka publisher", zap.Error(err))
			}
		}()

		relayCtx, stopRelay := context.WithCancel(ctx)
		var wg sync.WaitGroup
		defer func() {
			stopRelay()
			wg.Wait()
		}()

		if err := startRelay(relayCtx, &wg, pool, publisher, cfg.Relay, logger.Named("relay")); err != nil {
			return err
		}
		logger.Info("status history relay started", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", publisher.Topic()))
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("srv.ListenAndServe: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}

	return nil
}

func newPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pool.Ping: %w", err)
	}

	return pool, nil
}

// newImageStore returns a nil store when no bucket is configured; image uploads then fail.
func newImageStore(ctx context.Context, cfg config.StorageConfig) (port.ImageStore, func(), error) {
	if !cfg.Enabled() {
		return nil, func() {}, nil
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("storage.NewClient: %w", err)
	}

	store, err := storage.NewImageStore(client, cfg.Bucket, cfg.PublicBaseURL)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("storage.NewImageStore: %w", err)
	}

	return store, func() { _ = client.Close() }, nil
}

func startRelay(ctx context.Context, wg *sync.WaitGroup, pool *pgxpool.Pool, publisher port.EventPublisher, cfg config.RelayConfig, logger *zap.Logger) error {
	outbox, err := repository.NewStatusChangeOutbox(pool)
	if err != nil {
		return fmt.Errorf("repository.NewStatusChangeOutbox: %w", err)
	}

	r, err := relay.NewHistoryRelay(outbox, publisher, logger,
		relay.WithInterval(cfg.Interval),
		relay.WithBatchSize(cfg.BatchSize),
	)
	if err != nil {
		return fmt.Errorf("relay.NewHistoryRelay: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Run(ctx)
	}()

	return nil
}
