package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"chat-gateway/internal/channel"
	"chat-gateway/internal/config"
	"chat-gateway/internal/logger"
	"chat-gateway/internal/mcpserver"
	"chat-gateway/internal/messaging"
	"chat-gateway/internal/models"
	"chat-gateway/internal/server"
	"chat-gateway/internal/services/notification"
	"chat-gateway/internal/services/order"
	"chat-gateway/internal/store"
)

const (
	modeHTTP             = "http"
	modeStatusSubscriber = "status-subscriber"
	modeMCP              = "mcp"
)

func main() {
	var (
		mode       = flag.String("mode", modeHTTP, "Service mode (http, status-subscriber, mcp)")
		configPath = flag.String("config", "", "Path to YAML config file")
		port       = flag.Int("port", 0, "HTTP port, overrides config")
		prefetch   = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	// stdout carries the MCP protocol in mcp mode
	var logOut io.Writer = os.Stdout
	if *mode == modeMCP {
		logOut = os.Stderr
	}
	log := logger.NewWithWriter(*mode, cfg.Log.Level, logOut)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode":           *mode,
		"store_driver":   cfg.Store.Driver,
		"events_driver":  cfg.Events.Driver,
		"channel_driver": cfg.WhatsApp.Driver,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	switch *mode {
	case modeHTTP:
		runErr = runHTTP(ctx, cfg, log)
	case modeStatusSubscriber:
		runErr = runStatusSubscriber(ctx, cfg, log, *prefetch)
	case modeMCP:
		runErr = runMCP(ctx, cfg, log, logOut)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	if runErr != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, runErr, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// deps are the collaborators shared by every mode
type deps struct {
	store     store.Backend
	publisher eventPublisher
	sender    notification.Sender
}

type eventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
	Close() error
}

func openDeps(ctx context.Context, cfg *config.Config, log *logger.Logger, consoleOut io.Writer) (*deps, error) {
	backend, err := store.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if err := backend.SeedMenu(ctx, store.MenuFromConfig(cfg.Menu)); err != nil {
		_ = backend.Close(ctx)
		return nil, fmt.Errorf("failed to seed menu: %w", err)
	}

	publisher, err := openPublisher(ctx, cfg, log)
	if err != nil {
		_ = backend.Close(ctx)
		return nil, err
	}

	var sender notification.Sender
	switch cfg.WhatsApp.Driver {
	case "console":
		sender = channel.NewConsoleSender(consoleOut, log)
	default:
		sender = channel.NewCloudClient(cfg.WhatsApp, log)
	}

	log.Info("dependencies_ready", "Store, event bus and channel initialized", "startup", map[string]interface{}{
		"menu_items": len(cfg.Menu),
	})

	return &deps{store: backend, publisher: publisher, sender: sender}, nil
}

func (d *deps) Close(log *logger.Logger) {
	if err := d.publisher.Close(); err != nil {
		log.Error("shutdown_failed", "Failed to close event publisher", "shutdown", err, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.store.Close(ctx); err != nil {
		log.Error("shutdown_failed", "Failed to close store", "shutdown", err, nil)
	}
}

func openPublisher(ctx context.Context, cfg *config.Config, log *logger.Logger) (eventPublisher, error) {
	switch cfg.Events.Driver {
	case "rabbitmq":
		conn, err := messaging.New(ctx, cfg.RabbitMQURL(), log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize messaging: %w", err)
		}
		log.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", nil)
		return messaging.NewPublisher(conn, log), nil
	case "nats":
		pub, err := messaging.NewNATSPublisher(cfg.NATS.URL, log)
		if err != nil {
			return nil, err
		}
		log.Info("nats_connected", "Connected to NATS", "startup", nil)
		return pub, nil
	default:
		return messaging.NoopPublisher{}, nil
	}
}

// runHTTP serves the chat routes until ctx is cancelled
func runHTTP(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	d, err := openDeps(ctx, cfg, log, os.Stdout)
	if err != nil {
		return err
	}
	defer d.Close(log)

	orders := order.NewService(d.store, d.publisher, log)
	notifier := notification.NewNotifier(d.store, d.sender, d.publisher, log)
	receiver := channel.NewReceiver(
		channel.NewSessionTracker(cfg.Sessions.ChatTTL),
		channel.NewSessionTracker(cfg.Sessions.CallTTL),
		channel.NewPublishingHandler(d.publisher),
		log,
	)
	handler := server.NewHandler(orders, notifier, receiver, cfg.WhatsApp.VerifyToken, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("service_started", fmt.Sprintf("Chat gateway started on port %d", cfg.Server.Port), "startup", map[string]interface{}{
			"port": cfg.Server.Port,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("graceful_shutdown", "Shutting down HTTP server", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// runStatusSubscriber notifies customers for every status change event on the bus
func runStatusSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	d, err := openDeps(ctx, cfg, log, os.Stdout)
	if err != nil {
		return err
	}
	defer d.Close(log)

	notifier := notification.NewNotifier(d.store, d.sender, d.publisher, log)
	subscriber := notification.NewSubscriber(notifier, log)

	switch cfg.Events.Driver {
	case "rabbitmq":
		conn, err := messaging.New(ctx, cfg.RabbitMQURL(), log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		consumer := messaging.NewConsumer(conn, log, messaging.StatusQueue, "chat-gateway-status", prefetch)
		defer consumer.Close()
		return consumer.StartConsuming(ctx, subscriber.HandleStatusUpdate)
	case "nats":
		sub, err := messaging.NewNATSSubscriber(cfg.NATS.URL, log)
		if err != nil {
			return err
		}
		defer sub.Close()
		return sub.Subscribe(ctx, models.TopicOrderStatusPrefix+"*", subscriber.HandleStatusUpdate)
	default:
		return fmt.Errorf("%s mode requires events.driver rabbitmq or nats", modeStatusSubscriber)
	}
}

// runMCP serves the MCP tools on stdio until stdin closes or ctx is cancelled
func runMCP(ctx context.Context, cfg *config.Config, log *logger.Logger, consoleOut io.Writer) error {
	d, err := openDeps(ctx, cfg, log, consoleOut)
	if err != nil {
		return err
	}
	defer d.Close(log)

	orders := order.NewService(d.store, d.publisher, log)
	notifier := notification.NewNotifier(d.store, d.sender, d.publisher, log)
	srv := mcpserver.NewServer(orders, notifier, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
