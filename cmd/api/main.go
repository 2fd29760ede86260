package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"circular-storefront/internal/client"
	"circular-storefront/internal/config"
	"circular-storefront/internal/events"
	"circular-storefront/internal/logger"
	"circular-storefront/internal/repository"
	"circular-storefront/internal/server"
	"circular-storefront/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	os.Exit(realMain())
}

// realMain returns the process exit code so deferred flushes run before os.Exit.
func realMain() int {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		return 1
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Error("service stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := client.InitDB(&cfg.Database)
	if err != nil {
		return err
	}

	var broker client.MessageBroker
	if cfg.Redis.URL != "" {
		broker, err = client.NewRedisBroker(ctx, cfg.Redis.URL, cfg.Redis.Channel, log)
		if err != nil {
			return err
		}
	} else {
		log.Info("REDIS_URL not set, chat fan-out is in-process only")
		broker = client.NewMemoryBroker(log)
	}
	defer broker.Close()

	emailClient := client.NewEmailClient(cfg.Email.BaseURL)
	mailingListClient := client.NewMailingListClient(cfg.MailingList.BaseURL)
	stripeVerifier := client.NewStripeVerifier(cfg.Stripe.WebhookSecret, cfg.Stripe.Tolerance)

	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	productRepo := repository.NewProductRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	contentRepo := repository.NewContentRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	paymentConfigRepo := repository.NewPaymentConfigRepository(db)

	contentService := service.NewContentService(contentRepo)

	emailSettings := service.EmailSettings{
		APIKey:      cfg.Email.APIKey,
		FromAddress: cfg.Email.FromAddress,
		BaseURL:     cfg.BaseURL,
	}
	notifier := service.NewOrderNotifier(emailClient, contentService, emailSettings, log)
	dispatcher := events.NewDispatcher(notifier.Handle, events.DispatcherOptions{
		Buffer:  cfg.Orders.NotificationBuffer,
		Workers: cfg.Orders.NotificationWorkers,
		Timeout: cfg.Orders.NotificationTimeout,
	}, log)
	defer dispatcher.Close()

	productService := service.NewProductService(productRepo)
	if cfg.IsDevelopment() {
		if err := productService.Seed(ctx, service.DemoCatalog()); err != nil {
			log.Warn("seed demo catalogue", zap.Error(err))
		}
	}

	services := server.Services{
		Order: service.NewOrderService(db, orderRepo, dispatcher, service.OrderServiceOptions{
			StrictTransitions: cfg.Orders.StrictTransitions,
		}, log),
		Intake: service.NewPaymentIntakeService(
			db,
			stripeVerifier,
			cfg.MobileMoney.WebhookSecret,
			orderRepo,
			webhookEventRepo,
			log,
		),
		Chat:          service.NewChatService(messageRepo, broker, cfg.Chat.HistoryLimit, log),
		Content:       contentService,
		Newsletter:    service.NewNewsletterService(subscriberRepo),
		Role:          service.NewRoleService(roleRepo),
		PaymentConfig: service.NewPaymentConfigService(db, paymentConfigRepo),
		Product:       productService,
		Integration: service.NewIntegrationService(
			emailClient,
			mailingListClient,
			contentService,
			subscriberRepo,
			emailSettings,
			service.MailingListSettings{APIKey: cfg.MailingList.APIKey, ListID: cfg.MailingList.ListID},
			log,
		),
	}

	srv := server.NewServer(cfg, services, log)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
