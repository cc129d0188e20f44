package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/handlers"
	"github.com/caspian-bazaar/api/internal/locale"
	"github.com/caspian-bazaar/api/internal/platform/auth"
	"github.com/caspian-bazaar/api/internal/platform/config"
	pfirestore "github.com/caspian-bazaar/api/internal/platform/firestore"
	"github.com/caspian-bazaar/api/internal/platform/jobs"
	"github.com/caspian-bazaar/api/internal/platform/observability"
	platformstorage "github.com/caspian-bazaar/api/internal/platform/storage"
	firestoreRepo "github.com/caspian-bazaar/api/internal/repositories/firestore"
	"github.com/caspian-bazaar/api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	localeResolver, err := newLocaleResolver(cfg.Catalog)
	if err != nil {
		logger.Fatal("failed to build locale resolver", zap.Error(err))
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier)

	productRepo, err := firestoreRepo.NewProductRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise product repository", zap.Error(err))
	}
	categoryRepo, err := firestoreRepo.NewCategoryRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise category repository", zap.Error(err))
	}
	cartRepo, err := firestoreRepo.NewCartRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise cart repository", zap.Error(err))
	}
	wishlistRepo, err := firestoreRepo.NewWishlistRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise wishlist repository", zap.Error(err))
	}
	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	healthRepo, err := firestoreRepo.NewHealthRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise health repository", zap.Error(err))
	}

	var orderEvents services.OrderEventPublisher
	var pubsubClient *pubsub.Client
	if strings.TrimSpace(cfg.PubSub.OrderTopic) != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		publisher, err := jobs.NewPubSubOrderEventPublisher(pubsubClient.Topic(cfg.PubSub.OrderTopic))
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
		orderEvents = publisher
	}
	defer func() {
		if pubsubClient != nil {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}
	}()

	var imageUploader *platformstorage.ImageUploader
	if strings.TrimSpace(cfg.Storage.ImagesBucket) != "" {
		signer, err := platformstorage.NewServiceAccountSignerFromFile(cfg.Storage.SignerCredentials)
		if err != nil {
			logger.Fatal("failed to load storage signer credentials", zap.Error(err))
		}
		imageUploader, err = platformstorage.NewImageUploader(cfg.Storage.ImagesBucket, signer,
			platformstorage.WithUploadTTL(cfg.Storage.UploadURLTTL),
		)
		if err != nil {
			logger.Fatal("failed to initialise image uploader", zap.Error(err))
		}
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:        productRepo,
		Categories:      categoryRepo,
		Locales:         localeResolver,
		Clock:           time.Now,
		RefreshInterval: cfg.Catalog.SearchDebounce,
		Logger:          zapEventLogger(logger.Named("catalog")),
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}
	catalogService.WarmCache(ctx)
	defer catalogService.Close()

	cartService, err := services.NewCartService(services.CartServiceDeps{
		Repository: cartRepo,
		Products:   productRepo,
		Locales:    localeResolver,
		Clock:      time.Now,
		Logger:     zapEventLogger(logger.Named("cart")),
	})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}

	wishlistService, err := services.NewWishlistService(services.WishlistServiceDeps{
		Repository: wishlistRepo,
		Products:   productRepo,
		Locales:    localeResolver,
		Cart:       cartService,
		Clock:      time.Now,
		Logger:     zapEventLogger(logger.Named("wishlist")),
	})
	if err != nil {
		logger.Fatal("failed to initialise wishlist service", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Repository: orderRepo,
		Carts:      cartRepo,
		Sales:      productRepo,
		Events:     orderEvents,
		Clock:      time.Now,
		Logger:     zapEventLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	storefrontHandlers := handlers.NewStorefrontHandlers(catalogService, localeResolver)
	cartHandlers := handlers.NewCartHandlers(authenticator, cartService, localeResolver)
	wishlistHandlers := handlers.NewWishlistHandlers(authenticator, wishlistService, localeResolver)
	orderHandlers := handlers.NewOrderHandlers(authenticator, orderService)
	adminHandlers := handlers.NewAdminHandlers(authenticator, catalogService, orderService, imageUploader)
	healthHandlers := handlers.NewHealthHandlers(handlers.WithReadinessProbe(healthRepo))

	projectID := strings.TrimSpace(cfg.Firebase.ProjectID)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPublicRoutes(storefrontHandlers.Routes),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithWishlistRoutes(wishlistHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("caspian-bazaar api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLocaleResolver(cfg config.CatalogConfig) (*locale.Resolver, error) {
	supported := make([]domain.Locale, 0, len(cfg.SupportedLocales))
	for _, raw := range cfg.SupportedLocales {
		supported = append(supported, domain.Locale(raw))
	}
	return locale.NewResolver(domain.Locale(cfg.DefaultLocale), supported)
}

func zapEventLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Info(event, zFields...)
	}
}
