package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"mars3lo-orders/app/controller"
	"mars3lo-orders/app/router"
	"mars3lo-orders/config"
	"mars3lo-orders/db"
	"mars3lo-orders/repository"
	"mars3lo-orders/service"
)

// App is the wired application: its HTTP handler and the resources to release on shutdown
type App struct {
	Handler http.Handler

	cancel  context.CancelFunc
	closers []func() error
}

// Initialize initializes the application
func Initialize(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database connection
	if err := db.InitDB(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &App{}
	a.closers = append(a.closers, db.CloseDB)

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, db.DB); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize repositories
	stockRepo := repository.NewStockRepository(db.DB)
	orderRepo := repository.NewOrderRepository(db.DB)

	var cartStore repository.CartStoreInterface
	if cfg.RedisURL != "" {
		redisStore, err := repository.NewRedisCartStore(cfg.RedisURL, cfg.CartTTL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, redisStore.Close)
		cartStore = redisStore
	} else {
		log.Printf("⚠️  App: REDIS_URL not set, carts are kept in memory")
		cartStore = repository.NewMemoryCartStore()
	}

	// Order lifecycle events
	var publisher service.EventPublisherInterface
	if len(cfg.KafkaBrokers) > 0 {
		publisher = service.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Printf("✓ App: publishing order events to %s on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	} else {
		publisher = service.LogPublisher{}
	}
	a.closers = append(a.closers, publisher.Close)

	// Realtime change feed
	feed := service.NewChangeFeed()
	listenCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go service.NewPostgresListener(cfg.DatabaseURL, feed).Run(listenCtx)

	// Exports
	logo := ""
	if cfg.LogoPath != "" {
		var err error
		logo, err = service.PrepareLogo(cfg.LogoPath)
		if err != nil {
			log.Printf("⚠️  App: logo %s not loaded: %v", cfg.LogoPath, err)
		}
	}
	exports := service.NewExportService(service.NewChromePDFRenderer(cfg.ChromePath), logo)

	var archive *service.ArchiveService
	if cfg.DriveEnabled() {
		driveService, err := service.NewDriveService(ctx, cfg.CredentialsPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		archive = service.NewArchiveService(driveService, exports, cfg.DriveFolderID)
	} else {
		log.Printf("⚠️  App: Drive archive disabled (GOOGLE_APPLICATION_CREDENTIALS or DRIVE_ARCHIVE_FOLDER_ID not set)")
	}

	// Services
	orderService := service.NewOrderService(orderRepo, publisher)
	reconciliationService := service.NewReconciliationService(orderRepo, publisher)
	cartService := service.NewCartService(cartStore, stockRepo, orderService)

	// Create controllers
	sessions := controller.NewSessionStore(cfg.SessionKey, cfg.CookieSecure)
	controllers := &router.Controllers{
		Auth:     controller.NewAuthController(sessions, cfg.Showroom, cfg.Warehouse),
		Stock:    controller.NewStockController(stockRepo),
		Cart:     controller.NewCartController(cartService, exports),
		Order:    controller.NewOrderController(orderService, reconciliationService, exports, archive),
		Realtime: controller.NewRealtimeController(feed),
	}

	a.Handler = router.SetupRoutes(controllers)
	return a, nil
}

// Close stops the change listener and releases connections in reverse order
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("⚠️  App: close error: %v", err)
		}
	}
	a.closers = nil
}
