// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "billing-api/internal/api"
	"billing-api/internal/api/handler"
	"billing-api/internal/auth"
	"billing-api/internal/config"
	"billing-api/internal/repository"
	"billing-api/internal/repository/postgres"
	"billing-api/internal/service"
	"billing-api/internal/util"
	"billing-api/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	UserRepository        repository.UserRepository
	BillRepository        repository.BillRepository
	TransactionRepository repository.TransactionRepository
	ProductRepository     repository.ProductRepository
	PurchaseRepository    repository.PurchaseRepository

	// Services
	UserService        service.UserService
	ProductService     service.ProductService
	BillService        service.BillService
	TransactionService service.TransactionService
	PurchaseService    service.PurchaseService
	WebhookService     service.WebhookService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository(app.DB)
	app.BillRepository = postgres.NewBillRepository(app.DB)
	app.TransactionRepository = postgres.NewTransactionRepository(app.DB)
	app.ProductRepository = postgres.NewProductRepository(app.DB)
	app.PurchaseRepository = postgres.NewPurchaseRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)

	app.UserService = service.NewUserService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.UserRepository,
		tokens,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.ProductService = service.NewProductService(app.DB, app.ProductRepository)
	app.BillService = service.NewBillService(
		app.DB,
		app.DB,
		app.UserRepository,
		app.BillRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.TransactionService = service.NewTransactionService(
		app.DB,
		app.DB,
		app.BillRepository,
		app.TransactionRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.PurchaseService = service.NewPurchaseService(
		app.DB,
		app.DB,
		app.UserRepository,
		app.BillRepository,
		app.ProductRepository,
		app.PurchaseRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.WebhookService = service.NewWebhookService(
		cfg.WebhookSigningKey,
		app.DB,
		app.BillRepository,
		app.TransactionService,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(app.UserService, app.Logger),
		Product:     handler.NewProductHandler(app.ProductService, app.Logger),
		Bill:        handler.NewBillHandler(app.BillService, app.Logger),
		Transaction: handler.NewTransactionHandler(app.TransactionService, app.Logger),
		Purchase:    handler.NewPurchaseHandler(app.PurchaseService, app.Logger),
		Webhook:     handler.NewWebhookHandler(app.WebhookService, app.Logger),
	}
	app.HTTPHandler = router.NewRouter(handlers, tokens, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
