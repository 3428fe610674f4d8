// Package sandbox assembles the Payego API used for local development and
// end-to-end tests of the client.
package sandbox

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"payego/internal/adapters/http/middleware"
	"payego/internal/adapters/http/routes"
	"payego/internal/adapters/persistence/repositories"
	"payego/internal/config"
	"payego/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"gorm.io/gorm"
)

// Server is a complete sandbox API
type Server struct {
	App      *fiber.App
	DB       *gorm.DB
	Services *routes.Services
	Repos    Repositories

	cron *services.CronService
	cfg  *config.Config
}

// Repositories exposes the sandbox's storage to tooling and tests
type Repositories struct {
	Users        repositories.UserRepository
	Wallets      repositories.WalletRepository
	BankAccounts repositories.BankAccountRepository
	Transactions repositories.TransactionRepository
	Tokens       repositories.TokenRepository
}

// New builds the sandbox. Background jobs start with Start.
func New(cfg *config.Config) (*Server, error) {
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := repositories.Migrate(db); err != nil {
		_ = config.CloseDatabase(db)
		return nil, err
	}

	// Initialize repositories
	repos := Repositories{
		Users:        repositories.NewUserRepository(db),
		Wallets:      repositories.NewWalletRepository(db),
		BankAccounts: repositories.NewBankAccountRepository(db),
		Transactions: repositories.NewTransactionRepository(db),
		Tokens:       repositories.NewTokenRepository(db),
	}

	rates, err := services.NewRateTable(services.DefaultRates)
	if err != nil {
		_ = config.CloseDatabase(db)
		return nil, fmt.Errorf("failed to load exchange rates: %w", err)
	}

	// Initialize services
	bankService := services.NewBankService(repos.BankAccounts, cfg)
	svc := &routes.Services{
		Auth:   services.NewAuthService(repos.Users, repos.Wallets, repos.Tokens, cfg),
		User:   services.NewUserService(repos.Users, repos.Wallets, repos.BankAccounts, repos.Transactions),
		Bank:   bankService,
		Wallet: services.NewWalletService(repos.Users, repos.Wallets, repos.Transactions, bankService, rates, cfg),
	}

	cronService, err := services.NewCronService(cfg.Sandbox.SettleSchedule, svc.Wallet, svc.Auth)
	if err != nil {
		_ = config.CloseDatabase(db)
		return nil, fmt.Errorf("invalid settle schedule %q: %w", cfg.Sandbox.SettleSchedule, err)
	}

	// Create Fiber app. Immutable copies request strings off the reused
	// fasthttp buffers, since tokens and idempotency keys outlive the request.
	app := fiber.New(fiber.Config{
		AppName:      "Payego Sandbox API",
		ErrorHandler: middleware.CustomErrorHandler,
		Immutable:    true,
	})
	middleware.Setup(app, cfg)
	routes.Setup(app, db, svc, cfg)

	s := &Server{
		App:      app,
		DB:       db,
		Services: svc,
		Repos:    repos,
		cron:     cronService,
		cfg:      cfg,
	}

	if cfg.Sandbox.Seed {
		if err := NewSeeder(s).Run(context.Background()); err != nil {
			log.Printf("⚠️ Warning: Failed to seed demo data: %v", err)
		}
	}
	return s, nil
}

// Start runs the background jobs
func (s *Server) Start() {
	s.cron.Start()
}

// Listen serves on addr until Shutdown
func (s *Server) Listen(addr string) error {
	return s.App.Listen(addr)
}

// Handler exposes the app to net/http servers and tests
func (s *Server) Handler() http.HandlerFunc {
	return adaptor.FiberApp(s.App)
}

// Shutdown stops background jobs and the listener
func (s *Server) Shutdown() error {
	s.cron.Stop()
	err := s.App.Shutdown()
	if cerr := config.CloseDatabase(s.DB); err == nil {
		err = cerr
	}
	return err
}
