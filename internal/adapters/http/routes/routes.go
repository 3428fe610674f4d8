package routes

import (
	"time"

	"payego/internal/adapters/http/handlers"
	"payego/internal/adapters/http/middleware"
	"payego/internal/adapters/persistence/repositories"
	"payego/internal/config"
	"payego/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	_ "payego/docs"
)

// directoryMaxAge is how long clients may cache the bank directory
const directoryMaxAge = time.Hour

// Services are the sandbox's business services
type Services struct {
	Auth   *services.AuthService
	User   *services.UserService
	Bank   *services.BankService
	Wallet *services.WalletService
}

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, svc *Services, cfg *config.Config) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, cfg)
	authHandler := handlers.NewAuthHandler(svc.Auth)
	userHandler := handlers.NewUserHandler(svc.User)
	bankHandler := handlers.NewBankHandler(svc.Bank)
	walletHandler := handlers.NewWalletHandler(svc.Wallet)

	// Health check, root, metrics & docs routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/swagger/*", swagger.HandlerDefault)

	auth := middleware.AuthMiddleware(svc.Auth)
	idempotent := middleware.Idempotency(repositories.NewIdempotencyRepository(db))

	api := app.Group("/api")

	// Auth routes
	authRoutes := api.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, auth, cfg)

	// User routes (signed-in user's records)
	userRoutes := api.Group("/user", auth, middleware.NoCacheHeaders())
	userRoutes.Get("/current", userHandler.Current)
	userRoutes.Get("/wallets", userHandler.Wallets)
	userRoutes.Get("/banks", userHandler.BankAccounts)
	userRoutes.Get("/transactions", userHandler.Transactions)

	api.Get("/users/resolve", auth, userHandler.Resolve)
	api.Get("/transactions/:id", auth, middleware.NoCacheHeaders(), userHandler.Transaction)

	// Bank routes
	api.Get("/banks/all", middleware.PublicCache(directoryMaxAge), bankHandler.Banks)
	api.Get("/bank/resolve", auth, bankHandler.Resolve)
	api.Post("/banks/add", auth, idempotent, bankHandler.Add)
	api.Delete("/banks/:id", auth, bankHandler.Delete)

	// Money movement routes
	setupWalletRoutes(api, walletHandler, auth, idempotent)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth fiber.Handler, cfg *config.Config) {
	limit := middleware.AuthRateLimiter(cfg.Sandbox.AuthRateLimit)

	// Public routes
	router.Post("/register", limit, handler.Register)
	router.Post("/login", limit, handler.Login)
	router.Post("/social_login", limit, handler.SocialLogin)
	router.Post("/forgot_password", limit, handler.ForgotPassword)
	router.Post("/reset_password", limit, handler.ResetPassword)
	router.Get("/verify-email", handler.VerifyEmail)

	// Protected routes
	router.Post("/resend-verification", auth, limit, handler.ResendVerification)
	router.Post("/logout", auth, handler.Logout)
}

// setupWalletRoutes configures money movement routes. Every mutation honours
// the Idempotency-Key header.
func setupWalletRoutes(router fiber.Router, handler *handlers.WalletHandler, auth, idempotent fiber.Handler) {
	router.Post("/wallet/top_up", auth, idempotent, handler.TopUp)
	router.Post("/wallet/withdraw/:bankAccountId", auth, idempotent, handler.Withdraw)
	router.Post("/wallets/convert", auth, idempotent, handler.Convert)
	router.Post("/transfer/internal", auth, idempotent, handler.TransferInternal)
	router.Post("/transfer/external", auth, idempotent, handler.TransferExternal)
	router.Post("/paypal/capture", auth, idempotent, handler.CapturePayPal)

	router.Get("/exchange-rate", auth, handler.ExchangeRate)
}
