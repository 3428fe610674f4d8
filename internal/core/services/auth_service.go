package services

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"payego/internal/adapters/persistence/models"
	"payego/internal/adapters/persistence/repositories"
	"payego/internal/config"
	"payego/internal/core/domain"
	"payego/internal/pkg/jwt"
	"payego/internal/pkg/password"

	"github.com/google/uuid"
)

// Auth errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrUnsupportedProvider = errors.New("unsupported identity provider")
	ErrAlreadyVerified     = errors.New("email already verified")
)

// SocialProviders lists the identity providers social login accepts
var SocialProviders = []string{"google"}

// StarterCurrencies are the wallets every new account opens with
var StarterCurrencies = []string{"USD", "NGN"}

const resetLifetime = time.Hour

// AuthService handles authentication business logic
type AuthService struct {
	userRepo   repositories.UserRepository
	walletRepo repositories.WalletRepository
	tokenRepo  repositories.TokenRepository
	cfg        *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	walletRepo repositories.WalletRepository,
	tokenRepo repositories.TokenRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		tokenRepo:  tokenRepo,
		cfg:        cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// LoginInput represents login input
type LoginInput struct {
	Email    string
	Password string
}

// Register creates an account with starter wallets and returns an access token
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (string, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return "", err
	}
	if err := password.ValidatePassword(input.Password); err != nil {
		return "", err
	}

	// 1. Check if email already exists
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrUserAlreadyExists
	}

	// 2. Check if username already exists
	username := strings.TrimSpace(input.Username)
	if username != "" {
		exists, err = s.userRepo.ExistsByUsername(ctx, username)
		if err != nil {
			return "", err
		}
		if exists {
			return "", ErrUserAlreadyExists
		}
	}

	// 3. Hash password
	hashedPassword, err := password.HashWithCost(input.Password, s.cfg.Sandbox.BcryptCost)
	if err != nil {
		return "", err
	}

	// 4. Create user
	now := time.Now()
	user := &models.User{
		ID:          uuid.NewString(),
		Username:    username,
		Email:       email,
		Password:    hashedPassword,
		VerifyToken: uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.create(ctx, user); err != nil {
		return "", err
	}

	log.Printf("✅ User registered: %s", user.Email)
	log.Printf("📧 Verification link for %s: /verify-email?token=%s", user.Email, user.VerifyToken)

	return s.issue(user)
}

// Login authenticates a password account
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	// Social accounts have no password to check
	if user.Password == "" || !password.Verify(input.Password, user.Password) {
		return "", ErrInvalidCredentials
	}

	log.Printf("✅ User logged in: %s", user.Email)
	return s.issue(user)
}

// SocialLogin signs in with a provider identity token, creating the account
// on first use. The sandbox does not call the provider: the token is either
// a JWT carrying an email claim or the email address itself.
func (s *AuthService) SocialLogin(ctx context.Context, idToken, provider string) (string, error) {
	if !supported(provider) {
		return "", ErrUnsupportedProvider
	}

	raw, ok := jwt.PeekString(idToken, "email")
	if !ok {
		raw = idToken
	}
	email, err := normalizeEmail(raw)
	if err != nil {
		return "", ErrInvalidToken
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrRecordNotFound):
		now := time.Now()
		user = &models.User{
			ID:              uuid.NewString(),
			Email:           email,
			Provider:        provider,
			EmailVerifiedAt: &now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.create(ctx, user); err != nil {
			return "", err
		}
		log.Printf("✅ User registered via %s: %s", provider, email)
	default:
		return "", err
	}

	return s.issue(user)
}

// ForgotPassword starts password recovery. It returns the reset token, or ""
// when no account matches; callers must not reveal which.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	if _, err := normalizeEmail(email); err != nil {
		return "", err
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	reset := &models.PasswordReset{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(resetLifetime),
	}
	if err := s.tokenRepo.CreateReset(ctx, reset); err != nil {
		return "", err
	}

	log.Printf("📧 Password reset link for %s: /reset-password?token=%s", user.Email, reset.Token)
	return reset.Token, nil
}

// ResetPassword consumes a reset token and sets a new password
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	reset, err := s.tokenRepo.GetReset(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if reset.Used {
		return ErrInvalidToken
	}
	if time.Now().After(reset.ExpiresAt) {
		return ErrTokenExpired
	}
	if err := password.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, reset.UserID)
	if err != nil {
		return ErrUserNotFound
	}

	hashed, err := password.HashWithCost(newPassword, s.cfg.Sandbox.BcryptCost)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	if err := s.tokenRepo.MarkResetUsed(ctx, token); err != nil {
		return err
	}

	log.Printf("✅ Password reset for user: %s", user.Email)
	return nil
}

// VerifyEmail confirms the address a verification token was sent to
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.userRepo.GetByVerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	now := time.Now()
	user.EmailVerifiedAt = &now
	user.VerifyToken = ""
	user.UpdatedAt = now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	log.Printf("✅ Email verified: %s", user.Email)
	return nil
}

// ResendVerification issues a new verification token
func (s *AuthService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}
	if user.EmailVerifiedAt != nil {
		return ErrAlreadyVerified
	}

	user.VerifyToken = uuid.NewString()
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	log.Printf("📧 Verification link for %s: /verify-email?token=%s", user.Email, user.VerifyToken)
	return nil
}

// VerificationToken returns the outstanding verification token for email.
// The sandbox sends no mail; operators read links from the log.
func (s *AuthService) VerificationToken(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", ErrUserNotFound
	}
	return user.VerifyToken, nil
}

// Logout revokes an access token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.Authenticate(ctx, accessToken)
	if err != nil {
		return err
	}

	if err := s.tokenRepo.Revoke(ctx, accessToken, claims.ExpiresAt.Time); err != nil {
		return err
	}

	log.Printf("✅ User logged out: %s", claims.UserID)
	return nil
}

// Authenticate validates an access token and checks it was not revoked
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*jwt.Claims, error) {
	claims, err := jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	revoked, err := s.tokenRepo.IsRevoked(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// PurgeExpired drops revoked tokens and reset links past their lifetime
func (s *AuthService) PurgeExpired(ctx context.Context) (int, error) {
	return s.tokenRepo.DeleteExpired(ctx, time.Now())
}

// create stores the user and opens the starter wallets
func (s *AuthService) create(ctx context.Context, user *models.User) error {
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return ErrUserAlreadyExists
		}
		return err
	}

	for _, currency := range StarterCurrencies {
		wallet := &domain.Wallet{UserID: user.ID, Currency: currency, CreatedAt: user.CreatedAt, UpdatedAt: user.CreatedAt}
		if err := s.walletRepo.Create(ctx, wallet); err != nil {
			return err
		}
	}
	return nil
}

// issue signs an access token for user
func (s *AuthService) issue(user *models.User) (string, error) {
	return jwt.GenerateAccessToken(user.ID, user.Username, s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(raw), nil
}

func supported(provider string) bool {
	for _, p := range SocialProviders {
		if p == provider {
			return true
		}
	}
	return false
}
