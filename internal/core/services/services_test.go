package services

import (
	"context"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payego/internal/adapters/persistence/models"
	"payego/internal/adapters/persistence/repositories"
	"payego/internal/config"
	"payego/internal/core/domain"
	"payego/internal/pkg/pagination"
	"payego/internal/pkg/password"
)

type fixture struct {
	auth   *AuthService
	users  *UserService
	banks  *BankService
	wallet *WalletService

	userRepo   repositories.UserRepository
	walletRepo repositories.WalletRepository
	tokenRepo  repositories.TokenRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		Sandbox: config.SandboxConfig{BcryptCost: 4},
		JWT:     config.JWTConfig{Secret: "test-secret", AccessTokenMins: 5},
		Limits:  domain.DefaultLimits(),
	}
	db, err := config.ConnectDatabase(&config.Config{AppMode: "dev"})
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	userRepo := repositories.NewUserRepository(db)
	walletRepo := repositories.NewWalletRepository(db)
	bankRepo := repositories.NewBankAccountRepository(db)
	txRepo := repositories.NewTransactionRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)

	rates, err := NewRateTable(DefaultRates)
	require.NoError(t, err)
	banks := NewBankService(bankRepo, cfg)

	return &fixture{
		auth:       NewAuthService(userRepo, walletRepo, tokenRepo, cfg),
		users:      NewUserService(userRepo, walletRepo, bankRepo, txRepo),
		banks:      banks,
		wallet:     NewWalletService(userRepo, walletRepo, txRepo, banks, rates, cfg),
		userRepo:   userRepo,
		walletRepo: walletRepo,
		tokenRepo:  tokenRepo,
	}
}

// register creates an account and returns its ID
func (f *fixture) register(t *testing.T, email string) string {
	t.Helper()
	ctx := context.Background()
	_, err := f.auth.Register(ctx, &RegisterInput{Email: email, Password: "password123"})
	require.NoError(t, err)
	u, err := f.userRepo.GetByEmail(ctx, email)
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) balance(t *testing.T, userID, currency string) int64 {
	t.Helper()
	w, err := f.walletRepo.GetByUserCurrency(context.Background(), userID, currency)
	require.NoError(t, err)
	return w.Balance
}

func TestRateTable(t *testing.T) {
	rates, err := NewRateTable(DefaultRates)
	require.NoError(t, err)

	r, err := rates.Rate("usd", "NGN")
	require.NoError(t, err)
	assert.Equal(t, "1500", r.String())

	r, err = rates.Rate("NGN", "USD")
	require.NoError(t, err)
	assert.Equal(t, "0.000667", r.String())

	converted, _, err := rates.Convert(100, "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(109), converted, "108.695652 rounds to 109")

	_, err = rates.Rate("USD", "XYZ")
	assert.ErrorIs(t, err, ErrRateNotFound)

	_, err = NewRateTable(map[string]string{"USD": "0"})
	assert.Error(t, err)
	_, err = NewRateTable(map[string]string{"USD": "one"})
	assert.Error(t, err)
}

func TestRegisterOpensStarterWallets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "Ada@Example.com")

	wallets, err := f.users.Wallets(ctx, id)
	require.NoError(t, err)
	require.Len(t, wallets, len(StarterCurrencies))

	user, err := f.users.Current(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email, "emails are stored lower case")
	assert.False(t, user.IsEmailVerified())

	_, err = f.auth.Register(ctx, &RegisterInput{Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	_, err = f.auth.Register(ctx, &RegisterInput{Email: "Ada <ada@example.com>", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = f.auth.Register(ctx, &RegisterInput{Email: "bo@example.com", Password: "short"})
	assert.ErrorIs(t, err, password.ErrTooShort)
}

func TestLoginAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com")

	_, err := f.auth.Login(ctx, &LoginInput{Email: "ada@example.com", Password: "nope-nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, &LoginInput{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, err := f.auth.Login(ctx, &LoginInput{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	claims, err := f.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.UserID)

	require.NoError(t, f.auth.Logout(ctx, token))
	_, err = f.auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = f.auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSocialLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	idToken, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"email": "Grace@Example.com",
	}).SignedString([]byte("provider-key"))
	require.NoError(t, err)

	_, err = f.auth.SocialLogin(ctx, idToken, "google")
	require.NoError(t, err)

	user, err := f.userRepo.GetByEmail(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, "google", user.Provider)
	assert.NotNil(t, user.EmailVerifiedAt)

	_, err = f.auth.Login(ctx, &LoginInput{Email: "grace@example.com", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "social accounts have no password")

	_, err = f.auth.SocialLogin(ctx, idToken, "facebook")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	_, err = f.auth.SocialLogin(ctx, "not an email", "google")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "ada@example.com")

	token, err := f.auth.ForgotPassword(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = f.auth.ForgotPassword(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.ErrorIs(t, f.auth.ResetPassword(ctx, token, "short"), password.ErrTooShort)
	require.NoError(t, f.auth.ResetPassword(ctx, token, "new-password"))
	assert.ErrorIs(t, f.auth.ResetPassword(ctx, token, "new-password"), ErrInvalidToken)

	_, err = f.auth.Login(ctx, &LoginInput{Email: "ada@example.com", Password: "new-password"})
	assert.NoError(t, err)

	require.NoError(t, f.tokenRepo.CreateReset(ctx, &models.PasswordReset{
		Token:     "stale",
		UserID:    "whoever",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	assert.ErrorIs(t, f.auth.ResetPassword(ctx, "stale", "new-password"), ErrTokenExpired)
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "ada@example.com")

	require.NoError(t, f.auth.ResendVerification(ctx, id))
	token, err := f.auth.VerificationToken(ctx, "ada@example.com")
	require.NoError(t, err)

	require.NoError(t, f.auth.VerifyEmail(ctx, token))
	assert.ErrorIs(t, f.auth.VerifyEmail(ctx, token), ErrInvalidToken)
	assert.ErrorIs(t, f.auth.ResendVerification(ctx, id), ErrAlreadyVerified)
}

func TestResolveRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, &RegisterInput{Email: "ada@example.com", Username: "ada", Password: "password123"})
	require.NoError(t, err)
	user, err := f.userRepo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)

	for _, identifier := range []string{"ada@example.com", "ada", user.ID, "  ada  "} {
		got, err := f.users.Resolve(ctx, identifier)
		require.NoError(t, err, identifier)
		assert.Equal(t, user.ID, got.ID)
	}

	_, err = f.users.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrRecipientNotFound)
}

func TestBankService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name, err := f.banks.ResolveAccount("1234567890", "057")
	require.NoError(t, err)
	assert.Equal(t, name, mustResolve(t, f.banks, "1234567890", "057"))

	_, err = f.banks.ResolveAccount("123456789", "057")
	assert.ErrorIs(t, err, domain.ErrInvalidAccountNumber)
	_, err = f.banks.ResolveAccount("1234567890", "999")
	assert.ErrorIs(t, err, ErrBankNotFound)
	_, err = f.banks.ResolveAccount("0001234567", "057")
	assert.ErrorIs(t, err, ErrAccountNotResolved)

	account, err := f.banks.Add(ctx, "u1", &AddBankInput{BankCode: "057", AccountNumber: "1234567890"})
	require.NoError(t, err)
	assert.Equal(t, "Zenith Bank", account.BankName)
	assert.Equal(t, domain.LocalCurrency, account.Currency)

	_, err = f.banks.Add(ctx, "u1", &AddBankInput{BankCode: "057", AccountNumber: "1234567890"})
	assert.ErrorIs(t, err, ErrBankAccountExists)
	_, err = f.banks.Add(ctx, "u1", &AddBankInput{BankCode: "057", AccountNumber: "1234567891", Currency: "XYZ"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrency)

	_, err = f.banks.Get(ctx, "u2", account.ID)
	assert.ErrorIs(t, err, ErrBankAccountNotFound, "accounts are private to their owner")
	assert.ErrorIs(t, f.banks.Delete(ctx, "u2", account.ID), ErrBankAccountNotFound)
	require.NoError(t, f.banks.Delete(ctx, "u1", account.ID))

	assert.Equal(t, "******7890", maskAccount("1234567890"))
}

func mustResolve(t *testing.T, b *BankService, number, code string) string {
	t.Helper()
	name, err := b.ResolveAccount(number, code)
	require.NoError(t, err)
	return name
}

func TestTopUpSettlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "ada@example.com")

	stripe, err := f.wallet.TopUp(ctx, id, &TopUpInput{Amount: 5000, Currency: "usd", Provider: ProviderStripe})
	require.NoError(t, err)
	assert.Contains(t, stripe.ClientSecret, stripe.PaymentID)

	paypal, err := f.wallet.TopUp(ctx, id, &TopUpInput{Amount: 700, Currency: "USD", Provider: ProviderPayPal})
	require.NoError(t, err)
	assert.Len(t, paypal.PaymentID, 17)

	_, err = f.wallet.TopUp(ctx, id, &TopUpInput{Amount: 700, Currency: "USD", Provider: "venmo"})
	assert.ErrorIs(t, err, ErrUnknownPaymentProvider)
	_, err = f.wallet.TopUp(ctx, id, &TopUpInput{Amount: 0, Currency: "USD", Provider: ProviderStripe})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	n, err := f.wallet.SettlePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(5000), f.balance(t, id, "USD"))

	_, err = f.wallet.CapturePayPal(ctx, "someone-else", paypal.PaymentID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	tx, err := f.wallet.CapturePayPal(ctx, id, paypal.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, tx.Status)
	require.NotNil(t, tx.WalletID)
	assert.Equal(t, int64(5700), f.balance(t, id, "USD"))

	_, err = f.wallet.CapturePayPal(ctx, id, paypal.PaymentID)
	assert.ErrorIs(t, err, ErrAlreadyCaptured)
}

func TestTransferInternal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.register(t, "ada@example.com")
	bo := f.register(t, "bo@example.com")
	require.NoError(t, f.walletRepo.Apply(ctx, repositories.Entry{UserID: ada, Currency: "USD", Delta: 1000}))

	tx, err := f.wallet.TransferInternal(ctx, ada, &TransferInput{Amount: 400, Currency: "USD", RecipientID: bo})
	require.NoError(t, err)
	assert.Equal(t, int64(-400), tx.Amount)
	assert.Equal(t, int64(600), f.balance(t, ada, "USD"))
	assert.Equal(t, int64(400), f.balance(t, bo, "USD"))

	page, err := f.users.Transactions(ctx, bo, pagination.New(1, 10))
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, int64(400), page.Transactions[0].Amount)
	assert.Equal(t, ada, page.Transactions[0].Metadata[models.MetaSenderID])

	_, err = f.wallet.TransferInternal(ctx, ada, &TransferInput{Amount: 1, Currency: "USD", RecipientID: ada})
	assert.ErrorIs(t, err, ErrSelfTransfer)
	_, err = f.wallet.TransferInternal(ctx, ada, &TransferInput{Amount: 1, Currency: "USD", RecipientID: "ghost"})
	assert.ErrorIs(t, err, ErrRecipientNotFound)
	_, err = f.wallet.TransferInternal(ctx, ada, &TransferInput{Amount: 601, Currency: "USD", RecipientID: bo})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, int64(600), f.balance(t, ada, "USD"), "failed transfers leave balances alone")
}

func TestWithdrawRequiresVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "ada@example.com")
	require.NoError(t, f.walletRepo.Apply(ctx, repositories.Entry{UserID: id, Currency: "NGN", Delta: 100000}))

	account, err := f.banks.Add(ctx, id, &AddBankInput{BankCode: "058", AccountNumber: "0123456789"})
	require.NoError(t, err)

	_, err = f.wallet.Withdraw(ctx, id, account.ID, &WithdrawInput{Amount: 5000, Currency: "NGN"})
	assert.ErrorIs(t, err, domain.ErrEmailNotVerified)

	token, err := f.auth.VerificationToken(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.auth.VerifyEmail(ctx, token))

	tx, err := f.wallet.Withdraw(ctx, id, account.ID, &WithdrawInput{Amount: 5000, Currency: "NGN"})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentWithdrawal, tx.Intent)
	assert.Equal(t, int64(95000), f.balance(t, id, "NGN"))

	_, err = f.wallet.Withdraw(ctx, id, "missing", &WithdrawInput{Amount: 5000, Currency: "NGN"})
	assert.ErrorIs(t, err, ErrBankAccountNotFound)
}

func TestConvert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "ada@example.com")
	require.NoError(t, f.walletRepo.Apply(ctx, repositories.Entry{UserID: id, Currency: "USD", Delta: 2000}))

	res, err := f.wallet.Convert(ctx, id, &ConvertInput{Amount: 1000, From: "USD", To: "eur"})
	require.NoError(t, err)
	assert.Equal(t, int64(920), res.ConvertedAmount)
	assert.Equal(t, 0.92, res.Rate)
	assert.Equal(t, int64(1000), f.balance(t, id, "USD"))
	assert.Equal(t, int64(920), f.balance(t, id, "EUR"), "the target wallet is opened on demand")

	_, err = f.wallet.Convert(ctx, id, &ConvertInput{Amount: 1, From: "USD", To: "USD"})
	assert.ErrorIs(t, err, domain.ErrSameCurrency)
	_, err = f.wallet.Convert(ctx, id, &ConvertInput{Amount: 1, From: "USD", To: "XYZ"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedCurrency)
	_, err = f.wallet.Convert(ctx, id, &ConvertInput{Amount: 1, From: "NGN", To: "USD"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount, "conversions that round to nothing are refused")

	rate, err := f.wallet.Rate("gbp", "usd")
	require.NoError(t, err)
	assert.Equal(t, "GBP", rate.From)
	assert.InDelta(t, 1.265823, rate.Rate, 1e-6)
}

func TestCronServiceSchedules(t *testing.T) {
	f := newFixture(t)

	_, err := NewCronService("not a schedule", f.wallet, f.auth)
	assert.Error(t, err)

	cron, err := NewCronService("@every 1h", f.wallet, f.auth)
	require.NoError(t, err)
	cron.Start()
	cron.Settle()
	cron.Purge()
	cron.Stop()
}
