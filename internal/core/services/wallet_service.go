package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"payego/internal/adapters/persistence/models"
	"payego/internal/adapters/persistence/repositories"
	"payego/internal/config"
	"payego/internal/core/domain"

	"github.com/google/uuid"
)

// Wallet errors
var (
	ErrUnknownPaymentProvider = errors.New("unsupported payment provider")
	ErrSelfTransfer           = errors.New("cannot transfer to yourself")
	ErrOrderNotFound          = errors.New("order not found")
	ErrAlreadyCaptured        = errors.New("order already captured")
)

// Top-up providers
const (
	ProviderStripe = "stripe"
	ProviderPayPal = "paypal"
)

const paypalApproveURL = "https://www.sandbox.paypal.com/checkoutnow?token="

// WalletService moves money between wallets, banks and payment providers
type WalletService struct {
	userRepo        repositories.UserRepository
	walletRepo      repositories.WalletRepository
	transactionRepo repositories.TransactionRepository
	banks           *BankService
	rates           *RateTable
	cfg             *config.Config

	// settleMu serialises Pending -> Completed transitions
	settleMu sync.Mutex
}

// NewWalletService creates a new wallet service
func NewWalletService(
	userRepo repositories.UserRepository,
	walletRepo repositories.WalletRepository,
	transactionRepo repositories.TransactionRepository,
	banks *BankService,
	rates *RateTable,
	cfg *config.Config,
) *WalletService {
	return &WalletService{
		userRepo:        userRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		banks:           banks,
		rates:           rates,
		cfg:             cfg,
	}
}

// TopUpInput represents a top-up request in minor units
type TopUpInput struct {
	Amount   int64
	Currency string
	Provider string
}

// TopUpResult carries what the client needs to finish the payment
type TopUpResult struct {
	TransactionID string
	ClientSecret  string
	PaymentID     string
	ApprovalURL   string
}

// TransferInput represents an internal transfer in minor units
type TransferInput struct {
	Amount      int64
	Currency    string
	RecipientID string
	Description string
}

// ExternalTransferInput represents a bank transfer in minor units
type ExternalTransferInput struct {
	Amount        int64
	Currency      string
	BankCode      string
	AccountNumber string
	AccountName   string
	Description   string
}

// WithdrawInput represents a withdrawal in minor units
type WithdrawInput struct {
	Amount   int64
	Currency string
}

// ConvertInput represents a conversion in minor units of From
type ConvertInput struct {
	Amount int64
	From   string
	To     string
}

// ConvertResult reports the credited amount
type ConvertResult struct {
	Transaction     *domain.Transaction
	ConvertedAmount int64
	Rate            float64
}

// TopUp opens a pending top-up. Stripe payments settle on the cron schedule;
// PayPal payments settle when the order is captured.
func (s *WalletService) TopUp(ctx context.Context, userID string, input *TopUpInput) (*TopUpResult, error) {
	currency, err := s.validate(input.Amount, input.Currency)
	if err != nil {
		return nil, err
	}

	result := &TopUpResult{}
	meta := map[string]interface{}{models.MetaProvider: input.Provider}
	switch input.Provider {
	case ProviderStripe:
		result.PaymentID = "pi_" + compactID()
		result.ClientSecret = result.PaymentID + "_secret_" + compactID()[:12]
	case ProviderPayPal:
		result.PaymentID = strings.ToUpper(compactID()[:17])
		result.ApprovalURL = paypalApproveURL + result.PaymentID
	default:
		return nil, ErrUnknownPaymentProvider
	}
	meta[models.MetaPaymentID] = result.PaymentID

	tx, err := s.record(ctx, userID, domain.IntentTopUp, input.Amount, currency, domain.StatusPending, meta)
	if err != nil {
		return nil, err
	}
	result.TransactionID = tx.ID

	log.Printf("✅ Top-up initiated: %s for user %s via %s", domain.FormatMinor(input.Amount, currency), userID, input.Provider)
	return result, nil
}

// SettlePending completes pending Stripe top-ups
func (s *WalletService) SettlePending(ctx context.Context) (int, error) {
	s.settleMu.Lock()
	defer s.settleMu.Unlock()

	pending, err := s.transactionRepo.ListByStatus(ctx, domain.StatusPending)
	if err != nil {
		return 0, err
	}

	settled := 0
	for i := range pending {
		tx := &pending[i]
		if tx.Intent != domain.IntentTopUp || tx.Metadata[models.MetaProvider] != ProviderStripe {
			continue
		}
		if err := s.complete(ctx, tx); err != nil {
			log.Printf("❌ Failed to settle top-up %s: %v", tx.ID, err)
			continue
		}
		settled++
	}
	return settled, nil
}

// CapturePayPal completes the pending PayPal top-up for orderID
func (s *WalletService) CapturePayPal(ctx context.Context, userID, orderID string) (*domain.Transaction, error) {
	s.settleMu.Lock()
	defer s.settleMu.Unlock()

	tx, err := s.findOrder(ctx, userID, orderID, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		done, err := s.findOrder(ctx, userID, orderID, domain.StatusCompleted)
		if err != nil {
			return nil, err
		}
		if done != nil {
			return nil, ErrAlreadyCaptured
		}
		return nil, ErrOrderNotFound
	}

	if err := s.complete(ctx, tx); err != nil {
		return nil, err
	}

	log.Printf("✅ PayPal order captured: %s", orderID)
	return tx, nil
}

// TransferInternal moves money to another user's wallet in the same currency
func (s *WalletService) TransferInternal(ctx context.Context, userID string, input *TransferInput) (*domain.Transaction, error) {
	currency, err := s.validate(input.Amount, input.Currency)
	if err != nil {
		return nil, err
	}
	if input.RecipientID == userID {
		return nil, ErrSelfTransfer
	}

	recipient, err := s.userRepo.GetByID(ctx, input.RecipientID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	sender, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if err := s.walletRepo.Apply(ctx,
		repositories.Entry{UserID: userID, Currency: currency, Delta: -input.Amount},
		repositories.Entry{UserID: recipient.ID, Currency: currency, Delta: input.Amount},
	); err != nil {
		return nil, err
	}

	out, err := s.record(ctx, userID, domain.IntentInternalTransfer, -input.Amount, currency, domain.StatusCompleted, map[string]interface{}{
		models.MetaRecipientID: recipient.ID,
		models.MetaDescription: input.Description,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.record(ctx, recipient.ID, domain.IntentInternalTransfer, input.Amount, currency, domain.StatusCompleted, map[string]interface{}{
		models.MetaSenderID:    sender.ID,
		models.MetaDescription: input.Description,
	}); err != nil {
		return nil, err
	}

	log.Printf("✅ Internal transfer %s: %s -> %s", domain.FormatMinor(input.Amount, currency), sender.Email, recipient.Email)
	return out, nil
}

// TransferExternal pays out to a bank account that need not be saved
func (s *WalletService) TransferExternal(ctx context.Context, userID string, input *ExternalTransferInput) (*domain.Transaction, error) {
	currency, err := s.validate(input.Amount, input.Currency)
	if err != nil {
		return nil, err
	}
	bank, err := s.banks.Bank(input.BankCode)
	if err != nil {
		return nil, err
	}
	name, err := s.banks.ResolveAccount(input.AccountNumber, bank.Code)
	if err != nil {
		return nil, err
	}

	if err := s.walletRepo.Apply(ctx, repositories.Entry{UserID: userID, Currency: currency, Delta: -input.Amount}); err != nil {
		return nil, err
	}

	tx, err := s.record(ctx, userID, domain.IntentExternalTransfer, -input.Amount, currency, domain.StatusCompleted, map[string]interface{}{
		models.MetaBankCode:      bank.Code,
		models.MetaAccountNumber: maskAccount(input.AccountNumber),
		models.MetaAccountName:   name,
		models.MetaDescription:   input.Description,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ External transfer %s to %s", domain.FormatMinor(input.Amount, currency), bank.Name)
	return tx, nil
}

// Withdraw pays out to one of the user's saved bank accounts. The user's
// email must be verified.
func (s *WalletService) Withdraw(ctx context.Context, userID, bankAccountID string, input *WithdrawInput) (*domain.Transaction, error) {
	currency, err := s.validate(input.Amount, input.Currency)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.EmailVerifiedAt == nil {
		return nil, domain.ErrEmailNotVerified
	}

	account, err := s.banks.Get(ctx, userID, bankAccountID)
	if err != nil {
		return nil, err
	}

	if err := s.walletRepo.Apply(ctx, repositories.Entry{UserID: userID, Currency: currency, Delta: -input.Amount}); err != nil {
		return nil, err
	}

	tx, err := s.record(ctx, userID, domain.IntentWithdrawal, -input.Amount, currency, domain.StatusCompleted, map[string]interface{}{
		models.MetaBankAccountID: account.ID,
		models.MetaAccountNumber: maskAccount(account.AccountNumber),
		models.MetaAccountName:   account.AccountHolderName,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Withdrawal %s to %s", domain.FormatMinor(input.Amount, currency), account.BankName)
	return tx, nil
}

// Convert exchanges between two of the user's wallets at the table rate
func (s *WalletService) Convert(ctx context.Context, userID string, input *ConvertInput) (*ConvertResult, error) {
	from, err := s.validate(input.Amount, input.From)
	if err != nil {
		return nil, err
	}
	to := strings.ToUpper(strings.TrimSpace(input.To))
	if !s.cfg.Limits.Supports(to) {
		return nil, domain.ErrUnsupportedCurrency
	}
	if from == to {
		return nil, domain.ErrSameCurrency
	}

	converted, rate, err := s.rates.Convert(input.Amount, from, to)
	if err != nil {
		return nil, err
	}
	if converted <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	if err := s.walletRepo.Apply(ctx,
		repositories.Entry{UserID: userID, Currency: from, Delta: -input.Amount},
		repositories.Entry{UserID: userID, Currency: to, Delta: converted},
	); err != nil {
		return nil, err
	}

	rateValue := rate.InexactFloat64()
	tx, err := s.record(ctx, userID, domain.IntentCurrencyConversion, -input.Amount, from, domain.StatusCompleted, map[string]interface{}{
		models.MetaToCurrency:      to,
		models.MetaConvertedAmount: converted,
		models.MetaExchangeRate:    rateValue,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Converted %s to %s", domain.FormatMinor(input.Amount, from), domain.FormatMinor(converted, to))
	return &ConvertResult{Transaction: tx, ConvertedAmount: converted, Rate: rateValue}, nil
}

// Rate quotes the exchange rate between two supported currencies
func (s *WalletService) Rate(from, to string) (*domain.ExchangeRate, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if !s.cfg.Limits.Supports(from) || !s.cfg.Limits.Supports(to) {
		return nil, domain.ErrUnsupportedCurrency
	}

	rate, err := s.rates.Rate(from, to)
	if err != nil {
		return nil, err
	}
	return &domain.ExchangeRate{From: from, To: to, Rate: rate.InexactFloat64()}, nil
}

// validate checks a minor-unit amount and returns the normalised currency
func (s *WalletService) validate(amount int64, currency string) (string, error) {
	if amount <= 0 {
		return "", domain.ErrInvalidAmount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !s.cfg.Limits.Supports(currency) {
		return "", domain.ErrUnsupportedCurrency
	}
	return currency, nil
}

// complete credits a pending top-up and marks it completed
func (s *WalletService) complete(ctx context.Context, tx *domain.Transaction) error {
	if err := s.walletRepo.Apply(ctx, repositories.Entry{UserID: tx.UserID, Currency: tx.Currency, Delta: tx.Amount}); err != nil {
		return err
	}
	if tx.WalletID == nil {
		if w, err := s.walletRepo.GetByUserCurrency(ctx, tx.UserID, tx.Currency); err == nil {
			tx.WalletID = &w.ID
		}
	}
	tx.Status = domain.StatusCompleted
	tx.UpdatedAt = time.Now()
	return s.transactionRepo.Update(ctx, tx)
}

func (s *WalletService) findOrder(ctx context.Context, userID, orderID string, status domain.TransactionStatus) (*domain.Transaction, error) {
	txs, err := s.transactionRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		tx := &txs[i]
		if tx.UserID == userID && tx.Intent == domain.IntentTopUp &&
			tx.Metadata[models.MetaProvider] == ProviderPayPal && tx.Metadata[models.MetaPaymentID] == orderID {
			return tx, nil
		}
	}
	return nil, nil
}

// record appends a ledger entry for the user's wallet in currency
func (s *WalletService) record(ctx context.Context, userID string, intent domain.TransactionIntent, amount int64, currency string, status domain.TransactionStatus, meta map[string]interface{}) (*domain.Transaction, error) {
	now := time.Now()
	tx := &domain.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Intent:    intent,
		Amount:    amount,
		Currency:  currency,
		Status:    status,
		Reference: "PGO-" + strings.ToUpper(compactID()[:12]),
		Metadata:  meta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if w, err := s.walletRepo.GetByUserCurrency(ctx, userID, currency); err == nil {
		tx.WalletID = &w.ID
	}

	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func compactID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
