package services

import (
	"context"
	"errors"
	"hash/fnv"
	"log"
	"regexp"
	"strings"
	"time"

	"payego/internal/adapters/persistence/repositories"
	"payego/internal/config"
	"payego/internal/core/domain"

	"github.com/google/uuid"
)

// Bank errors
var (
	ErrBankNotFound        = errors.New("bank not found")
	ErrAccountNotResolved  = errors.New("account could not be resolved")
	ErrBankAccountNotFound = errors.New("bank account not found")
	ErrBankAccountExists   = errors.New("bank account already added")
)

// Directory is the sandbox's list of banks, ordered by name.
var Directory = []domain.Bank{
	{Code: "044", Name: "Access Bank"},
	{Code: "023", Name: "Citibank Nigeria"},
	{Code: "050", Name: "Ecobank Nigeria"},
	{Code: "011", Name: "First Bank of Nigeria"},
	{Code: "058", Name: "Guaranty Trust Bank"},
	{Code: "232", Name: "Sterling Bank"},
	{Code: "033", Name: "United Bank For Africa"},
	{Code: "057", Name: "Zenith Bank"},
}

// unresolvablePrefix marks account numbers the directory never resolves,
// so callers can exercise the failure path.
const unresolvablePrefix = "000"

var (
	accountNumberPattern = regexp.MustCompile(`^[0-9]{10}$`)

	firstNames = []string{"Adaeze", "Chinedu", "Funmilayo", "Ibrahim", "Kelechi", "Ngozi", "Olumide", "Temitope"}
	lastNames  = []string{"Adeyemi", "Bello", "Eze", "Nwosu", "Okafor", "Okonkwo", "Olawale", "Usman"}
)

// BankService manages the bank directory and saved bank accounts
type BankService struct {
	bankAccountRepo repositories.BankAccountRepository
	cfg             *config.Config
}

// NewBankService creates a new bank service
func NewBankService(bankAccountRepo repositories.BankAccountRepository, cfg *config.Config) *BankService {
	return &BankService{
		bankAccountRepo: bankAccountRepo,
		cfg:             cfg,
	}
}

// AddBankInput represents a bank account to save
type AddBankInput struct {
	BankCode      string
	BankName      string
	AccountNumber string
	Currency      string
}

// Banks returns the directory
func (s *BankService) Banks() []domain.Bank {
	return append([]domain.Bank(nil), Directory...)
}

// Bank looks a bank up by code
func (s *BankService) Bank(code string) (domain.Bank, error) {
	for _, b := range Directory {
		if b.Code == code {
			return b, nil
		}
	}
	return domain.Bank{}, ErrBankNotFound
}

// ResolveAccount returns the holder name of an account. Names are derived
// from the bank and account number, so a lookup always gives the same answer.
func (s *BankService) ResolveAccount(accountNumber, bankCode string) (string, error) {
	if !accountNumberPattern.MatchString(accountNumber) {
		return "", domain.ErrInvalidAccountNumber
	}
	if _, err := s.Bank(bankCode); err != nil {
		return "", err
	}
	if strings.HasPrefix(accountNumber, unresolvablePrefix) {
		return "", ErrAccountNotResolved
	}

	h := fnv.New32a()
	h.Write([]byte(bankCode + ":" + accountNumber))
	sum := h.Sum32()
	return strings.ToUpper(firstNames[sum%uint32(len(firstNames))] + " " + lastNames[(sum/7)%uint32(len(lastNames))]), nil
}

// Add resolves and saves a bank account for the user
func (s *BankService) Add(ctx context.Context, userID string, input *AddBankInput) (*domain.BankAccount, error) {
	bank, err := s.Bank(input.BankCode)
	if err != nil {
		return nil, err
	}
	name, err := s.ResolveAccount(input.AccountNumber, bank.Code)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = domain.LocalCurrency
	}
	if !s.cfg.Limits.Supports(currency) {
		return nil, domain.ErrUnsupportedCurrency
	}

	exists, err := s.bankAccountRepo.ExistsByUserAccount(ctx, userID, bank.Name, input.AccountNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrBankAccountExists
	}

	account := &domain.BankAccount{
		ID:                uuid.NewString(),
		UserID:            userID,
		BankName:          bank.Name,
		AccountNumber:     input.AccountNumber,
		AccountHolderName: name,
		Currency:          currency,
		CreatedAt:         time.Now(),
	}
	if err := s.bankAccountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	log.Printf("✅ Bank account added for user %s: %s %s", userID, bank.Name, maskAccount(account.AccountNumber))
	return account, nil
}

// Get returns one of the user's bank accounts
func (s *BankService) Get(ctx context.Context, userID, id string) (*domain.BankAccount, error) {
	account, err := s.bankAccountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrBankAccountNotFound
		}
		return nil, err
	}
	if account.UserID != userID {
		return nil, ErrBankAccountNotFound
	}
	return account, nil
}

// Delete removes one of the user's bank accounts
func (s *BankService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.bankAccountRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("✅ Bank account deleted for user %s: %s", userID, id)
	return nil
}

func maskAccount(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
