package forms

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"payego/internal/adapters/api"
	"payego/internal/core/domain"
	"payego/internal/core/query"
)

// API is the part of the API client the transaction forms use.
type API interface {
	ResolveUser(ctx context.Context, identifier string) (*domain.ResolvedUser, error)
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error)
	Banks(ctx context.Context) ([]domain.Bank, error)
	UserBanks(ctx context.Context) ([]domain.BankAccount, error)
	ExchangeRate(ctx context.Context, from, to string) (*domain.ExchangeRate, error)
	TopUp(ctx context.Context, req api.TopUpRequest) (*api.TopUpResponse, error)
	TransferInternal(ctx context.Context, req api.InternalTransferRequest) (*api.TransactionRefResponse, error)
	TransferExternal(ctx context.Context, req api.ExternalTransferRequest) (*api.TransactionRefResponse, error)
	Withdraw(ctx context.Context, req api.WithdrawRequest) (*api.TransactionRefResponse, error)
	Convert(ctx context.Context, req api.ConvertRequest) (*api.ConvertResponse, error)
	AddBank(ctx context.Context, req api.AddBankRequest) (*domain.BankAccount, error)
	DeleteBank(ctx context.Context, id string) error
	CapturePayPal(ctx context.Context, req api.CapturePayPalRequest) (*api.CaptureResponse, error)
}

// Data is what the forms know about the signed-in user without a request:
// the wallets and identity the views are currently showing.
type Data interface {
	Wallets() []domain.Wallet
	User() *domain.User
}

// Deps are shared by every form.
type Deps struct {
	API    API
	Data   Data
	Cache  Invalidator
	Nav    Navigator
	Limits domain.Limits
	NewKey func() string
}

// moneyKeys are invalidated after any money movement.
var moneyKeys = []string{query.KeyWallets, query.KeyTransactions}

func transactionView(out Outcome) string {
	if out.TransactionID == "" {
		return "/transactions"
	}
	return "/transactions/" + out.TransactionID
}

func (d Deps) wallets() []domain.Wallet {
	if d.Data == nil {
		return nil
	}
	return d.Data.Wallets()
}

func (d Deps) user() *domain.User {
	if d.Data == nil {
		return nil
	}
	return d.Data.User()
}

func (d Deps) newKey() func() string {
	if d.NewKey != nil {
		return d.NewKey
	}
	return api.NewIdempotencyKey
}

// ---------- top-up ----------

type TopUpInput struct {
	Amount   string
	Currency string
	Provider api.Provider
}

type TopUpPreview struct {
	Amount   decimal.Decimal
	Minor    int64
	Currency string
	Provider api.Provider
}

// NewTopUp builds the top-up form. Its preview is computed locally.
func NewTopUp(d Deps) *Flow[TopUpInput, TopUpPreview] {
	validate := func(in TopUpInput) FieldErrors {
		fe := FieldErrors{}
		amountIn(fe, in.Amount, d.Limits.Min, d.Limits.Max)
		currencyIn(fe, FieldCurrency, normalizeCurrency(in.Currency), d.Limits)
		if !in.Provider.Valid() {
			fe.Add(FieldProvider, "Please choose Stripe or PayPal")
		}
		return fe
	}

	return NewFlow(Steps[TopUpInput, TopUpPreview]{
		Validate: validate,
		Preview: func(ctx context.Context, in TopUpInput) (TopUpPreview, error) {
			amount, _ := domain.ParseAmount(in.Amount)
			return TopUpPreview{
				Amount:   amount,
				Minor:    domain.MinorUnits(amount),
				Currency: normalizeCurrency(in.Currency),
				Provider: in.Provider,
			}, nil
		},
		Submit: func(ctx context.Context, in TopUpInput, p TopUpPreview, key string) (Outcome, error) {
			resp, err := d.API.TopUp(ctx, api.TopUpRequest{
				Amount:         p.Amount,
				Currency:       p.Currency,
				Provider:       p.Provider,
				IdempotencyKey: key,
			})
			if err != nil {
				return Outcome{}, err
			}
			detail := map[string]string{}
			if resp.ClientSecret != "" {
				detail["client_secret"] = resp.ClientSecret
			}
			if resp.PaymentID != "" {
				detail["payment_id"] = resp.PaymentID
			}
			if resp.ApprovalURL != "" {
				detail["approval_url"] = resp.ApprovalURL
			}
			return Outcome{TransactionID: resp.TransactionID, Detail: detail}, nil
		},
		Invalidate:  moneyKeys,
		Destination: transactionView,
	}, d.Cache, d.Nav, d.newKey())
}

// ---------- internal transfer ----------

type InternalTransferInput struct {
	Recipient   string
	Amount      string
	Currency    string
	Description string
}

type InternalTransferPreview struct {
	Recipient domain.ResolvedUser
	Amount    decimal.Decimal
	Currency  string
}

// NewInternalTransfer builds the wallet-to-wallet transfer form. The preview
// resolves the recipient by e-mail or username.
func NewInternalTransfer(d Deps) *Flow[InternalTransferInput, InternalTransferPreview] {
	validate := func(in InternalTransferInput) FieldErrors {
		fe := FieldErrors{}
		if strings.TrimSpace(in.Recipient) == "" {
			fe.Add(FieldRecipient, "Recipient email or username is required")
		}
		cur := normalizeCurrency(in.Currency)
		amount := amountIn(fe, in.Amount, d.Limits.Min, d.Limits.Max)
		currencyIn(fe, FieldCurrency, cur, d.Limits)
		if len(fe) == 0 {
			checkBalance(fe, d.wallets(), cur, amount)
		}
		return fe
	}

	return NewFlow(Steps[InternalTransferInput, InternalTransferPreview]{
		Validate: validate,
		Preview: func(ctx context.Context, in InternalTransferInput) (InternalTransferPreview, error) {
			u, err := d.API.ResolveUser(ctx, strings.TrimSpace(in.Recipient))
			if err != nil {
				return InternalTransferPreview{}, err
			}
			if me := d.user(); me != nil && me.ID == u.ID {
				return InternalTransferPreview{}, FieldErrors{FieldRecipient: "You cannot transfer to yourself"}
			}
			amount, _ := domain.ParseAmount(in.Amount)
			return InternalTransferPreview{Recipient: *u, Amount: amount, Currency: normalizeCurrency(in.Currency)}, nil
		},
		Submit: func(ctx context.Context, in InternalTransferInput, p InternalTransferPreview, key string) (Outcome, error) {
			resp, err := d.API.TransferInternal(ctx, api.InternalTransferRequest{
				Amount:         p.Amount,
				Currency:       p.Currency,
				RecipientID:    p.Recipient.ID,
				Description:    in.Description,
				IdempotencyKey: key,
			})
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{TransactionID: resp.TransactionID, Message: resp.Message}, nil
		},
		Invalidate:  moneyKeys,
		Destination: transactionView,
	}, d.Cache, d.Nav, d.newKey())
}

// ---------- external transfer ----------

type ExternalTransferInput struct {
	BankCode      string
	AccountNumber string
	Amount        string
	Currency      string
	Description   string
}

type ExternalTransferPreview struct {
	BankCode      string
	AccountNumber string
	AccountName   string
	Amount        decimal.Decimal
	Currency      string
}

// NewExternalTransfer builds the bank transfer form. The preview resolves the
// account holder's name.
func NewExternalTransfer(d Deps) *Flow[ExternalTransferInput, ExternalTransferPreview] {
	validate := func(in ExternalTransferInput) FieldErrors {
		fe := FieldErrors{}
		if in.BankCode == "" {
			fe.Add(FieldBankCode, "Please select a bank")
		}
		if !ValidAccountNumber(in.AccountNumber) {
			fe.Add(FieldAccountNumber, "Account number must be exactly 10 digits")
		}
		cur := normalizeCurrency(in.Currency)
		amount := amountIn(fe, in.Amount, d.Limits.Min, d.Limits.Max)
		currencyIn(fe, FieldCurrency, cur, d.Limits)
		if len(fe) == 0 {
			checkBalance(fe, d.wallets(), cur, amount)
		}
		return fe
	}

	return NewFlow(Steps[ExternalTransferInput, ExternalTransferPreview]{
		Validate: validate,
		Preview: func(ctx context.Context, in ExternalTransferInput) (ExternalTransferPreview, error) {
			name, err := d.API.ResolveAccount(ctx, in.AccountNumber, in.BankCode)
			if err != nil {
				return ExternalTransferPreview{}, err
			}
			amount, _ := domain.ParseAmount(in.Amount)
			return ExternalTransferPreview{
				BankCode:      in.BankCode,
				AccountNumber: in.AccountNumber,
				AccountName:   name,
				Amount:        amount,
				Currency:      normalizeCurrency(in.Currency),
			}, nil
		},
		Submit: func(ctx context.Context, in ExternalTransferInput, p ExternalTransferPreview, key string) (Outcome, error) {
			resp, err := d.API.TransferExternal(ctx, api.ExternalTransferRequest{
				Amount:         p.Amount,
				Currency:       p.Currency,
				BankCode:       p.BankCode,
				AccountNumber:  p.AccountNumber,
				AccountName:    p.AccountName,
				Description:    in.Description,
				IdempotencyKey: key,
			})
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{TransactionID: resp.TransactionID, Message: resp.Message}, nil
		},
		Invalidate:  moneyKeys,
		Destination: transactionView,
	}, d.Cache, d.Nav, d.newKey())
}

// ---------- withdrawal ----------

type WithdrawInput struct {
	BankAccountID string
	Amount        string
	Currency      string
}

type WithdrawPreview struct {
	BankAccount domain.BankAccount
	Amount      decimal.Decimal
	Currency    string
	// Rate and Received are set when the bank account is in another currency.
	Rate     *domain.ExchangeRate
	Received int64
}

// MsgVerifyEmail is shown while the withdrawal form is disabled.
const MsgVerifyEmail = "Please verify your email address before making withdrawals"

// WithdrawForm is the withdrawal flow plus its e-mail verification gate.
type WithdrawForm struct {
	*Flow[WithdrawInput, WithdrawPreview]
	deps Deps
}

// CanSubmit is false whenever the user has no verified e-mail, whatever the
// state of the fields.
func (w *WithdrawForm) CanSubmit() bool {
	return w.deps.user().IsEmailVerified()
}

// NewWithdraw builds the withdrawal form. The ceiling depends on the currency.
func NewWithdraw(d Deps) *WithdrawForm {
	validate := func(in WithdrawInput) FieldErrors {
		fe := FieldErrors{}
		if !d.user().IsEmailVerified() {
			fe.Add(FieldForm, MsgVerifyEmail)
			return fe
		}
		if in.BankAccountID == "" {
			fe.Add(FieldBankAccount, "Please select a bank account")
		}
		cur := normalizeCurrency(in.Currency)
		currencyIn(fe, FieldCurrency, cur, d.Limits)
		amount := amountIn(fe, in.Amount, d.Limits.Min, d.Limits.WithdrawCeiling(cur))
		if len(fe) == 0 {
			checkBalance(fe, d.wallets(), cur, amount)
		}
		return fe
	}

	flow := NewFlow(Steps[WithdrawInput, WithdrawPreview]{
		Validate: validate,
		Preview: func(ctx context.Context, in WithdrawInput) (WithdrawPreview, error) {
			accounts, err := d.API.UserBanks(ctx)
			if err != nil {
				return WithdrawPreview{}, err
			}
			var account *domain.BankAccount
			for i := range accounts {
				if accounts[i].ID == in.BankAccountID {
					account = &accounts[i]
					break
				}
			}
			if account == nil {
				return WithdrawPreview{}, FieldErrors{FieldBankAccount: "Bank account not found"}
			}

			amount, _ := domain.ParseAmount(in.Amount)
			p := WithdrawPreview{BankAccount: *account, Amount: amount, Currency: normalizeCurrency(in.Currency)}
			if account.Currency != "" && account.Currency != p.Currency {
				rate, err := d.API.ExchangeRate(ctx, p.Currency, account.Currency)
				if err != nil {
					return WithdrawPreview{}, err
				}
				p.Rate = rate
				p.Received = domain.MinorUnits(amount.Mul(decimal.NewFromFloat(rate.Rate)))
			} else {
				p.Received = domain.MinorUnits(amount)
			}
			return p, nil
		},
		Submit: func(ctx context.Context, in WithdrawInput, p WithdrawPreview, key string) (Outcome, error) {
			if !d.user().IsEmailVerified() {
				return Outcome{}, FieldErrors{FieldForm: MsgVerifyEmail}
			}
			resp, err := d.API.Withdraw(ctx, api.WithdrawRequest{
				BankAccountID:  p.BankAccount.ID,
				Amount:         p.Amount,
				Currency:       p.Currency,
				IdempotencyKey: key,
			})
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{TransactionID: resp.TransactionID, Message: resp.Message}, nil
		},
		Invalidate:  moneyKeys,
		Destination: transactionView,
	}, d.Cache, d.Nav, d.newKey())

	return &WithdrawForm{Flow: flow, deps: d}
}

// ---------- conversion ----------

type ConvertInput struct {
	Amount       string
	FromCurrency string
	ToCurrency   string
}

type ConvertPreview struct {
	Amount       decimal.Decimal
	FromCurrency string
	ToCurrency   string
	Rate         domain.ExchangeRate
	// Converted is the estimated amount received, in minor units.
	Converted int64
}

// MsgSameCurrency is the field error on the target currency.
const MsgSameCurrency = "Target currency must be different from source currency"

// NewConvert builds the currency conversion form.
func NewConvert(d Deps) *Flow[ConvertInput, ConvertPreview] {
	validate := func(in ConvertInput) FieldErrors {
		fe := FieldErrors{}
		from, to := normalizeCurrency(in.FromCurrency), normalizeCurrency(in.ToCurrency)
		currencyIn(fe, FieldFromCurrency, from, d.Limits)
		currencyIn(fe, FieldToCurrency, to, d.Limits)
		if from != "" && from == to {
			fe.Add(FieldToCurrency, MsgSameCurrency)
		}
		amount := amountIn(fe, in.Amount, d.Limits.Min, d.Limits.Max)
		if len(fe) == 0 {
			checkBalance(fe, d.wallets(), from, amount)
		}
		return fe
	}

	return NewFlow(Steps[ConvertInput, ConvertPreview]{
		Validate: validate,
		Preview: func(ctx context.Context, in ConvertInput) (ConvertPreview, error) {
			from, to := normalizeCurrency(in.FromCurrency), normalizeCurrency(in.ToCurrency)
			if from == to {
				return ConvertPreview{}, FieldErrors{FieldToCurrency: MsgSameCurrency}
			}
			rate, err := d.API.ExchangeRate(ctx, from, to)
			if err != nil {
				return ConvertPreview{}, err
			}
			amount, _ := domain.ParseAmount(in.Amount)
			return ConvertPreview{
				Amount:       amount,
				FromCurrency: from,
				ToCurrency:   to,
				Rate:         *rate,
				Converted:    domain.MinorUnits(amount.Mul(decimal.NewFromFloat(rate.Rate))),
			}, nil
		},
		Submit: func(ctx context.Context, in ConvertInput, p ConvertPreview, key string) (Outcome, error) {
			resp, err := d.API.Convert(ctx, api.ConvertRequest{
				Amount:         p.Amount,
				FromCurrency:   p.FromCurrency,
				ToCurrency:     p.ToCurrency,
				IdempotencyKey: key,
			})
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{
				TransactionID: resp.TransactionID,
				Detail: map[string]string{
					"converted": domain.FormatMinor(resp.ConvertedAmount, p.ToCurrency),
					"rate":      fmt.Sprintf("%g", resp.ExchangeRate),
				},
			}, nil
		},
		Invalidate:  moneyKeys,
		Destination: transactionView,
	}, d.Cache, d.Nav, d.newKey())
}
