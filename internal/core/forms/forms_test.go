package forms

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payego/internal/adapters/api"
	"payego/internal/core/apierror"
	"payego/internal/core/domain"
	"payego/internal/core/query"
)

// fakeAPI records calls and returns canned results. Set the *Err fields to
// inject failures.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string
	keys  []string

	resolved    *domain.ResolvedUser
	accountName string
	banks       []domain.Bank
	userBanks   []domain.BankAccount
	rate        float64

	resolveErr  error
	submitErr   error
	submitBlock chan struct{}

	lastTransfer api.InternalTransferRequest
	lastWithdraw api.WithdrawRequest
	lastConvert  api.ConvertRequest
	lastTopUp    api.TopUpRequest
}

func (f *fakeAPI) record(name, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if key != "" {
		f.keys = append(f.keys, key)
	}
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) submit() error {
	if f.submitBlock != nil {
		<-f.submitBlock
	}
	return f.submitErr
}

func (f *fakeAPI) ResolveUser(ctx context.Context, identifier string) (*domain.ResolvedUser, error) {
	f.record("ResolveUser", "")
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.resolved, nil
}

func (f *fakeAPI) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error) {
	f.record("ResolveAccount", "")
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return f.accountName, nil
}

func (f *fakeAPI) Banks(ctx context.Context) ([]domain.Bank, error) {
	f.record("Banks", "")
	return f.banks, nil
}

func (f *fakeAPI) UserBanks(ctx context.Context) ([]domain.BankAccount, error) {
	f.record("UserBanks", "")
	return f.userBanks, nil
}

func (f *fakeAPI) ExchangeRate(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	f.record("ExchangeRate", "")
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return &domain.ExchangeRate{From: from, To: to, Rate: f.rate}, nil
}

func (f *fakeAPI) TopUp(ctx context.Context, req api.TopUpRequest) (*api.TopUpResponse, error) {
	f.record("TopUp", req.IdempotencyKey)
	f.lastTopUp = req
	if err := f.submit(); err != nil {
		return nil, err
	}
	return &api.TopUpResponse{TransactionID: "tx-topup", ApprovalURL: "https://paypal.test/approve"}, nil
}

func (f *fakeAPI) TransferInternal(ctx context.Context, req api.InternalTransferRequest) (*api.TransactionRefResponse, error) {
	f.record("TransferInternal", req.IdempotencyKey)
	f.mu.Lock()
	f.lastTransfer = req
	f.mu.Unlock()
	if err := f.submit(); err != nil {
		return nil, err
	}
	return &api.TransactionRefResponse{TransactionID: "tx-int"}, nil
}

func (f *fakeAPI) TransferExternal(ctx context.Context, req api.ExternalTransferRequest) (*api.TransactionRefResponse, error) {
	f.record("TransferExternal", req.IdempotencyKey)
	if err := f.submit(); err != nil {
		return nil, err
	}
	return &api.TransactionRefResponse{TransactionID: "tx-ext"}, nil
}

func (f *fakeAPI) Withdraw(ctx context.Context, req api.WithdrawRequest) (*api.TransactionRefResponse, error) {
	f.record("Withdraw", req.IdempotencyKey)
	f.lastWithdraw = req
	if err := f.submit(); err != nil {
		return nil, err
	}
	return &api.TransactionRefResponse{TransactionID: "tx-wd"}, nil
}

func (f *fakeAPI) Convert(ctx context.Context, req api.ConvertRequest) (*api.ConvertResponse, error) {
	f.record("Convert", req.IdempotencyKey)
	f.lastConvert = req
	if err := f.submit(); err != nil {
		return nil, err
	}
	return &api.ConvertResponse{TransactionID: "tx-conv", ConvertedAmount: 1600000, ExchangeRate: 1600}, nil
}

func (f *fakeAPI) AddBank(ctx context.Context, req api.AddBankRequest) (*domain.BankAccount, error) {
	f.record("AddBank", "")
	if err := f.submit(); err != nil {
		return nil, err
	}
	return &domain.BankAccount{ID: "ba-new", BankName: req.BankName, AccountNumber: req.AccountNumber}, nil
}

func (f *fakeAPI) DeleteBank(ctx context.Context, id string) error {
	f.record("DeleteBank", "")
	return f.submit()
}

func (f *fakeAPI) CapturePayPal(ctx context.Context, req api.CapturePayPalRequest) (*api.CaptureResponse, error) {
	f.record("CapturePayPal", "")
	if err := f.submit(); err != nil {
		return nil, err
	}
	return &api.CaptureResponse{TransactionID: "tx-pp", Status: domain.StatusCompleted}, nil
}

type fakeData struct {
	wallets []domain.Wallet
	user    *domain.User
}

func (d *fakeData) Wallets() []domain.Wallet { return d.wallets }
func (d *fakeData) User() *domain.User       { return d.user }

type fakeCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *fakeCache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, keys...)
}

type fakeNav struct {
	mu        sync.Mutex
	visited   []string
	scheduled []string
	delays    []time.Duration
}

func (n *fakeNav) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.visited = append(n.visited, path)
}

func (n *fakeNav) RedirectAfter(delay time.Duration, path string) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scheduled = append(n.scheduled, path)
	n.delays = append(n.delays, delay)
	return func() {}
}

func verifiedUser() *domain.User {
	now := time.Now()
	return &domain.User{ID: "me", Username: "ada", Email: "a@b.com", EmailVerifiedAt: &now}
}

type harness struct {
	api   *fakeAPI
	data  *fakeData
	cache *fakeCache
	nav   *fakeNav
	deps  Deps
}

func newHarness() *harness {
	h := &harness{
		api: &fakeAPI{
			resolved:    &domain.ResolvedUser{ID: "u2", Email: "bob@b.com", Username: "bob"},
			accountName: "BOB BANKS",
			banks:       []domain.Bank{{Code: "058", Name: "GTBank"}},
			userBanks: []domain.BankAccount{
				{ID: "ba-ngn", BankName: "GTBank", AccountNumber: "0123456789", Currency: "NGN"},
				{ID: "ba-usd", BankName: "Chase", AccountNumber: "9876543210", Currency: "USD"},
			},
			rate: 1600,
		},
		data: &fakeData{
			wallets: []domain.Wallet{
				{ID: "w-usd", Currency: "USD", Balance: 500},
				{ID: "w-ngn", Currency: "NGN", Balance: 500000000},
			},
			user: verifiedUser(),
		},
		cache: &fakeCache{},
		nav:   &fakeNav{},
	}
	seq := 0
	h.deps = Deps{
		API:    h.api,
		Data:   h.data,
		Cache:  h.cache,
		Nav:    h.nav,
		Limits: domain.DefaultLimits(),
		NewKey: func() string {
			seq++
			return "key-" + string(rune('0'+seq))
		},
	}
	return h
}

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	return fe
}

func TestWithdrawInsufficientBalanceIsLocal(t *testing.T) {
	h := newHarness()
	form := NewWithdraw(h.deps)
	require.NoError(t, form.Edit(WithdrawInput{BankAccountID: "ba-usd", Amount: "10", Currency: "USD"}))

	_, err := form.Preview(context.Background())

	fe := fieldErrors(t, err)
	assert.Equal(t, "Insufficient balance. Available: 5.00 USD", fe[FieldAmount])
	assert.Zero(t, h.api.callCount(), "no network call")
	assert.Equal(t, PhaseEditing, form.State().Phase)
}

func TestWithdrawMissingWallet(t *testing.T) {
	h := newHarness()
	form := NewWithdraw(h.deps)
	require.NoError(t, form.Edit(WithdrawInput{BankAccountID: "ba-usd", Amount: "10", Currency: "GBP"}))

	_, err := form.Preview(context.Background())

	assert.Equal(t, "You don't have a GBP wallet", fieldErrors(t, err)[FieldCurrency])
	assert.Zero(t, h.api.callCount())
}

func TestWithdrawEmailGate(t *testing.T) {
	h := newHarness()
	h.data.user = &domain.User{ID: "me", Email: "a@b.com"}
	form := NewWithdraw(h.deps)
	require.NoError(t, form.Edit(WithdrawInput{BankAccountID: "ba-ngn", Amount: "100", Currency: "NGN"}))

	assert.False(t, form.CanSubmit())
	_, err := form.Preview(context.Background())
	assert.Equal(t, MsgVerifyEmail, fieldErrors(t, err)[FieldForm])
	assert.Zero(t, h.api.callCount())

	_, err = form.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrNotConfirming)

	h.data.user = verifiedUser()
	assert.True(t, form.CanSubmit())
}

func TestWithdrawCeilingByCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		wantErr  bool
	}{
		{name: "local currency above general max", amount: "50000", currency: "NGN"},
		{name: "local currency above ceiling", amount: "1000001", currency: "NGN", wantErr: true},
		{name: "foreign currency above ceiling", amount: "10001", currency: "USD", wantErr: true},
		{name: "below minimum", amount: "0.5", currency: "NGN", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.data.wallets[0].Balance = 10_000_000_00
			form := NewWithdraw(h.deps)
			require.NoError(t, form.Edit(WithdrawInput{BankAccountID: "ba-ngn", Amount: tt.amount, Currency: tt.currency}))

			_, err := form.Preview(context.Background())
			if tt.wantErr {
				assert.Contains(t, fieldErrors(t, err), FieldAmount)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestWithdrawPreviewFetchesRateForForeignAccount(t *testing.T) {
	h := newHarness()
	h.data.wallets[0].Balance = 100000
	form := NewWithdraw(h.deps)
	require.NoError(t, form.Edit(WithdrawInput{BankAccountID: "ba-ngn", Amount: "10", Currency: "USD"}))

	p, err := form.Preview(context.Background())
	require.NoError(t, err)
	require.NotNil(t, p.Rate)
	assert.Equal(t, int64(1600000), p.Received)

	out, err := form.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tx-wd", out.TransactionID)
	assert.Equal(t, "ba-ngn", h.api.lastWithdraw.BankAccountID)
	assert.Equal(t, []string{query.KeyWallets, query.KeyTransactions}, h.cache.invalidated)
	assert.Equal(t, []string{"/transactions/tx-wd"}, h.nav.visited)
}

func TestConvertSameCurrencyRejected(t *testing.T) {
	h := newHarness()
	form := NewConvert(h.deps)
	require.NoError(t, form.Edit(ConvertInput{Amount: "1", FromCurrency: "USD", ToCurrency: "USD"}))

	_, err := form.Preview(context.Background())

	fe := fieldErrors(t, err)
	assert.Equal(t, MsgSameCurrency, fe[FieldToCurrency])
	assert.NotContains(t, fe, FieldFromCurrency)
	assert.Zero(t, h.api.callCount(), "never reaches preview")
}

func TestConvertFlow(t *testing.T) {
	h := newHarness()
	form := NewConvert(h.deps)
	require.NoError(t, form.Edit(ConvertInput{Amount: "2.50", FromCurrency: "usd", ToCurrency: "NGN"}))

	p, err := form.Preview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(400000), p.Converted)
	assert.Equal(t, PhaseConfirming, form.State().Phase)

	out, err := form.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tx-conv", out.TransactionID)
	assert.Equal(t, "USD", h.api.lastConvert.FromCurrency)
	assert.Equal(t, "key-1", h.api.lastConvert.IdempotencyKey)
	assert.Equal(t, PhaseSucceeded, form.State().Phase)
}

func TestPreviewFailureReturnsToEditing(t *testing.T) {
	h := newHarness()
	h.api.resolveErr = &apierror.Error{Status: http.StatusNotFound, Payload: &apierror.Payload{Message: "User not found"}}
	form := NewInternalTransfer(h.deps)
	require.NoError(t, form.Edit(InternalTransferInput{Recipient: "ghost", Amount: "1", Currency: "USD"}))

	_, err := form.Preview(context.Background())
	require.Error(t, err)

	st := form.State()
	assert.Equal(t, PhaseEditing, st.Phase)
	assert.Equal(t, "User not found", st.Error)
}

func TestSubmitFailureDiscardsPreviewAndUsesFreshKeys(t *testing.T) {
	h := newHarness()
	h.api.submitErr = &apierror.Error{RequestSent: true, Err: errors.New("connection reset")}
	form := NewInternalTransfer(h.deps)
	require.NoError(t, form.Edit(InternalTransferInput{Recipient: "bob", Amount: "1", Currency: "USD"}))
	ctx := context.Background()

	_, err := form.Preview(ctx)
	require.NoError(t, err)
	_, err = form.Confirm(ctx)
	require.Error(t, err)

	st := form.State()
	assert.Equal(t, PhaseEditing, st.Phase)
	assert.Equal(t, apierror.MsgNetwork, st.Error)
	assert.Empty(t, st.Preview.Recipient.ID, "preview discarded")
	assert.Empty(t, h.cache.invalidated)

	_, err = form.Confirm(ctx)
	assert.ErrorIs(t, err, ErrNotConfirming, "must preview again")

	h.api.submitErr = nil
	_, err = form.Preview(ctx)
	require.NoError(t, err)
	_, err = form.Confirm(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"key-1", "key-2"}, h.api.keys)
	assert.Equal(t, "u2", h.api.lastTransfer.RecipientID)
}

func TestDoubleConfirmRejected(t *testing.T) {
	h := newHarness()
	h.api.submitBlock = make(chan struct{})
	form := NewExternalTransfer(h.deps)
	require.NoError(t, form.Edit(ExternalTransferInput{BankCode: "058", AccountNumber: "0123456789", Amount: "1", Currency: "USD"}))
	ctx := context.Background()

	p, err := form.Preview(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BOB BANKS", p.AccountName)

	done := make(chan error, 1)
	go func() {
		_, err := form.Confirm(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return form.State().Phase == PhaseSubmitting }, time.Second, time.Millisecond)
	_, err = form.Confirm(ctx)
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, form.Edit(ExternalTransferInput{}), ErrBusy)

	close(h.api.submitBlock)
	require.NoError(t, <-done)
	assert.Len(t, h.api.keys, 1)
}

func TestEditDuringConfirmingDiscardsPreview(t *testing.T) {
	h := newHarness()
	form := NewExternalTransfer(h.deps)
	require.NoError(t, form.Edit(ExternalTransferInput{BankCode: "058", AccountNumber: "0123456789", Amount: "1", Currency: "USD"}))

	_, err := form.Preview(context.Background())
	require.NoError(t, err)

	require.NoError(t, form.Edit(ExternalTransferInput{BankCode: "058", AccountNumber: "0123456780", Amount: "1", Currency: "USD"}))
	st := form.State()
	assert.Equal(t, PhaseEditing, st.Phase)
	assert.Empty(t, st.Preview.AccountName)

	_, err = form.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrNotConfirming)
}

func TestExternalTransferAccountNumberFormat(t *testing.T) {
	h := newHarness()
	form := NewExternalTransfer(h.deps)
	require.NoError(t, form.Edit(ExternalTransferInput{BankCode: "058", AccountNumber: "12345", Amount: "1", Currency: "USD"}))

	_, err := form.Preview(context.Background())
	assert.Contains(t, fieldErrors(t, err), FieldAccountNumber)
	assert.Zero(t, h.api.callCount())
}

func TestTopUpHasNoPreviewCall(t *testing.T) {
	h := newHarness()
	form := NewTopUp(h.deps)
	require.NoError(t, form.Edit(TopUpInput{Amount: "19.995", Currency: "usd", Provider: api.ProviderPayPal}))

	p, err := form.Preview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2000), p.Minor)
	assert.Zero(t, h.api.callCount())

	out, err := form.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://paypal.test/approve", out.Detail["approval_url"])
	assert.Equal(t, "USD", h.api.lastTopUp.Currency)
	assert.Equal(t, []string{query.KeyWallets, query.KeyTransactions}, h.cache.invalidated)
}

func TestTopUpValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    TopUpInput
		field string
	}{
		{name: "amount too large", in: TopUpInput{Amount: "10000.01", Currency: "USD", Provider: api.ProviderStripe}, field: FieldAmount},
		{name: "amount not a number", in: TopUpInput{Amount: "ten", Currency: "USD", Provider: api.ProviderStripe}, field: FieldAmount},
		{name: "unknown provider", in: TopUpInput{Amount: "10", Currency: "USD", Provider: "venmo"}, field: FieldProvider},
		{name: "unsupported currency", in: TopUpInput{Amount: "10", Currency: "XYZ", Provider: api.ProviderStripe}, field: FieldCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewTopUp(newHarness().deps)
			require.NoError(t, form.Edit(tt.in))
			_, err := form.Preview(context.Background())
			assert.Contains(t, fieldErrors(t, err), tt.field)
		})
	}
}

func TestInternalTransferToSelfRejected(t *testing.T) {
	h := newHarness()
	h.api.resolved = &domain.ResolvedUser{ID: "me", Email: "a@b.com"}
	form := NewInternalTransfer(h.deps)
	require.NoError(t, form.Edit(InternalTransferInput{Recipient: "a@b.com", Amount: "1", Currency: "USD"}))

	_, err := form.Preview(context.Background())
	assert.Contains(t, fieldErrors(t, err), FieldRecipient)
	assert.Equal(t, PhaseEditing, form.State().Phase)
}

func TestAddAndDeleteBankInvalidateUserBanks(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	add := NewAddBank(h.deps)
	require.NoError(t, add.Edit(AddBankInput{BankCode: "058", AccountNumber: "1112223334"}))
	p, err := add.Preview(ctx)
	require.NoError(t, err)
	assert.Equal(t, "GTBank", p.Bank.Name)
	assert.Equal(t, "BOB BANKS", p.AccountName)
	assert.Equal(t, domain.LocalCurrency, p.Currency)
	_, err = add.Confirm(ctx)
	require.NoError(t, err)

	del := NewDeleteBank(h.deps)
	require.NoError(t, del.Edit("ba-usd"))
	_, err = del.Preview(ctx)
	require.NoError(t, err)
	_, err = del.Confirm(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{query.KeyUserBanks, query.KeyUserBanks}, h.cache.invalidated)
	assert.Equal(t, []string{"/banks", "/banks"}, h.nav.visited)
}

func TestAddBankUnknownBank(t *testing.T) {
	h := newHarness()
	add := NewAddBank(h.deps)
	require.NoError(t, add.Edit(AddBankInput{BankCode: "999", AccountNumber: "1112223334"}))

	_, err := add.Preview(context.Background())
	assert.Contains(t, fieldErrors(t, err), FieldBankCode)
}

func TestCapturePayPal(t *testing.T) {
	h := newHarness()

	out, err := CapturePayPal(context.Background(), h.deps, "ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, "tx-pp", out.TransactionID)
	assert.Equal(t, []string{query.TransactionKey("tx-pp"), query.KeyWallets, query.KeyTransactions}, h.cache.invalidated)
	assert.Equal(t, []string{"/transactions/tx-pp"}, h.nav.visited)

	_, err = CapturePayPal(context.Background(), h.deps, " ")
	assert.Error(t, err)
}

func TestFieldErrorsString(t *testing.T) {
	fe := FieldErrors{}
	fe.Add("b", "second")
	fe.Add("a", "first")
	fe.Add("a", "ignored")

	assert.Equal(t, "a: first, b: second", fe.Error())
	assert.Nil(t, FieldErrors{}.Err())
}
