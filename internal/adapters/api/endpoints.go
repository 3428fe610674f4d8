package api

import (
	"context"
	"net/http"
	"net/url"

	"payego/internal/core/domain"
	"payego/internal/pkg/pagination"
)

// ---------- auth ----------

func (c *Client) Login(ctx context.Context, req LoginRequest) (string, error) {
	var out TokenResponse
	err := c.do(ctx, call{method: http.MethodPost, endpoint: "/api/auth/login", path: "/api/auth/login", body: req, out: &out})
	return out.Token, err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var out TokenResponse
	err := c.do(ctx, call{method: http.MethodPost, endpoint: "/api/auth/register", path: "/api/auth/register", body: req, out: &out})
	return out.Token, err
}

func (c *Client) SocialLogin(ctx context.Context, req SocialLoginRequest) (string, error) {
	var out TokenResponse
	err := c.do(ctx, call{method: http.MethodPost, endpoint: "/api/auth/social_login", path: "/api/auth/social_login", body: req, out: &out})
	return out.Token, err
}

func (c *Client) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (string, error) {
	var out MessageResponse
	err := c.do(ctx, call{method: http.MethodPost, endpoint: "/api/auth/forgot_password", path: "/api/auth/forgot_password", body: req, out: &out})
	return out.Message, err
}

func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error) {
	var out MessageResponse
	err := c.do(ctx, call{method: http.MethodPost, endpoint: "/api/auth/reset_password", path: "/api/auth/reset_password", body: req, out: &out})
	return out.Message, err
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	q := url.Values{}
	q.Set("token", token)

	var out MessageResponse
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/auth/verify-email", path: "/api/auth/verify-email?" + q.Encode(), out: &out})
	return out.Message, err
}

func (c *Client) ResendVerification(ctx context.Context) (string, error) {
	var out MessageResponse
	err := c.do(ctx, call{method: http.MethodPost, endpoint: "/api/auth/resend-verification", path: "/api/auth/resend-verification", body: struct{}{}, out: &out})
	return out.Message, err
}

// Logout tells the server to drop the session identified by token. The local
// credential is usually gone by now, so the token is passed explicitly.
// Callers treat it as best effort.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, call{method: http.MethodPost, endpoint: "/api/auth/logout", path: "/api/auth/logout", bearer: token})
}

// ---------- user ----------

func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var out UserResponse
	if err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/user/current", path: "/api/user/current", out: &out}); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Wallets(ctx context.Context) ([]domain.Wallet, error) {
	var out WalletsResponse
	if err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/user/wallets", path: "/api/user/wallets", out: &out}); err != nil {
		return nil, err
	}
	return out.Wallets, nil
}

func (c *Client) UserBanks(ctx context.Context) ([]domain.BankAccount, error) {
	var out BankAccountsResponse
	if err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/user/banks", path: "/api/user/banks", out: &out}); err != nil {
		return nil, err
	}
	return out.BankAccounts, nil
}

func (c *Client) ResolveUser(ctx context.Context, identifier string) (*domain.ResolvedUser, error) {
	q := url.Values{}
	q.Set("identifier", identifier)

	var out ResolvedUserResponse
	if err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/users/resolve", path: "/api/users/resolve?" + q.Encode(), out: &out}); err != nil {
		return nil, err
	}
	return &out.ResolvedUser, nil
}

// ---------- banks ----------

func (c *Client) Banks(ctx context.Context) ([]domain.Bank, error) {
	var out BanksResponse
	if err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/banks/all", path: "/api/banks/all", out: &out}); err != nil {
		return nil, err
	}
	return out.Banks, nil
}

func (c *Client) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error) {
	q := url.Values{}
	q.Set("account_number", accountNumber)
	q.Set("bank_code", bankCode)

	var out AccountNameResponse
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/bank/resolve", path: "/api/bank/resolve?" + q.Encode(), out: &out})
	return out.AccountName, err
}

func (c *Client) AddBank(ctx context.Context, req AddBankRequest) (*domain.BankAccount, error) {
	var out BankAccountResponse
	if err := c.do(ctx, call{method: http.MethodPost, endpoint: "/api/banks/add", path: "/api/banks/add", body: req, out: &out}); err != nil {
		return nil, err
	}
	return out.BankAccount, nil
}

func (c *Client) DeleteBank(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, endpoint: "/api/banks/{id}", path: "/api/banks/" + url.PathEscape(id)})
}

// ---------- transactions ----------

// Transactions lists the history. A nil page requests the server default.
func (c *Client) Transactions(ctx context.Context, page *pagination.Params) (*TransactionsResponse, error) {
	path := "/api/user/transactions"
	if page != nil {
		path += "?" + page.Values().Encode()
	}

	var out TransactionsResponse
	if err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/user/transactions", path: path, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Transaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var out TransactionResponse
	if err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/transactions/{id}", path: "/api/transactions/" + url.PathEscape(id), out: &out}); err != nil {
		return nil, err
	}
	return &out.Transaction, nil
}

// ---------- money movement ----------

func (c *Client) TopUp(ctx context.Context, req TopUpRequest) (*TopUpResponse, error) {
	var out TopUpResponse
	err := c.do(ctx, call{
		method:         http.MethodPost,
		endpoint:       "/api/wallet/top_up",
		path:           "/api/wallet/top_up",
		body:           req.wire(),
		idempotencyKey: keyOrNew(req.IdempotencyKey),
		out:            &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TransferInternal(ctx context.Context, req InternalTransferRequest) (*TransactionRefResponse, error) {
	var out TransactionRefResponse
	err := c.do(ctx, call{
		method:         http.MethodPost,
		endpoint:       "/api/transfer/internal",
		path:           "/api/transfer/internal",
		body:           req.wire(),
		idempotencyKey: keyOrNew(req.IdempotencyKey),
		out:            &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TransferExternal(ctx context.Context, req ExternalTransferRequest) (*TransactionRefResponse, error) {
	var out TransactionRefResponse
	err := c.do(ctx, call{
		method:         http.MethodPost,
		endpoint:       "/api/transfer/external",
		path:           "/api/transfer/external",
		body:           req.wire(),
		idempotencyKey: keyOrNew(req.IdempotencyKey),
		out:            &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Withdraw(ctx context.Context, req WithdrawRequest) (*TransactionRefResponse, error) {
	var out TransactionRefResponse
	err := c.do(ctx, call{
		method:         http.MethodPost,
		endpoint:       "/api/wallet/withdraw/{bankAccountId}",
		path:           "/api/wallet/withdraw/" + url.PathEscape(req.BankAccountID),
		body:           req.wire(),
		idempotencyKey: keyOrNew(req.IdempotencyKey),
		out:            &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Convert(ctx context.Context, req ConvertRequest) (*ConvertResponse, error) {
	var out ConvertResponse
	err := c.do(ctx, call{
		method:         http.MethodPost,
		endpoint:       "/api/wallets/convert",
		path:           "/api/wallets/convert",
		body:           req.wire(),
		idempotencyKey: keyOrNew(req.IdempotencyKey),
		out:            &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExchangeRate(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)

	var out ExchangeRateResponse
	if err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/exchange-rate", path: "/api/exchange-rate?" + q.Encode(), out: &out}); err != nil {
		return nil, err
	}
	return &out.ExchangeRate, nil
}

func (c *Client) CapturePayPal(ctx context.Context, req CapturePayPalRequest) (*CaptureResponse, error) {
	var out CaptureResponse
	if err := c.do(ctx, call{method: http.MethodPost, endpoint: "/api/paypal/capture", path: "/api/paypal/capture", body: req, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
