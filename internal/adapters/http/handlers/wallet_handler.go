package handlers

import (
	"strings"

	"payego/internal/core/domain"
	"payego/internal/core/services"
	"payego/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// WalletHandler handles money movement. Amounts are integer minor units.
type WalletHandler struct {
	walletService *services.WalletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletService *services.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// TopUpRequest represents a top-up request body
type TopUpRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Provider string `json:"provider"`
}

// InternalTransferRequest represents a transfer to another user
type InternalTransferRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	RecipientID string `json:"recipient_id"`
	Description string `json:"description"`
}

// ExternalTransferRequest represents a transfer to a bank account
type ExternalTransferRequest struct {
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Description   string `json:"description"`
}

// WithdrawRequest represents a withdrawal to a saved bank account
type WithdrawRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// ConvertRequest represents a currency conversion
type ConvertRequest struct {
	Amount       int64  `json:"amount"`
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`
}

// CaptureRequest represents a PayPal capture
type CaptureRequest struct {
	OrderID string `json:"order_id"`
}

// TopUpResponse carries the provider details of a pending top-up
type TopUpResponse struct {
	TransactionID string `json:"transaction_id"`
	ClientSecret  string `json:"client_secret,omitempty"`
	PaymentID     string `json:"payment_id,omitempty"`
	ApprovalURL   string `json:"approval_url,omitempty"`
}

// TransactionRefResponse acknowledges a money movement
type TransactionRefResponse struct {
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// ConvertResponse reports a conversion
type ConvertResponse struct {
	TransactionID   string  `json:"transaction_id"`
	ConvertedAmount int64   `json:"converted_amount"`
	ExchangeRate    float64 `json:"exchange_rate"`
}

// CaptureResponse reports a captured order
type CaptureResponse struct {
	TransactionID string                   `json:"transaction_id"`
	Status        domain.TransactionStatus `json:"status"`
}

// TopUp handles starting a top-up
// @Summary Top up a wallet
// @Tags Wallet
// @Security BearerAuth
// @Param Idempotency-Key header string false "Replay protection key"
// @Router /api/wallet/top_up [post]
func (h *WalletHandler) TopUp(c *fiber.Ctx) error {
	var req TopUpRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := required("currency", req.Currency, "provider", req.Provider); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	result, err := h.walletService.TopUp(c.Context(), userID(c), &services.TopUpInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Provider: strings.ToLower(req.Provider),
	})
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, TopUpResponse{
		TransactionID: result.TransactionID,
		ClientSecret:  result.ClientSecret,
		PaymentID:     result.PaymentID,
		ApprovalURL:   result.ApprovalURL,
	})
}

// TransferInternal handles a transfer to another user
// @Summary Internal transfer
// @Tags Wallet
// @Security BearerAuth
// @Router /api/transfer/internal [post]
func (h *WalletHandler) TransferInternal(c *fiber.Ctx) error {
	var req InternalTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := required("currency", req.Currency, "recipient_id", req.RecipientID); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	tx, err := h.walletService.TransferInternal(c.Context(), userID(c), &services.TransferInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		RecipientID: req.RecipientID,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, TransactionRefResponse{TransactionID: tx.ID, Message: "Transfer completed"})
}

// TransferExternal handles a transfer to a bank account
// @Summary External transfer
// @Tags Wallet
// @Security BearerAuth
// @Router /api/transfer/external [post]
func (h *WalletHandler) TransferExternal(c *fiber.Ctx) error {
	var req ExternalTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := required("currency", req.Currency, "bank_code", req.BankCode, "account_number", req.AccountNumber); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	tx, err := h.walletService.TransferExternal(c.Context(), userID(c), &services.ExternalTransferInput{
		Amount:        req.Amount,
		Currency:      req.Currency,
		BankCode:      strings.TrimSpace(req.BankCode),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		AccountName:   strings.TrimSpace(req.AccountName),
		Description:   strings.TrimSpace(req.Description),
	})
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, TransactionRefResponse{TransactionID: tx.ID, Message: "Transfer submitted"})
}

// Withdraw handles a withdrawal to a saved bank account
// @Summary Withdraw
// @Tags Wallet
// @Security BearerAuth
// @Router /api/wallet/withdraw/{bankAccountId} [post]
func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	var req WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := required("currency", req.Currency); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	tx, err := h.walletService.Withdraw(c.Context(), userID(c), c.Params("bankAccountId"), &services.WithdrawInput{
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, TransactionRefResponse{TransactionID: tx.ID, Message: "Withdrawal submitted"})
}

// Convert handles a currency conversion between the user's wallets
// @Summary Convert currency
// @Tags Wallet
// @Security BearerAuth
// @Router /api/wallets/convert [post]
func (h *WalletHandler) Convert(c *fiber.Ctx) error {
	var req ConvertRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := required("from_currency", req.FromCurrency, "to_currency", req.ToCurrency); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	result, err := h.walletService.Convert(c.Context(), userID(c), &services.ConvertInput{
		Amount: req.Amount,
		From:   req.FromCurrency,
		To:     req.ToCurrency,
	})
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, ConvertResponse{
		TransactionID:   result.Transaction.ID,
		ConvertedAmount: result.ConvertedAmount,
		ExchangeRate:    result.Rate,
	})
}

// ExchangeRate handles a rate quote
// @Summary Exchange rate
// @Tags Wallet
// @Param from query string true "Source currency"
// @Param to query string true "Target currency"
// @Router /api/exchange-rate [get]
func (h *WalletHandler) ExchangeRate(c *fiber.Ctx) error {
	from, to := c.Query("from"), c.Query("to")
	if errs := required("from", from, "to", to); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	rate, err := h.walletService.Rate(from, to)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, rate)
}

// CapturePayPal handles capturing an approved PayPal order
// @Summary Capture PayPal order
// @Tags Wallet
// @Security BearerAuth
// @Router /api/paypal/capture [post]
func (h *WalletHandler) CapturePayPal(c *fiber.Ctx) error {
	var req CaptureRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := required("order_id", req.OrderID); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	tx, err := h.walletService.CapturePayPal(c.Context(), userID(c), req.OrderID)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, CaptureResponse{TransactionID: tx.ID, Status: tx.Status})
}
