package handlers

import (
	"strings"

	"payego/internal/core/domain"
	"payego/internal/core/services"
	"payego/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BankHandler handles the bank directory and saved bank accounts
type BankHandler struct {
	bankService *services.BankService
}

// NewBankHandler creates a new bank handler
func NewBankHandler(bankService *services.BankService) *BankHandler {
	return &BankHandler{
		bankService: bankService,
	}
}

// AddBankRequest represents a bank account to save
type AddBankRequest struct {
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Currency      string `json:"currency"`
}

// BankAccountResponse acknowledges a saved bank account
type BankAccountResponse struct {
	Message     string              `json:"message"`
	BankAccount *domain.BankAccount `json:"bank_account"`
}

// Banks handles listing the directory
// @Summary List banks
// @Tags Banks
// @Router /api/banks/all [get]
func (h *BankHandler) Banks(c *fiber.Ctx) error {
	return response.Success(c, fiber.Map{"banks": h.bankService.Banks()})
}

// Resolve handles account name lookup
// @Summary Resolve an account holder name
// @Tags Banks
// @Param account_number query string true "10-digit account number"
// @Param bank_code query string true "Bank code"
// @Router /api/bank/resolve [get]
func (h *BankHandler) Resolve(c *fiber.Ctx) error {
	number := strings.TrimSpace(c.Query("account_number"))
	code := strings.TrimSpace(c.Query("bank_code"))
	if errs := required("account_number", number, "bank_code", code); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	name, err := h.bankService.ResolveAccount(number, code)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, fiber.Map{"account_name": name})
}

// Add handles saving a bank account
// @Summary Add bank account
// @Tags Banks
// @Security BearerAuth
// @Router /api/banks/add [post]
func (h *BankHandler) Add(c *fiber.Ctx) error {
	var req AddBankRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := required("bank_code", req.BankCode, "account_number", req.AccountNumber); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	account, err := h.bankService.Add(c.Context(), userID(c), &services.AddBankInput{
		BankCode:      strings.TrimSpace(req.BankCode),
		BankName:      strings.TrimSpace(req.BankName),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		Currency:      req.Currency,
	})
	if err != nil {
		return respondError(c, err)
	}

	return response.Created(c, BankAccountResponse{
		Message:     "Bank account added successfully",
		BankAccount: account,
	})
}

// Delete handles removing a saved bank account
// @Summary Delete bank account
// @Tags Banks
// @Security BearerAuth
// @Router /api/banks/{id} [delete]
func (h *BankHandler) Delete(c *fiber.Ctx) error {
	if err := h.bankService.Delete(c.Context(), userID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return response.OK(c, "Bank account deleted successfully")
}
