package handlers

import (
	"payego/internal/core/domain"
	"payego/internal/core/services"
	"payego/internal/pkg/pagination"
	"payego/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles the signed-in user's records
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// TransactionsResponse is one page of history
type TransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
	Page         int                  `json:"page"`
	Limit        int                  `json:"limit"`
	Meta         *pagination.Meta     `json:"meta"`
}

// Current handles getting the signed-in user
// @Summary Current user
// @Tags User
// @Security BearerAuth
// @Router /api/user/current [get]
func (h *UserHandler) Current(c *fiber.Ctx) error {
	user, err := h.userService.Current(c.Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, user)
}

// Wallets handles listing the user's wallets
// @Summary List wallets
// @Tags User
// @Security BearerAuth
// @Router /api/user/wallets [get]
func (h *UserHandler) Wallets(c *fiber.Ctx) error {
	wallets, err := h.userService.Wallets(c.Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, fiber.Map{"wallets": wallets})
}

// BankAccounts handles listing the user's saved bank accounts
// @Summary List saved bank accounts
// @Tags User
// @Security BearerAuth
// @Router /api/user/banks [get]
func (h *UserHandler) BankAccounts(c *fiber.Ctx) error {
	accounts, err := h.userService.BankAccounts(c.Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, fiber.Map{"bank_accounts": accounts})
}

// Resolve handles finding a transfer recipient
// @Summary Resolve a user by email, username or ID
// @Tags User
// @Security BearerAuth
// @Param identifier query string true "Email, username or ID"
// @Router /api/users/resolve [get]
func (h *UserHandler) Resolve(c *fiber.Ctx) error {
	identifier := c.Query("identifier")
	if errs := required("identifier", identifier); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	user, err := h.userService.Resolve(c.Context(), identifier)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, user)
}

// Transactions handles listing history
// @Summary List transactions
// @Tags Transactions
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Router /api/user/transactions [get]
func (h *UserHandler) Transactions(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	page, err := h.userService.Transactions(c.Context(), userID(c), params)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, TransactionsResponse{
		Transactions: page.Transactions,
		Total:        page.Total,
		Page:         params.Page,
		Limit:        params.Limit,
		Meta:         pagination.GetMeta(params, page.Total),
	})
}

// Transaction handles getting one transaction
// @Summary Transaction detail
// @Tags Transactions
// @Security BearerAuth
// @Router /api/transactions/{id} [get]
func (h *UserHandler) Transaction(c *fiber.Ctx) error {
	tx, err := h.userService.Transaction(c.Context(), userID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, tx)
}
