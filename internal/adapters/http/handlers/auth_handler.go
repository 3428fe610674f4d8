package handlers

import (
	"strings"

	"payego/internal/core/services"
	"payego/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Recovery messages. The forgot-password reply never reveals whether the
// address has an account.
const (
	MsgResetSent     = "If an account exists for that email, a reset link has been sent"
	MsgPasswordReset = "Password has been reset. You can now log in."
	MsgEmailVerified = "Email verified successfully"
	MsgVerifySent    = "Verification email sent"
	MsgLoggedOut     = "Logged out successfully"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SocialLoginRequest represents social login request body
type SocialLoginRequest struct {
	IDToken  string `json:"id_token"`
	Provider string `json:"provider"`
}

// ForgotPasswordRequest represents password recovery request body
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents password reset request body
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// TokenResponse is returned by every sign-in endpoint
type TokenResponse struct {
	Token string `json:"token"`
}

// Register handles user registration
// @Summary Register new user
// @Tags Auth
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := required("email", req.Email, "password", req.Password); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	token, err := h.authService.Register(c.Context(), &services.RegisterInput{
		Email:    strings.TrimSpace(req.Email),
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	return response.Created(c, TokenResponse{Token: token})
}

// Login handles user login
// @Summary Login user
// @Tags Auth
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := required("email", req.Email, "password", req.Password); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	token, err := h.authService.Login(c.Context(), &services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, TokenResponse{Token: token})
}

// SocialLogin handles sign-in with an identity provider token
// @Summary Social login
// @Tags Auth
// @Router /api/auth/social_login [post]
func (h *AuthHandler) SocialLogin(c *fiber.Ctx) error {
	var req SocialLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := required("id_token", req.IDToken, "provider", req.Provider); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	token, err := h.authService.SocialLogin(c.Context(), req.IDToken, strings.ToLower(req.Provider))
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, TokenResponse{Token: token})
}

// ForgotPassword handles password recovery requests
// @Summary Request a password reset link
// @Tags Auth
// @Router /api/auth/forgot_password [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := required("email", req.Email); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	if _, err := h.authService.ForgotPassword(c.Context(), req.Email); err != nil {
		return respondError(c, err)
	}

	return response.OK(c, MsgResetSent)
}

// ResetPassword handles password reset
// @Summary Reset password with a recovery token
// @Tags Auth
// @Router /api/auth/reset_password [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := required("token", req.Token, "password", req.Password); len(errs) > 0 {
		return response.Invalid(c, errs...)
	}

	if err := h.authService.ResetPassword(c.Context(), req.Token, req.Password); err != nil {
		return respondError(c, err)
	}

	return response.OK(c, MsgPasswordReset)
}

// VerifyEmail handles the verification link
// @Summary Verify email address
// @Tags Auth
// @Param token query string true "Verification token"
// @Router /api/auth/verify-email [get]
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return response.BadRequest(c, "Verification token is required")
	}

	if err := h.authService.VerifyEmail(c.Context(), token); err != nil {
		return respondError(c, err)
	}

	return response.OK(c, MsgEmailVerified)
}

// ResendVerification sends a new verification link to the signed-in user
// @Summary Resend verification email
// @Tags Auth
// @Security BearerAuth
// @Router /api/auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	if err := h.authService.ResendVerification(c.Context(), userID(c)); err != nil {
		return respondError(c, err)
	}

	return response.OK(c, MsgVerifySent)
}

// Logout revokes the bearer token of the request
// @Summary Logout
// @Tags Auth
// @Security BearerAuth
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals("token").(string)
	if err := h.authService.Logout(c.Context(), token); err != nil {
		return respondError(c, err)
	}

	return response.OK(c, MsgLoggedOut)
}
