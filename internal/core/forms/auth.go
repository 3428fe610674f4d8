package forms

import (
	"context"
	"errors"
	"strings"
	"time"

	"payego/internal/adapters/api"
	"payego/internal/core/session"
)

// AuthAPI is the part of the API client the authentication forms use.
type AuthAPI interface {
	Login(ctx context.Context, req api.LoginRequest) (string, error)
	Register(ctx context.Context, req api.RegisterRequest) (string, error)
	SocialLogin(ctx context.Context, req api.SocialLoginRequest) (string, error)
	ForgotPassword(ctx context.Context, req api.ForgotPasswordRequest) (string, error)
	ResetPassword(ctx context.Context, req api.ResetPasswordRequest) (string, error)
	VerifyEmail(ctx context.Context, token string) (string, error)
	ResendVerification(ctx context.Context) (string, error)
}

// Session is the session manager as seen by the authentication forms.
type Session interface {
	Login(ctx context.Context, token string, remember bool) error
	RefreshUser(ctx context.Context) error
}

// Redirector navigates now or after a delay.
type Redirector interface {
	Navigate(path string)
	RedirectAfter(delay time.Duration, path string) (cancel func())
}

// SocialProviders are the identity providers accepted by social login.
var SocialProviders = []string{"google"}

const dashboardView = "/dashboard"

type LoginInput struct {
	Email    string
	Password string
	Remember bool
}

type RegisterInput struct {
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
	Remember        bool
}

type ResetInput struct {
	Token           string
	Password        string
	ConfirmPassword string
}

// Auth runs the login, registration and recovery forms.
type Auth struct {
	api         AuthAPI
	session     Session
	nav         Redirector
	verifyDelay time.Duration
}

func NewAuth(a AuthAPI, s Session, nav Redirector, verifyDelay time.Duration) *Auth {
	return &Auth{api: a, session: s, nav: nav, verifyDelay: verifyDelay}
}

func (a *Auth) Login(ctx context.Context, in LoginInput) error {
	fe := FieldErrors{}
	email := strings.TrimSpace(in.Email)
	emailField(fe, email)
	if in.Password == "" {
		fe.Add(FieldPassword, "Password is required")
	}
	if err := fe.Err(); err != nil {
		return err
	}

	token, err := a.api.Login(ctx, api.LoginRequest{Email: email, Password: in.Password})
	if err != nil {
		return err
	}
	return a.start(ctx, token, in.Remember)
}

func (a *Auth) Register(ctx context.Context, in RegisterInput) error {
	fe := FieldErrors{}
	email := strings.TrimSpace(in.Email)
	emailField(fe, email)
	passwordPolicy(fe, FieldPassword, in.Password)
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		fe.Add(FieldConfirmPassword, "Passwords do not match")
	}
	if err := fe.Err(); err != nil {
		return err
	}

	token, err := a.api.Register(ctx, api.RegisterRequest{
		Email:    email,
		Password: in.Password,
		Username: strings.TrimSpace(in.Username),
	})
	if err != nil {
		return err
	}
	return a.start(ctx, token, in.Remember)
}

// SocialLogin exchanges a provider id token for a session. Social sessions
// are always remembered.
func (a *Auth) SocialLogin(ctx context.Context, idToken, provider string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	fe := FieldErrors{}
	if strings.TrimSpace(idToken) == "" {
		fe.Add(FieldToken, "Identity token is required")
	}
	known := false
	for _, p := range SocialProviders {
		known = known || p == provider
	}
	if !known {
		fe.Add(FieldProvider, "Unsupported provider")
	}
	if err := fe.Err(); err != nil {
		return err
	}

	token, err := a.api.SocialLogin(ctx, api.SocialLoginRequest{IDToken: idToken, Provider: provider})
	if err != nil {
		return err
	}
	return a.start(ctx, token, true)
}

func (a *Auth) start(ctx context.Context, token string, remember bool) error {
	if err := a.session.Login(ctx, token, remember); err != nil {
		return err
	}
	a.nav.Navigate(dashboardView)
	return nil
}

func (a *Auth) ForgotPassword(ctx context.Context, email string) (string, error) {
	fe := FieldErrors{}
	email = strings.TrimSpace(email)
	emailField(fe, email)
	if err := fe.Err(); err != nil {
		return "", err
	}

	msg, err := a.api.ForgotPassword(ctx, api.ForgotPasswordRequest{Email: email})
	if err != nil {
		return "", err
	}
	return orDefault(msg, "If that email is registered, a reset link is on its way"), nil
}

func (a *Auth) ResetPassword(ctx context.Context, in ResetInput) (string, error) {
	fe := FieldErrors{}
	if strings.TrimSpace(in.Token) == "" {
		fe.Add(FieldToken, "Reset link is invalid or incomplete")
	}
	passwordPolicy(fe, FieldPassword, in.Password)
	if in.ConfirmPassword != in.Password {
		fe.Add(FieldConfirmPassword, "Passwords do not match")
	}
	if err := fe.Err(); err != nil {
		return "", err
	}

	msg, err := a.api.ResetPassword(ctx, api.ResetPasswordRequest{Token: in.Token, Password: in.Password})
	if err != nil {
		return "", err
	}
	a.nav.Navigate("/login")
	return orDefault(msg, "Password reset successfully"), nil
}

// VerifyEmail confirms the address, refreshes the signed-in user so the
// withdrawal gate opens, and schedules the redirect to the dashboard.
func (a *Auth) VerifyEmail(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", FieldErrors{FieldToken: "Verification link is invalid or incomplete"}
	}

	msg, err := a.api.VerifyEmail(ctx, token)
	if err != nil {
		return "", err
	}
	if err := a.session.RefreshUser(ctx); err != nil && !errors.Is(err, session.ErrNoCredential) {
		return "", err
	}
	a.nav.RedirectAfter(a.verifyDelay, dashboardView)
	return orDefault(msg, "Email verified successfully"), nil
}

func (a *Auth) ResendVerification(ctx context.Context) (string, error) {
	msg, err := a.api.ResendVerification(ctx)
	if err != nil {
		return "", err
	}
	return orDefault(msg, "Verification email sent"), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
