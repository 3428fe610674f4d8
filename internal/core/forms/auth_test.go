package forms

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payego/internal/adapters/api"
	"payego/internal/core/session"
)

type fakeAuthAPI struct {
	token     string
	err       error
	calls     int
	lastLogin api.LoginRequest
	lastReg   api.RegisterRequest
	lastReset api.ResetPasswordRequest
}

func (f *fakeAuthAPI) Login(ctx context.Context, req api.LoginRequest) (string, error) {
	f.calls++
	f.lastLogin = req
	return f.token, f.err
}

func (f *fakeAuthAPI) Register(ctx context.Context, req api.RegisterRequest) (string, error) {
	f.calls++
	f.lastReg = req
	return f.token, f.err
}

func (f *fakeAuthAPI) SocialLogin(ctx context.Context, req api.SocialLoginRequest) (string, error) {
	f.calls++
	return f.token, f.err
}

func (f *fakeAuthAPI) ForgotPassword(ctx context.Context, req api.ForgotPasswordRequest) (string, error) {
	f.calls++
	return "", f.err
}

func (f *fakeAuthAPI) ResetPassword(ctx context.Context, req api.ResetPasswordRequest) (string, error) {
	f.calls++
	f.lastReset = req
	return "done", f.err
}

func (f *fakeAuthAPI) VerifyEmail(ctx context.Context, token string) (string, error) {
	f.calls++
	return "", f.err
}

func (f *fakeAuthAPI) ResendVerification(ctx context.Context) (string, error) {
	f.calls++
	return "sent", f.err
}

type fakeSession struct {
	mu         sync.Mutex
	tokens     []string
	remembered []bool
	refreshes  int
	loginErr   error
	refreshErr error
}

func (s *fakeSession) Login(ctx context.Context, token string, remember bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
	s.remembered = append(s.remembered, remember)
	return s.loginErr
}

func (s *fakeSession) RefreshUser(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	return s.refreshErr
}

func TestLoginStartsSession(t *testing.T) {
	a := &fakeAuthAPI{token: "T1"}
	s := &fakeSession{}
	nav := &fakeNav{}
	auth := NewAuth(a, s, nav, 3*time.Second)

	require.NoError(t, auth.Login(context.Background(), LoginInput{Email: " a@b.com ", Password: "pw123456", Remember: true}))

	assert.Equal(t, api.LoginRequest{Email: "a@b.com", Password: "pw123456"}, a.lastLogin)
	assert.Equal(t, []string{"T1"}, s.tokens)
	assert.Equal(t, []bool{true}, s.remembered)
	assert.Equal(t, []string{"/dashboard"}, nav.visited)
}

func TestLoginLocalValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    LoginInput
		field string
	}{
		{name: "missing email", in: LoginInput{Password: "x"}, field: FieldEmail},
		{name: "bad email", in: LoginInput{Email: "not-an-email", Password: "x"}, field: FieldEmail},
		{name: "missing password", in: LoginInput{Email: "a@b.com"}, field: FieldPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &fakeAuthAPI{token: "T1"}
			err := NewAuth(a, &fakeSession{}, &fakeNav{}, time.Second).Login(context.Background(), tt.in)

			var fe FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Contains(t, fe, tt.field)
			assert.Zero(t, a.calls)
		})
	}
}

func TestLoginServerFailureSkipsSession(t *testing.T) {
	a := &fakeAuthAPI{err: errors.New("invalid credentials")}
	s := &fakeSession{}
	nav := &fakeNav{}

	err := NewAuth(a, s, nav, time.Second).Login(context.Background(), LoginInput{Email: "a@b.com", Password: "wrong"})
	assert.Error(t, err)
	assert.Empty(t, s.tokens)
	assert.Empty(t, nav.visited)
}

func TestRegisterPasswordRules(t *testing.T) {
	a := &fakeAuthAPI{token: "T2"}
	auth := NewAuth(a, &fakeSession{}, &fakeNav{}, time.Second)
	ctx := context.Background()

	err := auth.Register(ctx, RegisterInput{Email: "a@b.com", Password: "short"})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, FieldPassword)

	err = auth.Register(ctx, RegisterInput{Email: "a@b.com", Password: "pw123456", ConfirmPassword: "pw1234567"})
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, FieldConfirmPassword)
	assert.Zero(t, a.calls)

	require.NoError(t, auth.Register(ctx, RegisterInput{Email: "a@b.com", Username: " ada ", Password: "pw123456"}))
	assert.Equal(t, "ada", a.lastReg.Username)
}

func TestSocialLoginProviders(t *testing.T) {
	a := &fakeAuthAPI{token: "T3"}
	s := &fakeSession{}
	auth := NewAuth(a, s, &fakeNav{}, time.Second)

	assert.Error(t, auth.SocialLogin(context.Background(), "id", "myspace"))
	require.NoError(t, auth.SocialLogin(context.Background(), "id", "Google"))
	assert.Equal(t, []bool{true}, s.remembered)
}

func TestResetPasswordMustMatch(t *testing.T) {
	a := &fakeAuthAPI{}
	nav := &fakeNav{}
	auth := NewAuth(a, &fakeSession{}, nav, time.Second)
	ctx := context.Background()

	_, err := auth.ResetPassword(ctx, ResetInput{Token: "r1", Password: "pw123456", ConfirmPassword: "pw000000"})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, FieldConfirmPassword)

	msg, err := auth.ResetPassword(ctx, ResetInput{Token: "r1", Password: "pw123456", ConfirmPassword: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, "done", msg)
	assert.Equal(t, "r1", a.lastReset.Token)
	assert.Equal(t, []string{"/login"}, nav.visited)
}

func TestVerifyEmailRefreshesAndSchedulesRedirect(t *testing.T) {
	a := &fakeAuthAPI{}
	s := &fakeSession{}
	nav := &fakeNav{}
	auth := NewAuth(a, s, nav, 3*time.Second)

	msg, err := auth.VerifyEmail(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "Email verified successfully", msg)
	assert.Equal(t, 1, s.refreshes)
	assert.Equal(t, []string{"/dashboard"}, nav.scheduled)
	assert.Equal(t, []time.Duration{3 * time.Second}, nav.delays)
	assert.Empty(t, nav.visited, "redirect is delayed, not immediate")
}

func TestVerifyEmailWithoutSession(t *testing.T) {
	s := &fakeSession{refreshErr: session.ErrNoCredential}
	nav := &fakeNav{}

	_, err := NewAuth(&fakeAuthAPI{}, s, nav, time.Second).VerifyEmail(context.Background(), "v1")
	require.NoError(t, err)
	assert.Len(t, nav.scheduled, 1)
}

func TestForgotPasswordDefaultMessage(t *testing.T) {
	msg, err := NewAuth(&fakeAuthAPI{}, &fakeSession{}, &fakeNav{}, time.Second).ForgotPassword(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
}
