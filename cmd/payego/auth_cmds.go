package main

import (
	"fmt"
	"strings"

	"payego/internal/core/forms"
)

func registerAuthCommands(r *CommandRegistry) {
	r.Register(&Command{
		Name:        "login",
		Description: "Sign in with e-mail and password",
		Usage:       "payego login --email <email> [--password <password>] [--remember=false]",
		Examples: []string{
			"payego login --email ada@example.com",
			"payego login --email ada@example.com --remember=false",
		},
		Route: "/login",
		Run:   runLogin,
	})
	r.Register(&Command{
		Name:        "register",
		Description: "Create an account",
		Usage:       "payego register --email <email> --username <name> [--password <password>]",
		Examples:    []string{"payego register --email ada@example.com --username ada"},
		Route:       "/register",
		Run:         runRegister,
	})
	r.Register(&Command{
		Name:        "social-login",
		Description: "Sign in with a Google id token",
		Usage:       "payego social-login --token <id-token> [--provider " + strings.Join(forms.SocialProviders, "|") + "]",
		Route:       "/login",
		Run:         runSocialLogin,
	})
	r.Register(&Command{
		Name:        "logout",
		Description: "Sign out and forget the stored token",
		Usage:       "payego logout",
		Run:         runLogout,
	})
	r.Register(&Command{
		Name:        "whoami",
		Description: "Show the signed-in user",
		Usage:       "payego whoami",
		Route:       "/profile",
		Run:         runWhoami,
	})
	r.Register(&Command{
		Name:        "forgot-password",
		Description: "Request a password reset e-mail",
		Usage:       "payego forgot-password <email>",
		Route:       "/forgot-password",
		Run:         runForgotPassword,
	})
	r.Register(&Command{
		Name:        "reset-password",
		Description: "Set a new password with a reset token",
		Usage:       "payego reset-password --token <token> [--password <password>]",
		Route:       "/reset-password",
		Run:         runResetPassword,
	})
	r.Register(&Command{
		Name:        "verify-email",
		Description: "Confirm an e-mail address",
		Usage:       "payego verify-email <token>",
		Route:       "/verify-email",
		Run:         runVerifyEmail,
	})
	r.Register(&Command{
		Name:        "resend-verification",
		Description: "Send the verification e-mail again",
		Usage:       "payego resend-verification",
		Route:       "/profile",
		Run:         runResendVerification,
	})
}

// password returns the flag value or prompts for it.
func password(e *Env, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return e.Prompt(label)
}

func runLogin(e *Env, args []string) error {
	fs := e.Flags()
	email := fs.String("email", "", "Account e-mail")
	pw := fs.String("password", "", "Password (prompted when omitted)")
	remember := fs.Bool("remember", true, "Keep the session across runs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := password(e, *pw, "Password: ")
	if err != nil {
		return err
	}
	if err := e.App.Auth.Login(e.Ctx, forms.LoginInput{Email: *email, Password: p, Remember: *remember}); err != nil {
		return err
	}
	printSignedIn(e)
	return nil
}

func runRegister(e *Env, args []string) error {
	fs := e.Flags()
	email := fs.String("email", "", "Account e-mail")
	username := fs.String("username", "", "Username")
	pw := fs.String("password", "", "Password (prompted when omitted)")
	confirm := fs.String("confirm", "", "Password confirmation (prompted when omitted)")
	remember := fs.Bool("remember", true, "Keep the session across runs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := password(e, *pw, "Password: ")
	if err != nil {
		return err
	}
	c := *confirm
	if c == "" {
		if *pw != "" {
			c = p
		} else if c, err = e.Prompt("Confirm password: "); err != nil {
			return err
		}
	}

	err = e.App.Auth.Register(e.Ctx, forms.RegisterInput{
		Email:           *email,
		Username:        *username,
		Password:        p,
		ConfirmPassword: c,
		Remember:        *remember,
	})
	if err != nil {
		return err
	}
	e.Printf("Welcome, %s. Check your inbox to verify %s.\n", *username, *email)
	return nil
}

func runSocialLogin(e *Env, args []string) error {
	fs := e.Flags()
	token := fs.String("token", "", "Provider id token")
	provider := fs.String("provider", forms.SocialProviders[0], "Identity provider: "+strings.Join(forms.SocialProviders, ", "))
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := e.App.Auth.SocialLogin(e.Ctx, *token, *provider); err != nil {
		return err
	}
	printSignedIn(e)
	return nil
}

// printSignedIn reports the session's user. The profile may still be loading
// right after sign-in.
func printSignedIn(e *Env) {
	if u := e.App.Session.State().User; u != nil {
		e.Printf("Logged in as %s\n", u.Email)
		return
	}
	e.Printf("Logged in\n")
}

func runLogout(e *Env, _ []string) error {
	if !e.App.Session.State().IsAuthenticated {
		e.Printf("Not logged in\n")
		return nil
	}
	e.App.Session.Logout(e.Ctx)
	e.Printf("Logged out\n")
	return nil
}

func runWhoami(e *Env, _ []string) error {
	u := e.App.Session.State().User
	if u == nil {
		return ErrLoginRequired
	}

	verified := "no"
	if u.IsEmailVerified() {
		verified = u.EmailVerifiedAt.Format("2006-01-02")
	}
	t := NewTableWriter("FIELD", "VALUE")
	t.AddRow("id", u.ID)
	t.AddRow("username", u.Username)
	t.AddRow("email", u.Email)
	t.AddRow("verified", verified)
	t.AddRow("member since", u.CreatedAt.Format("2006-01-02"))
	t.Print(e.Out)
	return nil
}

func runForgotPassword(e *Env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: payego forgot-password <email>")
	}
	msg, err := e.App.Auth.ForgotPassword(e.Ctx, args[0])
	if err != nil {
		return err
	}
	e.Printf("%s\n", msg)
	return nil
}

func runResetPassword(e *Env, args []string) error {
	fs := e.Flags()
	token := fs.String("token", "", "Reset token from the e-mail")
	pw := fs.String("password", "", "New password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := password(e, *pw, "New password: ")
	if err != nil {
		return err
	}
	c := p
	if *pw == "" {
		if c, err = e.Prompt("Confirm password: "); err != nil {
			return err
		}
	}

	msg, err := e.App.Auth.ResetPassword(e.Ctx, forms.ResetInput{Token: *token, Password: p, ConfirmPassword: c})
	if err != nil {
		return err
	}
	e.Printf("%s\n", msg)
	return nil
}

func runVerifyEmail(e *Env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: payego verify-email <token>")
	}
	msg, err := e.App.Auth.VerifyEmail(e.Ctx, args[0])
	if err != nil {
		return err
	}
	e.Printf("%s\n", msg)
	return nil
}

func runResendVerification(e *Env, _ []string) error {
	msg, err := e.App.Auth.ResendVerification(e.Ctx)
	if err != nil {
		return err
	}
	e.Printf("%s\n", msg)
	return nil
}
