package sandbox

import (
	"context"
	"errors"
	"log"

	"payego/internal/adapters/persistence/repositories"
	"payego/internal/core/services"
)

// Demo accounts. Development only.
const (
	DemoEmail    = "demo@payego.dev"
	DemoPassword = "demo-password"
	FriendEmail  = "friend@payego.dev"
)

// demoBalances are the demo account's opening balances in minor units
var demoBalances = map[string]int64{
	"USD": 250000,
	"NGN": 50000000,
	"EUR": 100000,
}

// Seeder creates the demo accounts
type Seeder struct {
	server *Server
}

// NewSeeder creates a new seeder instance
func NewSeeder(s *Server) *Seeder {
	return &Seeder{server: s}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	log.Println("🌱 Seeding sandbox demo data...")

	if err := s.seedUser(ctx, DemoEmail, "demo", demoBalances); err != nil {
		return err
	}
	if err := s.seedUser(ctx, FriendEmail, "friend", nil); err != nil {
		return err
	}

	log.Printf("✅ Demo account ready: %s / %s", DemoEmail, DemoPassword)
	return nil
}

// seedUser registers a verified account and funds it
func (s *Seeder) seedUser(ctx context.Context, email, username string, balances map[string]int64) error {
	auth := s.server.Services.Auth

	_, err := auth.Register(ctx, &services.RegisterInput{Email: email, Username: username, Password: DemoPassword})
	if errors.Is(err, services.ErrUserAlreadyExists) {
		return nil // already seeded
	}
	if err != nil {
		return err
	}

	token, err := auth.VerificationToken(ctx, email)
	if err != nil {
		return err
	}
	if err := auth.VerifyEmail(ctx, token); err != nil {
		return err
	}

	user, err := s.server.Repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	var entries []repositories.Entry
	for currency, amount := range balances {
		entries = append(entries, repositories.Entry{UserID: user.ID, Currency: currency, Delta: amount})
	}
	return s.server.Repos.Wallets.Apply(ctx, entries...)
}
