package services

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// PurgeSchedule is when expired revocations and reset links are dropped
const PurgeSchedule = "@hourly"

// CronService runs the sandbox's background jobs
type CronService struct {
	cron    *cron.Cron
	wallets *WalletService
	auth    *AuthService
}

// NewCronService schedules top-up settlement on settleSchedule
func NewCronService(settleSchedule string, wallets *WalletService, auth *AuthService) (*CronService, error) {
	s := &CronService{
		cron:    cron.New(),
		wallets: wallets,
		auth:    auth,
	}

	if _, err := s.cron.AddFunc(settleSchedule, s.Settle); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(PurgeSchedule, s.Purge); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the scheduler in the background
func (s *CronService) Start() {
	s.cron.Start()
	log.Println("✅ Cron service started")
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 Cron service stopped")
}

// Settle completes pending Stripe top-ups
func (s *CronService) Settle() {
	n, err := s.wallets.SettlePending(context.Background())
	if err != nil {
		log.Printf("❌ Settlement failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("✅ Settled %d pending top-ups", n)
	}
}

// Purge drops expired token records
func (s *CronService) Purge() {
	n, err := s.auth.PurgeExpired(context.Background())
	if err != nil {
		log.Printf("❌ Token purge failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("✅ Purged %d expired token records", n)
	}
}
