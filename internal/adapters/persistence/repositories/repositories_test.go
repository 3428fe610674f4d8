package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/gorm"

	"payego/internal/adapters/persistence/models"
	"payego/internal/config"
	"payego/internal/core/domain"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.ConnectDatabase(&config.Config{AppMode: "dev"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	return db
}

func TestUserRepositoryUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newDB(t))

	require.NoError(t, repo.Create(ctx, &models.User{ID: "u1", Email: "ada@example.com", Username: "ada"}))

	assert.ErrorIs(t, repo.Create(ctx, &models.User{ID: "u2", Email: "ADA@example.com"}), ErrDuplicateKey)
	assert.ErrorIs(t, repo.Create(ctx, &models.User{ID: "u3", Email: "other@example.com", Username: "Ada"}), ErrDuplicateKey)
	require.NoError(t, repo.Create(ctx, &models.User{ID: "u4", Email: "social@example.com"}))
	require.NoError(t, repo.Create(ctx, &models.User{ID: "u5", Email: "social2@example.com"}), "empty usernames never collide")

	u, err := repo.GetByEmail(ctx, "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	u.Username = "changed"
	again, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada", again.Username, "reads return copies")

	ok, err := repo.ExistsByUsername(ctx, "ADA")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestWalletApplyIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewWalletRepository(newDB(t))

	require.NoError(t, repo.Apply(ctx, Entry{UserID: "a", Currency: "USD", Delta: 1000}))

	err := repo.Apply(ctx,
		Entry{UserID: "b", Currency: "USD", Delta: 500},
		Entry{UserID: "a", Currency: "USD", Delta: -1500},
	)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = repo.GetByUserCurrency(ctx, "b", "USD")
	assert.ErrorIs(t, err, ErrRecordNotFound, "a failed apply credits nobody")

	a, err := repo.GetByUserCurrency(ctx, "a", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), a.Balance)

	err = repo.Apply(ctx, Entry{UserID: "a", Currency: "EUR", Delta: -1})
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
}

func TestWalletApplyNetsEntries(t *testing.T) {
	ctx := context.Background()
	repo := NewWalletRepository(newDB(t))
	require.NoError(t, repo.Apply(ctx, Entry{UserID: "a", Currency: "USD", Delta: 100}))

	// -150 alone would overdraw; the +100 in the same batch covers it
	require.NoError(t, repo.Apply(ctx,
		Entry{UserID: "a", Currency: "USD", Delta: -150},
		Entry{UserID: "a", Currency: "USD", Delta: 100},
	))

	w, err := repo.GetByUserCurrency(ctx, "a", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(50), w.Balance)
}

func TestWalletCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewWalletRepository(newDB(t))

	for _, c := range []string{"USD", "EUR", "NGN"} {
		require.NoError(t, repo.Create(ctx, &domain.Wallet{UserID: "a", Currency: c}))
	}
	assert.ErrorIs(t, repo.Create(ctx, &domain.Wallet{UserID: "a", Currency: "USD"}), ErrDuplicateKey)

	wallets, err := repo.ListByUser(ctx, "a")
	require.NoError(t, err)
	require.Len(t, wallets, 3)
	assert.Equal(t, []string{"EUR", "NGN", "USD"},
		[]string{wallets[0].Currency, wallets[1].Currency, wallets[2].Currency})
}

func TestTransactionListByUser(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(newDB(t))

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &domain.Transaction{
			ID:     fmt.Sprintf("t%d", i),
			UserID: "a",
			Amount: int64(i),
			Status: domain.StatusCompleted,
		}))
	}
	require.NoError(t, repo.Create(ctx, &domain.Transaction{ID: "other", UserID: "b", Status: domain.StatusPending}))
	assert.ErrorIs(t, repo.Create(ctx, &domain.Transaction{ID: "t0"}), ErrDuplicateKey)

	page, total, err := repo.ListByUser(ctx, "a", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "t3", page[0].ID, "newest first")
	assert.Equal(t, "t2", page[1].ID)

	pending, err := repo.ListByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "other", pending[0].ID)
}

func TestTransactionMetadataIsCopied(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(newDB(t))

	tx := &domain.Transaction{ID: "t", UserID: "a", Metadata: map[string]interface{}{"k": "v"}}
	require.NoError(t, repo.Create(ctx, tx))
	tx.Metadata["k"] = "changed"

	got, err := repo.GetByID(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "v", got.Metadata["k"])
}

func TestBankAccountRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewBankAccountRepository(newDB(t))
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &domain.BankAccount{ID: "b2", UserID: "a", BankName: "Zenith Bank", AccountNumber: "2", CreatedAt: now.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &domain.BankAccount{ID: "b1", UserID: "a", BankName: "Access Bank", AccountNumber: "1", CreatedAt: now}))

	accounts, err := repo.ListByUser(ctx, "a")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "b1", accounts[0].ID, "oldest first")

	ok, err := repo.ExistsByUserAccount(ctx, "a", "Access Bank", "1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, "b1"))
	assert.ErrorIs(t, repo.Delete(ctx, "b1"), ErrRecordNotFound)
}

func TestTokenRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	repo := NewTokenRepository(newDB(t))
	now := time.Now()

	require.NoError(t, repo.Revoke(ctx, "old", now.Add(-time.Minute)))
	require.NoError(t, repo.Revoke(ctx, "live", now.Add(time.Hour)))
	require.NoError(t, repo.CreateReset(ctx, &models.PasswordReset{Token: "r", UserID: "a", ExpiresAt: now.Add(-time.Second)}))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	revoked, err := repo.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = repo.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)

	_, err = repo.GetReset(ctx, "r")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestIdempotencyKeepsFirstOutcome(t *testing.T) {
	ctx := context.Background()
	repo := NewIdempotencyRepository(newDB(t))

	first := &models.Idempotency{Key: "k", UserID: "a", Method: "POST", Path: "/api/wallet/top_up", Status: 200, Body: []byte(`{"n":1}`)}
	require.NoError(t, repo.Save(ctx, first))
	second := *first
	second.Body = []byte(`{"n":2}`)
	require.NoError(t, repo.Save(ctx, &second))

	got, err := repo.Get(ctx, models.IdempotencyScope("a", "POST", "/api/wallet/top_up", "k"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(got.Body))

	_, err = repo.Get(ctx, models.IdempotencyScope("b", "POST", "/api/wallet/top_up", "k"))
	assert.ErrorIs(t, err, ErrRecordNotFound, "keys are scoped per user")
}

func TestWalletApplyConcurrentDebits(t *testing.T) {
	ctx := context.Background()
	repo := NewWalletRepository(newDB(t))
	require.NoError(t, repo.Apply(ctx, Entry{UserID: "a", Currency: "USD", Delta: 500}))

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			errs <- repo.Apply(ctx, Entry{UserID: "a", Currency: "USD", Delta: -100})
		}()
	}

	var failed int
	for i := 0; i < 10; i++ {
		if err := <-errs; err != nil {
			assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
			failed++
		}
	}
	assert.Equal(t, 5, failed)

	w, err := repo.GetByUserCurrency(ctx, "a", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Balance)
}

func TestCountsAndPing(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	require.NoError(t, NewWalletRepository(db).Apply(ctx, Entry{UserID: "a", Currency: "USD", Delta: 1}))

	counts, err := Counts(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["wallets"])
	assert.Equal(t, int64(0), counts["users"])

	require.NoError(t, config.PingDatabase(db))
	require.NoError(t, config.CloseDatabase(db))
	assert.Error(t, config.PingDatabase(db))
}
