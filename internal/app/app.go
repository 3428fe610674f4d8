// Package app wires the client together. One App exists per process and is
// the single owner of the session.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"payego/internal/adapters/api"
	"payego/internal/adapters/credential"
	"payego/internal/config"
	"payego/internal/core/domain"
	"payego/internal/core/forms"
	"payego/internal/core/query"
	"payego/internal/core/session"
	"payego/internal/pkg/pagination"
	"payego/internal/shell"
)

// App holds every long-lived client component.
type App struct {
	Config  *config.Config
	Vault   *credential.Vault
	Prefs   *credential.Preferences
	API     *api.Client
	Session *session.Manager
	Cache   *query.Cache
	Router  *shell.Router
	Layout  *shell.Layout
	Auth    *forms.Auth
}

type options struct {
	durable    credential.Store
	ephemeral  credential.Store
	httpClient *http.Client
}

// Option configures New.
type Option func(*options)

// WithStores replaces the on-disk durable scope and the in-memory ephemeral scope.
func WithStores(durable, ephemeral credential.Store) Option {
	return func(o *options) {
		o.durable = durable
		o.ephemeral = ephemeral
	}
}

// WithHTTPClient replaces the API transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// New builds the App. Call Start before using it.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.durable == nil {
		fs, err := credential.OpenFileStore(cfg.StatePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open credential store: %w", err)
		}
		o.durable = fs
	}
	if o.ephemeral == nil {
		o.ephemeral = credential.NewMemoryStore()
	}

	vault := credential.NewVault(o.durable, o.ephemeral)
	prefs := credential.NewPreferences(vault.Durable())

	var apiOpts []api.Option
	if o.httpClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(o.httpClient))
	}
	client := api.New(cfg.API, vault, apiOpts...)

	sess := session.NewManager(vault, client, session.WithLogoutTimeout(cfg.API.Timeout))
	cache := query.New(query.Config{TTL: cfg.Client.CacheTTL})
	router := shell.NewRouter(sess, nil)

	client.SetNavigator(router)
	client.OnUnauthorized(sess.ForceUnauthenticated)
	sess.Subscribe(func(s session.State) {
		if !s.IsAuthenticated {
			cache.Clear()
		}
		router.Sync()
	})

	return &App{
		Config:  cfg,
		Vault:   vault,
		Prefs:   prefs,
		API:     client,
		Session: sess,
		Cache:   cache,
		Router:  router,
		Layout:  shell.NewLayout(prefs),
		Auth:    forms.NewAuth(client, sess, router, cfg.Client.VerifyRedirect),
	}, nil
}

// Start resolves the stored credential.
func (a *App) Start(ctx context.Context) {
	if err := a.Session.Mount(ctx); err != nil {
		log.Printf("⚠️ Stored session rejected: %v", err)
	}
}

// Close waits for background work and cancels scheduled redirects.
func (a *App) Close() {
	a.Session.Wait()
	a.Router.Close()
}

// Deps returns the dependencies shared by the transaction forms.
func (a *App) Deps() forms.Deps {
	return forms.Deps{
		API:    a.API,
		Data:   formData{a},
		Cache:  a.Cache,
		Nav:    a.Router,
		Limits: a.Config.Limits,
	}
}

func (a *App) LoadWallets(ctx context.Context) ([]domain.Wallet, error) {
	return query.Get(ctx, a.Cache, query.KeyWallets, a.API.Wallets)
}

func (a *App) LoadUserBanks(ctx context.Context) ([]domain.BankAccount, error) {
	return query.Get(ctx, a.Cache, query.KeyUserBanks, a.API.UserBanks)
}

func (a *App) LoadBanks(ctx context.Context) ([]domain.Bank, error) {
	return query.Get(ctx, a.Cache, query.KeyBanks, a.API.Banks)
}

func (a *App) LoadTransactions(ctx context.Context, page *pagination.Params) (*api.TransactionsResponse, error) {
	key := query.KeyTransactions
	if page != nil {
		key = query.Variant(key, page.Values().Encode())
	}
	return query.Get(ctx, a.Cache, key, func(ctx context.Context) (*api.TransactionsResponse, error) {
		return a.API.Transactions(ctx, page)
	})
}

func (a *App) LoadTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return query.Get(ctx, a.Cache, query.TransactionKey(id), func(ctx context.Context) (*domain.Transaction, error) {
		return a.API.Transaction(ctx, id)
	})
}

// formData exposes what the views currently show to the forms.
type formData struct {
	app *App
}

// Wallets reads through the cache: fresh wallets are served as is, missing or
// stale ones are refetched so balance checks never run against nothing. On a
// failed fetch the last known wallets are used.
func (d formData) Wallets() []domain.Wallet {
	if !d.app.Session.State().IsAuthenticated {
		return nil
	}

	ctx := context.Background()
	if t := d.app.Config.API.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}
	wallets, err := d.app.LoadWallets(ctx)
	if err == nil {
		return wallets
	}

	log.Printf("⚠️ Failed to load wallets for validation: %v", err)
	if res, ok := d.app.Cache.Peek(query.KeyWallets); ok {
		wallets, _ = res.Data.([]domain.Wallet)
	}
	return wallets
}

func (d formData) User() *domain.User {
	return d.app.Session.State().User
}
