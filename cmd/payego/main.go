package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"payego/internal/app"
	"payego/internal/config"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := NewCommandRegistry(VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}, openApp, os.Stdin, os.Stdout, os.Stderr)

	registerCommands(registry)

	if err := registry.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		stop()
		os.Exit(1)
	}
}

// openApp loads the configuration and resolves the stored session.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	a.Start(ctx)
	return a, nil
}

func registerCommands(r *CommandRegistry) {
	registerAuthCommands(r)
	registerWalletCommands(r)
	registerBankCommands(r)
	registerSettingsCommands(r)
}
