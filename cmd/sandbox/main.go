package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"payego/internal/config"
	"payego/internal/sandbox"
)

//go:generate swag init -g cmd/sandbox/main.go -d ../../ -o ../../docs

// @title Payego Sandbox API
// @version 1.0
// @description Local stand-in for the Payego wallet backend
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Build the API
	server, err := sandbox.New(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to build sandbox: %v", err)
	}

	// Start settlement and cleanup jobs
	server.Start()

	// Graceful shutdown
	go gracefulShutdown(server)

	// Start server
	log.Printf("🚀 Sandbox starting on port %s [MODE: %s]", cfg.Sandbox.Port, cfg.AppMode)
	if err := server.Listen(":" + cfg.Sandbox.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(server *sandbox.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := server.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
