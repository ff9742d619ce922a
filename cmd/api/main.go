package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/config"
	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/infrastructure/jwt"
	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/infrastructure/smtp"
	transporthttp "github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap the DynamoDB accounts table (creates it if it doesn't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.AccountsTable)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	mailer := smtp.NewMailer(cfg)

	deps := &transporthttp.Deps{
		AccountRepo: dynamo.NewAccountRepo(dynamoClient, cfg.AccountsTable),
		Mailer:      mailer,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
