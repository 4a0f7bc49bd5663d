package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"letterforge/api/internal/app"
	"letterforge/api/internal/auth"
	"letterforge/api/internal/config"
	"letterforge/api/internal/email"
	"letterforge/api/internal/gitrepo"
	"letterforge/api/internal/store"
	"letterforge/api/internal/tokenstore"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.ReposDir, 0o755); err != nil {
		log.Fatalf("failed to create repos dir: %v", err)
	}

	templates := store.NewPostgresStore(db)
	history := gitrepo.New(filepath.Join(cfg.ReposDir, "master-template"))
	if tpl, err := templates.GetTemplate(ctx, store.DefaultTemplate); err != nil {
		log.Fatalf("load default template: %v", err)
	} else if err := history.Ensure(tpl.HTML, "system"); err != nil {
		log.Fatalf("init template history: %v", err)
	}

	var tokens app.TokenStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for bearer token storage")
		redisTokens, err := tokenstore.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisTokens.Close()
		tokens = redisTokens
	} else {
		log.Printf("Using in-memory bearer token storage")
		tokens = tokenstore.NewMemoryStore()
	}

	adminHash := cfg.AdminPasswordHash
	if adminHash == "" && cfg.AdminPassword != "" {
		adminHash, err = auth.HashAdminPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatalf("hash admin password: %v", err)
		}
	}

	mail := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})

	service := app.NewService(app.Config{
		TokenSecret:       []byte(cfg.TokenSecret),
		TokenTTL:          cfg.TokenTTL,
		TemplateSecret:    cfg.TemplateSecret,
		AdminName:         "Administrator",
		AdminPasswordHash: adminHash,
	}, templates, tokens, history, mail)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Letterforge API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
