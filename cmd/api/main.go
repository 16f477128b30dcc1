package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/invoicer/internal/auth"
	"github.com/MrJamesThe3rd/invoicer/internal/auth/google"
	authStore "github.com/MrJamesThe3rd/invoicer/internal/auth/store"
	"github.com/MrJamesThe3rd/invoicer/internal/blob"
	"github.com/MrJamesThe3rd/invoicer/internal/client"
	clientStore "github.com/MrJamesThe3rd/invoicer/internal/client/store"
	"github.com/MrJamesThe3rd/invoicer/internal/company"
	companyStore "github.com/MrJamesThe3rd/invoicer/internal/company/store"
	"github.com/MrJamesThe3rd/invoicer/internal/config"
	"github.com/MrJamesThe3rd/invoicer/internal/database"
	"github.com/MrJamesThe3rd/invoicer/internal/document"
	"github.com/MrJamesThe3rd/invoicer/internal/export"
	invoicerHttp "github.com/MrJamesThe3rd/invoicer/internal/http"
	authHandler "github.com/MrJamesThe3rd/invoicer/internal/http/auth"
	clientHandler "github.com/MrJamesThe3rd/invoicer/internal/http/client"
	companyHandler "github.com/MrJamesThe3rd/invoicer/internal/http/company"
	exportHandler "github.com/MrJamesThe3rd/invoicer/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/invoicer/internal/http/importcsv"
	invoiceHandler "github.com/MrJamesThe3rd/invoicer/internal/http/invoice"
	userHandler "github.com/MrJamesThe3rd/invoicer/internal/http/user"
	"github.com/MrJamesThe3rd/invoicer/internal/importer"
	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/invoicer/internal/invoice/store"
	"github.com/MrJamesThe3rd/invoicer/internal/mail"
	"github.com/MrJamesThe3rd/invoicer/internal/tenant"
	"github.com/MrJamesThe3rd/invoicer/internal/user"
	userStore "github.com/MrJamesThe3rd/invoicer/internal/user/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.IsDevelopment() {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := auth.ValidateSecret(cfg.JWT.Secret, cfg.IsDevelopment()); err != nil {
		slog.Error("invalid jwt secret", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString(), database.Pool{
		MaxOpen:     cfg.DB.MaxOpenConns,
		MaxIdle:     cfg.DB.MaxIdleConns,
		MaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		slog.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}

	var (
		mailer = mail.NewSESSender(sesv2.NewFromConfig(awsCfg), cfg.AWS.MailFrom)
		blobs  = blob.NewS3Store(s3.NewFromConfig(awsCfg), cfg.AWS.Bucket)
		tokens = auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTTL)
	)

	var (
		companies = companyStore.New(db)
		clients   = clientStore.New(db)
	)

	var (
		authService = auth.NewService(authStore.New(db), tokens, mailer, auth.Options{
			RefreshTTL: cfg.JWT.RefreshTTL,
			ResetTTL:   cfg.JWT.ResetTTL,
			AppURL:     cfg.App.PublicURL,
			MailFrom:   cfg.AWS.MailFrom,
		})
		userService    = user.NewService(userStore.New(db))
		companyService = company.NewService(companies, blobs)
		clientService  = client.NewService(clients)
		renderer       = document.NewRenderer()
		invoiceService = invoice.NewService(invoiceStore.New(db), clients, companies, renderer, mailer)
		importService  = importer.NewService(clientService)
		exportService  = export.NewService(invoiceService, companies, renderer)
	)

	handlers := invoicerHttp.Handlers{
		Auth: authHandler.NewHandler(authService, tokens, google.NewVerifier(cfg.Google.ClientID), authHandler.Options{
			SecureCookies:   !cfg.IsDevelopment(),
			ExposeResetLink: cfg.IsDevelopment(),
		}),
		Users:    userHandler.NewHandler(userService, authService),
		Company:  companyHandler.NewHandler(companyService),
		Clients:  clientHandler.NewHandler(clientService),
		Import:   importHandler.NewHandler(importService),
		Invoices: invoiceHandler.NewHandler(invoiceService),
		Export:   exportHandler.NewHandler(exportService),
	}

	router := invoicerHttp.New(handlers, tokens, tenant.NewResolver(companies), invoicerHttp.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Timeout:        cfg.Server.Timeout,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		slog.Info("starting server", "name", cfg.App.Name, "addr", srv.Addr, "env", cfg.App.Env)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
