package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/spendly/internal/config"
	"github.com/MrJamesThe3rd/spendly/internal/database"
	"github.com/MrJamesThe3rd/spendly/internal/docstore"
	docStore "github.com/MrJamesThe3rd/spendly/internal/docstore/store"
	spendlyHttp "github.com/MrJamesThe3rd/spendly/internal/http"
	"github.com/MrJamesThe3rd/spendly/internal/http/documents"
	identityHandler "github.com/MrJamesThe3rd/spendly/internal/http/identity"
	"github.com/MrJamesThe3rd/spendly/internal/identity"
	identityStore "github.com/MrJamesThe3rd/spendly/internal/identity/store"
)

const expensesCollection = "expenses"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(cfg.ConnectionString()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		tokens          = identity.NewTokens([]byte(cfg.Auth.Secret), cfg.Auth.Issuer, cfg.Auth.TokenTTL)
		identityService = identity.NewService(identityStore.New(db), tokens, identity.WithBcryptCost(cfg.Auth.BcryptCost))
		documentService = docstore.NewService(docStore.New(db))
	)

	var (
		expensesH = documents.NewHandler(documentService, identityService, expensesCollection)
		identityH = identityHandler.NewHandler(identityService)
	)

	router := spendlyHttp.New(expensesH, identityH, spendlyHttp.NewMetrics(), cfg.App.AllowedOrigins)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
