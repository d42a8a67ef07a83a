package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	_ "github.com/lib/pq"

	"shelfmark/internal/catalog"
	"shelfmark/internal/config"
	"shelfmark/internal/identity"
	"shelfmark/internal/loan"
	"shelfmark/internal/report"
	"shelfmark/internal/server"
	"shelfmark/internal/store"
	"shelfmark/internal/telemetry"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	shutdown, err := telemetry.Setup(ctx, "shelfmark", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to set up telemetry: %v", err)
	}
	defer shutdown(ctx)

	engine, err := openEngine(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store engine: %v", err)
	}

	users, err := store.Open[identity.User](ctx, engine, "users")
	if err != nil {
		log.Fatalf("Failed to open users collection: %v", err)
	}
	books, err := store.Open[catalog.Book](ctx, engine, "books")
	if err != nil {
		log.Fatalf("Failed to open books collection: %v", err)
	}
	loans, err := store.Open[loan.Loan](ctx, engine, "loans")
	if err != nil {
		log.Fatalf("Failed to open loans collection: %v", err)
	}

	identitySvc := identity.NewService(users)
	catalogSvc := catalog.NewService(books)
	loanSvc := loan.NewService(loans, catalogSvc, identitySvc)
	reportSvc := report.NewService(identitySvc, loanSvc, catalogSvc)

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := identitySvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Printf("bootstrap admin: %v", err)
		}
	}

	router := server.NewRouter(
		identity.NewHandler(identitySvc),
		catalog.NewHandler(catalogSvc),
		loan.NewHandler(loanSvc),
		report.NewHandler(reportSvc),
	)

	log.Printf("shelfmark listening on %s (store engine: %s)", cfg.Addr, cfg.StoreEngine)
	log.Fatal(http.ListenAndServe(cfg.Addr, router))
}

func openEngine(ctx context.Context, cfg config.Config) (store.Engine, error) {
	switch cfg.StoreEngine {
	case "memory":
		return store.NewMemoryEngine(), nil
	case "file":
		return store.NewFileEngine(cfg.DataDir)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres engine")
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		engine := store.NewPostgresEngine(db)
		if err := engine.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, fmt.Errorf("unknown store engine %q", cfg.StoreEngine)
	}
}
