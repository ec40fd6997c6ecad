package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"recipe-harvest/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
	supabase "github.com/supabase-community/supabase-go"
)

// SupabaseConfig holds what is needed to reach a Supabase-hosted Postgres.
type SupabaseConfig struct {
	// ProjectURL is the Supabase project URL, e.g.
	// "https://[project-ref].supabase.co".
	ProjectURL string
	// APIKey is the service_role key; used to initialize the SDK client.
	APIKey string
	// DBPassword is the database password used to build the direct
	// Postgres connection string.
	DBPassword string
}

// SupabaseStore is a RecipeStore on Supabase-hosted Postgres. Queries go
// through a direct database connection; the SDK client is kept for
// project-level features (auth, storage) that sit outside this store.
type SupabaseStore struct {
	inner *PostgresStore
	sdk   *supabase.Client
}

// NewSupabaseStore connects to the Supabase project's Postgres database and
// ensures the recipes table exists.
func NewSupabaseStore(ctx context.Context, cfg SupabaseConfig) (*SupabaseStore, error) {
	var sdk *supabase.Client
	if cfg.ProjectURL != "" && cfg.APIKey != "" {
		client, err := supabase.NewClient(cfg.ProjectURL, cfg.APIKey, nil)
		if err != nil {
			return nil, fmt.Errorf("initialize supabase SDK: %w", err)
		}
		sdk = client
	}

	connStr, err := buildSupabaseConnString(cfg)
	if err != nil {
		return nil, err
	}

	inner, err := NewPostgresStore(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect supabase postgres: %w", err)
	}

	return &SupabaseStore{inner: inner, sdk: sdk}, nil
}

func (s *SupabaseStore) ListRecent(ctx context.Context, limit int) ([]*domain.Recipe, error) {
	return s.inner.ListRecent(ctx, limit)
}

func (s *SupabaseStore) Upsert(ctx context.Context, recipe *domain.Recipe) error {
	return s.inner.Upsert(ctx, recipe)
}

func (s *SupabaseStore) Close(ctx context.Context) error {
	return s.inner.Close(ctx)
}

// DB exposes the underlying handle for ad-hoc queries.
func (s *SupabaseStore) DB() *sql.DB { return s.inner.db }

// SDK returns the Supabase SDK client, or nil when it was not configured.
func (s *SupabaseStore) SDK() *supabase.Client { return s.sdk }

// buildSupabaseConnString derives the direct Postgres connection string
// from the project URL and database password. Prepared-statement caching is
// disabled to avoid conflicts under connection pooling.
func buildSupabaseConnString(cfg SupabaseConfig) (string, error) {
	if cfg.ProjectURL == "" {
		return "", fmt.Errorf("supabase project URL is required")
	}
	if cfg.DBPassword == "" {
		return "", fmt.Errorf("supabase database password is required")
	}

	parsed, err := url.Parse(cfg.ProjectURL)
	if err != nil {
		return "", fmt.Errorf("parse supabase URL: %w", err)
	}
	parts := strings.Split(parsed.Host, ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("invalid supabase URL: expected [project-ref].supabase.co")
	}
	projectRef := parts[0]

	return fmt.Sprintf(
		"postgresql://postgres:%s@db.%s.supabase.co:5432/postgres?sslmode=require&statement_cache_capacity=0",
		url.QueryEscape(cfg.DBPassword), projectRef,
	), nil
}
