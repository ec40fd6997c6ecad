package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"recipe-harvest/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore persists recipes in a Postgres table with the structured
// document in a JSONB column and source_url as the conflict key.
type PostgresStore struct {
	db *sql.DB
}

const createRecipesTable = `
CREATE TABLE IF NOT EXISTS recipes (
	source_url TEXT PRIMARY KEY,
	platform   TEXT NOT NULL,
	title      TEXT NOT NULL,
	document   JSONB NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// NewPostgresStore opens a Postgres connection with the pgx stdlib driver
// and ensures the recipes table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createRecipesTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create recipes table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// ListRecent returns up to limit recipes, most recently scraped first.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*domain.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document FROM recipes ORDER BY scraped_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan recipe row: %w", err)
		}
		var r domain.Recipe
		if err := json.Unmarshal(doc, &r); err != nil {
			continue // Skip documents that no longer match the schema
		}
		recipes = append(recipes, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return recipes, nil
}

// Upsert inserts or replaces the recipe stored under its SourceURL.
func (s *PostgresStore) Upsert(ctx context.Context, recipe *domain.Recipe) error {
	doc, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("marshal recipe %s: %w", recipe.SourceURL, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recipes (source_url, platform, title, document, scraped_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_url) DO UPDATE
		SET platform = EXCLUDED.platform,
		    title = EXCLUDED.title,
		    document = EXCLUDED.document,
		    scraped_at = EXCLUDED.scraped_at`,
		recipe.SourceURL, string(recipe.Platform), recipe.Title, doc, recipe.ScrapedAt)
	if err != nil {
		return fmt.Errorf("upsert recipe %s: %w", recipe.SourceURL, err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}
