package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"recipe-harvest/pkg/config"
	"recipe-harvest/pkg/discovery"
	"recipe-harvest/pkg/domain"
	"recipe-harvest/pkg/extract"
	"recipe-harvest/pkg/harvest"
	"recipe-harvest/pkg/httpclient"
	"recipe-harvest/pkg/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	recipeStore := openStore(ctx, cfg)
	defer recipeStore.Close(ctx)

	// Optional platform selection from arguments, e.g. "reddit youtube".
	var platforms []domain.Platform
	for _, arg := range os.Args[1:] {
		p := domain.Platform(arg)
		if !p.Valid() {
			log.Fatalf("Unknown platform %q (known: %v)", arg, domain.KnownPlatforms)
		}
		platforms = append(platforms, p)
	}

	orchestrator := harvest.NewOrchestrator(harvest.Options{
		Discoverers: buildDiscoverers(),
		Extractor:   buildExtractor(cfg),
		Enricher:    extract.NewEnricher(httpclient.New(httpclient.BrowserProfile, 30*time.Second)),
		Store:       recipeStore,
		Config:      cfg,
		RunLog:      harvest.NewRunLog("harvests.jsonl"),
	})

	run, err := orchestrator.RunHarvest(ctx, platforms, cfg.LimitPerPlatform)
	if err != nil {
		log.Fatalf("Harvest failed to start: %v", err)
	}

	out, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		log.Fatalf("Failed to render run record: %v", err)
	}
	fmt.Println(string(out))

	if run.Status != harvest.StatusCompleted {
		os.Exit(1)
	}
}

// openStore picks the first configured backend: Mongo, Postgres, Supabase,
// then in-memory as a last resort so a harvest can still run end to end.
func openStore(ctx context.Context, cfg config.Config) store.RecipeStore {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch {
	case cfg.MongoURI != "":
		s, err := store.NewMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		log.Printf("Using MongoDB store (database %s)", cfg.MongoDatabase)
		return s

	case cfg.PostgresDSN != "":
		s, err := store.NewPostgresStore(connectCtx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		log.Println("Using Postgres store")
		return s

	case cfg.SupabaseURL != "":
		s, err := store.NewSupabaseStore(connectCtx, store.SupabaseConfig{
			ProjectURL: cfg.SupabaseURL,
			APIKey:     cfg.SupabaseKey,
			DBPassword: cfg.SupabasePassword,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Supabase: %v", err)
		}
		log.Println("Using Supabase store")
		return s

	default:
		log.Println("No storage backend configured, using in-memory store")
		return store.NewMemoryStore()
	}
}

// buildDiscoverers assembles the credential-free discoverers. Platforms
// that require paid API access are skipped until their scrapers land.
func buildDiscoverers() []discovery.Discoverer {
	return []discovery.Discoverer{
		discovery.NewRedditPublic(httpclient.New(httpclient.JSONProfile, 15*time.Second)),
		discovery.NewYouTubeRSS(),
	}
}

func buildExtractor(cfg config.Config) extract.Extractor {
	if cfg.AnthropicAPIKey != "" {
		return extract.NewAIExtractor(cfg.AnthropicAPIKey)
	}
	log.Println("No AI API key configured, using local heuristic extraction")
	return extract.NewLocalExtractor()
}
