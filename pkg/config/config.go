package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Tuned heuristic defaults. These values were calibrated against harvested
// data, not derived; treat them as knobs.
const (
	DefaultTitleSimilarityThreshold = 0.80
	DefaultMacroSimilarityThreshold = 0.60
	DefaultCalorieTolerance         = 50
	DefaultProteinTolerance         = 5.0
	DefaultMacroMathTolerance       = 0.5
	DefaultMinQualityScore          = 0.4
	DefaultExtractionBatchSize      = 5
	DefaultCorpusDedupWindow        = 500
	DefaultViralScaleFactor         = 500.0
	DefaultLimitPerPlatform         = 50
)

// Config holds everything the harvester needs, populated from the
// environment. The bundled discoverers are credential-free; platforms
// gated on paid API access get their credentials here once their
// scrapers exist.
type Config struct {
	// AI extraction (empty = local heuristic extraction)
	AnthropicAPIKey string

	// Storage backends (first configured one wins: Mongo, Postgres, Supabase)
	MongoURI         string
	MongoDatabase    string
	PostgresDSN      string
	SupabaseURL      string
	SupabaseKey      string
	SupabasePassword string

	// Pipeline tuning
	TitleSimilarityThreshold float64
	MacroSimilarityThreshold float64
	CalorieTolerance         int
	ProteinTolerance         float64
	MacroMathTolerance       float64
	MinQualityScore          float64
	ExtractionBatchSize      int
	CorpusDedupWindow        int
	ViralScaleFactor         float64
	LimitPerPlatform         int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),

		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDatabase:    envOr("MONGO_DATABASE", "recipeharvest"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		SupabaseURL:      os.Getenv("SUPABASE_URL"),
		SupabaseKey:      os.Getenv("SUPABASE_KEY"),
		SupabasePassword: os.Getenv("SUPABASE_DB_PASSWORD"),

		TitleSimilarityThreshold: envFloat("TITLE_SIMILARITY_THRESHOLD", DefaultTitleSimilarityThreshold),
		MacroSimilarityThreshold: envFloat("MACRO_SIMILARITY_THRESHOLD", DefaultMacroSimilarityThreshold),
		CalorieTolerance:         envInt("CALORIE_TOLERANCE", DefaultCalorieTolerance),
		ProteinTolerance:         envFloat("PROTEIN_TOLERANCE", DefaultProteinTolerance),
		MacroMathTolerance:       envFloat("MACRO_MATH_TOLERANCE", DefaultMacroMathTolerance),
		MinQualityScore:          envFloat("MIN_QUALITY_SCORE", DefaultMinQualityScore),
		ExtractionBatchSize:      envInt("EXTRACTION_BATCH_SIZE", DefaultExtractionBatchSize),
		CorpusDedupWindow:        envInt("CORPUS_DEDUP_WINDOW", DefaultCorpusDedupWindow),
		ViralScaleFactor:         envFloat("VIRAL_SCALE_FACTOR", DefaultViralScaleFactor),
		LimitPerPlatform:         envInt("LIMIT_PER_PLATFORM", DefaultLimitPerPlatform),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
