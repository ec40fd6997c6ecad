package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.TitleSimilarityThreshold != DefaultTitleSimilarityThreshold {
		t.Errorf("Expected default title similarity %v, got %v",
			DefaultTitleSimilarityThreshold, cfg.TitleSimilarityThreshold)
	}
	if cfg.MinQualityScore != DefaultMinQualityScore {
		t.Errorf("Expected default min quality %v, got %v",
			DefaultMinQualityScore, cfg.MinQualityScore)
	}
	if cfg.ExtractionBatchSize != DefaultExtractionBatchSize {
		t.Errorf("Expected default batch size %d, got %d",
			DefaultExtractionBatchSize, cfg.ExtractionBatchSize)
	}
	if cfg.ViralScaleFactor != DefaultViralScaleFactor {
		t.Errorf("Expected default viral scale %v, got %v",
			DefaultViralScaleFactor, cfg.ViralScaleFactor)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MIN_QUALITY_SCORE", "0.6")
	t.Setenv("EXTRACTION_BATCH_SIZE", "10")

	cfg := Load()

	if cfg.MinQualityScore != 0.6 {
		t.Errorf("Expected min quality 0.6 from env, got %v", cfg.MinQualityScore)
	}
	if cfg.ExtractionBatchSize != 10 {
		t.Errorf("Expected batch size 10 from env, got %d", cfg.ExtractionBatchSize)
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("CALORIE_TOLERANCE", "not-a-number")

	cfg := Load()

	if cfg.CalorieTolerance != DefaultCalorieTolerance {
		t.Errorf("Expected fallback to default %d, got %d",
			DefaultCalorieTolerance, cfg.CalorieTolerance)
	}
}
