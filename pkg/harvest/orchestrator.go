package harvest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"recipe-harvest/pkg/config"
	"recipe-harvest/pkg/dedup"
	"recipe-harvest/pkg/discovery"
	"recipe-harvest/pkg/domain"
	"recipe-harvest/pkg/extract"
	"recipe-harvest/pkg/quality"
	"recipe-harvest/pkg/store"
	"recipe-harvest/pkg/validate"
	"recipe-harvest/pkg/viral"
	"recipe-harvest/pkg/worker"
)

// Options wires the orchestrator's collaborators together.
type Options struct {
	Discoverers []discovery.Discoverer
	Extractor   extract.Extractor
	// Enricher fills missing thumbnails/descriptions after extraction.
	// Optional.
	Enricher *extract.Enricher
	Store    store.RecipeStore
	Config   config.Config
	// RunLog receives a JSON line per finished run. Optional.
	RunLog *RunLog
}

// Orchestrator coordinates one harvest at a time:
// discover -> extract -> dedup -> validate/quality -> rank -> store.
type Orchestrator struct {
	discoverers []discovery.Discoverer
	extractor   extract.Extractor
	enricher    *extract.Enricher
	store       store.RecipeStore
	gate        *validate.Gate
	scorer      *viral.Scorer
	pool        *worker.Pool
	cfg         config.Config
	runLog      *RunLog

	mu      sync.Mutex
	active  bool
	lastRun *Run
}

// NewOrchestrator creates an orchestrator over the given collaborators.
func NewOrchestrator(opts Options) *Orchestrator {
	return &Orchestrator{
		discoverers: opts.Discoverers,
		extractor:   opts.Extractor,
		enricher:    opts.Enricher,
		store:       opts.Store,
		gate:        validate.NewGate(opts.Config.MacroMathTolerance),
		scorer:      viral.NewScorer(opts.Config.ViralScaleFactor),
		pool:        worker.NewPool(opts.Config.ExtractionBatchSize, 2*time.Minute),
		cfg:         opts.Config,
		runLog:      opts.RunLog,
	}
}

// LastRun returns a snapshot of the most recent run, or nil before the
// first harvest.
func (o *Orchestrator) LastRun() *Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastRun == nil {
		return nil
	}
	return o.lastRun.snapshot()
}

// record runs fn while holding the orchestrator lock. Every mutation of the
// active run goes through it so LastRun can take a consistent snapshot while
// a harvest is in flight.
func (o *Orchestrator) record(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn()
}

// RunHarvest executes one full harvest over the requested platforms (nil
// means every configured platform). It returns ErrRunActive if a run is
// already in progress. Stage failures are absorbed into counters; only the
// conflict case surfaces as an error.
func (o *Orchestrator) RunHarvest(ctx context.Context, platforms []domain.Platform, limitPerPlatform int) (result *Run, err error) {
	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		return nil, ErrRunActive
	}
	run := newRun()
	run.StartedAt = time.Now().UTC()
	run.Status = StatusRunning
	o.active = true
	o.lastRun = run
	o.mu.Unlock()

	if limitPerPlatform <= 0 {
		limitPerPlatform = o.cfg.LimitPerPlatform
	}

	defer func() {
		r := recover()
		if r != nil {
			log.Printf("[harvest:%s] run panicked: %v", run.RunID, r)
		}
		// The run record survives a recovered panic with partial counts.
		result = run

		finished := time.Now().UTC()
		o.mu.Lock()
		if r != nil {
			run.Status = StatusFailed
		}
		run.FinishedAt = &finished
		run.DurationSeconds = finished.Sub(run.StartedAt).Seconds()
		o.active = false
		o.mu.Unlock()

		log.Printf("[harvest:%s] Finished in %.1fs: stored=%d, discovered=%d, extracted=%d, dupes=%d",
			run.RunID, run.DurationSeconds, run.Stored, run.TotalDiscovered, run.TotalExtracted, run.DuplicatesFound)

		if o.runLog != nil {
			if err := o.runLog.Append(run); err != nil {
				log.Printf("[harvest:%s] failed to append run log: %v", run.RunID, err)
			}
		}
	}()

	// Step 1: concurrent discovery across platforms
	log.Printf("[harvest:%s] Starting discovery on %d platforms", run.RunID, len(o.targets(platforms)))
	candidates, corpus := o.discoverAll(ctx, run, platforms, limitPerPlatform)
	o.record(func() {
		for _, n := range run.Discovered {
			run.TotalDiscovered += n
		}
	})
	log.Printf("[harvest:%s] Discovered %d posts", run.RunID, run.TotalDiscovered)

	// Step 2: extraction in bounded batches
	recipes := o.extractAll(ctx, run, candidates)
	o.record(func() { run.TotalExtracted = len(recipes) })
	log.Printf("[harvest:%s] Extracted %d recipes", run.RunID, run.TotalExtracted)

	// Step 3: dedup within batch, then against the stored corpus
	deduped := o.deduplicate(run, recipes, corpus)

	// Step 4: validation gate and quality filter
	survivors := o.qualityFilter(run, deduped)

	// Step 5: rank and store
	ranked := o.scorer.ScoreAndRank(survivors)
	log.Printf("[harvest:%s] Storing %d recipes", run.RunID, len(ranked))
	o.storeAll(ctx, run, ranked)

	o.record(func() { run.Status = StatusCompleted })
	return run, nil
}

// targets returns the discoverers matching the requested platforms, or all
// of them when platforms is nil.
func (o *Orchestrator) targets(platforms []domain.Platform) []discovery.Discoverer {
	if platforms == nil {
		return o.discoverers
	}
	want := make(map[domain.Platform]bool, len(platforms))
	for _, p := range platforms {
		want[p] = true
	}
	var out []discovery.Discoverer
	for _, d := range o.discoverers {
		if want[d.Platform()] {
			out = append(out, d)
		}
	}
	return out
}

// discoverAll fans discovery out across platforms and merges results after
// every platform settles. It also loads the corpus dedup window up front so
// already-stored URLs can be filtered before extraction; a corpus load
// failure degrades to no prefilter and batch-only dedup.
func (o *Orchestrator) discoverAll(ctx context.Context, run *Run, platforms []domain.Platform, limit int) ([]domain.RawCandidate, []*domain.Recipe) {
	corpus, err := o.store.ListRecent(ctx, o.cfg.CorpusDedupWindow)
	if err != nil {
		log.Printf("[harvest:%s] corpus load failed, dedup degrades to batch-only: %v", run.RunID, err)
		corpus = nil
	}
	seen := make(map[string]bool, len(corpus))
	for _, r := range corpus {
		seen[r.SourceURL] = true
	}

	var (
		candidates []domain.RawCandidate
		wg         sync.WaitGroup
	)

	for _, d := range o.targets(platforms) {
		wg.Add(1)
		go func(d discovery.Discoverer) {
			defer wg.Done()
			platform := d.Platform()

			defer func() {
				if r := recover(); r != nil {
					o.record(func() {
						run.Errors[platform] = append(run.Errors[platform], fmt.Sprintf("discovery panicked: %v", r))
					})
					log.Printf("[harvest:%s] %s discovery panicked: %v", run.RunID, platform, r)
				}
			}()

			found, err := d.Discover(ctx, limit)
			if err != nil {
				o.record(func() {
					run.Errors[platform] = append(run.Errors[platform], err.Error())
				})
				log.Printf("[harvest:%s] %s discovery failed: %v", run.RunID, platform, err)
				return
			}
			kept := discovery.ApplyFilters(ctx, found,
				discovery.NewSeenURLFilter(seen), discovery.NewKeywordFilter())
			o.record(func() {
				run.Discovered[platform] = len(kept)
				candidates = append(candidates, kept...)
			})
		}(d)
	}
	wg.Wait()

	return candidates, corpus
}

// extractAll runs extraction in batches through the worker pool. Per-item
// failures are counted against the item's platform and the item dropped.
func (o *Orchestrator) extractAll(ctx context.Context, run *Run, candidates []domain.RawCandidate) []*domain.Recipe {
	var recipes []*domain.Recipe

	batchSize := o.cfg.ExtractionBatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	for i := 0; i < len(candidates); i += batchSize {
		end := i + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		for _, res := range o.pool.ExtractAll(ctx, o.extractor, candidates[i:end]) {
			platform := res.Candidate.Platform
			if res.Err != nil {
				o.record(func() {
					run.Errors[platform] = append(run.Errors[platform], res.Err.Error())
				})
				continue
			}
			if res.Recipe == nil {
				continue // not a recipe
			}

			if o.enricher != nil {
				if err := o.enricher.Enrich(ctx, res.Recipe); err != nil {
					log.Printf("[harvest:%s] enrichment failed for %s: %v", run.RunID, res.Recipe.SourceURL, err)
				}
			}
			o.record(func() { run.Extracted[platform]++ })
			recipes = append(recipes, res.Recipe)
		}
	}
	return recipes
}

func (o *Orchestrator) deduplicate(run *Run, recipes []*domain.Recipe, corpus []*domain.Recipe) []*domain.Recipe {
	deduper := dedup.New(
		o.cfg.TitleSimilarityThreshold,
		o.cfg.MacroSimilarityThreshold,
		o.cfg.CalorieTolerance,
		o.cfg.ProteinTolerance,
	)

	kept := deduper.DeduplicateBatch(recipes)
	if len(corpus) > 0 {
		kept = deduper.FilterAgainstCorpus(kept, corpus)
	}

	o.record(func() { run.DuplicatesFound = deduper.Log.DuplicatesFound })
	return kept
}

// qualityFilter drops recipes the validation gate rejects, then scores the
// rest against the minimum quality threshold. Rejections are expected
// outcomes, not errors.
func (o *Orchestrator) qualityFilter(run *Run, recipes []*domain.Recipe) []*domain.Recipe {
	var passed []*domain.Recipe
	for _, r := range recipes {
		if result := o.gate.Validate(r); !result.Valid {
			o.record(func() { run.QualityFailed++ })
			log.Printf("[harvest:%s] validation rejected %.40q: %s", run.RunID, r.Title, result.Reason)
			continue
		}

		report := quality.Score(r)
		if report.Score >= o.cfg.MinQualityScore {
			o.record(func() { run.QualityPassed++ })
			passed = append(passed, r)
		} else {
			o.record(func() { run.QualityFailed++ })
			log.Printf("[harvest:%s] quality rejected %.40q (score=%.3f)", run.RunID, r.Title, report.Score)
		}
	}
	return passed
}

// storeAll upserts each recipe individually; one failed write does not stop
// the rest.
func (o *Orchestrator) storeAll(ctx context.Context, run *Run, recipes []*domain.Recipe) {
	for _, r := range recipes {
		if err := o.store.Upsert(ctx, r); err != nil {
			o.record(func() {
				run.Errors[r.Platform] = append(run.Errors[r.Platform], fmt.Sprintf("store %s: %v", r.SourceURL, err))
			})
			log.Printf("[harvest:%s] failed to store %s: %v", run.RunID, r.SourceURL, err)
			continue
		}
		o.record(func() { run.Stored++ })
	}
}
