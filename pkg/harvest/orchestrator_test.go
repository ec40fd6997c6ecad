package harvest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"recipe-harvest/pkg/config"
	"recipe-harvest/pkg/discovery"
	"recipe-harvest/pkg/domain"
	"recipe-harvest/pkg/store"
)

// fakeDiscoverer serves canned candidates for one platform.
type fakeDiscoverer struct {
	platform   domain.Platform
	candidates []domain.RawCandidate
	err        error
	panics     bool

	started chan struct{} // closed when Discover is first called, if set
	release chan struct{} // Discover blocks until closed, if set
}

func (f *fakeDiscoverer) Platform() domain.Platform { return f.platform }

func (f *fakeDiscoverer) Discover(ctx context.Context, limit int) ([]domain.RawCandidate, error) {
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.release != nil {
		<-f.release
	}
	if f.panics {
		panic("discovery exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.candidates) > limit {
		return f.candidates[:limit], nil
	}
	return f.candidates, nil
}

// fakeExtractor builds a recipe per candidate. IDs in notRecipe return
// (nil, nil); IDs in fail return an error. Candidates with "sparse" in the
// ID produce a minimal recipe so dedup has a completeness loser.
type fakeExtractor struct {
	notRecipe map[string]bool
	fail      map[string]bool
}

func (f *fakeExtractor) Extract(ctx context.Context, c domain.RawCandidate) (*domain.Recipe, error) {
	if f.fail[c.ID] {
		return nil, fmt.Errorf("extraction failed for %s", c.ID)
	}
	if f.notRecipe[c.ID] {
		return nil, nil
	}

	r := &domain.Recipe{
		Title:        c.Title,
		SourceURL:    c.SourceURL,
		Platform:     c.Platform,
		ThumbnailURL: "https://cdn.example/" + c.ID + ".jpg",
		ScrapedAt:    time.Now().UTC(),
	}
	if c.ID == "sparse" {
		r.Ingredients = []string{"200g chicken"}
		return r, nil
	}

	cal, protein, carbs, fat := 500, 40.0, 40.0, 10.0
	r.Description = "A simple weeknight bowl that reheats well."
	r.Ingredients = []string{"200g chicken breast", "150g jasmine rice", "100g broccoli"}
	r.Steps = []string{
		"Grill the chicken until cooked through.",
		"Cook the rice until fluffy.",
		"Steam the broccoli and assemble.",
	}
	r.Nutrition = &domain.Nutrition{Calories: &cal, ProteinG: &protein, CarbsG: &carbs, FatG: &fat, Servings: 2}
	r.Tags = []string{"high-protein"}
	r.Creator = domain.Creator{Username: c.Author, Platform: c.Platform}
	likes := int64(100)
	r.Engagement = domain.Engagement{Likes: &likes}
	return r, nil
}

func candidate(platform domain.Platform, id, title string) domain.RawCandidate {
	return domain.RawCandidate{
		Platform:  platform,
		ID:        id,
		Title:     title,
		Author:    "creator",
		SourceURL: fmt.Sprintf("https://%s.example/%s", platform, id),
	}
}

func testOrchestrator(discoverers []*fakeDiscoverer, extractor *fakeExtractor, s store.RecipeStore) *Orchestrator {
	opts := Options{
		Extractor: extractor,
		Store:     s,
		Config:    config.Load(),
	}
	for _, d := range discoverers {
		opts.Discoverers = append(opts.Discoverers, d)
	}
	return NewOrchestrator(opts)
}

func TestOrchestrator_FullRun(t *testing.T) {
	reddit := &fakeDiscoverer{
		platform: domain.PlatformReddit,
		candidates: []domain.RawCandidate{
			candidate(domain.PlatformReddit, "full", "Chicken Rice Bowl Recipe"),
			candidate(domain.PlatformReddit, "sparse", "Chicken Rice Bowl Recipe"),
			candidate(domain.PlatformReddit, "tour", "My cooking setup tour"),
		},
	}
	youtube := &fakeDiscoverer{
		platform: domain.PlatformYouTube,
		candidates: []domain.RawCandidate{
			candidate(domain.PlatformYouTube, "pasta", "High Protein Pasta Bake"),
		},
	}
	memory := store.NewMemoryStore()
	extractor := &fakeExtractor{notRecipe: map[string]bool{"tour": true}}

	o := testOrchestrator([]*fakeDiscoverer{reddit, youtube}, extractor, memory)

	run, err := o.RunHarvest(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("RunHarvest failed: %v", err)
	}

	if run.Status != StatusCompleted {
		t.Fatalf("Expected completed run, got %s", run.Status)
	}
	if run.Discovered[domain.PlatformReddit] != 3 || run.Discovered[domain.PlatformYouTube] != 1 {
		t.Errorf("Unexpected discovery counts: %v", run.Discovered)
	}
	if run.TotalDiscovered != 4 {
		t.Errorf("Expected 4 total discovered, got %d", run.TotalDiscovered)
	}
	// "tour" is not a recipe, so 2 extracted on reddit and 1 on youtube.
	if run.Extracted[domain.PlatformReddit] != 2 || run.Extracted[domain.PlatformYouTube] != 1 {
		t.Errorf("Unexpected extraction counts: %v", run.Extracted)
	}
	if run.TotalExtracted != 3 {
		t.Errorf("Expected 3 total extracted, got %d", run.TotalExtracted)
	}
	if run.DuplicatesFound != 1 {
		t.Errorf("Expected 1 duplicate (sparse vs full), got %d", run.DuplicatesFound)
	}
	if run.QualityPassed != 2 || run.QualityFailed != 0 {
		t.Errorf("Expected 2 passed / 0 failed, got %d / %d", run.QualityPassed, run.QualityFailed)
	}
	if run.Stored != 2 {
		t.Errorf("Expected 2 stored, got %d", run.Stored)
	}
	if memory.Len() != 2 {
		t.Errorf("Expected 2 recipes in store, got %d", memory.Len())
	}
	if run.FinishedAt == nil {
		t.Error("Expected finished timestamp")
	}

	// Totals stay consistent with per-stage counters.
	if run.QualityPassed+run.QualityFailed+run.DuplicatesFound != run.TotalExtracted {
		t.Errorf("Stage counters inconsistent: passed=%d failed=%d dupes=%d extracted=%d",
			run.QualityPassed, run.QualityFailed, run.DuplicatesFound, run.TotalExtracted)
	}

	last := o.LastRun()
	if last == nil || last.RunID != run.RunID {
		t.Errorf("Expected LastRun to return the finished run")
	}
}

func TestOrchestrator_SecondRunRejected(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	blocked := &fakeDiscoverer{
		platform: domain.PlatformReddit,
		started:  started,
		release:  release,
	}

	o := testOrchestrator([]*fakeDiscoverer{blocked}, &fakeExtractor{}, store.NewMemoryStore())

	done := make(chan *Run, 1)
	go func() {
		run, err := o.RunHarvest(context.Background(), nil, 10)
		if err != nil {
			t.Errorf("First run failed: %v", err)
		}
		done <- run
	}()

	<-started
	if _, err := o.RunHarvest(context.Background(), nil, 10); !errors.Is(err, ErrRunActive) {
		t.Errorf("Expected ErrRunActive for concurrent run, got %v", err)
	}

	close(release)
	run := <-done
	if run.Status != StatusCompleted {
		t.Errorf("Expected first run to complete, got %s", run.Status)
	}

	// The slot is free again after the first run finishes.
	if _, err := o.RunHarvest(context.Background(), nil, 10); err != nil {
		t.Errorf("Expected a new run after completion, got %v", err)
	}
}

func TestOrchestrator_DiscoveryFailureDoesNotFailRun(t *testing.T) {
	failing := &fakeDiscoverer{platform: domain.PlatformReddit, err: errors.New("rate limited")}
	panicking := &fakeDiscoverer{platform: domain.PlatformTikTok, panics: true}
	healthy := &fakeDiscoverer{
		platform: domain.PlatformYouTube,
		candidates: []domain.RawCandidate{
			candidate(domain.PlatformYouTube, "pasta", "High Protein Pasta Bake"),
		},
	}

	o := testOrchestrator([]*fakeDiscoverer{failing, panicking, healthy}, &fakeExtractor{}, store.NewMemoryStore())

	run, err := o.RunHarvest(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("RunHarvest failed: %v", err)
	}

	if run.Status != StatusCompleted {
		t.Fatalf("Expected completed run despite platform failures, got %s", run.Status)
	}
	if run.Discovered[domain.PlatformReddit] != 0 {
		t.Errorf("Failing platform should contribute no candidates, got %d", run.Discovered[domain.PlatformReddit])
	}
	if len(run.Errors[domain.PlatformReddit]) != 1 {
		t.Errorf("Expected 1 recorded reddit error, got %v", run.Errors[domain.PlatformReddit])
	}
	if len(run.Errors[domain.PlatformTikTok]) != 1 {
		t.Errorf("Expected the tiktok panic recorded, got %v", run.Errors[domain.PlatformTikTok])
	}
	if run.Stored != 1 {
		t.Errorf("Expected the healthy platform's recipe stored, got %d", run.Stored)
	}
}

func TestOrchestrator_ExtractionErrorsAreCounted(t *testing.T) {
	reddit := &fakeDiscoverer{
		platform: domain.PlatformReddit,
		candidates: []domain.RawCandidate{
			candidate(domain.PlatformReddit, "good", "Chicken Rice Bowl Recipe"),
			candidate(domain.PlatformReddit, "bad", "Another Chicken Recipe That Fails"),
		},
	}
	extractor := &fakeExtractor{fail: map[string]bool{"bad": true}}

	o := testOrchestrator([]*fakeDiscoverer{reddit}, extractor, store.NewMemoryStore())

	run, err := o.RunHarvest(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("RunHarvest failed: %v", err)
	}
	if run.Status != StatusCompleted {
		t.Fatalf("Expected completed run, got %s", run.Status)
	}
	if run.Extracted[domain.PlatformReddit] != 1 {
		t.Errorf("Expected 1 extracted, got %d", run.Extracted[domain.PlatformReddit])
	}
	if len(run.Errors[domain.PlatformReddit]) != 1 {
		t.Errorf("Expected 1 extraction error recorded, got %v", run.Errors[domain.PlatformReddit])
	}
	if run.Stored != 1 {
		t.Errorf("Expected the good recipe stored, got %d", run.Stored)
	}
}

// explodingExtractor panics on the "boom" candidate and otherwise defers to
// fakeExtractor.
type explodingExtractor struct{ fakeExtractor }

func (e *explodingExtractor) Extract(ctx context.Context, c domain.RawCandidate) (*domain.Recipe, error) {
	if c.ID == "boom" {
		panic("bad payload")
	}
	return e.fakeExtractor.Extract(ctx, c)
}

func TestOrchestrator_ExtractorPanicIsContained(t *testing.T) {
	reddit := &fakeDiscoverer{
		platform: domain.PlatformReddit,
		candidates: []domain.RawCandidate{
			candidate(domain.PlatformReddit, "good", "Chicken Rice Bowl Recipe"),
			candidate(domain.PlatformReddit, "boom", "High Protein Pasta Bake"),
		},
	}

	o := NewOrchestrator(Options{
		Discoverers: []discovery.Discoverer{reddit},
		Extractor:   &explodingExtractor{},
		Store:       store.NewMemoryStore(),
		Config:      config.Load(),
	})

	run, err := o.RunHarvest(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("RunHarvest failed: %v", err)
	}
	if run.Status != StatusCompleted {
		t.Fatalf("Expected completed run despite the extractor panic, got %s", run.Status)
	}
	if run.Extracted[domain.PlatformReddit] != 1 {
		t.Errorf("Expected 1 extracted, got %d", run.Extracted[domain.PlatformReddit])
	}
	if len(run.Errors[domain.PlatformReddit]) != 1 {
		t.Errorf("Expected the panic recorded as a platform error, got %v", run.Errors[domain.PlatformReddit])
	}
	if run.Stored != 1 {
		t.Errorf("Expected the healthy recipe stored, got %d", run.Stored)
	}
}

// panickingStore blows up on write to simulate an unexpected failure
// escaping a stage boundary.
type panickingStore struct{ *store.MemoryStore }

func (p *panickingStore) Upsert(ctx context.Context, r *domain.Recipe) error {
	panic("storage backend corrupted")
}

func TestOrchestrator_PanicMarksRunFailed(t *testing.T) {
	reddit := &fakeDiscoverer{
		platform: domain.PlatformReddit,
		candidates: []domain.RawCandidate{
			candidate(domain.PlatformReddit, "full", "Chicken Rice Bowl Recipe"),
		},
	}

	o := testOrchestrator([]*fakeDiscoverer{reddit}, &fakeExtractor{}, &panickingStore{store.NewMemoryStore()})

	run, err := o.RunHarvest(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("Expected the panic to be absorbed into the run, got error: %v", err)
	}
	_ = run

	last := o.LastRun()
	if last.Status != StatusFailed {
		t.Fatalf("Expected failed status after panic, got %s", last.Status)
	}
	// Partial counts survive.
	if last.TotalDiscovered != 1 || last.TotalExtracted != 1 {
		t.Errorf("Expected partial counts preserved, got discovered=%d extracted=%d",
			last.TotalDiscovered, last.TotalExtracted)
	}
	if last.FinishedAt == nil {
		t.Error("Expected finished timestamp on failed run")
	}

	// A failed run releases the single-run slot.
	if _, err := o.RunHarvest(context.Background(), nil, 10); err != nil {
		t.Errorf("Expected a new run after a failure, got %v", err)
	}
}

func TestOrchestrator_PlatformSelection(t *testing.T) {
	reddit := &fakeDiscoverer{
		platform: domain.PlatformReddit,
		candidates: []domain.RawCandidate{
			candidate(domain.PlatformReddit, "full", "Chicken Rice Bowl Recipe"),
		},
	}
	youtube := &fakeDiscoverer{
		platform: domain.PlatformYouTube,
		candidates: []domain.RawCandidate{
			candidate(domain.PlatformYouTube, "pasta", "High Protein Pasta Bake"),
		},
	}

	o := testOrchestrator([]*fakeDiscoverer{reddit, youtube}, &fakeExtractor{}, store.NewMemoryStore())

	run, err := o.RunHarvest(context.Background(), []domain.Platform{domain.PlatformYouTube}, 10)
	if err != nil {
		t.Fatalf("RunHarvest failed: %v", err)
	}
	if run.Discovered[domain.PlatformReddit] != 0 {
		t.Errorf("Reddit should not have been harvested, got %d", run.Discovered[domain.PlatformReddit])
	}
	if run.Discovered[domain.PlatformYouTube] != 1 {
		t.Errorf("Expected 1 youtube candidate, got %d", run.Discovered[domain.PlatformYouTube])
	}
}

// slowExtractor stretches each extraction out so a run stays in flight long
// enough to observe from another goroutine.
type slowExtractor struct {
	fakeExtractor
	delay time.Duration
}

func (s *slowExtractor) Extract(ctx context.Context, c domain.RawCandidate) (*domain.Recipe, error) {
	time.Sleep(s.delay)
	return s.fakeExtractor.Extract(ctx, c)
}

func TestLastRun_SnapshotDuringActiveRun(t *testing.T) {
	var cands []domain.RawCandidate
	for i := 0; i < 20; i++ {
		cands = append(cands, candidate(domain.PlatformReddit,
			fmt.Sprintf("c%d", i), fmt.Sprintf("Chicken Bowl Recipe %d", i)))
	}
	reddit := &fakeDiscoverer{platform: domain.PlatformReddit, candidates: cands}

	o := NewOrchestrator(Options{
		Discoverers: []discovery.Discoverer{reddit},
		Extractor:   &slowExtractor{delay: 2 * time.Millisecond},
		Store:       store.NewMemoryStore(),
		Config:      config.Load(),
	})

	done := make(chan *Run, 1)
	go func() {
		run, err := o.RunHarvest(context.Background(), nil, 50)
		if err != nil {
			t.Errorf("RunHarvest failed: %v", err)
		}
		done <- run
	}()

	// Poll snapshots while the harvest is still mutating its counters.
	for {
		select {
		case run := <-done:
			if run == nil || run.Status != StatusCompleted {
				t.Fatalf("Expected completed run, got %+v", run)
			}
			last := o.LastRun()
			if last.RunID != run.RunID || last.Status != StatusCompleted {
				t.Errorf("Final snapshot out of sync with returned run: %+v", last)
			}
			return
		default:
			if last := o.LastRun(); last != nil {
				if last.Status != StatusRunning && last.Status != StatusCompleted {
					t.Errorf("Unexpected mid-run status %q", last.Status)
				}
				if last.Stored > last.TotalDiscovered && last.TotalDiscovered > 0 {
					t.Errorf("Snapshot counters inconsistent: stored=%d discovered=%d",
						last.Stored, last.TotalDiscovered)
				}
			}
		}
	}
}

func TestLastRun_NilBeforeFirstHarvest(t *testing.T) {
	o := testOrchestrator(nil, &fakeExtractor{}, store.NewMemoryStore())
	if o.LastRun() != nil {
		t.Error("Expected nil before any run")
	}
}
