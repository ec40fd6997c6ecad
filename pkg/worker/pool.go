package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"recipe-harvest/pkg/domain"
	"recipe-harvest/pkg/extract"
)

// Result is the outcome of extracting one candidate. Recipe is nil with a
// nil Err when the candidate turned out not to be a recipe. The candidate
// is carried along so callers can keep per-platform counters.
type Result struct {
	Candidate domain.RawCandidate
	Recipe    *domain.Recipe
	Err       error
}

// Pool runs extraction over candidates with a bounded number of workers and
// a per-task timeout, so one slow extraction cannot stall a batch.
type Pool struct {
	workers     int
	taskTimeout time.Duration
}

// NewPool creates a pool with the given concurrency and per-task timeout.
func NewPool(workers int, taskTimeout time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers:     workers,
		taskTimeout: taskTimeout,
	}
}

// ExtractAll distributes candidates to workers and collects every result.
// It returns when all candidates have been processed or the context is
// cancelled; remaining candidates surface as results with ctx.Err().
func (p *Pool) ExtractAll(ctx context.Context, extractor extract.Extractor, candidates []domain.RawCandidate) []Result {
	jobChan := make(chan domain.RawCandidate, len(candidates))
	for _, c := range candidates {
		jobChan <- c
	}
	close(jobChan)

	resultsChan := make(chan Result, len(candidates))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for candidate := range jobChan {
				if err := ctx.Err(); err != nil {
					resultsChan <- Result{Candidate: candidate, Err: err}
					continue
				}
				resultsChan <- p.extractOne(ctx, extractor, candidate, workerID)
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make([]Result, 0, len(candidates))
	for res := range resultsChan {
		results = append(results, res)
	}
	return results
}

// extractOne runs a single extraction under the per-task timeout. A panic
// inside the extractor becomes a per-candidate error, so one bad candidate
// cannot take the worker (and the process) down with it.
func (p *Pool) extractOne(ctx context.Context, extractor extract.Extractor, candidate domain.RawCandidate, workerID int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker %d: extraction panicked for %s: %v", workerID, candidate.SourceURL, r)
			res = Result{Candidate: candidate, Err: fmt.Errorf("extraction panicked: %v", r)}
		}
	}()

	taskCtx, cancel := context.WithTimeout(ctx, p.taskTimeout)
	defer cancel()

	recipe, err := extractor.Extract(taskCtx, candidate)
	if err != nil {
		log.Printf("Worker %d: extraction failed for %s: %v", workerID, candidate.SourceURL, err)
	}
	return Result{Candidate: candidate, Recipe: recipe, Err: err}
}
