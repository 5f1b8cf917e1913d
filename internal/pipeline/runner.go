package pipeline

import (
	"context"
	"log"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/stepdown/internal/analysis"
	"github.com/mvp-joe/stepdown/internal/cache"
)

// ProgressReporter receives batch progress callbacks.
type ProgressReporter interface {
	OnDiscoveryComplete(totalFiles int)
	OnFileProcessed(processed, totalFiles int, path string)
	OnComplete(duration time.Duration)
}

// Runner processes many files through one pipeline with a bounded worker
// pool. Per-file work shares no mutable state, so files run in parallel;
// results are collected by index to keep output order deterministic.
type Runner struct {
	pipeline *Pipeline
	progress ProgressReporter
	results  *cache.Cache
	workers  int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithProgress attaches a progress reporter.
func WithProgress(progress ProgressReporter) RunnerOption {
	return func(r *Runner) {
		r.progress = progress
	}
}

// WithResultCache attaches a persistent result cache; files whose cached
// outcome is clean are skipped without parsing.
func WithResultCache(c *cache.Cache) RunnerOption {
	return func(r *Runner) {
		r.results = c
	}
}

// WithWorkers overrides the worker count.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// NewRunner creates a runner over a pipeline.
func NewRunner(p *Pipeline, opts ...RunnerOption) *Runner {
	r := &Runner{pipeline: p, workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AnalyzeFiles resolves the patterns and analyzes every file.
func (r *Runner) AnalyzeFiles(ctx context.Context, patterns []string) ([]*analysis.AnalysisResult, error) {
	start := time.Now()
	paths, err := r.pipeline.fs.ResolvePaths(patterns)
	if err != nil {
		return nil, err
	}
	if r.progress != nil {
		r.progress.OnDiscoveryComplete(len(paths))
	}

	results := make([]*analysis.AnalysisResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	done := make(chan int, len(paths))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = r.analyzeOne(path)
			done <- i
			return nil
		})
	}

	if err := r.reportProgress(g, done, paths); err != nil {
		return nil, err
	}
	if r.progress != nil {
		r.progress.OnComplete(time.Since(start))
	}
	return results, nil
}

// FixFiles resolves the patterns and fixes every file.
func (r *Runner) FixFiles(ctx context.Context, patterns []string, opts FixOptions) ([]*analysis.FixResult, error) {
	start := time.Now()
	paths, err := r.pipeline.fs.ResolvePaths(patterns)
	if err != nil {
		return nil, err
	}
	if r.progress != nil {
		r.progress.OnDiscoveryComplete(len(paths))
	}

	results := make([]*analysis.FixResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	done := make(chan int, len(paths))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = r.fixOne(path, opts)
			done <- i
			return nil
		})
	}

	if err := r.reportProgress(g, done, paths); err != nil {
		return nil, err
	}
	if r.progress != nil {
		r.progress.OnComplete(time.Since(start))
	}
	return results, nil
}

func (r *Runner) reportProgress(g *errgroup.Group, done chan int, paths []string) error {
	finished := make(chan error, 1)
	go func() {
		finished <- g.Wait()
	}()

	count := 0
	for {
		select {
		case i := <-done:
			count++
			if r.progress != nil {
				r.progress.OnFileProcessed(count, len(paths), paths[i])
			}
		case err := <-finished:
			// drain any remaining completions
			for len(done) > 0 {
				i := <-done
				count++
				if r.progress != nil {
					r.progress.OnFileProcessed(count, len(paths), paths[i])
				}
			}
			return err
		}
	}
}

// analyzeOne consults the result cache before paying for a parse.
func (r *Runner) analyzeOne(path string) *analysis.AnalysisResult {
	key, hit := r.cachedClean(path)
	if hit {
		return &analysis.AnalysisResult{FilePath: path, Cached: true}
	}

	result := r.pipeline.Analyze(path)
	r.storeResult(key, path, result)
	return result
}

func (r *Runner) fixOne(path string, opts FixOptions) *analysis.FixResult {
	_, hit := r.cachedClean(path)
	if hit {
		return &analysis.FixResult{FilePath: path}
	}

	result := r.pipeline.Fix(path, opts)
	if result.Fixed && len(result.Errors) == 0 && r.results != nil {
		// the fixed content is clean by construction
		ids := r.ruleIDs()
		entry := &cache.Entry{
			Key:   cache.Key([]byte(result.FixedText), ids),
			Path:  path,
			Clean: true,
		}
		if err := r.results.Put(entry); err != nil {
			log.Printf("Warning: failed to update result cache for %s: %v", path, err)
		}
	}
	return result
}

// cachedClean returns the cache key for the file and whether a clean
// cached outcome exists. The key is "" when the file cannot be read; the
// pipeline will surface that error itself.
func (r *Runner) cachedClean(path string) (string, bool) {
	if r.results == nil {
		return "", false
	}
	content, err := r.pipeline.fs.Read(path)
	if err != nil {
		return "", false
	}
	key := cache.Key(content, r.ruleIDs())
	entry, err := r.results.Get(key)
	if err != nil {
		log.Printf("Warning: result cache read failed for %s: %v", path, err)
		return key, false
	}
	return key, entry != nil && entry.Clean
}

func (r *Runner) storeResult(key, path string, result *analysis.AnalysisResult) {
	if r.results == nil || key == "" || result.Error != "" {
		return
	}
	entry := &cache.Entry{
		Key:        key,
		Path:       path,
		Clean:      result.ViolationCount() == 0 && len(result.Cycles) == 0,
		Violations: result.ViolationCount(),
		Cycles:     len(result.Cycles),
	}
	if err := r.results.Put(entry); err != nil {
		log.Printf("Warning: failed to update result cache for %s: %v", path, err)
	}
}

func (r *Runner) ruleIDs() []string {
	var ids []string
	for _, rule := range r.pipeline.Rules() {
		ids = append(ids, rule.ID())
	}
	return ids
}

// AnalyzeFiles is the package-level convenience: default registry, all
// rules enabled, OS file service unless one is injected.
func AnalyzeFiles(ctx context.Context, patterns []string, fs FileService) ([]*analysis.AnalysisResult, error) {
	p, err := New(nil, nil, fs)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return NewRunner(p).AnalyzeFiles(ctx, patterns)
}

// FixFiles is the package-level convenience for fixing.
func FixFiles(ctx context.Context, patterns []string, opts FixOptions, fs FileService) ([]*analysis.FixResult, error) {
	p, err := New(nil, nil, fs)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return NewRunner(p).FixFiles(ctx, patterns, opts)
}
