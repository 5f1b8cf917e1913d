package pipeline

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/maypok86/otter"

	"github.com/mvp-joe/stepdown/internal/analysis"
	"github.com/mvp-joe/stepdown/internal/fixer"
	"github.com/mvp-joe/stepdown/internal/rules"
	"github.com/mvp-joe/stepdown/internal/syntax"
)

const snapshotCacheSize = 2048

// Pipeline runs the enabled rules over one file at a time: read once,
// parse once, share the context across every rule's analyze, then compose
// rule fixes sequentially, re-parsing whenever a fix changed the text.
type Pipeline struct {
	enabled   []rules.Rule
	fs        FileService
	snapshots otter.Cache[uint64, *analysis.Snapshot]
}

// New creates a pipeline from a registry, an enabled-rule filter (empty
// enables all), and a FileService (nil selects the OS default).
func New(registry *rules.Registry, enabledIDs []string, fs FileService) (*Pipeline, error) {
	if registry == nil {
		registry = rules.DefaultRegistry()
	}
	enabled, err := registry.Enabled(enabledIDs)
	if err != nil {
		return nil, err
	}
	if fs == nil {
		fs, err = NewFileService(nil, nil)
		if err != nil {
			return nil, err
		}
	}

	snapshots, err := otter.MustBuilder[uint64, *analysis.Snapshot](snapshotCacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot cache: %w", err)
	}

	return &Pipeline{enabled: enabled, fs: fs, snapshots: snapshots}, nil
}

// Rules returns the enabled rules in run order.
func (p *Pipeline) Rules() []rules.Rule {
	return p.enabled
}

// Close releases pipeline resources.
func (p *Pipeline) Close() {
	p.snapshots.Close()
}

// Analyze analyzes a single file. Failures are recorded on the result, not
// returned: the unit of failure isolation is the file.
func (p *Pipeline) Analyze(path string) *analysis.AnalysisResult {
	result := &analysis.AnalysisResult{FilePath: path}

	source, err := p.fs.Read(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	ctx, err := p.buildContext(path, source)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	p.analyzeInto(ctx, result)
	return result
}

// analyzeInto runs every enabled rule against the shared context and
// merges the findings into the result.
func (p *Pipeline) analyzeInto(ctx *rules.Context, result *analysis.AnalysisResult) {
	result.TotalFunctions = len(ctx.Snapshot.Functions)
	result.Cycles = ctx.Snapshot.Cycles
	result.DependencyGraph = ctx.Snapshot.Deps.Adjacency()

	for _, rule := range p.enabled {
		findings, err := rule.Analyze(ctx)
		if err != nil {
			result.Error = fmt.Sprintf("rule %s: %v", rule.ID(), err)
			continue
		}
		result.StepdownViolations = append(result.StepdownViolations, findings.Stepdown...)
		result.NestedViolations = append(result.NestedViolations, findings.Nested...)
	}
}

// FixOptions controls a fix run.
type FixOptions struct {
	// Write persists the fixed text back through the FileService. When
	// false the FixResult carries the would-be text only.
	Write bool

	// MaxPasses bounds the analyze-fix iterations per file. Each pass
	// strictly decreases the actionable violation count; files free of
	// cycles reach zero well within the default.
	MaxPasses int
}

// Fix analyzes and rewrites a single file. Rule fixes run in registration
// order, each fix's output feeding the next rule's input; a changed text
// forces a fresh parse before the next rule. A rule fix failure lands on
// the result and leaves the file unwritten.
func (p *Pipeline) Fix(path string, opts FixOptions) *analysis.FixResult {
	result := &analysis.FixResult{FilePath: path}

	original, err := p.fs.Read(path)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.OriginalText = string(original)

	maxPasses := opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = 1
	}

	current := original
	for pass := 0; pass < maxPasses; pass++ {
		next, changed, err := p.fixPass(path, current)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			result.FixedText = string(current)
			return result
		}
		current = next
		if !changed {
			break
		}
	}

	result.FixedText = string(current)
	if result.FixedText == result.OriginalText {
		return result
	}

	result.Fixed = true
	result.MovedCount = fixer.CountMoved(result.OriginalText, result.FixedText)

	if opts.Write {
		if err := p.fs.Write(path, current); err != nil {
			result.Fixed = false
			result.Errors = append(result.Errors, err.Error())
		}
	}
	return result
}

// fixPass runs one analyze-then-fix round over the text and reports
// whether anything changed.
func (p *Pipeline) fixPass(path string, source []byte) ([]byte, bool, error) {
	current := source
	changed := false

	ctx, err := p.buildContext(path, current)
	if err != nil {
		return nil, false, err
	}

	for _, rule := range p.enabled {
		findings, err := rule.Analyze(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("rule %s analyze: %w", rule.ID(), err)
		}
		if findings.Count() == 0 {
			continue
		}

		fixed, err := rule.Fix(ctx, findings)
		if err != nil {
			return nil, false, fmt.Errorf("rule %s fix: %w", rule.ID(), err)
		}
		if fixed == string(current) {
			continue
		}

		current = []byte(fixed)
		changed = true
		ctx, err = p.buildContext(path, current)
		if err != nil {
			return nil, false, fmt.Errorf("rule %s produced unparseable output: %w", rule.ID(), err)
		}
	}

	return current, changed, nil
}

// buildContext parses the text and assembles the shared rule context. The
// extracted snapshot is cached by content hash, so rules that hand back
// unchanged text never pay for a second extraction.
func (p *Pipeline) buildContext(path string, source []byte) (*rules.Context, error) {
	key := xxhash.Sum64(source)
	if snap, ok := p.snapshots.Get(key); ok {
		return &rules.Context{Path: path, Source: source, Snapshot: snap}, nil
	}

	file, err := syntax.Parse(source, path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	snap := analysis.BuildSnapshot(file)
	p.snapshots.Set(key, snap)
	return &rules.Context{Path: path, Source: source, Snapshot: snap}, nil
}
