// SPDX-License-Identifier: MPL-2.0

// Package orchestrator executes discovered build modules: categories in a
// fixed total order, dependency waves within a category, and optional
// concurrency for modules asserting parallel safety. The first failure
// stops new launches, lets in-flight siblings finish (killing a module
// mid-operation risks half-applied filesystem mutations), runs cleanup
// exactly once, and aborts the build.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"dudley/internal/dag"
	"dudley/internal/discovery"
	"dudley/internal/module"
	"dudley/internal/runtime"
)

type (
	// CleanupFunc removes partial build artifacts after a failure.
	CleanupFunc func(ctx context.Context) error

	// Orchestrator coordinates module execution. Construct with New.
	Orchestrator struct {
		rt      runtime.Runtime
		logger  *log.Logger
		cleanup CleanupFunc
		jobs    int
	}

	// CategoryPlan is one category's modules partitioned into waves.
	CategoryPlan struct {
		Category module.Category
		Waves    [][]*module.Module
	}

	// Option configures an Orchestrator.
	Option func(*Orchestrator)
)

// WithCleanup sets the cleanup collaborator invoked once on failure.
func WithCleanup(fn CleanupFunc) Option {
	return func(o *Orchestrator) { o.cleanup = fn }
}

// WithJobs caps how many parallel-safe modules run at once within a
// wave. Zero or negative means no cap.
func WithJobs(n int) Option {
	return func(o *Orchestrator) { o.jobs = n }
}

// New creates an Orchestrator running modules on the given runtime.
func New(rt runtime.Runtime, logger *log.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	o := &Orchestrator{rt: rt, logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan validates every category's dependency graph and partitions modules
// into waves. A cycle or an unknown dependency name rejects the whole
// build here, before anything executes.
func Plan(result *discovery.Result) ([]CategoryPlan, error) {
	var plans []CategoryPlan

	for _, category := range module.Categories() {
		mods := result.Modules[category]
		if len(mods) == 0 {
			continue
		}

		byName := make(map[string]*module.Module, len(mods))
		graph := dag.New()
		for _, m := range mods {
			byName[m.Name] = m
			graph.AddNode(m.Name)
		}
		for _, m := range mods {
			for _, dep := range m.DependsOn {
				if err := graph.AddEdge(dep, m.Name); err != nil {
					return nil, err
				}
			}
		}

		nameWaves, err := graph.Waves()
		if err != nil {
			return nil, err
		}

		waves := make([][]*module.Module, len(nameWaves))
		for i, names := range nameWaves {
			wave := make([]*module.Module, len(names))
			for j, name := range names {
				wave[j] = byName[name]
			}
			waves[i] = wave
		}
		plans = append(plans, CategoryPlan{Category: category, Waves: waves})
	}

	return plans, nil
}

// Run plans and executes every module under the discovery result. It
// always returns a Summary, even when the build fails partway.
func (o *Orchestrator) Run(ctx context.Context, result *discovery.Result) (*Summary, error) {
	plans, err := Plan(result)
	if err != nil {
		return &Summary{}, err
	}

	summary := &Summary{}
	start := time.Now()

	for _, plan := range plans {
		o.logger.Info("category started", "category", plan.Category, "waves", len(plan.Waves))
		failed := o.runCategory(ctx, plan, summary)
		if failed != nil {
			summary.Elapsed = time.Since(start)
			o.runCleanup(ctx)
			return summary, failed
		}
	}

	summary.Elapsed = time.Since(start)
	o.logger.Info("build finished",
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed)
	return summary, nil
}

// runCategory executes one category wave by wave. Returns the error that
// halted the build, or nil.
func (o *Orchestrator) runCategory(ctx context.Context, plan CategoryPlan, summary *Summary) error {
	for _, wave := range plan.Waves {
		// Modules not asserting parallel safety run alone, in name
		// order; the rest of the wave may run concurrently.
		var solo, parallel []*module.Module
		for _, m := range wave {
			if m.ParallelSafe {
				parallel = append(parallel, m)
			} else {
				solo = append(solo, m)
			}
		}

		var firstFailure *ModuleExecutionError

		for _, m := range solo {
			res := o.runModule(ctx, m)
			summary.record(res)
			if res.Status == StatusFailure {
				firstFailure = &ModuleExecutionError{Name: res.Name, Category: res.Category, ExitCode: res.ExitCode}
				break
			}
		}

		// A failure in the solo portion stops launches before the
		// concurrent batch starts.
		if firstFailure == nil && len(parallel) > 0 {
			results := o.runConcurrent(ctx, parallel)
			for _, res := range results {
				summary.record(res)
				if res.Status == StatusFailure && firstFailure == nil {
					firstFailure = &ModuleExecutionError{Name: res.Name, Category: res.Category, ExitCode: res.ExitCode}
				}
			}
		}

		if firstFailure != nil {
			o.logger.Error("build halted",
				"module", firstFailure.Name,
				"category", firstFailure.Category,
				"exit_code", int(firstFailure.ExitCode))
			return firstFailure
		}
	}
	return nil
}

// runConcurrent launches every module in the batch and waits for all of
// them. Siblings already in flight when one fails are allowed to finish.
// The jobs setting bounds how many run at the same time.
func (o *Orchestrator) runConcurrent(ctx context.Context, batch []*module.Module) []Result {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Result
		sem     chan struct{}
	)

	if o.jobs > 0 {
		sem = make(chan struct{}, o.jobs)
	}

	for _, m := range batch {
		wg.Add(1)
		go func(m *module.Module) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			res := o.runModule(ctx, m)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(m)
	}

	wg.Wait()
	return results
}

// runModule executes one module and finalizes its Result.
func (o *Orchestrator) runModule(ctx context.Context, m *module.Module) Result {
	o.logger.Info("module started", "module", m.Name, "category", m.Category)
	start := time.Now()

	execResult := o.rt.Execute(&runtime.ExecutionContext{
		Context: ctx,
		Module:  m,
	})

	res := Result{
		Name:      m.Name,
		Category:  m.Category,
		ExitCode:  execResult.ExitCode,
		Duration:  time.Since(start),
		Output:    execResult.Output,
		ErrOutput: execResult.ErrOutput,
	}

	switch {
	case execResult.Error != nil:
		res.Status = StatusFailure
		o.logger.Error("module failed",
			"module", m.Name, "category", m.Category,
			"duration", res.Duration, "error", execResult.Error)
	case execResult.ExitCode.IsSkip():
		res.Status = StatusSkipped
		o.logger.Info("module skipped",
			"module", m.Name, "category", m.Category, "duration", res.Duration)
	case execResult.ExitCode.IsSuccess():
		res.Status = StatusSuccess
		o.logger.Info("module finished",
			"module", m.Name, "category", m.Category,
			"status", res.Status, "duration", res.Duration)
	default:
		res.Status = StatusFailure
		o.logger.Error("module failed",
			"module", m.Name, "category", m.Category,
			"exit_code", int(execResult.ExitCode), "duration", res.Duration)
	}

	return res
}

// runCleanup invokes the cleanup collaborator, if configured.
func (o *Orchestrator) runCleanup(ctx context.Context) {
	if o.cleanup == nil {
		return
	}
	o.logger.Info("running cleanup")
	if err := o.cleanup(ctx); err != nil {
		o.logger.Error("cleanup failed", "error", err)
	}
}
