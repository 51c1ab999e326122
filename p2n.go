// Package p2n provides the core plan-materialization pipeline: it compiles a
// validated experiment plan into a deterministic, resource-bounded executable
// notebook plus a pinned requirements list and an environment hash.
package p2n

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PIP-Team-3/pip-final-project-sub000/internal/eventbus"
	"github.com/PIP-Team-3/pip-final-project-sub000/internal/notebook"
)

// Materializer is the core's public entry point. It is stateless across calls:
// every Materialize invocation is an independent, side-effect-free computation.
type Materializer struct {
	// Core components
	factory   GeneratorFactory
	assembler NotebookAssembler
	cache     Cache
	eventBus  eventbus.EventBus

	// Configuration
	config Config

	// Async processing
	asyncJobs      map[string]*AsyncJob
	asyncJobsMutex sync.RWMutex
}

// Config holds the configuration options for the Materializer.
type Config struct {
	// Enable/disable the materialization result cache
	EnableCache bool

	// Event bus configuration
	EnableEventBus      bool
	EventBusBufferSize  int
	EventBusWorkerCount int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableCache:         false,
		EnableEventBus:      true,
		EventBusBufferSize:  100,
		EventBusWorkerCount: 5,
	}
}

// Option is a function that configures a Materializer instance.
type Option func(*Materializer)

// WithConfig sets the configuration.
func WithConfig(config Config) Option {
	return func(m *Materializer) {
		m.config = config
	}
}

// WithFactory sets the generator factory component.
func WithFactory(factory GeneratorFactory) Option {
	return func(m *Materializer) {
		m.factory = factory
	}
}

// WithAssembler sets the notebook assembler component.
func WithAssembler(assembler NotebookAssembler) Option {
	return func(m *Materializer) {
		m.assembler = assembler
	}
}

// WithCache sets the materialization result cache and enables it.
func WithCache(cache Cache) Option {
	return func(m *Materializer) {
		m.cache = cache
		m.config.EnableCache = true
	}
}

// WithEventBus sets the event bus component.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(m *Materializer) {
		m.eventBus = bus
	}
}

// New creates a new Materializer with the provided options.
func New(options ...Option) (*Materializer, error) {
	m := &Materializer{
		config:    DefaultConfig(),
		asyncJobs: make(map[string]*AsyncJob),
	}

	for _, option := range options {
		option(m)
	}

	// Validate required components
	if m.factory == nil {
		return nil, NewConfigurationError("generator factory is required", nil)
	}

	if m.assembler == nil {
		return nil, NewConfigurationError("notebook assembler is required", nil)
	}

	if m.config.EnableCache && m.cache == nil {
		return nil, NewConfigurationError("cache enabled but no cache provided", nil)
	}

	if m.config.EnableEventBus && m.eventBus == nil {
		m.eventBus = eventbus.NewChannelEventBus(
			eventbus.WithBufferSize(m.config.EventBusBufferSize),
			eventbus.WithWorkerCount(m.config.EventBusWorkerCount),
		)
	}

	return m, nil
}

// Materialize compiles the plan into notebook bytes, a requirements file and
// an environment hash. It is synchronous, performs no I/O, and returns either
// a complete result or a single materialization-failed error; callers never
// see raw generator or third-party errors.
func (m *Materializer) Materialize(ctx context.Context, plan *PlanDocument) (*MaterializationResult, error) {
	if plan == nil {
		return nil, NewMaterializationError("input", NewPlanFieldError("plan", "plan document is nil", nil))
	}

	var cacheKey string
	if m.config.EnableCache && m.cache != nil {
		cacheKey = plan.Digest()
		if cached, err := m.cache.Get(ctx, cacheKey); err == nil {
			if result, ok := cached.(*MaterializationResult); ok {
				return result, nil
			}
		}
	}

	datasetGen := m.factory.DatasetGenerator(plan)
	m.publish(ctx, eventbus.NewEvent(eventbus.EventDatasetResolved, datasetGen.Name(),
		"Materializer.Materialize", map[string]interface{}{"dataset": plan.Dataset.Name}))
	modelGen := m.factory.ModelGenerator(plan)
	m.publish(ctx, eventbus.NewEvent(eventbus.EventModelResolved, modelGen.Name(),
		"Materializer.Materialize", map[string]interface{}{"model": plan.Model.Name}))

	assembled, err := m.assembler.Assemble(plan, datasetGen, modelGen)
	if err != nil {
		return nil, NewMaterializationError("assembly", err)
	}

	notebookBytes, err := notebook.Encode(toNotebookCells(assembled.Cells))
	if err != nil {
		return nil, NewMaterializationError("serialization", err)
	}
	m.publish(ctx, eventbus.NewEvent(eventbus.EventNotebookAssembled, assembled.EnvironmentHash,
		"Materializer.Materialize", nil))

	result := &MaterializationResult{
		NotebookBytes:    notebookBytes,
		RequirementsText: notebook.RequirementsText(assembled.Requirements),
		EnvironmentHash:  assembled.EnvironmentHash,
		DatasetBackend:   assembled.DatasetBackend,
		ModelBackend:     assembled.ModelBackend,
	}

	if m.config.EnableCache && m.cache != nil {
		_ = m.cache.Set(ctx, cacheKey, result)
	}

	return result, nil
}

func toNotebookCells(cells []Cell) []notebook.Cell {
	out := make([]notebook.Cell, 0, len(cells))
	for _, c := range cells {
		out = append(out, notebook.Cell{Type: string(c.Type), Source: c.Source})
	}
	return out
}

// AsyncJobStatus represents the lifecycle state of an async materialization.
type AsyncJobStatus string

const (
	AsyncJobRunning   AsyncJobStatus = "running"
	AsyncJobCompleted AsyncJobStatus = "completed"
	AsyncJobFailed    AsyncJobStatus = "failed"
)

// AsyncJob tracks a single MaterializeAsync invocation.
type AsyncJob struct {
	ID        string
	Status    AsyncJobStatus
	Result    *MaterializationResult
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// MaterializeAsync starts a materialization in the background and returns a
// job ID. Each call is fully independent: the core holds no shared mutable
// state between jobs beyond the job table itself.
func (m *Materializer) MaterializeAsync(ctx context.Context, plan *PlanDocument) (string, error) {
	if plan == nil {
		return "", NewMaterializationError("input", NewPlanFieldError("plan", "plan document is nil", nil))
	}

	jobID := uuid.New().String()
	job := &AsyncJob{
		ID:        jobID,
		Status:    AsyncJobRunning,
		StartedAt: time.Now(),
	}

	m.asyncJobsMutex.Lock()
	m.asyncJobs[jobID] = job
	m.asyncJobsMutex.Unlock()

	m.publish(ctx, eventbus.NewEvent(
		eventbus.EventMaterializationStarted,
		plan.Dataset.Name,
		"Materializer.MaterializeAsync",
		map[string]interface{}{"job_id": jobID, "model": plan.Model.Name},
	))

	go func() {
		// The job outlives the caller's request context.
		runCtx := context.Background()
		result, err := m.Materialize(runCtx, plan)

		m.asyncJobsMutex.Lock()
		job.EndedAt = time.Now()
		if err != nil {
			job.Status = AsyncJobFailed
			job.Err = err
		} else {
			job.Status = AsyncJobCompleted
			job.Result = result
		}
		m.asyncJobsMutex.Unlock()

		eventType := eventbus.EventMaterializationSuccess
		metadata := map[string]interface{}{
			"job_id":      jobID,
			"duration_ms": job.EndedAt.Sub(job.StartedAt).Milliseconds(),
		}
		if err != nil {
			eventType = eventbus.EventMaterializationFailure
			metadata["error"] = err.Error()
		} else {
			metadata["environment_hash"] = result.EnvironmentHash
			metadata["dataset_backend"] = result.DatasetBackend
			metadata["model_backend"] = result.ModelBackend
		}
		m.publish(runCtx, eventbus.NewEvent(eventType, plan.Dataset.Name, "Materializer.MaterializeAsync", metadata))
	}()

	return jobID, nil
}

// GetAsyncJob returns the tracked state of an async materialization.
func (m *Materializer) GetAsyncJob(jobID string) (*AsyncJob, error) {
	m.asyncJobsMutex.RLock()
	defer m.asyncJobsMutex.RUnlock()

	job, exists := m.asyncJobs[jobID]
	if !exists {
		return nil, NewInternalError("async", fmt.Sprintf("no materialization job with ID %q", jobID), nil)
	}
	snapshot := *job
	return &snapshot, nil
}

// CleanupJobs removes finished jobs older than the given age and reports how
// many were removed.
func (m *Materializer) CleanupJobs(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)

	m.asyncJobsMutex.Lock()
	defer m.asyncJobsMutex.Unlock()

	removed := 0
	for id, job := range m.asyncJobs {
		if job.Status != AsyncJobRunning && job.EndedAt.Before(cutoff) {
			delete(m.asyncJobs, id)
			removed++
		}
	}
	return removed
}

// EventBus exposes the bus so callers can subscribe to materialization events.
func (m *Materializer) EventBus() eventbus.EventBus {
	return m.eventBus
}

func (m *Materializer) publish(ctx context.Context, event eventbus.Event) {
	if !m.config.EnableEventBus || m.eventBus == nil {
		return
	}
	_ = m.eventBus.Publish(ctx, event)
}
