// Package dispatch coordinates running batches of analysis tasks against
// a vision engine and aggregating their per-task outcomes.
package dispatch

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/request"
	"github.com/menta2k/vision-tasks/pkg/task"
	"github.com/menta2k/vision-tasks/pkg/types"
)

// Engine runs a batch of requests against one image. Implementations must
// invoke each request's Complete exactly once before Perform returns, and
// return an error only for submission-level failures (nil or undecodable
// image, engine unreachable) in which case no callbacks are owed.
type Engine interface {
	Perform(ctx context.Context, img image.Image, reqs []*request.Request) error
	// Capability advertises the protocol level the engine supports.
	Capability() task.Capability
}

// TaskResult is the outcome of one analysis task. When Err is non-nil the
// observations must be treated as unusable; a nil Err with an empty
// observation list is a legal "no detections" outcome.
type TaskResult struct {
	// Task is the analysis task that produced this result.
	Task task.AnalysisTask
	// Index is the task's position in the batch it was submitted with.
	// Results arrive in completion order, so Index is the only reliable
	// correlation back to the input slice.
	Index int
	// Observations holds the raw typed observations the engine produced.
	Observations []observation.Observation
	// Err is the per-task detection failure, if any.
	Err error
}

// Option adjusts one dispatch call.
type Option func(*request.Options)

// WithRegionOfInterest restricts detection to a normalized sub-rectangle
// of the image.
func WithRegionOfInterest(roi types.Box) Option {
	return func(o *request.Options) { o.RegionOfInterest = roi }
}

// WithRevision forces a protocol revision on every request whose resolved
// type supports it. Unsupported combinations fall back to the default
// revision silently.
func WithRevision(revision int) Option {
	return func(o *request.Options) { o.Revision = revision }
}

// WithBackgroundPriority hints that the engine should run the batch at
// background priority.
func WithBackgroundPriority() Option {
	return func(o *request.Options) { o.PreferBackground = true }
}

// Dispatcher builds requests for analysis tasks, submits them to an engine
// as one batch, and aggregates per-task results as callbacks fire.
// Safe for concurrent use; concurrent batches are not serialized.
type Dispatcher struct {
	engine   Engine
	logger   *slog.Logger
	inFlight atomic.Int64
}

// New creates a Dispatcher over the given engine.
func New(engine Engine) *Dispatcher {
	return &Dispatcher{engine: engine, logger: slog.Default()}
}

// NewWithLogger creates a Dispatcher with a custom logger.
func NewWithLogger(engine Engine, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{engine: engine, logger: logger}
}

// Capability reports the underlying engine's protocol level, for use with
// the gated task constructors.
func (d *Dispatcher) Capability() task.Capability {
	return d.engine.Capability()
}

// IsProcessing reports whether at least one batch is currently in flight.
// With concurrent batches this is a shared affordance (e.g. for disabling
// UI controls), not a per-call signal.
func (d *Dispatcher) IsProcessing() bool {
	return d.inFlight.Load() > 0
}

// PerformTasks builds one request per task, submits them as a single batch
// against the image, and returns one TaskResult per task in callback
// completion order (not necessarily submission order; correlate via
// TaskResult.Index). Submission-level failures return (nil, err) with no
// partial results. Per-task failures are recorded in TaskResult.Err and do
// not abort sibling tasks.
func (d *Dispatcher) PerformTasks(ctx context.Context, tasks []task.AnalysisTask, img image.Image, opts ...Option) ([]TaskResult, error) {
	d.inFlight.Add(1)
	defer d.inFlight.Add(-1)

	var options request.Options
	for _, opt := range opts {
		opt(&options)
	}

	var (
		mu      sync.Mutex
		results = make([]TaskResult, 0, len(tasks))
	)

	reqs := make([]*request.Request, len(tasks))
	for i, t := range tasks {
		reqs[i] = request.Build(t, i, options, func(obs []observation.Observation, err error) {
			if err != nil {
				d.logger.Debug("task failed", "task", t.String(), "index", i, "error", err)
			}
			// Engines may complete requests from concurrent goroutines.
			mu.Lock()
			results = append(results, TaskResult{Task: t, Index: i, Observations: obs, Err: err})
			mu.Unlock()
		})
	}

	d.logger.Debug("submitting batch", "tasks", len(tasks))
	if err := d.engine.Perform(ctx, img, reqs); err != nil {
		d.logger.Debug("batch submission failed", "error", err)
		return nil, fmt.Errorf("image analysis failed: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != len(tasks) {
		// Engine contract violation: one callback per request.
		return nil, fmt.Errorf("engine completed %d of %d requests", len(results), len(tasks))
	}
	return results, nil
}

// PerformTask runs a batch of one and returns its single result.
func (d *Dispatcher) PerformTask(ctx context.Context, t task.AnalysisTask, img image.Image, opts ...Option) (TaskResult, error) {
	results, err := d.PerformTasks(ctx, []task.AnalysisTask{t}, img, opts...)
	if err != nil {
		return TaskResult{}, err
	}
	return results[0], nil
}
