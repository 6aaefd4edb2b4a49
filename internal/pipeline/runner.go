package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/orderflow/internal/channel"
	"github.com/gyaneshwarpardhi/orderflow/internal/metrics"
)

// Binding ties a stage to its input destination and optional output
// destination. A binding with no output runs the stage for its side effects
// (metrics, audit headers logged downstream) and discards the result.
type Binding struct {
	Stage  string
	Input  string
	Output string
}

// stageWork is one message routed to one bound stage.
type stageWork struct {
	stage  Stage
	output string
	msg    channel.Message
}

// Runner drives the transformation stages: it consumes each binding's input
// destination, transforms messages on a shared worker pool, and publishes
// results to the binding's output. Stages carry no cross-message state, so
// messages run in parallel without coordination.
type Runner struct {
	reg    channel.Registry
	group  string
	stages map[string]Stage
	pool   *workerPool[stageWork]
	wg     sync.WaitGroup
}

// NewRunner creates a Runner with the default stage set registered.
func NewRunner(reg channel.Registry, group string) *Runner {
	r := &Runner{
		reg:    reg,
		group:  group,
		stages: make(map[string]Stage),
	}
	for _, s := range []Stage{Financial{}, Splitter{}, Analytics{}, Audit{}} {
		r.stages[s.Name()] = s
	}
	return r
}

// Stage returns the registered stage by name.
func (r *Runner) Stage(name string) (Stage, bool) {
	s, ok := r.stages[name]
	return s, ok
}

// Start validates the bindings, starts the worker pool, and begins consuming
// every bound input destination. It returns once consumption is running;
// call Shutdown to drain.
func (r *Runner) Start(ctx context.Context, bindings []Binding, workers, queueDepth int) error {
	for _, b := range bindings {
		if _, ok := r.stages[b.Stage]; !ok {
			return fmt.Errorf("pipeline: unknown stage %q", b.Stage)
		}
		if b.Input == "" {
			return fmt.Errorf("pipeline: stage %q has no input binding", b.Stage)
		}
	}

	r.pool = newWorkerPool(ctx, workers, queueDepth, r.handle)

	for _, b := range bindings {
		msgs, err := r.reg.Consume(ctx, b.Input, r.group)
		if err != nil {
			return fmt.Errorf("pipeline: consume %q: %w", b.Input, err)
		}
		stage := r.stages[b.Stage]
		output := b.Output
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for msg := range msgs {
				if !r.pool.SubmitWait(ctx, stageWork{stage: stage, output: output, msg: msg}) {
					return
				}
			}
		}()
		slog.Info("pipeline binding started", "stage", b.Stage, "input", b.Input, "output", output)
	}
	return nil
}

// handle transforms one message and publishes the result. A FatalError
// aborts only this message; the failure is logged and counted, never
// propagated to sibling messages.
func (r *Runner) handle(ctx context.Context, w stageWork) {
	start := time.Now()
	out, err := w.stage.Transform(ctx, w.msg)
	if err != nil {
		var fe *FatalError
		if errors.As(err, &fe) {
			slog.Error("stage failed", "stage", fe.Stage, "err", fe.Err)
		} else {
			slog.Error("stage failed", "stage", w.stage.Name(), "err", err)
		}
		metrics.PipelineMessages.WithLabelValues(w.stage.Name(), "error").Inc()
		return
	}
	metrics.PipelineDuration.WithLabelValues(w.stage.Name()).Observe(float64(time.Since(start).Milliseconds()))

	if w.output == "" {
		metrics.PipelineMessages.WithLabelValues(w.stage.Name(), "ok").Inc()
		return
	}
	if err := r.reg.Publish(ctx, w.output, out); err != nil {
		slog.Error("stage output publish failed", "stage", w.stage.Name(), "destination", w.output, "err", err)
		metrics.PipelineMessages.WithLabelValues(w.stage.Name(), "publish_error").Inc()
		return
	}
	metrics.PipelineMessages.WithLabelValues(w.stage.Name(), "ok").Inc()
}

// QueueUtilization returns pool queue used / capacity (0–1).
func (r *Runner) QueueUtilization() float64 {
	if r.pool == nil || r.pool.QueueCap() == 0 {
		return 0
	}
	return float64(r.pool.QueueLen()) / float64(r.pool.QueueCap())
}

// Shutdown waits for consumers to stop and drains the pool.
func (r *Runner) Shutdown() {
	r.wg.Wait()
	if r.pool != nil {
		r.pool.Drain()
	}
}
