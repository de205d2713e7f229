// Package setup runs the environment setup steps in order and reports
// progress as fixed status lines.
package setup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Farewell is the line written after every step has succeeded.
const Farewell = "That's all folks!"

// Step is one "ensure present" operation.
type Step struct {
	// Label names the artifact in the status line, e.g. "VGG16 model".
	Label string

	// Run makes the artifact present and returns its handle.
	Run func(ctx context.Context) (any, error)
}

// StatusLine returns the line printed before the step runs.
func (s Step) StatusLine() string {
	return "Processing " + s.Label + " ... "
}

// Runner executes steps sequentially.
type Runner struct {
	out   io.Writer
	steps []Step
}

// NewRunner creates a runner writing status lines to out.
func NewRunner(out io.Writer, steps ...Step) *Runner {
	return &Runner{out: out, steps: steps}
}

// Run executes every step in order. The first failing step aborts the run
// and no further status line is written.
func (r *Runner) Run(ctx context.Context) error {
	started := time.Now()

	for _, step := range r.steps {
		if _, err := fmt.Fprintln(r.out, step.StatusLine()); err != nil {
			return fmt.Errorf("failed to write status: %w", err)
		}

		stepStarted := time.Now()
		handle, err := step.Run(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", step.Label, err)
		}

		slog.Debug("Step finished", "step", step.Label, "handle", handle, "elapsed", time.Since(stepStarted).Round(time.Millisecond))
	}

	if _, err := fmt.Fprintln(r.out, Farewell); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}

	slog.Info("Setup complete", "steps", len(r.steps), "elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}
