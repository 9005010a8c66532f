package notifier

import (
	"context"
	"time"
)

// RunOptions selects the destination, the text and the confirmation content
// of one run.
type RunOptions struct {
	Override string // phone number from the command line, bypasses the spreadsheet
	Text     string

	// Confirm runs the confirmation phase; it requires a dialer.
	Confirm      bool
	Confirmation Confirmation
}

// RunResult is what a run produced, also when it ended early.
type RunResult struct {
	Confirmed bool
	Confirm   ConfirmReport
	Duration  time.Duration
}

// Run executes Load, Notify and, when enabled, Confirm. The returned result is
// valid even when an error is returned; use NotifyStarted to decide whether to
// print the summary.
func (n *Notifier) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{}

	err := n.run(ctx, opts, result)

	result.Duration = time.Since(start)
	n.recorder.RecordRun(result.Duration.Seconds(), err == nil)
	return result, err
}

func (n *Notifier) run(ctx context.Context, opts RunOptions, result *RunResult) error {
	if err := n.Load(ctx, opts.Override); err != nil {
		return err
	}
	if err := n.Notify(ctx, opts.Text); err != nil {
		return err
	}
	if !opts.Confirm {
		return nil
	}

	report, err := n.Confirm(ctx, opts.Confirmation)
	result.Confirmed = true
	result.Confirm = report
	return err
}
