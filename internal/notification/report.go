package notification

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pedrosilva/notifier/internal/contact"
	"github.com/pedrosilva/notifier/internal/errors"
	"github.com/pedrosilva/notifier/internal/logger"
)

// maxListedFailures bounds the per-contact lines in a report
const maxListedFailures = 10

// RunSummary is what a finished run reports.
type RunSummary struct {
	RunID    string
	Contacts []*contact.Contact
	Duration time.Duration
	Err      error // fatal error that ended the run, if any

	ConfirmationRan  bool
	ConfirmSent      int
	ConfirmFailed    int
	ConfirmSkipped   int
	ConfirmNoAddress int
}

// BuildReport renders summary as a push message.
func BuildReport(summary *RunSummary) *Report {
	var accepted int
	var failed []*contact.Contact
	for _, c := range summary.Contacts {
		if c.Result.Succeeded() {
			accepted++
		} else {
			failed = append(failed, c)
		}
	}

	status := "completed"
	switch {
	case summary.Err != nil:
		status = "failed"
	case len(failed) > 0:
		status = "completed with failures"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SMS: %s, %d accepted, %d failed\n", plural(len(summary.Contacts), "contact"), accepted, len(failed))
	if summary.ConfirmationRan {
		fmt.Fprintf(&b, "Confirmations: %d sent, %d failed, %d skipped, %d without address\n",
			summary.ConfirmSent, summary.ConfirmFailed, summary.ConfirmSkipped, summary.ConfirmNoAddress)
	}
	for i, c := range failed {
		if i == maxListedFailures {
			fmt.Fprintf(&b, "... and %d more\n", len(failed)-maxListedFailures)
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", c, c.Result.Summary())
	}
	if summary.Err != nil {
		fmt.Fprintf(&b, "Error: %s\n", summary.Err)
	}
	fmt.Fprintf(&b, "Run %s took %s", summary.RunID, summary.Duration.Round(time.Millisecond))

	return &Report{
		Title:   "notifier run " + status,
		Message: b.String(),
	}
}

// Reporter publishes run reports. Publishing never fails the run; problems
// are logged.
type Reporter struct {
	providers []Provider
	log       logger.Logger
}

// NewReporter validates providers and keeps the enabled, valid ones.
func NewReporter(log logger.Logger, providers ...Provider) *Reporter {
	if log == nil {
		log = logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	}
	r := &Reporter{log: log}
	for _, p := range providers {
		if p == nil || !p.IsEnabled() {
			continue
		}
		if err := p.ValidateConfig(); err != nil {
			log.Warn("report provider disabled", logger.String("provider", p.GetName()), logger.Error(err))
			continue
		}
		r.providers = append(r.providers, p)
	}
	return r
}

// Enabled reports whether at least one provider will receive reports.
func (r *Reporter) Enabled() bool {
	return len(r.providers) > 0
}

// Publish sends the report built from summary to every provider and returns
// the number of providers that failed.
func (r *Reporter) Publish(ctx context.Context, summary *RunSummary) int {
	if !r.Enabled() {
		return 0
	}

	report := BuildReport(summary)
	failures := 0
	for _, p := range r.providers {
		if err := p.Send(ctx, report); err != nil {
			failures++
			err = errors.New(err).
				Component("notification").
				Category(errors.CategoryIntegration).
				Context("provider", p.GetName()).
				Build()
			r.log.Warn("run report not delivered", logger.String("provider", p.GetName()), logger.Error(err))
			continue
		}
		r.log.Debug("run report delivered", logger.String("provider", p.GetName()))
	}
	return failures
}
