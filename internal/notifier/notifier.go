// Package notifier runs the notification pipeline: load contacts, send one SMS
// per contact, optionally email each contact a confirmation that depends on
// the SMS outcome, and summarise the results.
//
// The phases run once each and in order on a single goroutine.
package notifier

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pedrosilva/notifier/internal/contact"
	"github.com/pedrosilva/notifier/internal/email"
	"github.com/pedrosilva/notifier/internal/errors"
	"github.com/pedrosilva/notifier/internal/logger"
	"github.com/pedrosilva/notifier/internal/observability/metrics"
	"github.com/pedrosilva/notifier/internal/sms"
	"github.com/pedrosilva/notifier/internal/spreadsheet"
)

const componentName = "notifier"

// Bypass mode identity for a destination given on the command line
const (
	BypassFirstname = "CMD"
	BypassSurname   = "Line"
)

type phase int

const (
	phaseNew phase = iota
	phaseLoaded
	phaseNotified
	phaseConfirmed
	phaseAborted
)

func (p phase) String() string {
	switch p {
	case phaseNew:
		return "new"
	case phaseLoaded:
		return "loaded"
	case phaseNotified:
		return "notified"
	case phaseConfirmed:
		return "confirmed"
	default:
		return "aborted"
	}
}

// Config identifies the sender and the default contact source.
type Config struct {
	Sender      string // SMS from identity
	Destination string // spreadsheet path, used unless Load gets an override
}

// Confirmation holds the email subject and the two possible bodies.
type Confirmation struct {
	Subject string
	Success string
	Error   string
}

// ConfirmReport counts what the confirmation phase did.
type ConfirmReport struct {
	Sent      int
	Failed    int
	Skipped   int // no send attempt was recorded for the contact
	NoAddress int
}

// Notifier holds the contact list of one run and the clients it talks to.
type Notifier struct {
	cfg      Config
	loader   spreadsheet.Loader
	sms      sms.Client
	dialer   email.Dialer
	recorder metrics.Recorder
	log      logger.Logger

	contacts      []*contact.Contact
	phase         phase
	notifyStarted bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLoader replaces the file-system spreadsheet loader.
func WithLoader(l spreadsheet.Loader) Option {
	return func(n *Notifier) { n.loader = l }
}

// WithDialer enables the confirmation phase.
func WithDialer(d email.Dialer) Option {
	return func(n *Notifier) { n.dialer = d }
}

// WithRecorder records run metrics.
func WithRecorder(r metrics.Recorder) Option {
	return func(n *Notifier) { n.recorder = r }
}

// WithLogger sets the logger. A nil logger keeps output discarded.
func WithLogger(l logger.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.log = l
		}
	}
}

// New creates a Notifier. client is required.
func New(cfg Config, client sms.Client, opts ...Option) (*Notifier, error) {
	if client == nil {
		return nil, errors.Newf("sms client is required").
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}

	n := &Notifier{
		cfg:      cfg,
		loader:   spreadsheet.FileLoader{},
		sms:      client,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.log == nil {
		n.log = logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	}
	return n, nil
}

// Contacts returns the loaded contacts in order.
func (n *Notifier) Contacts() []*contact.Contact {
	return n.contacts
}

// NotifyStarted reports whether any SMS may have been sent, i.e. whether a
// summary is worth printing.
func (n *Notifier) NotifyStarted() bool {
	return n.notifyStarted
}

// ConfirmationEnabled reports whether a dialer was configured.
func (n *Notifier) ConfirmationEnabled() bool {
	return n.dialer != nil
}

// expect guards phase ordering.
func (n *Notifier) expect(want phase, operation string) error {
	if n.phase == want {
		return nil
	}
	return errors.Newf("%s called in phase %s, expected %s", operation, n.phase, want).
		Component(componentName).
		Category(errors.CategoryState).
		Build()
}

// Load fills the contact list. A non-empty override creates a single contact
// with that phone number and the spreadsheet is not read (bypass mode).
func (n *Notifier) Load(ctx context.Context, override string) error {
	if err := n.expect(phaseNew, "Load"); err != nil {
		return err
	}
	log := n.log.WithContext(ctx)

	switch {
	case override != "":
		n.contacts = []*contact.Contact{{
			Firstname: BypassFirstname,
			Surname:   BypassSurname,
			Phone:     override,
		}}
		log.Info("using destination from command line", logger.String("phone", override))

	case n.cfg.Destination != "":
		contacts, err := n.loader.Load(n.cfg.Destination)
		if err != nil {
			n.phase = phaseAborted
			return err
		}
		n.contacts = contacts
		log.Info("contacts loaded",
			logger.String("file", n.cfg.Destination),
			logger.Int("count", len(contacts)))

	default:
		n.phase = phaseAborted
		return errors.ConfigurationError(componentName,
			errors.NewStd("no destination: set SMS.DESTINATION or pass --destination"))
	}

	n.recorder.RecordContacts(len(n.contacts))
	n.phase = phaseLoaded
	return nil
}

// Notify sends text to every contact in order and attaches the results.
// Per-contact delivery failures are recorded on the contact; an answer the
// provider client cannot interpret stops the run and is returned.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if err := n.expect(phaseLoaded, "Notify"); err != nil {
		return err
	}
	log := n.log.WithContext(ctx)
	n.notifyStarted = true

	if len(n.contacts) == 0 {
		log.Info("no contacts to notify")
		n.phase = phaseNotified
		return nil
	}

	for i, c := range n.contacts {
		start := time.Now()
		result, err := n.sms.Send(ctx, n.cfg.Sender, c.Phone, text)
		if err != nil {
			n.phase = phaseAborted
			log.Error("notification aborted",
				logger.String("contact", c.String()),
				logger.Int("remaining", len(n.contacts)-i),
				logger.Error(err))
			return fmt.Errorf("notify %s: %w", c, err)
		}

		c.Result = result
		n.recorder.RecordSMS(smsOutcome(result), time.Since(start).Seconds())
	}

	log.Info("notifications sent", logger.Int("count", len(n.contacts)))
	n.phase = phaseNotified
	return nil
}

func smsOutcome(r *contact.DeliveryResult) string {
	switch {
	case r.Succeeded():
		return metrics.SMSAccepted
	case r.Status == contact.StatusNotDelivered:
		return metrics.SMSNotDelivered
	default:
		return metrics.SMSRejected
	}
}

// Confirm emails each contact with an address the success or the error body,
// depending on its SMS result. Contacts without a recorded result are skipped.
// One SMTP session serves all recipients and is always closed; when nobody
// qualifies no connection is made. A failure to open the session is returned;
// a failure for one recipient is logged and counted.
func (n *Notifier) Confirm(ctx context.Context, confirmation Confirmation) (ConfirmReport, error) {
	var report ConfirmReport
	if err := n.expect(phaseNotified, "Confirm"); err != nil {
		return report, err
	}
	if n.dialer == nil {
		return report, errors.Newf("confirmation requested but no email transport is configured").
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	log := n.log.WithContext(ctx)

	var recipients []*contact.Contact
	for _, c := range n.contacts {
		switch {
		case c.Result == nil:
			report.Skipped++
			n.recorder.RecordConfirmation(metrics.ConfirmationSkipped)
			log.Warn("skipping confirmation, no SMS result recorded", logger.String("contact", c.String()))
		case !c.HasEmail():
			report.NoAddress++
			n.recorder.RecordConfirmation(metrics.ConfirmationNoAddress)
			log.Debug("skipping confirmation, no email address", logger.String("contact", c.String()))
		default:
			recipients = append(recipients, c)
		}
	}

	n.phase = phaseConfirmed
	if len(recipients) == 0 {
		log.Info("no confirmation recipients")
		return report, nil
	}

	session, err := n.dialer.Dial(ctx)
	if err != nil {
		return report, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("closing SMTP session failed", logger.Error(cerr))
		}
	}()

	for _, c := range recipients {
		body := confirmation.Error
		if c.Result.Succeeded() {
			body = confirmation.Success
		}

		err := session.Send(ctx, email.Message{
			To:      c.Email,
			Subject: confirmation.Subject,
			Body:    body,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			report.Failed++
			n.recorder.RecordConfirmation(metrics.ConfirmationFailed)
			log.Warn("confirmation not sent", logger.String("to", c.Email), logger.Error(err))
			continue
		}
		report.Sent++
		n.recorder.RecordConfirmation(metrics.ConfirmationSent)
	}

	log.Info("confirmations processed",
		logger.Int("sent", report.Sent),
		logger.Int("failed", report.Failed),
		logger.Int("skipped", report.Skipped),
		logger.Int("no_address", report.NoAddress))
	return report, nil
}

// WriteSummary writes one line per contact with its delivery status.
func (n *Notifier) WriteSummary(w io.Writer) error {
	if !n.notifyStarted {
		return errors.Newf("summary requested before any notification was sent").
			Component(componentName).
			Category(errors.CategoryState).
			Build()
	}
	for _, c := range n.contacts {
		if _, err := fmt.Fprintf(w, "%s: %s\n", c, c.Result.Summary()); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}
