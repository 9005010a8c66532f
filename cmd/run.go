package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/pedrosilva/notifier/internal/buildinfo"
	"github.com/pedrosilva/notifier/internal/conf"
	"github.com/pedrosilva/notifier/internal/email"
	"github.com/pedrosilva/notifier/internal/errors"
	"github.com/pedrosilva/notifier/internal/httpclient"
	"github.com/pedrosilva/notifier/internal/logger"
	"github.com/pedrosilva/notifier/internal/message"
	"github.com/pedrosilva/notifier/internal/notification"
	"github.com/pedrosilva/notifier/internal/notifier"
	"github.com/pedrosilva/notifier/internal/observability"
	"github.com/pedrosilva/notifier/internal/sms"
)

const (
	// publishTimeout bounds the metrics push and the run report after a run
	publishTimeout = 10 * time.Second

	sentryFlushTimeout = 2 * time.Second
)

// execute performs one notification run. Errors from configuration, the
// spreadsheet or the provider are returned; the summary is written to stdout
// whenever the notify phase started.
func execute(ctx context.Context, flags *conf.Flags, stdout, stderr io.Writer) error {
	settings, err := conf.Load(flags.ConfigFile, flags.Destination)
	if err != nil {
		return err
	}

	central, err := newLogger(settings, flags, stderr)
	if err != nil {
		return err
	}
	defer central.Close()
	log := central.Module("main")

	runID := uuid.NewString()
	ctx = logger.WithTraceID(ctx, runID)

	if settings.Telemetry.SentryDSN != "" {
		if err := initTelemetry(settings.Telemetry.SentryDSN, runID); err != nil {
			log.Warn("error telemetry disabled", logger.Error(err))
		} else {
			defer sentry.Flush(sentryFlushTimeout)
		}
	}

	client := sms.NewNexmoClient(sms.Config{
		APIKey:    settings.Nexmo.APIKey,
		APISecret: settings.Nexmo.APISecret,
		Endpoint:  settings.Nexmo.Endpoint,
		Timeout:   settings.Nexmo.Timeout,
	}, central.Module("sms"))
	defer client.Close()

	m, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	opts := []notifier.Option{
		notifier.WithLogger(central.Module("notifier")),
		notifier.WithRecorder(m.Run),
	}
	if settings.Email.Enabled() {
		opts = append(opts, notifier.WithDialer(email.NewSMTPDialer(email.SMTPConfig{
			Host:     settings.Email.SMTP,
			Port:     settings.Email.Port,
			Sender:   settings.Email.Sender,
			Password: settings.Email.Password,
		}, central.Module("email"))))
	}

	n, err := notifier.New(notifier.Config{
		Sender:      settings.SMS.Sender,
		Destination: settings.SMS.Destination,
	}, client, opts...)
	if err != nil {
		return err
	}

	log.WithContext(ctx).Info("run started",
		logger.Bool("bypass", flags.Destination != ""),
		logger.Bool("confirmation", settings.Email.Enabled()))

	result, runErr := n.Run(ctx, notifier.RunOptions{
		Override: flags.Destination,
		Text:     message.Compose(settings.SMS.Title, settings.SMS.Content),
		Confirm:  settings.Email.Enabled(),
		Confirmation: notifier.Confirmation{
			Subject: settings.Confirmation.Subject,
			Success: settings.Confirmation.Success,
			Error:   settings.Confirmation.Error,
		},
	})

	if err := central.Flush(); err != nil {
		log.Warn("log file not flushed", logger.Error(err))
	}
	if n.NotifyStarted() {
		if err := n.WriteSummary(stdout); err != nil {
			log.Warn("summary not written", logger.Error(err))
		}
	}

	// Publishing must not be cut short by an interrupted run
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	pushMetrics(publishCtx, settings, m, runID, central.Module("metrics"))
	publishReport(publishCtx, settings, &notification.RunSummary{
		RunID:            runID,
		Contacts:         n.Contacts(),
		Duration:         result.Duration,
		Err:              runErr,
		ConfirmationRan:  result.Confirmed,
		ConfirmSent:      result.Confirm.Sent,
		ConfirmFailed:    result.Confirm.Failed,
		ConfirmSkipped:   result.Confirm.Skipped,
		ConfirmNoAddress: result.Confirm.NoAddress,
	}, central.Module("notification"))

	if runErr != nil {
		log.WithContext(ctx).Error("run failed",
			logger.String("category", string(errors.CategoryOf(runErr))),
			logger.Duration("elapsed", result.Duration),
			logger.Error(runErr))
		return runErr
	}

	log.WithContext(ctx).Info("run completed", logger.Duration("elapsed", result.Duration))
	return nil
}

// newLogger builds the central logger from the [LOG] section. Console output
// goes to stderr so stdout carries only the summary. Module overrides apply
// even with --debug.
func newLogger(settings *conf.Settings, flags *conf.Flags, stderr io.Writer) (*logger.CentralLogger, error) {
	level := flags.LogLevel(settings)
	cfg := &logger.LoggingConfig{
		DefaultLevel: level,
		Timezone:     settings.Log.Timezone,
		ModuleLevels: settings.Log.Modules,
		Console: &logger.ConsoleOutput{
			Enabled: true,
			Level:   level,
			Writer:  stderr,
		},
	}
	if settings.Log.File != "" {
		cfg.FileOutput = &logger.FileOutput{
			Enabled: true,
			Path:    settings.Log.File,
			Level:   level,
		}
	}

	central, err := logger.NewCentralLogger(cfg)
	if err != nil {
		return nil, errors.ConfigurationError("logger", fmt.Errorf("create logger: %w", err))
	}
	return central, nil
}

func initTelemetry(dsn, runID string) error {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          buildinfo.Release(),
		AttachStacktrace: true,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("run_id", runID)
	})
	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	return nil
}

func pushMetrics(ctx context.Context, settings *conf.Settings, m *observability.Metrics, runID string, log logger.Logger) {
	if settings.Metrics.Pushgateway == "" {
		return
	}

	hc := httpclient.New(&httpclient.Config{DefaultTimeout: publishTimeout})
	defer hc.Close()

	err := m.Push(ctx, settings.Metrics.Pushgateway, settings.Metrics.Job, runID, hc.HTTPClient())
	if err != nil {
		log.Warn("metrics not pushed", logger.Error(err))
		return
	}
	log.Debug("metrics pushed", logger.String("job", settings.Metrics.Job))
}

func publishReport(ctx context.Context, settings *conf.Settings, summary *notification.RunSummary, log logger.Logger) {
	reporter := notification.NewReporter(log,
		notification.NewShoutrrrProvider("report", settings.Report.URLs, publishTimeout))
	if !reporter.Enabled() {
		return
	}
	if failures := reporter.Publish(ctx, summary); failures > 0 {
		log.Warn("run report incomplete", logger.Int("failed_providers", failures))
	}
}
