package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/k3a/html2text"
	"github.com/wneessen/go-mail"

	"github.com/pedrosilva/notifier/internal/errors"
	"github.com/pedrosilva/notifier/internal/logger"
)

const (
	// DefaultHost and DefaultPort match Office 365 submission.
	DefaultHost = "smtp.office365.com"
	DefaultPort = 587

	defaultTimeout = 30 * time.Second
	componentName  = "email"
)

// htmlTag detects bodies written as HTML rather than plain text
var htmlTag = regexp.MustCompile(`(?i)<\s*/?\s*(html|body|p|br|div|span|a|b|i|strong|em|table|tr|td|ul|ol|li|h[1-6])\b[^>]*>`)

// SMTPConfig describes the submission server. Sender is both the login and
// the From address.
type SMTPConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
	Timeout  time.Duration

	// TLSConfig replaces the default verification, for servers behind a
	// private CA.
	TLSConfig *tls.Config
}

// SMTPDialer opens STARTTLS sessions with LOGIN authentication.
type SMTPDialer struct {
	cfg SMTPConfig
	log logger.Logger
}

// NewSMTPDialer creates a dialer. A nil log discards output.
func NewSMTPDialer(cfg SMTPConfig, log logger.Logger) *SMTPDialer {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	}
	return &SMTPDialer{cfg: cfg, log: log}
}

// Dial connects, upgrades with STARTTLS and authenticates. Any failure is an
// email-transport error.
func (d *SMTPDialer) Dial(ctx context.Context) (Session, error) {
	opts := []mail.Option{
		mail.WithPort(d.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(d.cfg.Sender),
		mail.WithPassword(d.cfg.Password),
		mail.WithTimeout(d.cfg.Timeout),
	}
	if d.cfg.TLSConfig != nil {
		opts = append(opts, mail.WithTLSConfig(d.cfg.TLSConfig))
	}

	client, err := mail.NewClient(d.cfg.Host, opts...)
	if err != nil {
		return nil, d.transportError(fmt.Errorf("configure SMTP client: %w", err))
	}

	if err := client.DialWithContext(ctx); err != nil {
		return nil, d.transportError(fmt.Errorf("connect to %s:%d: %w", d.cfg.Host, d.cfg.Port, err))
	}

	d.log.Debug("SMTP session opened", logger.String("host", d.cfg.Host), logger.Int("port", d.cfg.Port))
	return &smtpSession{client: client, from: d.cfg.Sender, log: d.log}, nil
}

func (d *SMTPDialer) transportError(err error) error {
	return errors.New(err).
		Component(componentName).
		Category(errors.CategoryEmailTransport).
		Context("host", d.cfg.Host).
		Context("port", d.cfg.Port).
		Build()
}

type smtpSession struct {
	client *mail.Client
	from   string
	log    logger.Logger
}

// Send delivers one message. Failures are email-send errors; the session
// stays usable for the next recipient.
func (s *smtpSession) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := buildMessage(s.from, m)
	if err == nil {
		err = s.client.Send(msg)
	}
	if err != nil {
		return errors.New(fmt.Errorf("send confirmation to %s: %w", m.To, err)).
			Component(componentName).
			Category(errors.CategoryEmailSend).
			Context("recipient", m.To).
			Build()
	}

	s.log.Debug("confirmation sent", logger.String("to", m.To))
	return nil
}

func (s *smtpSession) Close() error {
	if err := s.client.Close(); err != nil {
		return errors.New(fmt.Errorf("close SMTP session: %w", err)).
			Component(componentName).
			Category(errors.CategoryEmailTransport).
			Build()
	}
	return nil
}

// buildMessage renders m. HTML bodies get a plain-text part generated from the
// markup with the HTML kept as the preferred alternative.
func buildMessage(from string, m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetDate()

	if IsHTML(m.Body) {
		msg.SetBodyString(mail.TypeTextPlain, html2text.HTML2Text(m.Body))
		msg.AddAlternativeString(mail.TypeTextHTML, m.Body)
	} else {
		msg.SetBodyString(mail.TypeTextPlain, m.Body)
	}
	return msg, nil
}

// IsHTML reports whether body contains HTML markup.
func IsHTML(body string) bool {
	return htmlTag.MatchString(body)
}
