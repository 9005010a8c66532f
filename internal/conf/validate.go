package conf

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pedrosilva/notifier/internal/logger"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings checks presence of every required key. All problems are
// collected so the user sees them at once. bypass is true when the destination
// comes from the command line.
func ValidateSettings(settings *Settings, bypass bool, problems ...string) error {
	ve := ValidationError{Errors: append([]string(nil), problems...)}

	require := func(value, key string) {
		if strings.TrimSpace(value) == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("missing %s", key))
		}
	}

	require(settings.SMS.Sender, "SMS.SENDER")
	require(settings.SMS.Content, "SMS.CONTENT")
	if !bypass {
		require(settings.SMS.Destination, "SMS.DESTINATION")
	}
	require(settings.Nexmo.APIKey, "NEXMO.API_KEY")
	require(settings.Nexmo.APISecret, "NEXMO.API_SECRET")

	if settings.Email.Enabled() {
		require(settings.Email.Password, "EMAIL.PASSWORD")
		require(settings.Email.SMTP, "EMAIL.SMTP")
	}

	if err := validateLogLevel(settings.Log.Level); err != nil {
		ve.Errors = append(ve.Errors, "LOG.LEVEL "+err.Error())
	}
	if _, err := time.LoadLocation(settings.Log.Timezone); err != nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf("LOG.TIMEZONE: unknown time zone %q", settings.Log.Timezone))
	}
	if err := validateURL(settings.Nexmo.Endpoint, "NEXMO.ENDPOINT"); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if settings.Metrics.Pushgateway != "" {
		if err := validateURL(settings.Metrics.Pushgateway, "METRICS.PUSHGATEWAY"); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateLogLevel(level string) error {
	switch logger.LogLevel(level) {
	case logger.LogLevelTrace, logger.LogLevelDebug, logger.LogLevelInfo, logger.LogLevelWarn, logger.LogLevelError:
		return nil
	default:
		return fmt.Errorf("must be one of trace, debug, info, warn, error, got %q", level)
	}
}

func validateURL(raw, key string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}
