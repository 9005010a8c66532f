// Package conf loads the notifier's ini configuration through viper.
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"

	"github.com/pedrosilva/notifier/internal/errors"
	"github.com/pedrosilva/notifier/internal/secrets"
)

// DefaultConfigFile is used when no --configuration flag is given.
const DefaultConfigFile = "details.ini"

// Settings is the complete notifier configuration.
type Settings struct {
	SMS          SMSSettings
	Nexmo        NexmoSettings
	Email        EmailSettings
	Confirmation ConfirmationSettings
	Log          LogSettings
	Metrics      MetricsSettings
	Report       ReportSettings
	Telemetry    TelemetrySettings
}

// SMSSettings is the [SMS] section.
type SMSSettings struct {
	Sender      string // from identity shown on the handset
	Destination string // spreadsheet path
	Content     string // message text, or the secret when Title is set
	Title       string // switches to the credential template
}

// NexmoSettings is the [NEXMO] section.
type NexmoSettings struct {
	APIKey    string
	APISecret string
	Endpoint  string
	Timeout   time.Duration
}

// EmailSettings is the [EMAIL] section.
type EmailSettings struct {
	Sender   string
	Password string
	SMTP     string
	Port     int
}

// Enabled reports whether the confirmation phase should run.
func (e EmailSettings) Enabled() bool {
	return e.Sender != ""
}

// ConfirmationSettings is the [CONFIRMATION] section.
type ConfirmationSettings struct {
	Subject string
	Success string
	Error   string
}

// LogSettings is the [LOG] section.
type LogSettings struct {
	Level    string
	File     string
	Timezone string            // "Local", "UTC" or an IANA name
	Modules  map[string]string // per-module level overrides, MODULES = sms:debug,email:warn
}

// MetricsSettings is the [METRICS] section.
type MetricsSettings struct {
	Pushgateway string
	Job         string
}

// ReportSettings is the [REPORT] section.
type ReportSettings struct {
	URLs []string
}

// TelemetrySettings is the [TELEMETRY] section.
type TelemetrySettings struct {
	SentryDSN string
}

// Load reads the ini file at path, applies defaults and environment overrides
// and validates the result. destinationOverride is the --destination value;
// when set, [SMS] DESTINATION becomes optional.
func Load(path, destinationOverride string) (*Settings, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	settings, problems := readSettings(v)
	if err := ValidateSettings(settings, destinationOverride != "", problems...); err != nil {
		return nil, errors.ConfigurationError("conf", err)
	}
	return settings, nil
}

// newViper builds a viper instance holding the file's values.
func newViper(path string) (*viper.Viper, error) {
	if path == "" {
		path = DefaultConfigFile
	}

	values, err := readINI(path)
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("file", path).
			Build()
	}

	v := viper.New()
	setDefaultConfig(v)
	configureEnvironmentVariables(v)
	if err := v.MergeConfigMap(values); err != nil {
		return nil, errors.ConfigurationError("conf", fmt.Errorf("error merging %s: %w", path, err))
	}
	return v, nil
}

// readINI parses the file into section -> key -> value maps with lowercase names,
// the shape viper uses for nested keys. Keys of [DEFAULT] are inherited by every
// section and surrounding quotes are kept, as Python's configparser does.
func readINI(path string) (map[string]any, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("configuration file %s: %w", path, err)
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: true,
		IgnoreInlineComment:        true,
		PreserveSurroundedQuote:    true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	defaults := file.Section(ini.DefaultSection).Keys()

	values := make(map[string]any)
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		keys := make(map[string]any, len(defaults)+len(section.Keys()))
		for _, key := range defaults {
			keys[strings.ToLower(key.Name())] = key.String()
		}
		for _, key := range section.Keys() {
			keys[strings.ToLower(key.Name())] = key.String()
		}
		values[strings.ToLower(section.Name())] = keys
	}
	return values, nil
}

// readSettings copies viper values into Settings. Credentials may reference
// environment variables as ${VAR} or be read from the file named by the
// matching *_FILE key. Values that fail to parse or resolve are returned as
// problems so they are reported with the missing keys.
func readSettings(v *viper.Viper) (*Settings, []string) {
	var problems []string

	s := &Settings{
		SMS: SMSSettings{
			Sender:      v.GetString("sms.sender"),
			Destination: v.GetString("sms.destination"),
			Content:     v.GetString("sms.content"),
			Title:       v.GetString("sms.title"),
		},
		Nexmo: NexmoSettings{
			APIKey:    v.GetString("nexmo.api_key"),
			APISecret: v.GetString("nexmo.api_secret"),
			Endpoint:  v.GetString("nexmo.endpoint"),
		},
		Email: EmailSettings{
			Sender:   v.GetString("email.sender"),
			Password: v.GetString("email.password"),
			SMTP:     v.GetString("email.smtp"),
		},
		Confirmation: ConfirmationSettings{
			Subject: v.GetString("confirmation.subject"),
			Success: v.GetString("confirmation.success"),
			Error:   v.GetString("confirmation.error"),
		},
		Log: LogSettings{
			Level:    strings.ToLower(v.GetString("log.level")),
			File:     v.GetString("log.file"),
			Timezone: v.GetString("log.timezone"),
		},
		Metrics: MetricsSettings{
			Pushgateway: v.GetString("metrics.pushgateway"),
			Job:         v.GetString("metrics.job"),
		},
		Report: ReportSettings{
			URLs: splitList(v.GetString("report.urls")),
		},
		Telemetry: TelemetrySettings{
			SentryDSN: v.GetString("telemetry.sentry_dsn"),
		},
	}

	modules, err := parseModuleLevels(v.GetString("log.modules"))
	if err != nil {
		problems = append(problems, fmt.Sprintf("LOG.MODULES: %v", err))
	}
	s.Log.Modules = modules

	port, err := strconv.Atoi(strings.TrimSpace(v.GetString("email.port")))
	if err != nil {
		problems = append(problems, fmt.Sprintf("EMAIL.PORT must be an integer, got %q", v.GetString("email.port")))
	}
	s.Email.Port = port

	timeout, err := parseTimeout(v.GetString("nexmo.timeout"))
	if err != nil {
		problems = append(problems, fmt.Sprintf("NEXMO.TIMEOUT: %v", err))
	}
	s.Nexmo.Timeout = timeout

	for _, cred := range []struct {
		key    string
		target *string
	}{
		{"nexmo.api_key", &s.Nexmo.APIKey},
		{"nexmo.api_secret", &s.Nexmo.APISecret},
		{"email.password", &s.Email.Password},
		{"telemetry.sentry_dsn", &s.Telemetry.SentryDSN},
	} {
		value, err := secrets.Resolve(v.GetString(cred.key+"_file"), *cred.target)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", strings.ToUpper(cred.key), err))
			continue
		}
		*cred.target = value
	}

	return s, problems
}

// parseTimeout accepts a Go duration ("30s") or a whole number of seconds.
func parseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return d, nil
}

// parseModuleLevels reads "module:level" pairs separated by commas.
func parseModuleLevels(value string) (map[string]string, error) {
	items := splitList(value)
	if len(items) == 0 {
		return nil, nil
	}
	levels := make(map[string]string, len(items))
	for _, item := range items {
		module, level, ok := strings.Cut(item, ":")
		module = strings.ToLower(strings.TrimSpace(module))
		level = strings.ToLower(strings.TrimSpace(level))
		if !ok || module == "" {
			return nil, fmt.Errorf("expected module:level, got %q", item)
		}
		if err := validateLogLevel(level); err != nil {
			return nil, fmt.Errorf("level of %s %w", module, err)
		}
		levels[module] = level
	}
	return levels, nil
}

func splitList(value string) []string {
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
