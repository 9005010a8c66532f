package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrosilva/notifier/internal/errors"
)

const completeINI = `[SMS]
SENDER = Clinic
DESTINATION = contacts.xlsx
CONTENT = Reminder: appointment tomorrow; bring your card

[NEXMO]
API_KEY = key123
API_SECRET = secret456

[EMAIL]
SENDER = desk@example.com
PASSWORD = hunter2
PORT = 25

[REPORT]
URLS = generic://example.test/hook, logger://
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "details.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadComplete(t *testing.T) {
	settings, err := Load(writeConfig(t, completeINI), "")
	require.NoError(t, err)

	assert.Equal(t, "Clinic", settings.SMS.Sender)
	assert.Equal(t, "contacts.xlsx", settings.SMS.Destination)
	assert.Equal(t, "Reminder: appointment tomorrow; bring your card", settings.SMS.Content)
	assert.Equal(t, "key123", settings.Nexmo.APIKey)
	assert.Equal(t, DefaultNexmoEndpoint, settings.Nexmo.Endpoint)
	assert.Equal(t, 30*time.Second, settings.Nexmo.Timeout)

	assert.True(t, settings.Email.Enabled())
	assert.Equal(t, DefaultSMTPHost, settings.Email.SMTP)
	assert.Equal(t, 25, settings.Email.Port)

	assert.Equal(t, DefaultConfirmationSubject, settings.Confirmation.Subject)
	assert.Equal(t, DefaultConfirmationSuccess, settings.Confirmation.Success)
	assert.Equal(t, DefaultConfirmationError, settings.Confirmation.Error)
	assert.Equal(t, []string{"generic://example.test/hook", "logger://"}, settings.Report.URLs)
	assert.Equal(t, DefaultMetricsJob, settings.Metrics.Job)
}

func TestLoadCollectsAllMissingKeys(t *testing.T) {
	path := writeConfig(t, "[SMS]\nSENDER = Clinic\n")

	_, err := Load(path, "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.ElementsMatch(t, []string{
		"missing SMS.CONTENT",
		"missing SMS.DESTINATION",
		"missing NEXMO.API_KEY",
		"missing NEXMO.API_SECRET",
	}, ve.Errors)
}

func TestLoadDestinationOptionalWithOverride(t *testing.T) {
	path := writeConfig(t, `[SMS]
SENDER = Clinic
CONTENT = hi
[NEXMO]
API_KEY = k
API_SECRET = s
`)

	settings, err := Load(path, "15551234567")
	require.NoError(t, err)
	assert.Empty(t, settings.SMS.Destination)
	assert.False(t, settings.Email.Enabled())
}

func TestLoadMissingNexmoCredentials(t *testing.T) {
	path := writeConfig(t, "[SMS]\nSENDER = a\nCONTENT = b\nDESTINATION = c.xlsx\n")

	_, err := Load(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEXMO.API_KEY")
	assert.Contains(t, err.Error(), "NEXMO.API_SECRET")
}

func TestLoadInvalidPort(t *testing.T) {
	path := writeConfig(t, `[SMS]
SENDER = Clinic
CONTENT = hi
DESTINATION = c.csv
[NEXMO]
API_KEY = k
API_SECRET = s
[EMAIL]
SENDER = desk@example.com
PASSWORD = pw
PORT = submission
`)

	_, err := Load(path, "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.Contains(t, err.Error(), "EMAIL.PORT")
}

func TestLoadEmailPasswordRequiredWhenEnabled(t *testing.T) {
	path := writeConfig(t, `[SMS]
SENDER = Clinic
CONTENT = hi
DESTINATION = c.csv
[NEXMO]
API_KEY = k
API_SECRET = s
[EMAIL]
SENDER = desk@example.com
`)

	_, err := Load(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing EMAIL.PASSWORD")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.ini"), "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("NOTIFIER_NEXMO_API_SECRET", "from-env")
	t.Setenv("NOTIFIER_LOG_LEVEL", "DEBUG")

	settings, err := Load(writeConfig(t, completeINI), "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", settings.Nexmo.APISecret)
	assert.Equal(t, "debug", settings.Log.Level)
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{"45", 45 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimeout(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCredentialsFromEnvironmentAndFiles(t *testing.T) {
	t.Setenv("CLINIC_NEXMO_KEY", "key-from-env")
	secretFile := filepath.Join(t.TempDir(), "nexmo_secret")
	require.NoError(t, os.WriteFile(secretFile, []byte("secret-from-file\n"), 0o600))

	path := writeConfig(t, `[SMS]
SENDER = Clinic
CONTENT = hi
DESTINATION = c.csv
[NEXMO]
API_KEY = ${CLINIC_NEXMO_KEY}
API_SECRET_FILE = `+secretFile+`
`)

	settings, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "key-from-env", settings.Nexmo.APIKey)
	assert.Equal(t, "secret-from-file", settings.Nexmo.APISecret)
}

func TestUnresolvedCredentialIsReported(t *testing.T) {
	path := writeConfig(t, `[SMS]
SENDER = Clinic
CONTENT = hi
DESTINATION = c.csv
[NEXMO]
API_KEY = ${CLINIC_UNSET_KEY}
API_SECRET_FILE = /nonexistent/notifier/secret
`)

	_, err := Load(path, "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, err.Error(), "CLINIC_UNSET_KEY")
	assert.Contains(t, err.Error(), "NEXMO.API_SECRET")
}

func TestDefaultSectionIsInherited(t *testing.T) {
	path := writeConfig(t, `[DEFAULT]
PASSWORD = shared-secret

[SMS]
SENDER = Clinic
CONTENT = "See you at 9"
DESTINATION = c.csv
[NEXMO]
API_KEY = k
API_SECRET = s
[EMAIL]
SENDER = desk@example.com
`)

	settings, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "shared-secret", settings.Email.Password)
	assert.Equal(t, `"See you at 9"`, settings.SMS.Content)
}

func TestSectionOverridesDefault(t *testing.T) {
	path := writeConfig(t, `[DEFAULT]
PORT = 2525

[SMS]
SENDER = Clinic
CONTENT = hi
DESTINATION = c.csv
[NEXMO]
API_KEY = k
API_SECRET = s
[EMAIL]
SENDER = desk@example.com
PASSWORD = pw
PORT = 465
`)

	settings, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 465, settings.Email.Port)
}

func TestLogTimezoneAndModuleLevels(t *testing.T) {
	settings, err := Load(writeConfig(t, completeINI+`
[LOG]
TIMEZONE = Europe/Lisbon
MODULES = sms:debug, Email:WARN
`), "")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Lisbon", settings.Log.Timezone)
	assert.Equal(t, map[string]string{"sms": "debug", "email": "warn"}, settings.Log.Modules)
}

func TestLogDefaultsToLocalTimezone(t *testing.T) {
	settings, err := Load(writeConfig(t, completeINI), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultLogTimezone, settings.Log.Timezone)
	assert.Empty(t, settings.Log.Modules)
}

func TestInvalidLogSettings(t *testing.T) {
	_, err := Load(writeConfig(t, completeINI+`
[LOG]
TIMEZONE = Mars/Olympus
MODULES = sms:loud
`), "")
	require.Error(t, err)

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, err.Error(), "LOG.TIMEZONE")
	assert.Contains(t, err.Error(), `LOG.MODULES: level of sms must be one of`)
}
