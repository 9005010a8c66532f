package conf

import "github.com/spf13/viper"

// Default values for optional keys
const (
	DefaultNexmoEndpoint       = "https://rest.nexmo.com/sms/json"
	DefaultNexmoTimeout        = "30s"
	DefaultSMTPHost            = "smtp.office365.com"
	DefaultSMTPPort            = 587
	DefaultConfirmationSubject = "Email notification"
	DefaultConfirmationSuccess = "We have sent you an SMS, please check your phone!"
	DefaultConfirmationError   = "We could not reach you by SMS, please get in touch with us!"
	DefaultLogLevel            = "info"
	DefaultLogTimezone         = "Local"
	DefaultMetricsJob          = "notifier"
)

func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("nexmo.endpoint", DefaultNexmoEndpoint)
	v.SetDefault("nexmo.timeout", DefaultNexmoTimeout)

	v.SetDefault("email.smtp", DefaultSMTPHost)
	v.SetDefault("email.port", DefaultSMTPPort)

	v.SetDefault("confirmation.subject", DefaultConfirmationSubject)
	v.SetDefault("confirmation.success", DefaultConfirmationSuccess)
	v.SetDefault("confirmation.error", DefaultConfirmationError)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.timezone", DefaultLogTimezone)
	v.SetDefault("metrics.job", DefaultMetricsJob)
}
