package conf

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. NOTIFIER_NEXMO_API_SECRET.
const EnvPrefix = "NOTIFIER"

// configureEnvironmentVariables lets NOTIFIER_<SECTION>_<KEY> override file values
func configureEnvironmentVariables(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
