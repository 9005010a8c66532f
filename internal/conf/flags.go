package conf

// Flags holds the command line values shared by every subcommand.
type Flags struct {
	ConfigFile  string
	Destination string // phone number that replaces the spreadsheet
	Debug       bool
}

// LogLevel returns the effective log level, debug when --debug was given.
func (f *Flags) LogLevel(settings *Settings) string {
	if f.Debug {
		return "debug"
	}
	return settings.Log.Level
}
