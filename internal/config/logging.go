package config

import (
	"github.com/Joel31000/CarbonConsult/internal/logging"
)

// ToLoggingConfig converts the logging section to logging.Config. Debug
// forces debug level and console output, as the --debug flag does.
func (lc LoggingConfig) ToLoggingConfig(debug bool) logging.Config {
	out := logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		File:   lc.File,
		Caller: lc.Caller,
	}
	if debug {
		out.Level = "debug"
		out.Format = logging.FormatConsole
		out.Caller = true
	}
	return out
}
