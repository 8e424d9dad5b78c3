package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global logger for a run. Quiet raises the
// level so per-task lines disappear and only warnings and errors reach
// the console; debug wins over quiet.
func InitLogger(debug, quiet bool) {
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.WarnLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = newConsoleLogger(os.Stderr)
}

func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// SetLogOutput redirects the global logger to w; tests use it to keep
// task logs out of test output.
func SetLogOutput(w io.Writer) {
	log.Logger = newConsoleLogger(w)
}

func newConsoleLogger(w io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.DateTime,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}
