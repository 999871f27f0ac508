// pkg/logger/logger.go
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	// Default to console output with color
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}

	Log = zerolog.New(output).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Caller().
		Logger()

	// Packages log through zerolog/log; point it at the same writer.
	log.Logger = Log
}

// SetLevel sets the log level. Gin modes are accepted too so SERVER_MODE can
// drive it: "debug" maps to debug, "release" and "test" to info.
func SetLevel(levelStr string) {
	switch levelStr {
	case "release", "test":
		levelStr = "info"
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
	log.Logger = Log
}

// UseJSON switches the global logger to plain JSON lines on stderr. The CLI
// uses it so stdout carries only the report payload.
func UseJSON() {
	Log = zerolog.New(os.Stderr).
		Level(Log.GetLevel()).
		With().
		Timestamp().
		Logger()
	log.Logger = Log
}
