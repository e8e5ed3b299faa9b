package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const productionEnv = "production"

var log zerolog.Logger = newLogger("development", false)

// Init configures the global logger for the given environment.
// Development uses a human-readable console writer, production emits JSON.
func Init(environment string, debug bool) {
	log = newLogger(environment, debug)
}

func newLogger(environment string, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	if strings.EqualFold(environment, productionEnv) {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, keyvals ...interface{}) {
	log.Debug().Fields(normalize(keyvals)).Msg(msg)
}

// Info logs an informational message with optional key-value pairs.
func Info(msg string, keyvals ...interface{}) {
	log.Info().Fields(normalize(keyvals)).Msg(msg)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, keyvals ...interface{}) {
	log.Warn().Fields(normalize(keyvals)).Msg(msg)
}

// Error logs an error with optional key-value pairs.
func Error(msg string, err error, keyvals ...interface{}) {
	log.Error().Err(err).Fields(normalize(keyvals)).Msg(msg)
}

// Fatal logs an error and exits the process.
func Fatal(msg string, err error, keyvals ...interface{}) {
	log.Fatal().Err(err).Fields(normalize(keyvals)).Msg(msg)
}

// normalize drops a dangling key so zerolog does not panic on odd-length
// key-value lists.
func normalize(keyvals []interface{}) []interface{} {
	if len(keyvals)%2 != 0 {
		return keyvals[:len(keyvals)-1]
	}
	return keyvals
}
