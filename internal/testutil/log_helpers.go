// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// QuietLogs raises the global log level to warn for the duration of the test,
// or to LOG_LEVEL when it is set.
func QuietLogs(t testing.TB) {
	t.Helper()
	SetLogLevel(t, ParseLogLevel(zerolog.WarnLevel))
}

// SetLogLevel sets the global log level and restores the previous one when the test ends
func SetLogLevel(t testing.TB, level zerolog.Level) {
	t.Helper()
	prevLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(level)
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
	})
}

// ParseLogLevel parses log level from environment variable or returns default
func ParseLogLevel(defaultLevel zerolog.Level) zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		return defaultLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return defaultLevel
	}
	return level
}
