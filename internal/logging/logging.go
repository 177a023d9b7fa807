// Package logging configures the zerolog logger shared by the interpreter
// and the processes it spawns.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "ELIASH_LOG_LEVEL"
	EnvLogNoColor = "ELIASH_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// New returns a console logger writing to w. The level comes from level,
// then EnvLogLevel overrides it. Unknown levels fall back to the profile
// default.
func New(w io.Writer, level string, profile Profile) zerolog.Logger {
	lvl := defaultLevel(profile)
	if l, ok := ParseLevel(level); ok {
		lvl = l
	}
	if l, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		lvl = l
	}

	cw := zerolog.ConsoleWriter{Out: w, NoColor: noColor()}
	if profile == ProfileTest {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
		return zerolog.New(cw).Level(lvl)
	}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}

func defaultLevel(profile Profile) zerolog.Level {
	if profile == ProfileTest {
		return zerolog.DebugLevel
	}
	return zerolog.WarnLevel
}

// ParseLevel accepts zerolog level names, case-insensitively.
func ParseLevel(raw string) (zerolog.Level, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return zerolog.NoLevel, false
	}
	lvl, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.NoLevel, false
	}
	return lvl, true
}

func noColor() bool {
	v, err := strconv.ParseBool(os.Getenv(EnvLogNoColor))
	return err == nil && v
}
