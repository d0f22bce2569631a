// Package logging builds the zerolog component loggers shared by every xnftctl
// package. All loggers write through a single switchable sink so the dashboard
// can capture log output in its own pane.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	sink io.Writer = os.Stderr
)

// switchWriter forwards writes to whatever sink is currently installed.
type switchWriter struct{}

func (switchWriter) Write(p []byte) (int, error) {
	mu.RLock()
	w := sink
	mu.RUnlock()
	return w.Write(p)
}

// New returns a console logger tagged with the given component name.
func New(component string) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        switchWriter{},
		TimeFormat: time.RFC3339,
		NoColor:    os.Getenv("NO_COLOR") != "",
	}
	return zerolog.New(out).With().Timestamp().Str("component", component).Logger()
}

// SetOutput installs w as the sink for all loggers and returns a function
// restoring the previous one.
func SetOutput(w io.Writer) (restore func()) {
	mu.Lock()
	prev := sink
	sink = w
	mu.Unlock()
	return func() {
		mu.Lock()
		sink = prev
		mu.Unlock()
	}
}

// SetLevel sets the global log level from a name such as "debug" or "warn".
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
