package testutil

import (
	"io"
	"log/slog"

	"github.com/runixer/botapi/internal/config"
)

// TestToken is a syntactically valid bot token for tests.
const TestToken = "123456:test-token"

// TestLogger returns a discarding logger for tests.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestConfig returns the embedded defaults with a token, no offset database,
// and a fast poll interval.
func TestConfig() *config.Config {
	cfg, err := config.LoadDefault()
	if err != nil {
		panic("embedded default config is invalid: " + err.Error())
	}
	cfg.Telegram.Token = TestToken
	cfg.Polling.Interval = "10ms"
	cfg.Polling.Timeout = 0
	cfg.Database.Path = ""
	return cfg
}

// Ptr returns a pointer to the given value. Useful for optional fields.
func Ptr[T any](v T) *T {
	return &v
}
