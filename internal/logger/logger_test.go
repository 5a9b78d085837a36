package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup mutates the global logger, so these tests run sequentially.
func TestSetup(t *testing.T) {
	t.Run("writes json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mcstatus.log")

		closer := Setup(Config{Level: "debug", Format: "json", Output: path})
		l := Component("scanner")
		l.Debug().Uint16("port", 25565).Msg("open port")
		if err := closer.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read log: %v", err)
		}
		line := string(data)
		for _, want := range []string{`"component":"scanner"`, `"port":25565`, `"message":"open port"`} {
			if !strings.Contains(line, want) {
				t.Errorf("expected %s in %s", want, line)
			}
		}
		if zerolog.GlobalLevel() != zerolog.DebugLevel {
			t.Errorf("expected debug level, got %v", zerolog.GlobalLevel())
		}
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		closer := Setup(Config{Level: "loud", Format: "console", Output: "stderr"})
		defer func() { _ = closer.Close() }()

		if zerolog.GlobalLevel() != zerolog.InfoLevel {
			t.Errorf("expected info level, got %v", zerolog.GlobalLevel())
		}
	})

	t.Run("unwritable file falls back to stderr", func(t *testing.T) {
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = r.Close() }()

		stderr := os.Stderr
		os.Stderr = w
		closer := Setup(Config{Level: "info", Format: "json", Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
		log.Info().Msg("still logging")
		os.Stderr = stderr
		_ = w.Close()

		if _, ok := closer.(nopCloser); !ok {
			t.Errorf("expected the no-op closer, got %T", closer)
		}

		data, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"Failed to open log file", `"message":"still logging"`} {
			if !strings.Contains(string(data), want) {
				t.Errorf("expected %q on stderr, got %s", want, data)
			}
		}
	})
}
