package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/fake"
)

func startFake(t *testing.T, mode fake.Mode, statusJSON string) *fake.Server {
	t.Helper()

	s, err := fake.Listen("127.0.0.1:0", mode, statusJSON)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func parse(t *testing.T, args ...string) *config.Config {
	t.Helper()

	cfg, err := config.ParseArgs(args)
	if err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}

	return cfg
}

func TestRunPing(t *testing.T) {
	t.Parallel()

	s := startFake(t, fake.ModeStatus, fake.StatusJSON("§6Welcome", 2, 10))

	t.Run("summary", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		cfg := parse(t, "ping", s.Addr().String())
		if err := run(context.Background(), cfg, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{s.Addr().String(), "Players", "2/10", "Description", "Welcome", "Latency"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected %q in output:\n%s", want, out.String())
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		cfg := parse(t, "ping", "--json", s.Addr().String())
		if err := run(context.Background(), cfg, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var report struct {
			Address     string `json:"address"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(out.Bytes(), &report); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out.String())
		}
		if report.Address != s.Addr().String() || report.Description != "Welcome" {
			t.Errorf("unexpected report %+v", report)
		}
	})

	t.Run("violation fails", func(t *testing.T) {
		t.Parallel()

		bad := startFake(t, fake.ModeBadPong, fake.StatusJSON("x", 0, 1))
		var out bytes.Buffer
		if err := run(context.Background(), parse(t, "ping", bad.Addr().String()), &out); err == nil {
			t.Error("expected an error")
		}
		if out.Len() != 0 {
			t.Errorf("expected no output, got %q", out.String())
		}
	})
}

func TestRunScan(t *testing.T) {
	t.Parallel()

	s := startFake(t, fake.ModeStatus, "{}")
	port := s.Addr().Port()

	var out bytes.Buffer
	cfg := parse(t, "scan",
		"--from", itoa(port), "--to", itoa(port),
		"--timeout", (300 * time.Millisecond).String(),
		"127.0.0.1")
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != itoa(port) {
		t.Errorf("expected only %d, got %q", port, got)
	}
}

func TestRunServe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cfg := parse(t, "serve", "--listen", "127.0.0.1:0", "--motd", "hi")

	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, &bytes.Buffer{}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop on cancellation")
	}
}

func itoa(p uint16) string {
	return strconv.FormatUint(uint64(p), 10)
}
