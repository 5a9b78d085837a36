package status

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
)

const vanillaStatus = `{
	"version": {"name": "1.21.4", "protocol": 769},
	"players": {"max": 20, "online": 2, "sample": [
		{"name": "alex", "id": "4566e69f-c907-48ee-8d71-d7ba5aa00d20"},
		{"name": "steve", "id": "8667ba71-b85a-4004-af54-457a9734eed7"}
	]},
	"description": {"text": "§aHello ", "extra": [{"text": "world", "bold": true}, "!"]},
	"enforcesSecureChat": true,
	"forgeData": {"fmlNetworkVersion": 3, "mods": []}
}`

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("vanilla payload", func(t *testing.T) {
		t.Parallel()

		r, err := Parse(vanillaStatus)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Version.Name != "1.21.4" || r.Version.Protocol != 769 {
			t.Errorf("unexpected version %+v", r.Version)
		}
		if r.Players.Max != 20 || r.Players.Online != 2 {
			t.Errorf("unexpected players %+v", r.Players)
		}
		if len(r.Players.Sample) != 2 || r.Players.Sample[1].Name != "steve" {
			t.Errorf("unexpected sample %+v", r.Players.Sample)
		}
		if r.Description.Text != "§aHello world!" {
			t.Errorf("expected flattened description, got %q", r.Description.Text)
		}
		if r.Description.String() != "Hello world!" {
			t.Errorf("expected stripped description, got %q", r.Description.String())
		}
		if r.Favicon != "" {
			t.Errorf("expected no favicon, got %q", r.Favicon)
		}
	})

	t.Run("plain string description", func(t *testing.T) {
		t.Parallel()

		r, err := Parse(`{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0},"description":"A Minecraft Server"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Description.Text != "A Minecraft Server" {
			t.Errorf("unexpected description %q", r.Description.Text)
		}
		if r.Players.Sample != nil {
			t.Errorf("expected no sample, got %v", r.Players.Sample)
		}
	})

	t.Run("keeps unknown fields", func(t *testing.T) {
		t.Parallel()

		r, err := Parse(vanillaStatus)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(r.Extra) != 2 {
			t.Fatalf("expected 2 extra fields, got %v", r.Extra)
		}
		if string(r.Extra["enforcesSecureChat"]) != "true" {
			t.Errorf("unexpected enforcesSecureChat %s", r.Extra["enforcesSecureChat"])
		}
		if _, ok := r.Extra["forgeData"]; !ok {
			t.Error("expected forgeData to be preserved")
		}
	})

	schemaErrors := []struct {
		name  string
		text  string
		field string
	}{
		{"not json", "<html>", ""},
		{"not an object", `[1,2]`, ""},
		{"null document", `null`, ""},
		{"missing version", `{"players":{"max":1,"online":0},"description":""}`, "version"},
		{"missing players", `{"version":{"name":"x","protocol":1},"description":""}`, "players"},
		{"missing description", `{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0}}`, "description"},
		{"wrong player type", `{"version":{"name":"x","protocol":1},"players":{"max":"many","online":0},"description":""}`, "players"},
		{"numeric description", `{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0},"description":5}`, "description"},
		{"favicon not a string", `{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0},"description":"","favicon":1}`, "favicon"},
	}
	for _, tt := range schemaErrors {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.text)
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SchemaError, got %T %v", err, err)
			}
			if se.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, se.Field)
			}
		})
	}
}

func TestResponseMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	r, err := Parse(vanillaStatus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	again, err := Parse(string(out))
	if err != nil {
		t.Fatalf("parse marshalled output %s: %v", out, err)
	}
	if again.Description.Text != r.Description.Text {
		t.Errorf("description changed: %q vs %q", again.Description.Text, r.Description.Text)
	}
	if string(again.Extra["enforcesSecureChat"]) != "true" {
		t.Errorf("extra field lost in %s", out)
	}
}

func TestFaviconHash(t *testing.T) {
	t.Parallel()

	png := []byte("\x89PNG\r\n\x1a\nfake image body")
	encoded := base64.StdEncoding.EncodeToString(png)

	t.Run("hashes decoded image", func(t *testing.T) {
		t.Parallel()

		r := &Response{Favicon: faviconPrefix + encoded}
		got, ok := r.FaviconHash()
		if !ok {
			t.Fatal("expected a hash")
		}
		if got != xxhash.Sum64(png) {
			t.Errorf("expected %x, got %x", xxhash.Sum64(png), got)
		}
	})

	t.Run("ignores line wrapping", func(t *testing.T) {
		t.Parallel()

		wrapped := encoded[:10] + "\n" + encoded[10:]
		a, _ := (&Response{Favicon: faviconPrefix + wrapped}).FaviconHash()
		b, _ := (&Response{Favicon: faviconPrefix + encoded}).FaviconHash()
		if a != b {
			t.Error("expected wrapped and unwrapped favicon to hash the same")
		}
	})

	for _, favicon := range []string{"", "data:image/jpeg;base64," + encoded, faviconPrefix + "!!!"} {
		if _, ok := (&Response{Favicon: favicon}).FaviconHash(); ok {
			t.Errorf("expected no hash for favicon %q", favicon)
		}
	}
}

func TestStripFormatting(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"plain":               "plain",
		"§aGreen §lbold":      "Green bold",
		"trailing §":          "trailing ",
		"§":                   "",
		strings.Repeat("§k", 3): "",
	}
	for in, want := range tests {
		if got := StripFormatting(in); got != want {
			t.Errorf("StripFormatting(%q) = %q, want %q", in, got, want)
		}
	}
}
