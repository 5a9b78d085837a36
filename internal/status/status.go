// Package status maps the JSON document of a status response onto Go types.
package status

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// faviconPrefix precedes the base64 PNG in the favicon field.
const faviconPrefix = "data:image/png;base64,"

// knownFields are the top-level keys mapped onto Response fields; everything else lands in Extra.
var knownFields = map[string]struct{}{
	"version":     {},
	"players":     {},
	"description": {},
	"favicon":     {},
}

// SchemaError reports a payload that is not JSON or does not have the expected shape.
type SchemaError struct {
	Err   error
	Field string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return "status schema: " + e.Err.Error()
	}

	return "status schema: " + e.Field + ": " + e.Err.Error()
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// Response is the decoded status document.
type Response struct {
	// Extra keeps top-level fields this package does not interpret (forgeData, modinfo, ...).
	Extra       map[string]json.RawMessage `json:"-"`
	Favicon     string                     `json:"favicon,omitempty"`
	Description Description                `json:"description"`
	Version     Version                    `json:"version"`
	Players     Players                    `json:"players"`
}

// Version describes the server software.
type Version struct {
	Name     string `json:"name"`
	Protocol int64  `json:"protocol"`
}

// Players holds player counts and an optional sample of names.
type Players struct {
	Sample []Sample `json:"sample,omitempty"`
	Max    int64    `json:"max"`
	Online int64    `json:"online"`
}

// Sample is one entry of the player sample.
type Sample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Parse decodes the status JSON text. Failures are returned as *SchemaError.
func Parse(text string) (*Response, error) {
	var r Response
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, &SchemaError{Err: err}
	}

	return &r, nil
}

// UnmarshalJSON requires version, players and description and keeps unknown fields in Extra.
func (r *Response) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return &SchemaError{Err: err}
	}
	if fields == nil {
		return &SchemaError{Err: fmt.Errorf("document is null")}
	}

	var out Response
	targets := []struct {
		v    any
		name string
	}{
		{&out.Version, "version"},
		{&out.Players, "players"},
		{&out.Description, "description"},
	}
	for _, tgt := range targets {
		raw, ok := fields[tgt.name]
		if !ok || isNull(raw) {
			return &SchemaError{Field: tgt.name, Err: fmt.Errorf("missing")}
		}
		if err := json.Unmarshal(raw, tgt.v); err != nil {
			return &SchemaError{Field: tgt.name, Err: err}
		}
	}

	if raw, ok := fields["favicon"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &out.Favicon); err != nil {
			return &SchemaError{Field: "favicon", Err: err}
		}
	}

	for k, v := range fields {
		if _, known := knownFields[k]; known {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[k] = v
	}

	*r = out
	return nil
}

// MarshalJSON writes the known fields followed by Extra, so a decoded document round-trips.
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	base, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}

	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		if _, known := knownFields[k]; !known {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	for _, k := range keys {
		name, _ := json.Marshal(k)
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(r.Extra[k])
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// FaviconPNG decodes the favicon data URI.
func (r *Response) FaviconPNG() ([]byte, error) {
	if r.Favicon == "" {
		return nil, fmt.Errorf("no favicon")
	}

	data, ok := strings.CutPrefix(r.Favicon, faviconPrefix)
	if !ok {
		return nil, fmt.Errorf("favicon is not a PNG data URI")
	}

	// some servers wrap the base64 body at 76 columns
	data = strings.NewReplacer("\n", "", "\r", "").Replace(data)

	return base64.StdEncoding.DecodeString(data)
}

// FaviconHash returns the xxhash64 of the decoded favicon image.
// Identical icons on different hosts hash the same, which helps group networks of servers.
func (r *Response) FaviconHash() (uint64, bool) {
	png, err := r.FaviconPNG()
	if err != nil || len(png) == 0 {
		return 0, false
	}

	return xxhash.Sum64(png), true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
