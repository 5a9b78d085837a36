package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Description is the server message of the day. Servers send either a plain
// string or a chat component object; both forms are accepted and the original
// JSON is kept in Raw.
type Description struct {
	Raw  json.RawMessage
	Text string
}

// component is the subset of a chat component needed to flatten it to text.
type component struct {
	Text      string            `json:"text"`
	Translate string            `json:"translate"`
	Extra     []json.RawMessage `json:"extra"`
}

// UnmarshalJSON accepts a string, a chat component object or an array of components.
func (d *Description) UnmarshalJSON(data []byte) error {
	text, err := flatten(data, 0)
	if err != nil {
		return err
	}

	d.Raw = append(json.RawMessage(nil), data...)
	d.Text = text
	return nil
}

// MarshalJSON writes the original JSON, or the text as a string when there is none.
func (d Description) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}

	return json.Marshal(d.Text)
}

// String returns the text with § formatting codes removed.
func (d Description) String() string {
	return StripFormatting(d.Text)
}

// StripFormatting removes § colour and style codes.
func StripFormatting(s string) string {
	if !strings.ContainsRune(s, '§') {
		return s
	}

	var b strings.Builder
	skip := false
	for _, r := range s {
		switch {
		case skip:
			skip = false
		case r == '§':
			skip = true
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// maxDepth bounds recursion through nested extra arrays.
const maxDepth = 32

func flatten(data []byte, depth int) (string, error) {
	if depth > maxDepth {
		return "", fmt.Errorf("description nested deeper than %d levels", maxDepth)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", fmt.Errorf("empty description")
	}

	switch data[0] {
	case '"':
		var s string
		err := json.Unmarshal(data, &s)
		return s, err

	case '{':
		var c component
		if err := json.Unmarshal(data, &c); err != nil {
			return "", err
		}
		var b strings.Builder
		if c.Text != "" {
			b.WriteString(c.Text)
		} else {
			b.WriteString(c.Translate)
		}
		for _, e := range c.Extra {
			s, err := flatten(e, depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil

	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(data, &parts); err != nil {
			return "", err
		}
		var b strings.Builder
		for _, p := range parts {
			s, err := flatten(p, depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil

	default:
		return "", fmt.Errorf("description must be a string or an object, got %s", data)
	}
}
