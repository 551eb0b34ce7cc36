package conversation

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Citation is a reference backing an assistant answer. Both boundary shapes
// (a bare label string and a structured record) decode into this one type.
type Citation struct {
	Label      string   `json:"label,omitempty"`
	Location   string   `json:"location,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Excerpt    string   `json:"excerpt,omitempty"`
}

// UnmarshalJSON accepts
//   - a string: the whole string becomes the label
//   - an object using either the stored field names (label, location,
//     confidence, excerpt) or the service's (source, page, score, snippet)
//   - anything else: an empty citation, rendered as "unknown"
func (c *Citation) UnmarshalJSON(data []byte) error {
	*c = Citation{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &c.Label)
	case '{':
	default:
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	c.Label = firstText(fields, "label", "source")
	if loc := textOf(fields["location"]); loc != "" {
		c.Location = loc
	} else if page := textOf(fields["page"]); page != "" {
		c.Location = "page " + page
	}
	c.Confidence = firstNumber(fields, "confidence", "score")
	c.Excerpt = firstText(fields, "excerpt", "snippet")

	return nil
}

// NormalizeSources converts the service's sources field into citations. A
// JSON list is decoded element by element; a string is split on newlines
// with blank lines discarded; anything else yields no citations.
func NormalizeSources(raw json.RawMessage) []Citation {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	switch raw[0] {
	case '[':
		var list []Citation
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}
		if len(list) == 0 {
			return nil
		}
		return list
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil
		}
		var out []Citation
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			out = append(out, Citation{Label: line})
		}
		return out
	default:
		return nil
	}
}

func firstText(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if v := textOf(fields[k]); v != "" {
			return v
		}
	}
	return ""
}

func firstNumber(fields map[string]json.RawMessage, keys ...string) *float64 {
	for _, k := range keys {
		raw := bytes.TrimSpace(fields[k])
		if len(raw) == 0 || !isNumberStart(raw[0]) {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return &f
		}
	}
	return nil
}

// textOf renders a scalar JSON value as display text. Strings are unquoted,
// numbers and booleans keep their literal form, null and containers are
// empty.
func textOf(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch {
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case isNumberStart(raw[0]), bytes.Equal(raw, []byte("true")), bytes.Equal(raw, []byte("false")):
		return string(raw)
	default:
		return ""
	}
}

func isNumberStart(b byte) bool {
	return b == '-' || (b >= '0' && b <= '9')
}
