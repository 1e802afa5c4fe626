package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DayItems is the ordered list of raw session lines for one date key.
type DayItems struct {
	Date  string
	Items []string
}

// WeekContent maps date keys to session lines, keeping the order in which keys arrived.
// Generator output decodes into it from a JSON object.
type WeekContent []DayItems

// Items returns the lines stored under date, or nil.
func (c WeekContent) Items(date string) []string {
	for _, d := range c {
		if d.Date == date {
			return d.Items
		}
	}
	return nil
}

// Clone deep-copies the content so callers can mutate the result freely.
func (c WeekContent) Clone() WeekContent {
	out := make(WeekContent, len(c))
	for i, d := range c {
		out[i] = DayItems{Date: d.Date, Items: append([]string(nil), d.Items...)}
	}
	return out
}

// SessionCount counts non-empty session lines.
func (c WeekContent) SessionCount() int {
	n := 0
	for _, d := range c {
		n += len(d.Items)
	}
	return n
}

func (c WeekContent) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Date)
		if err != nil {
			return nil, err
		}
		items := d.Items
		if items == nil {
			items = []string{}
		}
		val, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts {"date": ["line", ...]} and also a bare string value per date.
func (c *WeekContent) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("week content: expected object, got %v", tok)
	}

	var out WeekContent
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("week content: unexpected key %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("week content %q: %w", key, err)
		}
		items, err := decodeItems(raw)
		if err != nil {
			return fmt.Errorf("week content %q: %w", key, err)
		}
		out = append(out, DayItems{Date: key, Items: items})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = out
	return nil
}

func decodeItems(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	var items []string
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("expected a list of strings: %w", err)
	}
	return items, nil
}
