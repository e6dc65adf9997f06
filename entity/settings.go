package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const EventDateLayout = "2006-01-02"

type EventSettings struct {
	EventDate      time.Time   `json:"event_date"`
	AgeColorRanges ColorRanges `json:"age_color_ranges"`
	AllowedClasses []string    `json:"allowed_classes"`
	Version        int64       `json:"version"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type ColorRange struct {
	Range string `json:"range"`
	Color string `json:"color"`
}

// ColorRanges keeps the configuration order. The first matching range wins, so
// the order is part of the configuration and survives JSON round trips.
type ColorRanges []ColorRange

func (r ColorRanges) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cr := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cr.Range)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(cr.Color)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts both {"0-15": "#FF6B6B", ...} and
// [{"range": "0-15", "color": "#FF6B6B"}, ...].
func (r *ColorRanges) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*r = nil
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []ColorRange
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*r = list
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("color ranges must be a JSON object or array")
	}

	ranges := ColorRanges{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected color range key %v", keyTok)
		}

		var color string
		if err := dec.Decode(&color); err != nil {
			return fmt.Errorf("color for range %q: %w", key, err)
		}
		ranges = append(ranges, ColorRange{Range: key, Color: color})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = ranges
	return nil
}

func (r ColorRanges) Value() (driver.Value, error) {
	if r == nil {
		return "{}", nil
	}
	data, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (r *ColorRanges) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case []byte:
		return r.UnmarshalJSON(v)
	case string:
		return r.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into ColorRanges", src)
	}
}
