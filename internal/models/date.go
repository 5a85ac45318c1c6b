package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
	// InputDateTimeLayout is what <input type="datetime-local"> submits.
	InputDateTimeLayout = "2006-01-02T15:04"
)

var acceptedLayouts = []string{
	time.RFC3339,
	DateTimeLayout,
	InputDateTimeLayout,
	"2006-01-02 15:04:05",
	DateLayout,
}

// ParseTime accepts the date formats seen on the wire and in HTML inputs.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// Date is a calendar day, encoded as "2006-01-02". The zero value encodes
// as null.
type Date struct{ time.Time }

func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	t, err := unmarshalTime(b)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// DateTime is a local date and time, encoded as "2006-01-02T15:04:05".
type DateTime struct{ time.Time }

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateTimeLayout))
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	t, err := unmarshalTime(b)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d DateTime) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02 15:04")
}

func unmarshalTime(b []byte) (time.Time, error) {
	if bytes.Equal(b, []byte("null")) {
		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, nil
	}
	return ParseTime(s)
}
