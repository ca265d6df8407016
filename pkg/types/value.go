package types

import (
	"encoding/json"
	"time"
)

// Kind tags the content of a Value.
type Kind uint8

// Value kinds. Every cell is exactly one of these.
const (
	KindEmpty Kind = iota
	KindText
	KindDate
)

// Date layouts. Cells are displayed day-first and stored ISO.
const (
	DisplayDateLayout = "02/01/2006"
	StorageDateLayout = "2006-01-02"
)

// Value is a single worksheet cell: empty, text, or a calendar date.
// The zero Value is empty.
type Value struct {
	kind Kind
	text string // text payload; for an invalid empty cell, the rejected input
	date time.Time
}

// Empty returns the absent marker.
func Empty() Value { return Value{} }

// Text returns a text cell. The empty string yields an empty cell.
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

// Date returns a date cell truncated to its calendar day.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns a date cell for the given calendar day.
func DateOf(year int, month time.Month, day int) Value {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Invalid returns an empty cell that remembers the input it was parsed from.
// It behaves as Empty everywhere except Malformed.
func Invalid(raw string) Value {
	return Value{text: raw}
}

// Kind reports what the value holds.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether the value is the absent marker.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// IsDate reports whether the value holds a date.
func (v Value) IsDate() bool { return v.kind == KindDate }

// Time returns the date held by the value at midnight UTC.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// Malformed returns the original input of an empty cell produced by a failed
// parse. It returns false for cells that were simply absent.
func (v Value) Malformed() (string, bool) {
	if v.kind != KindEmpty || v.text == "" {
		return "", false
	}
	return v.text, true
}

// String returns the display form: text as-is, dates as dd/mm/yyyy, and the
// empty string for absent cells.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindDate:
		return v.date.Format(DisplayDateLayout)
	default:
		return ""
	}
}

// StorageString returns the form written back to a store. Dates use
// yyyy-mm-dd so any reader can parse them unambiguously. An invalid cell
// writes back the input it was parsed from, so rewriting a sheet keeps it.
func (v Value) StorageString() string {
	switch v.kind {
	case KindDate:
		return v.date.Format(StorageDateLayout)
	default:
		return v.text
	}
}

// Equal reports whether two cells hold the same content. The rejected input
// of invalid cells is ignored.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindDate:
		return v.date.Equal(o.date)
	default:
		return true
	}
}

// MarshalJSON encodes the storage form as a JSON string.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.StorageString())
}

// UnmarshalJSON decodes a JSON string as a text cell. Dates are recovered by
// the date parser, not here.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Text(s)
	return nil
}
