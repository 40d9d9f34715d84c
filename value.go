package gtfsedit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

const dateLayout = "20060102"

// Value is a single table cell. Numbers keep the text they were read from so
// that writing a feed back out reproduces the input exactly.
type Value struct {
	kind Kind
	text string
	num  float64
	date time.Time
}

var Null = Value{}

func StringValue(s string) Value {
	return Value{kind: KindString, text: s}
}

func NumberValue(n float64) Value {
	return Value{kind: KindNumber, num: n, text: strconv.FormatFloat(n, 'f', -1, 64)}
}

func DateValue(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseValue infers the cell type of raw CSV text.
func ParseValue(s string) Value {
	if s == "" {
		return Null
	}
	if n, ok := parseNumber(s); ok {
		return Value{kind: KindNumber, num: n, text: s}
	}
	return StringValue(s)
}

// ParseDate parses a GTFS YYYYMMDD date.
func ParseDate(s string) (Value, error) {
	if len(s) != len(dateLayout) {
		return Null, fmt.Errorf("invalid date %q, expected YYYYMMDD", s)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Null, err
	}
	return DateValue(t), nil
}

func parseNumber(s string) (float64, bool) {
	switch c := s[0]; {
	case c >= '0' && c <= '9', c == '-', c == '+', c == '.':
	default:
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Float() float64 { return v.num }

func (v Value) Time() time.Time { return v.date }

// String is the normalized text form used both for comparisons across tables
// and for serialization. Null is the empty string, dates are YYYYMMDD.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindDate:
		return v.date.Format(dateLayout)
	default:
		return v.text
	}
}

func (v Value) Equal(other Value) bool {
	return v.kind == other.kind && v.String() == other.String()
}

// CompareIDs orders identifiers the same way whether they were stored as
// numbers or strings: numeric ids first in numeric order, then the rest
// lexicographically.
func CompareIDs(a, b string) int {
	if a == b {
		return 0
	}
	na, aok := parseNumberText(a)
	nb, bok := parseNumberText(b)
	switch {
	case aok && bok && na < nb:
		return -1
	case aok && bok && na > nb:
		return 1
	case aok && !bok:
		return -1
	case !aok && bok:
		return 1
	}
	return strings.Compare(a, b)
}

func parseNumberText(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	return parseNumber(s)
}
