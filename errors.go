package gtfsedit

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidArchive = errors.New("invalid archive")

// TableParseError reports a member of the archive that could not be read as a
// table. Line is 1-based and zero when the problem is not tied to a line.
type TableParseError struct {
	Member string
	Line   int
	Column string
	Err    error
}

func (e *TableParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse ")
	b.WriteString(e.Member)
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *TableParseError) Unwrap() error {
	return e.Err
}

type MissingRequiredTablesError struct {
	Missing []string
}

func (e *MissingRequiredTablesError) Error() string {
	return "missing required tables: " + strings.Join(e.Missing, ", ")
}

type InvalidRowError struct {
	Table  string
	Reason string
}

func (e *InvalidRowError) Error() string {
	if e.Table == "" {
		return "invalid row: " + e.Reason
	}
	return fmt.Sprintf("invalid row for %s: %s", e.Table, e.Reason)
}
