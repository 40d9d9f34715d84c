package gtfsedit

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

const tableSuffix = ".txt"

type LoadOpts struct {
	// KeepOtherFiles retains non-table members so Dump writes them back.
	KeepOtherFiles bool
	// ExtraDateColumns adds table -> columns entries to the date policy.
	ExtraDateColumns map[string][]string
}

// Load reads a GTFS archive. A blob that is not a zip fails with
// ErrInvalidArchive. Members that cannot be parsed as tables are left out of
// the feed and reported individually; the rest of the feed still loads.
func Load(data []byte, opts *LoadOpts) (*Feed, []*TableParseError, error) {
	if opts == nil {
		opts = &LoadOpts{}
	}

	inputZip, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}

	slog.Info(fmt.Sprintf("Loading archive with %d members", len(inputZip.File)))

	feed := NewFeed()
	var issues []*TableParseError
	for _, file := range inputZip.File {
		if file.FileInfo().IsDir() {
			continue
		}

		if !strings.HasSuffix(file.Name, tableSuffix) {
			if !opts.KeepOtherFiles {
				slog.Info("Ignoring other file " + file.Name)
				continue
			}
			contents, err := readMember(file)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: read %s: %w", ErrInvalidArchive, file.Name, err)
			}
			slog.Info(fmt.Sprintf("Keeping other file %s (%d bytes)", file.Name, len(contents)))
			feed.setOtherFile(file.Name, contents)
			continue
		}

		table, err := loadTableIn(file)
		if err != nil {
			var parseErr *TableParseError
			if !errors.As(err, &parseErr) {
				parseErr = &TableParseError{Member: file.Name, Err: err}
			}
			slog.Warn("Skipping table", "member", file.Name, "error", parseErr.Err)
			issues = append(issues, parseErr)
			continue
		}
		feed.setTable(table)
	}

	issues = append(issues, applyDatePolicy(feed, opts.ExtraDateColumns)...)

	slog.Info(fmt.Sprintf("Loaded %d tables", len(feed.order)))
	return feed, issues, nil
}

func readMember(file *zip.File) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func loadTableIn(file *zip.File) (*Table, error) {
	inputF, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = inputF.Close() }()

	return parseTable(inputF, file.Name)
}

func parseTable(input io.Reader, member string) (*Table, error) {
	inputCSV := csv.NewReader(input)
	inputCSV.FieldsPerRecord = -1 // Allow variable numbers of fields

	// Header

	header, err := inputCSV.Read()
	if errors.Is(err, io.EOF) {
		return nil, &TableParseError{Member: member, Line: 1, Err: errors.New("missing header row")}
	} else if err != nil {
		return nil, csvParseError(member, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	// Many feeds end every line with a comma. Accept one unnamed trailing
	// column as long as it stays empty.
	width := len(header)
	trailingComma := len(header) > 1 && header[len(header)-1] == ""
	if trailingComma {
		header = header[:len(header)-1]
	}

	table, err := NewTable(strings.TrimSuffix(member, tableSuffix), header)
	if err != nil {
		return nil, &TableParseError{Member: member, Line: 1, Err: err}
	}
	table.trailingComma = trailingComma
	slog.Debug(fmt.Sprintf("Loading %s: %s", member, strings.Join(header, ",")))

	// Rows

	for {
		record, err := inputCSV.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, csvParseError(member, err)
		}

		line, _ := inputCSV.FieldPos(0)
		if len(record) > width {
			return nil, &TableParseError{
				Member: member,
				Line:   line,
				Err:    fmt.Errorf("row has %d fields, header has %d", len(record), width),
			}
		}
		if trailingComma && len(record) == width {
			if record[width-1] != "" {
				return nil, &TableParseError{
					Member: member,
					Line:   line,
					Err:    fmt.Errorf("value %q in unnamed column %d", record[width-1], width),
				}
			}
			record = record[:width-1]
		}

		cells := make([]Value, len(header))
		for i, v := range record {
			cells[i] = ParseValue(v)
		}
		table.appendCells(cells)
		table.lines = append(table.lines, line)
	}
	slog.Debug(fmt.Sprintf("Loaded %d rows from %s", table.Len(), member))

	return table, nil
}

func csvParseError(member string, err error) *TableParseError {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &TableParseError{Member: member, Line: csvErr.Line, Err: csvErr.Err}
	}
	return &TableParseError{Member: member, Err: err}
}

// applyDatePolicy coerces the date columns of every table the policy names.
// A table with a bad date stays in the feed with its original text.
func applyDatePolicy(feed *Feed, extra map[string][]string) []*TableParseError {
	policy := dateColumns(extra)

	tables := make([]string, 0, len(policy))
	for table := range policy {
		tables = append(tables, table)
	}
	slices.Sort(tables)

	var issues []*TableParseError
	for _, table := range tables {
		if err := feed.CoerceDates(table, policy[table]...); err != nil {
			var parseErr *TableParseError
			if !errors.As(err, &parseErr) {
				parseErr = &TableParseError{Member: table + tableSuffix, Err: err}
			}
			slog.Warn("Leaving dates as text", "member", parseErr.Member, "error", parseErr)
			issues = append(issues, parseErr)
		}
	}
	return issues
}
