package gtfsedit

import (
	"slices"
)

// Feed is every table of one GTFS archive. A Feed belongs to a single editing
// session and must not be mutated concurrently.
type Feed struct {
	tables     map[string]*Table
	order      []string
	otherFiles map[string][]byte
	otherOrder []string
}

func NewFeed() *Feed {
	return &Feed{
		tables:     make(map[string]*Table),
		otherFiles: make(map[string][]byte),
	}
}

// Table returns the named table. The boolean is false if the feed has no such
// table, which is distinct from a table with no rows.
func (f *Feed) Table(name string) (*Table, bool) {
	t, ok := f.tables[name]
	return t, ok
}

func (f *Feed) TableNames() []string {
	return slices.Clone(f.order)
}

func (f *Feed) OtherFiles() []string {
	return slices.Clone(f.otherOrder)
}

func (f *Feed) OtherFile(name string) ([]byte, bool) {
	contents, ok := f.otherFiles[name]
	return contents, ok
}

// setTable adds or replaces a table in one step.
func (f *Feed) setTable(t *Table) {
	if _, ok := f.tables[t.name]; !ok {
		f.order = append(f.order, t.name)
	}
	f.tables[t.name] = t
}

func (f *Feed) setOtherFile(name string, contents []byte) {
	if _, ok := f.otherFiles[name]; !ok {
		f.otherOrder = append(f.otherOrder, name)
	}
	f.otherFiles[name] = contents
}

// CoerceDates parses the named YYYYMMDD columns of a table into dates.
// Missing tables and columns are skipped. If any cell fails to parse the table
// is left unchanged and a *TableParseError is returned.
func (f *Feed) CoerceDates(name string, columns ...string) error {
	t, ok := f.tables[name]
	if !ok {
		return nil
	}

	var present []int
	for _, column := range columns {
		if i, ok := t.index[column]; ok && !slices.Contains(present, i) {
			present = append(present, i)
		}
	}
	if len(present) == 0 {
		return nil
	}

	out := t.clone()
	for r, cells := range out.rows {
		for _, i := range present {
			cell := cells[i]
			if cell.kind == KindNull || cell.kind == KindDate {
				continue
			}
			date, err := ParseDate(cell.String())
			if err != nil {
				return &TableParseError{Member: name + ".txt", Line: t.sourceLine(r), Column: t.columns[i], Err: err}
			}
			cells[i] = date
		}
	}
	f.tables[name] = out
	return nil
}

// UniqueValues returns the distinct non-null values of a column in normalized
// string form, sorted with CompareIDs. It is empty if the table or column is
// missing.
func (f *Feed) UniqueValues(name, column string) []string {
	t, ok := f.tables[name]
	if !ok {
		return nil
	}
	return uniqueValues(t, column)
}

func uniqueValues(t *Table, column string) []string {
	i, ok := t.index[column]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, cells := range t.rows {
		if cells[i].IsNull() {
			continue
		}
		s := cells[i].String()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	slices.SortFunc(out, CompareIDs)
	return out
}
