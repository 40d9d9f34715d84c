package gtfsedit

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// CheckReferences lists rows whose foreign ids on the navigation path point at
// nothing, e.g. a stop_times.stop_id with no matching stop. Tables that are
// absent are not checked. The feed is never modified.
func CheckReferences(feed *Feed) []string {
	return checkReferences(feed, slog.LevelWarn)
}

type referenceChecker struct {
	feed     *Feed
	logLevel slog.Level
	issues   []string
	known    map[string]map[string]struct{} // "table.column" -> ids
}

func checkReferences(feed *Feed, logLevel slog.Level) []string {
	c := &referenceChecker{feed: feed, logLevel: logLevel, known: make(map[string]map[string]struct{})}

	slog.Info("Checking references")

	tables := make([]string, 0, len(requiredTables))
	for _, name := range requiredTables {
		if _, ok := feed.Table(name); ok {
			tables = append(tables, name)
		}
	}
	for _, table := range tables {
		c.checkTable(table, gtfsSchema[table])
	}
	return c.issues
}

func (c *referenceChecker) append(msg string, args ...any) {
	issue := fmt.Sprintf(msg, args...)
	slog.Log(context.Background(), c.logLevel, issue)
	c.issues = append(c.issues, issue)
}

func (c *referenceChecker) checkTable(table string, schema tableSchema) {
	columns := make([]string, 0, len(schema.Columns))
	for column, col := range schema.Columns {
		if col.ForeignID != nil && slices.Contains(requiredTables, col.ForeignID.Table) {
			columns = append(columns, column)
		}
	}
	slices.Sort(columns)

	for _, column := range columns {
		c.checkForeignID(table, column, *schema.Columns[column].ForeignID)
	}
}

func (c *referenceChecker) checkForeignID(table, column string, schema foreignIDSchema) {
	t, _ := c.feed.Table(table)
	i, ok := t.index[column]
	if !ok {
		return
	}
	ids, ok := c.ids(schema.Table, schema.Column)
	if !ok {
		return
	}

	for r, cells := range t.rows {
		value := cells[i]
		if value.IsNull() {
			continue
		}
		if _, ok := ids[value.String()]; !ok {
			c.append("%s in %s.txt is not a valid %s [%s]", value, table, column, prettyPrintRow(t, r))
		}
	}
}

func (c *referenceChecker) ids(table, column string) (map[string]struct{}, bool) {
	key := table + "." + column
	if ids, ok := c.known[key]; ok {
		return ids, true
	}
	t, ok := c.feed.Table(table)
	if !ok {
		return nil, false
	}
	i, ok := t.index[column]
	if !ok {
		return nil, false
	}
	ids := make(map[string]struct{}, len(t.rows))
	for _, cells := range t.rows {
		if !cells[i].IsNull() {
			ids[cells[i].String()] = struct{}{}
		}
	}
	c.known[key] = ids
	return ids, true
}

func prettyPrintRow(t *Table, row int) string {
	var out []string
	for i, column := range t.columns {
		value := t.rows[row][i]
		if !value.IsNull() {
			out = append(out, fmt.Sprintf("%s: %s", column, value))
		}
	}
	return strings.Join(out, ", ")
}
