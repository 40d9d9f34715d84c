package gtfsedit

import (
	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var sqlitePragmas = map[string]string{
	"synchronous": "OFF",
}

// ExportSQLite writes the feed to a SQLite database at outputPath, replacing
// any existing file. Each table becomes a SQL table of the same name with every
// column stored as TEXT and NULL for null cells.
func ExportSQLite(feed *Feed, outputPath string) (err error) {
	if outputPath == "" {
		panic("Missing outputPath")
	}

	slog.Info(fmt.Sprintf("Exporting to %s", outputPath))

	err = os.Remove(outputPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	db, err := sqlite.OpenConn(outputPath, 0)
	if err != nil {
		return err
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	for pragma, value := range sqlitePragmas {
		err = sqlitex.Exec(db, "PRAGMA "+pragma+" = "+value, sqlitexNoop)
		if err != nil {
			return err
		}
	}

	if err := saveTablesIn(db, feed); err != nil {
		return err
	}

	err = db.Close()
	db = nil
	if err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("Wrote %s", outputPath))
	return nil
}

func saveTablesIn(db *sqlite.Conn, feed *Feed) (err error) {
	defer sqlitex.Save(db)(&err)

	script := `
CREATE TABLE __gtfsedit_tables (position INTEGER, name TEXT, trailing_comma INTEGER);
CREATE TABLE __gtfsedit_other_files (position INTEGER, name TEXT, contents BLOB);
`
	if err := sqlitex.ExecScript(db, script); err != nil {
		return err
	}

	for position, name := range feed.order {
		trailingComma := 0
		if feed.tables[name].trailingComma {
			trailingComma = 1
		}
		err := sqlitex.Exec(db, "INSERT INTO __gtfsedit_tables (position, name, trailing_comma) VALUES (?, ?, ?)",
			sqlitexNoop, position, name, trailingComma)
		if err != nil {
			return err
		}
		if err := saveTableIn(db, feed.tables[name]); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
	}

	for position, name := range feed.otherOrder {
		err := sqlitex.Exec(db, "INSERT INTO __gtfsedit_other_files (position, name, contents) VALUES (?, ?, ?)",
			sqlitexNoop, position, name, feed.otherFiles[name])
		if err != nil {
			return err
		}
	}
	return nil
}

func saveTableIn(db *sqlite.Conn, table *Table) error {
	var columnFragments []string
	var argFragments []string
	for i, column := range table.columns {
		columnFragments = append(columnFragments, quoteIdent(column)+" TEXT")
		argFragments = append(argFragments, fmt.Sprintf("?%d", i+1))
	}
	query := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table.name), strings.Join(columnFragments, ", "))
	if err := sqlitex.ExecTransient(db, query, sqlitexNoop); err != nil {
		return err
	}

	query = fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(table.name), strings.Join(argFragments, ", "))
	insertStmt, err := db.Prepare(query)
	if err != nil {
		return err
	}

	for _, cells := range table.rows {
		if err := insertStmt.Reset(); err != nil {
			return err
		}
		if err := insertStmt.ClearBindings(); err != nil {
			return err
		}

		for i, cell := range cells {
			param := i + 1
			if cell.IsNull() {
				insertStmt.BindNull(param)
			} else {
				insertStmt.BindText(param, cell.String())
			}
		}

		if _, err := insertStmt.Step(); err != nil {
			return err
		}
	}
	slog.Debug(fmt.Sprintf("Saved %d rows of %s", len(table.rows), table.name))
	return nil
}

// ImportSQLite reads a database written by ExportSQLite. Cell types and dates
// are inferred again exactly as Load does.
func ImportSQLite(inputPath string, opts *LoadOpts) (*Feed, []*TableParseError, error) {
	if inputPath == "" {
		panic("Missing inputPath")
	}
	if opts == nil {
		opts = &LoadOpts{}
	}

	slog.Info(fmt.Sprintf("Importing %s", inputPath))

	db, err := sqlite.OpenConn(inputPath, sqlite.SQLITE_OPEN_READONLY)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = db.Close() }()

	var tables []string
	trailingComma := make(map[string]bool)
	err = sqlitex.Exec(db, "SELECT name, trailing_comma FROM __gtfsedit_tables ORDER BY position", func(stmt *sqlite.Stmt) error {
		name := stmt.GetText("name")
		tables = append(tables, name)
		trailingComma[name] = stmt.GetInt64("trailing_comma") != 0
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("not a gtfsedit database: %w", err)
	}

	feed := NewFeed()
	for _, name := range tables {
		table, err := openTableIn(db, name)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", name, err)
		}
		table.trailingComma = trailingComma[name]
		feed.setTable(table)
	}

	if opts.KeepOtherFiles {
		err = sqlitex.ExecTransient(db, "SELECT name, contents FROM __gtfsedit_other_files ORDER BY position", func(stmt *sqlite.Stmt) error {
			contents, err := io.ReadAll(stmt.GetReader("contents"))
			if err != nil {
				return err
			}
			feed.setOtherFile(stmt.GetText("name"), contents)
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}

	issues := applyDatePolicy(feed, opts.ExtraDateColumns)

	slog.Info(fmt.Sprintf("Opened %d tables", len(feed.order)))
	return feed, issues, nil
}

func openTableIn(db *sqlite.Conn, name string) (*Table, error) {
	var cols []string
	err := sqlitex.Exec(db, "SELECT name FROM pragma_table_info(?) ORDER BY cid", func(stmt *sqlite.Stmt) error {
		cols = append(cols, stmt.GetText("name"))
		return nil
	}, name)
	if err != nil {
		return nil, err
	}

	table, err := NewTable(name, cols)
	if err != nil {
		return nil, err
	}

	err = sqlitex.ExecTransient(db, "SELECT * FROM "+quoteIdent(name)+" ORDER BY rowid", func(stmt *sqlite.Stmt) error {
		cells := make([]Value, len(cols))
		for i := range cols {
			if stmt.ColumnType(i) == sqlite.SQLITE_NULL {
				continue
			}
			cells[i] = ParseValue(stmt.ColumnText(i))
		}
		table.appendCells(cells)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlitexNoop(_ *sqlite.Stmt) error {
	return nil
}
