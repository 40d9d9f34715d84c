package gtfsedit

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"slices"
)

// Export serializes every table currently in the feed, edited or not.
func Export(feed *Feed) ([]byte, error) {
	return Dump(feed)
}

// Dump writes one member per table in feed order, followed by any retained
// non-table files. Output for an unchanged feed is byte-for-byte stable.
func Dump(feed *Feed) ([]byte, error) {
	if feed == nil {
		panic("Missing feed")
	}

	var out bytes.Buffer
	outputZip := zip.NewWriter(&out)

	for _, name := range feed.order {
		if err := dumpTableIn(outputZip, feed.tables[name]); err != nil {
			return nil, fmt.Errorf("dump %s: %w", name+tableSuffix, err)
		}
	}

	for _, name := range feed.otherOrder {
		outputF, err := createMember(outputZip, name)
		if err != nil {
			return nil, err
		}
		n, err := outputF.Write(feed.otherFiles[name])
		if err != nil {
			return nil, err
		}
		slog.Debug(fmt.Sprintf("Exported other file %s (%d bytes)", name, n))
	}

	if err := outputZip.Close(); err != nil {
		return nil, err
	}

	slog.Info(fmt.Sprintf("Wrote archive with %d tables (%d bytes)", len(feed.order), out.Len()))
	return out.Bytes(), nil
}

// createMember leaves the modification time zero so identical feeds produce
// identical archives.
func createMember(outputZip *zip.Writer, name string) (io.Writer, error) {
	return outputZip.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
}

func dumpTableIn(outputZip *zip.Writer, table *Table) error {
	outputName := table.name + tableSuffix
	outputF, err := createMember(outputZip, outputName)
	if err != nil {
		return err
	}
	outputCSV := csv.NewWriter(outputF)

	header := table.columns
	width := len(table.columns)
	if table.trailingComma {
		header = append(slices.Clone(header), "")
		width++
	}
	if err := outputCSV.Write(header); err != nil {
		return err
	}

	record := make([]string, width)
	for _, cells := range table.rows {
		for i, cell := range cells {
			record[i] = cell.String()
		}

		// A lone empty field would be an empty line, which readers skip.
		if width == 1 && record[0] == "" {
			outputCSV.Flush()
			if err := outputCSV.Error(); err != nil {
				return err
			}
			if _, err := io.WriteString(outputF, "\"\"\n"); err != nil {
				return err
			}
			continue
		}

		if err := outputCSV.Write(record); err != nil {
			return err
		}
	}
	slog.Debug(fmt.Sprintf("Wrote %d rows to %s", len(table.rows), outputName))

	outputCSV.Flush()
	return outputCSV.Error()
}
