package gtfsedit

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// InsertRow appends row to the named table, creating the table if needed.
// Columns the table lacks are added (null for existing rows) and columns the
// row lacks are null, so sparse rows are fine. The table in the feed is
// replaced only once the new version is complete.
func InsertRow(feed *Feed, table string, row Row) error {
	if table == "" {
		return &InvalidRowError{Reason: "missing table name"}
	}
	if len(row) == 0 {
		return &InvalidRowError{Table: table, Reason: "no field values"}
	}

	keys := make([]string, 0, len(row))
	for column := range row {
		if column == "" {
			return &InvalidRowError{Table: table, Reason: "empty column name"}
		}
		keys = append(keys, column)
	}
	slices.Sort(keys)

	var next *Table
	if existing, ok := feed.Table(table); ok {
		next = existing.clone()
	} else {
		var err error
		next, err = NewTable(table, nil)
		if err != nil {
			return &InvalidRowError{Table: table, Reason: err.Error()}
		}
		slog.Info("Creating table " + table)
	}

	for _, column := range keys {
		if !next.HasColumn(column) {
			next.addColumn(column)
		}
	}

	cells := make([]Value, len(next.columns))
	for column, value := range row {
		cells[next.index[column]] = value
	}
	next.appendCells(cells)

	feed.setTable(next)
	slog.Info(fmt.Sprintf("Inserted row into %s (%d rows)", table, next.Len()))
	return nil
}

// StopInput is the data a user provides for a new stop.
type StopInput struct {
	ID   string `validate:"required"`
	Name string `validate:"required"`
	Lat  string `validate:"required,latitude"`
	Lon  string `validate:"required,longitude"`
}

var stopValidator = validator.New(validator.WithRequiredStructEnabled())

// AddStop validates a new stop and appends it to stops. Where it appears
// relative to other stops is up to the caller; storage order is append order.
func AddStop(feed *Feed, stop StopInput) error {
	stop.ID = strings.TrimSpace(stop.ID)
	stop.Name = strings.TrimSpace(stop.Name)
	stop.Lat = strings.TrimSpace(stop.Lat)
	stop.Lon = strings.TrimSpace(stop.Lon)

	if err := stopValidator.Struct(stop); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			var fields []string
			for _, fe := range fieldErrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return &InvalidRowError{Table: "stops", Reason: "invalid " + strings.Join(fields, ", ")}
		}
		return &InvalidRowError{Table: "stops", Reason: err.Error()}
	}

	if stops, ok := feed.Table("stops"); ok {
		for i, n := 0, stops.Len(); i < n; i++ {
			if stops.Value(i, "stop_id").String() == stop.ID {
				return &InvalidRowError{Table: "stops", Reason: "duplicate stop_id " + stop.ID}
			}
		}
	}

	lat, err := strconv.ParseFloat(stop.Lat, 64)
	if err != nil {
		return &InvalidRowError{Table: "stops", Reason: "invalid Lat: " + err.Error()}
	}
	lon, err := strconv.ParseFloat(stop.Lon, 64)
	if err != nil {
		return &InvalidRowError{Table: "stops", Reason: "invalid Lon: " + err.Error()}
	}

	return InsertRow(feed, "stops", Row{
		"stop_id":   ParseValue(stop.ID),
		"stop_name": StringValue(stop.Name),
		"stop_lat":  Value{kind: KindNumber, num: lat, text: stop.Lat},
		"stop_lon":  Value{kind: KindNumber, num: lon, text: stop.Lon},
	})
}
