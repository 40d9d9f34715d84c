package gtfsedit

import (
	"fmt"
	"github.com/tidwall/geojson"
	"github.com/tidwall/geojson/geometry"
	"log/slog"
	"strconv"
)

// Clip returns a copy of the feed restricted to the stops inside clipFeature
// and everything reachable from them: trips calling at an inside stop, all of
// those trips' stop_times and stops, their routes, shapes and calendar dates.
// Other tables are copied unchanged. The input feed is not modified.
func Clip(feed *Feed, clipFeature string) (*Feed, error) {
	feature, err := geojson.Parse(clipFeature, &geojson.ParseOptions{RequireValid: true})
	if err != nil {
		return nil, fmt.Errorf("parse clip feature: %w", err)
	}
	nav, err := NewNavigator(feed)
	if err != nil {
		return nil, err
	}

	slog.Info(fmt.Sprintf("Clipping feed (clipFeature has %d points)", feature.NumPoints()))

	stops := nav.table("stops")
	inside := make(map[string]struct{})
	for i, n := 0, stops.Len(); i < n; i++ {
		stopID := stops.Value(i, "stop_id").String()
		lng, err := strconv.ParseFloat(stops.Value(i, "stop_lon").String(), 64)
		if err != nil {
			slog.Error("Failed to parse stop_lon", "stop_id", stopID)
			continue
		}
		lat, err := strconv.ParseFloat(stops.Value(i, "stop_lat").String(), 64)
		if err != nil {
			slog.Error("Failed to parse stop_lat", "stop_id", stopID)
			continue
		}
		if feature.Contains(geojson.NewPoint(geometry.Point{X: lng, Y: lat})) {
			inside[stopID] = struct{}{}
		}
	}
	slog.Info(fmt.Sprintf("%d of %d stops are inside", len(inside), stops.Len()))

	tripIDs := columnSet(filterIn(nav.table("stop_times"), "stop_id", inside), "trip_id")
	trips := filterIn(nav.table("trips"), "trip_id", tripIDs)
	stopTimes := filterIn(nav.table("stop_times"), "trip_id", tripIDs)

	keepStops := columnSet(stopTimes, "stop_id")
	for id := range columnSet(filterIn(stops, "stop_id", keepStops), "parent_station") {
		keepStops[id] = struct{}{}
	}

	clipped := map[string]*Table{
		"trips":      trips,
		"stop_times": stopTimes,
		"stops":      filterIn(stops, "stop_id", keepStops),
		"routes":     filterIn(nav.table("routes"), "route_id", columnSet(trips, "route_id")),
	}
	if shapes, ok := feed.Table("shapes"); ok {
		clipped["shapes"] = filterIn(shapes, "shape_id", columnSet(trips, "shape_id"))
	}
	if dates, ok := feed.Table("calendar_dates"); ok {
		clipped["calendar_dates"] = filterIn(dates, "service_id", columnSet(trips, "service_id"))
	}

	out := NewFeed()
	for _, name := range feed.order {
		if t, ok := clipped[name]; ok {
			out.setTable(t)
		} else {
			out.setTable(feed.tables[name].clone())
		}
	}
	for _, name := range feed.otherOrder {
		out.setOtherFile(name, feed.otherFiles[name])
	}

	if issues := checkReferences(out, slog.LevelWarn); len(issues) > 0 {
		slog.Warn(fmt.Sprintf("Clipped feed has %d dangling reference(s)", len(issues)))
	}
	return out, nil
}

func columnSet(t *Table, column string) map[string]struct{} {
	out := make(map[string]struct{})
	i, ok := t.index[column]
	if !ok {
		return out
	}
	for _, cells := range t.rows {
		if !cells[i].IsNull() {
			out[cells[i].String()] = struct{}{}
		}
	}
	return out
}
