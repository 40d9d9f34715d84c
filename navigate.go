package gtfsedit

import (
	"slices"
)

// RequiredTablesPresent returns the navigation tables the feed lacks, in
// route -> trip -> stop_time -> stop order. It is empty when navigation can run.
func RequiredTablesPresent(feed *Feed) []string {
	var missing []string
	for _, name := range requiredTables {
		if _, ok := feed.Table(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Navigator follows the foreign keys routes.route_id -> trips.route_id,
// trips.trip_id -> stop_times.trip_id and stop_times.stop_id -> stops.stop_id.
// Identifiers are always compared in their normalized string form, so a stop_id
// read as a number in one table matches the same id read as text in another.
//
// A Navigator reads the feed's current tables on every call, so rows inserted
// after it was created are visible.
type Navigator struct {
	feed *Feed
}

func NewNavigator(feed *Feed) (*Navigator, error) {
	if missing := RequiredTablesPresent(feed); len(missing) > 0 {
		return nil, &MissingRequiredTablesError{Missing: missing}
	}
	return &Navigator{feed: feed}, nil
}

// table never fails: tables cannot be removed from a feed and NewNavigator
// checked the required ones exist.
func (n *Navigator) table(name string) *Table {
	return n.feed.tables[name]
}

func (n *Navigator) RouteIDs() []string {
	return uniqueValues(n.table("routes"), "route_id")
}

func (n *Navigator) RoutesByID(routeID string) *Table {
	return filterEq(n.table("routes"), "route_id", routeID)
}

func (n *Navigator) TripsByRoute(routeID string) *Table {
	return filterEq(n.table("trips"), "route_id", routeID)
}

// TripIDs lists the trips of a route for the next selection step.
func (n *Navigator) TripIDs(routeID string) []string {
	return uniqueValues(n.TripsByRoute(routeID), "trip_id")
}

func (n *Navigator) StopTimesByTrip(tripID string) *Table {
	return filterEq(n.table("stop_times"), "trip_id", tripID)
}

// StopsForStopTimes returns the stops referenced by a stop_times subset, in
// stops.txt order.
func (n *Navigator) StopsForStopTimes(stopTimes *Table) *Table {
	ids := make(map[string]struct{})
	if i, ok := stopTimes.index["stop_id"]; ok {
		for _, cells := range stopTimes.rows {
			if !cells[i].IsNull() {
				ids[cells[i].String()] = struct{}{}
			}
		}
	}
	return filterIn(n.table("stops"), "stop_id", ids)
}

// ShapeForTrip returns the shape points of a trip ordered by
// shape_pt_sequence. It is empty when the feed has no shapes or the trip has no
// shape_id.
func (n *Navigator) ShapeForTrip(tripID string) *Table {
	shapes, ok := n.feed.Table("shapes")
	if !ok {
		return emptyTable("shapes")
	}
	shapeIDs := make(map[string]struct{})
	trips := filterEq(n.table("trips"), "trip_id", tripID)
	for i, n := 0, trips.Len(); i < n; i++ {
		if v := trips.Value(i, "shape_id"); !v.IsNull() {
			shapeIDs[v.String()] = struct{}{}
		}
	}
	points := filterIn(shapes, "shape_id", shapeIDs)
	if seq, ok := points.index["shape_pt_sequence"]; ok {
		slices.SortStableFunc(points.rows, func(a, b []Value) int {
			return CompareIDs(a[seq].String(), b[seq].String())
		})
	}
	return points
}

// ServiceDatesForTrip returns the calendar_dates rows of the trip's service.
func (n *Navigator) ServiceDatesForTrip(tripID string) *Table {
	dates, ok := n.feed.Table("calendar_dates")
	if !ok {
		return emptyTable("calendar_dates")
	}
	serviceIDs := make(map[string]struct{})
	trips := filterEq(n.table("trips"), "trip_id", tripID)
	for i, n := 0, trips.Len(); i < n; i++ {
		if v := trips.Value(i, "service_id"); !v.IsNull() {
			serviceIDs[v.String()] = struct{}{}
		}
	}
	return filterIn(dates, "service_id", serviceIDs)
}

func filterEq(t *Table, column, want string) *Table {
	i, ok := t.index[column]
	if !ok {
		return t.Filter(func(*Table, int) bool { return false })
	}
	return t.Filter(func(t *Table, row int) bool {
		cell := t.rows[row][i]
		return !cell.IsNull() && cell.String() == want
	})
}

func filterIn(t *Table, column string, want map[string]struct{}) *Table {
	i, ok := t.index[column]
	if !ok || len(want) == 0 {
		return t.Filter(func(*Table, int) bool { return false })
	}
	return t.Filter(func(t *Table, row int) bool {
		cell := t.rows[row][i]
		if cell.IsNull() {
			return false
		}
		_, ok := want[cell.String()]
		return ok
	})
}

func emptyTable(name string) *Table {
	t, _ := NewTable(name, nil)
	return t
}
