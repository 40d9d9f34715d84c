package gtfsedit

import (
	"slices"
)

// NOTE: Only the tables on the route -> trip -> stop_time -> stop path and the
// tables carrying dates are described. Anything else passes through untyped.

type tableSchema struct {
	PrimaryKey []string
	Columns    map[string]columnSchema
}

type columnSchema struct {
	TypeDescription     string
	PresenceDescription string
	ForeignID           *foreignIDSchema
}

type foreignIDSchema struct {
	Table  string
	Column string
}

const typeDate = "Date"

var requiredTables = []string{"routes", "trips", "stop_times", "stops"}

var gtfsSchema = map[string]tableSchema{
	"stops": {
		PrimaryKey: []string{"stop_id"},
		Columns: map[string]columnSchema{
			"stop_id":             {TypeDescription: "Unique ID", PresenceDescription: "Required"},
			"stop_code":           {TypeDescription: "Text", PresenceDescription: "Optional"},
			"stop_name":           {TypeDescription: "Text", PresenceDescription: "Conditionally Required"},
			"tts_stop_name":       {TypeDescription: "Text", PresenceDescription: "Optional"},
			"stop_desc":           {TypeDescription: "Text", PresenceDescription: "Optional"},
			"stop_lat":            {TypeDescription: "Latitude", PresenceDescription: "Conditionally Required"},
			"stop_lon":            {TypeDescription: "Longitude", PresenceDescription: "Conditionally Required"},
			"zone_id":             {TypeDescription: "ID", PresenceDescription: "Optional"},
			"stop_url":            {TypeDescription: "URL", PresenceDescription: "Optional"},
			"location_type":       {TypeDescription: "Enum", PresenceDescription: "Optional"},
			"parent_station":      {TypeDescription: "Foreign ID referencing stops.stop_id", PresenceDescription: "Conditionally Required"},
			"stop_timezone":       {TypeDescription: "Timezone", PresenceDescription: "Optional"},
			"wheelchair_boarding": {TypeDescription: "Enum", PresenceDescription: "Optional"},
			"level_id":            {TypeDescription: "Foreign ID referencing levels.level_id", PresenceDescription: "Optional"},
			"platform_code":       {TypeDescription: "Text", PresenceDescription: "Optional"},
		},
	},

	"routes": {
		PrimaryKey: []string{"route_id"},
		Columns: map[string]columnSchema{
			"route_id":            {TypeDescription: "Unique ID", PresenceDescription: "Required"},
			"agency_id":           {TypeDescription: "Foreign ID referencing agency.agency_id", PresenceDescription: "Conditionally Required"},
			"route_short_name":    {TypeDescription: "Text", PresenceDescription: "Conditionally Required"},
			"route_long_name":     {TypeDescription: "Text", PresenceDescription: "Conditionally Required"},
			"route_desc":          {TypeDescription: "Text", PresenceDescription: "Optional"},
			"route_type":          {TypeDescription: "Enum", PresenceDescription: "Required"},
			"route_url":           {TypeDescription: "URL", PresenceDescription: "Optional"},
			"route_color":         {TypeDescription: "Color", PresenceDescription: "Optional"},
			"route_text_color":    {TypeDescription: "Color", PresenceDescription: "Optional"},
			"route_sort_order":    {TypeDescription: "Non-negative integer", PresenceDescription: "Optional"},
			"continuous_pickup":   {TypeDescription: "Enum", PresenceDescription: "Conditionally Forbidden"},
			"continuous_drop_off": {TypeDescription: "Enum", PresenceDescription: "Conditionally Forbidden"},
			"network_id":          {TypeDescription: "ID", PresenceDescription: "Conditionally Forbidden"},
		},
	},

	"trips": {
		PrimaryKey: []string{"trip_id"},
		Columns: map[string]columnSchema{
			"route_id": {
				TypeDescription:     "Foreign ID referencing routes.route_id",
				ForeignID:           &foreignIDSchema{Table: "routes", Column: "route_id"},
				PresenceDescription: "Required",
			},
			"service_id":            {TypeDescription: "Foreign ID referencing calendar.service_id or calendar_dates.service_id", PresenceDescription: "Required"},
			"trip_id":               {TypeDescription: "Unique ID", PresenceDescription: "Required"},
			"trip_headsign":         {TypeDescription: "Text", PresenceDescription: "Optional"},
			"trip_short_name":       {TypeDescription: "Text", PresenceDescription: "Optional"},
			"direction_id":          {TypeDescription: "Enum", PresenceDescription: "Optional"},
			"block_id":              {TypeDescription: "ID", PresenceDescription: "Optional"},
			"shape_id":              {TypeDescription: "Foreign ID referencing shapes.shape_id", PresenceDescription: "Conditionally Required"},
			"wheelchair_accessible": {TypeDescription: "Enum", PresenceDescription: "Optional"},
			"bikes_allowed":         {TypeDescription: "Enum", PresenceDescription: "Optional"},
		},
	},

	"stop_times": {
		PrimaryKey: []string{"trip_id", "stop_sequence"},
		Columns: map[string]columnSchema{
			"trip_id": {
				TypeDescription:     "Foreign ID referencing trips.trip_id",
				ForeignID:           &foreignIDSchema{Table: "trips", Column: "trip_id"},
				PresenceDescription: "Required",
			},
			"arrival_time":   {TypeDescription: "Time", PresenceDescription: "Conditionally Required"},
			"departure_time": {TypeDescription: "Time", PresenceDescription: "Conditionally Required"},
			"stop_id": {
				TypeDescription:     "Foreign ID referencing stops.stop_id",
				ForeignID:           &foreignIDSchema{Table: "stops", Column: "stop_id"},
				PresenceDescription: "Conditionally Required",
			},
			"stop_sequence":       {TypeDescription: "Non-negative integer", PresenceDescription: "Required"},
			"stop_headsign":       {TypeDescription: "Text", PresenceDescription: "Optional"},
			"pickup_type":         {TypeDescription: "Enum", PresenceDescription: "Conditionally Forbidden"},
			"drop_off_type":       {TypeDescription: "Enum", PresenceDescription: "Conditionally Forbidden"},
			"shape_dist_traveled": {TypeDescription: "Non-negative float", PresenceDescription: "Optional"},
			"timepoint":           {TypeDescription: "Enum", PresenceDescription: "Recommended"},
		},
	},

	"calendar": {
		PrimaryKey: []string{"service_id"},
		Columns: map[string]columnSchema{
			"service_id": {TypeDescription: "Unique ID", PresenceDescription: "Required"},
			"monday":     {TypeDescription: "Enum", PresenceDescription: "Required"},
			"tuesday":    {TypeDescription: "Enum", PresenceDescription: "Required"},
			"wednesday":  {TypeDescription: "Enum", PresenceDescription: "Required"},
			"thursday":   {TypeDescription: "Enum", PresenceDescription: "Required"},
			"friday":     {TypeDescription: "Enum", PresenceDescription: "Required"},
			"saturday":   {TypeDescription: "Enum", PresenceDescription: "Required"},
			"sunday":     {TypeDescription: "Enum", PresenceDescription: "Required"},
			"start_date": {TypeDescription: typeDate, PresenceDescription: "Required"},
			"end_date":   {TypeDescription: typeDate, PresenceDescription: "Required"},
		},
	},

	"calendar_dates": {
		PrimaryKey: []string{"service_id", "date"},
		Columns: map[string]columnSchema{
			"service_id":     {TypeDescription: "Foreign ID referencing calendar.service_id or ID", PresenceDescription: "Required"},
			"date":           {TypeDescription: typeDate, PresenceDescription: "Required"},
			"exception_type": {TypeDescription: "Enum", PresenceDescription: "Required"},
		},
	},

	"shapes": {
		PrimaryKey: []string{"shape_id", "shape_pt_sequence"},
		Columns: map[string]columnSchema{
			"shape_id":            {TypeDescription: "ID", PresenceDescription: "Required"},
			"shape_pt_lat":        {TypeDescription: "Latitude", PresenceDescription: "Required"},
			"shape_pt_lon":        {TypeDescription: "Longitude", PresenceDescription: "Required"},
			"shape_pt_sequence":   {TypeDescription: "Non-negative integer", PresenceDescription: "Required"},
			"shape_dist_traveled": {TypeDescription: "Non-negative float", PresenceDescription: "Optional"},
		},
	},

	"feed_info": {
		PrimaryKey: nil,
		Columns: map[string]columnSchema{
			"feed_publisher_name": {TypeDescription: "Text", PresenceDescription: "Required"},
			"feed_publisher_url":  {TypeDescription: "URL", PresenceDescription: "Required"},
			"feed_lang":           {TypeDescription: "Language code", PresenceDescription: "Required"},
			"default_lang":        {TypeDescription: "Language code", PresenceDescription: "Optional"},
			"feed_start_date":     {TypeDescription: typeDate, PresenceDescription: "Recommended"},
			"feed_end_date":       {TypeDescription: typeDate, PresenceDescription: "Recommended"},
			"feed_version":        {TypeDescription: "Text", PresenceDescription: "Recommended"},
			"feed_contact_email":  {TypeDescription: "Email", PresenceDescription: "Optional"},
			"feed_contact_url":    {TypeDescription: "URL", PresenceDescription: "Optional"},
		},
	},
}

// dateColumns is the table -> date columns policy consulted when a feed is
// loaded, merged with any extra columns supplied by the caller.
func dateColumns(extra map[string][]string) map[string][]string {
	out := make(map[string][]string)
	for table, schema := range gtfsSchema {
		for column, col := range schema.Columns {
			if col.TypeDescription == typeDate {
				out[table] = append(out[table], column)
			}
		}
	}
	for table, columns := range extra {
		for _, column := range columns {
			if !slices.Contains(out[table], column) {
				out[table] = append(out[table], column)
			}
		}
	}
	for table := range out {
		slices.Sort(out[table])
	}
	return out
}
