package main

import (
	"errors"
	"fmt"
	"github.com/dzfranklin/gtfsedit"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
)

func usageAndDie() {
	fmt.Println("Example usage:\n" +
		"    gtfsedit --in <feed.zip> --list\n" +
		"    gtfsedit --in <feed.zip> --show stops\n" +
		"    gtfsedit --in <feed.zip> --route <route_id> [--trip <trip_id>] [--geojson]\n" +
		"    gtfsedit --in <feed.zip> --add-stop --stop-id 99 --stop-name 'New Stop' --stop-lat 52.1 --stop-lon 4.3 --out <edited.zip>\n" +
		"    gtfsedit --in <feed.zip> --clip <feature_geojson.json> --out <clipped.zip>\n" +
		"    gtfsedit --in <feed.zip> --sqlite <feed.db>\n" +
		"    gtfsedit --from-sqlite <feed.db> --out <feed.zip>")
	os.Exit(1)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}

	inPath := pflag.StringP("in", "i", "", "GTFS archive to load")
	fromSQLite := pflag.String("from-sqlite", "", "Load from a database written by --sqlite instead of an archive")
	configPath := pflag.String("config", os.Getenv("GTFSEDIT_CONFIG"), "YAML config file")

	list := pflag.BoolP("list", "l", false, "List tables and other files")
	show := pflag.String("show", "", "Print a table")
	route := pflag.StringP("route", "r", "", "Select a route_id and print its trips")
	trip := pflag.StringP("trip", "t", "", "With --route, select a trip_id and print its stop times and stops")
	asGeoJSON := pflag.Bool("geojson", false, "With --trip, print the trip's stops and shape as GeoJSON")
	checkRefs := pflag.Bool("check", false, "Report dangling route, trip and stop references")

	addStop := pflag.Bool("add-stop", false, "Add a stop to stops.txt")
	stopID := pflag.String("stop-id", "", "New stop ID")
	stopName := pflag.String("stop-name", "", "New stop name")
	stopLat := pflag.String("stop-lat", "", "New stop latitude")
	stopLon := pflag.String("stop-lon", "", "New stop longitude")
	clipFeaturePath := pflag.String("clip", "", "Clip the feed to the GeoJSON feature in the file specified")

	sqlitePath := pflag.String("sqlite", "", "Export the feed to a SQLite database")
	output := pflag.StringP("out", "o", "", "Path to write the exported archive to")

	pflag.Parse()

	if (*inPath == "") == (*fromSQLite == "") {
		usageAndDie()
	}
	if *trip != "" && *route == "" {
		usageAndDie()
	}

	cfg := gtfsedit.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = gtfsedit.LoadConfig(*configPath)
		if err != nil {
			fmt.Printf("Error: %s\n", err)
			os.Exit(1)
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	if err := run(cfg, session{
		inPath:          *inPath,
		fromSQLite:      *fromSQLite,
		list:            *list,
		show:            *show,
		route:           *route,
		trip:            *trip,
		asGeoJSON:       *asGeoJSON,
		checkRefs:       *checkRefs,
		addStop:         *addStop,
		stop:            gtfsedit.StopInput{ID: *stopID, Name: *stopName, Lat: *stopLat, Lon: *stopLon},
		clipFeaturePath: *clipFeaturePath,
		sqlitePath:      *sqlitePath,
		output:          *output,
	}); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
}

type session struct {
	inPath          string
	fromSQLite      string
	list            bool
	show            string
	route           string
	trip            string
	asGeoJSON       bool
	checkRefs       bool
	addStop         bool
	stop            gtfsedit.StopInput
	clipFeaturePath string
	sqlitePath      string
	output          string
}

func run(cfg *gtfsedit.Config, s session) error {
	var feed *gtfsedit.Feed
	var issues []*gtfsedit.TableParseError
	var err error
	if s.inPath != "" {
		var data []byte
		data, err = os.ReadFile(s.inPath)
		if err != nil {
			return err
		}
		feed, issues, err = gtfsedit.Load(data, cfg.LoadOpts())
	} else {
		feed, issues, err = gtfsedit.ImportSQLite(s.fromSQLite, cfg.LoadOpts())
	}
	if err != nil {
		return err
	}
	for _, issue := range issues {
		fmt.Printf("Warning: %s\n", issue)
	}

	if s.list {
		for _, name := range feed.TableNames() {
			t, _ := feed.Table(name)
			fmt.Printf("%s.txt\t%d rows\t%s\n", name, t.Len(), strings.Join(t.Columns(), ","))
		}
		for _, name := range feed.OtherFiles() {
			fmt.Printf("%s\n", name)
		}
	}

	if s.show != "" {
		t, ok := feed.Table(s.show)
		if !ok {
			return fmt.Errorf("no table %s", s.show)
		}
		printTable(t)
	}

	if s.checkRefs {
		for _, issue := range gtfsedit.CheckReferences(feed) {
			fmt.Println(issue)
		}
	}

	if s.route != "" {
		if err := navigate(feed, s); err != nil {
			return err
		}
	}

	if s.addStop {
		if err := gtfsedit.AddStop(feed, s.stop); err != nil {
			return err
		}
		fmt.Printf("Added stop %s\n", s.stop.ID)
	}

	if s.clipFeaturePath != "" {
		feature, err := os.ReadFile(s.clipFeaturePath)
		if err != nil {
			return err
		}
		feed, err = gtfsedit.Clip(feed, string(feature))
		if err != nil {
			return err
		}
	}

	if s.sqlitePath != "" {
		if err := gtfsedit.ExportSQLite(feed, s.sqlitePath); err != nil {
			return err
		}
	}

	if s.output != "" {
		data, err := gtfsedit.Export(feed)
		if err != nil {
			return err
		}
		if err := os.WriteFile(s.output, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", s.output)
	}
	return nil
}

func navigate(feed *gtfsedit.Feed, s session) error {
	nav, err := gtfsedit.NewNavigator(feed)
	if err != nil {
		return err
	}

	if s.trip == "" {
		fmt.Println("Route:")
		printTable(nav.RoutesByID(s.route))
		fmt.Println("\nTrips:")
		printTable(nav.TripsByRoute(s.route))
		return nil
	}

	stopTimes := nav.StopTimesByTrip(s.trip)
	stops := nav.StopsForStopTimes(stopTimes)

	if s.asGeoJSON {
		stopsJSON, err := gtfsedit.StopsGeoJSON(stops)
		if err != nil {
			return err
		}
		fmt.Println(stopsJSON)
		if shape := nav.ShapeForTrip(s.trip); shape.Len() > 1 {
			shapeJSON, err := gtfsedit.ShapeGeoJSON(shape)
			if err != nil {
				return err
			}
			fmt.Println(shapeJSON)
		}
		return nil
	}

	fmt.Println("Stop times:")
	printTable(stopTimes)
	fmt.Println("\nStops:")
	printTable(stops)
	if dates := nav.ServiceDatesForTrip(s.trip); dates.Len() > 0 {
		fmt.Println("\nService dates:")
		printTable(dates)
	}
	return nil
}

func printTable(t *gtfsedit.Table) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(t.Columns(), "\t"))
	for i, n := 0, t.Len(); i < n; i++ {
		var cells []string
		for _, column := range t.Columns() {
			cells = append(cells, t.Value(i, column).String())
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	_ = w.Flush()
}
