package gtfsedit

import (
	"encoding/json"
	"fmt"
	"github.com/tidwall/geojson"
	"github.com/tidwall/geojson/geometry"
	"strconv"
)

// StopsGeoJSON renders a stops table as a FeatureCollection of points, the
// form a map view consumes. Stops without usable coordinates are left out.
func StopsGeoJSON(stops *Table) (string, error) {
	var features []geojson.Object
	for i, n := 0, stops.Len(); i < n; i++ {
		lng, lngErr := strconv.ParseFloat(stops.Value(i, "stop_lon").String(), 64)
		lat, latErr := strconv.ParseFloat(stops.Value(i, "stop_lat").String(), 64)
		if lngErr != nil || latErr != nil {
			continue
		}

		members, err := json.Marshal(map[string]any{
			"id": stops.Value(i, "stop_id").String(),
			"properties": map[string]string{
				"stop_id":   stops.Value(i, "stop_id").String(),
				"stop_name": stops.Value(i, "stop_name").String(),
			},
		})
		if err != nil {
			return "", err
		}
		point := geojson.NewPoint(geometry.Point{X: lng, Y: lat})
		features = append(features, geojson.NewFeature(point, string(members)))
	}
	return geojson.NewFeatureCollection(features).JSON(), nil
}

// ShapeGeoJSON renders ordered shape points (see Navigator.ShapeForTrip) as a
// single LineString feature.
func ShapeGeoJSON(shape *Table) (string, error) {
	var points []geometry.Point
	for i, n := 0, shape.Len(); i < n; i++ {
		lng, err := strconv.ParseFloat(shape.Value(i, "shape_pt_lon").String(), 64)
		if err != nil {
			return "", fmt.Errorf("shape point %d: shape_pt_lon: %w", i, err)
		}
		lat, err := strconv.ParseFloat(shape.Value(i, "shape_pt_lat").String(), 64)
		if err != nil {
			return "", fmt.Errorf("shape point %d: shape_pt_lat: %w", i, err)
		}
		points = append(points, geometry.Point{X: lng, Y: lat})
	}
	if len(points) < 2 {
		return "", fmt.Errorf("shape has %d point(s), need at least 2", len(points))
	}

	shapeID := shape.Value(0, "shape_id").String()
	members, err := json.Marshal(map[string]any{
		"id":         shapeID,
		"properties": map[string]string{"shape_id": shapeID},
	})
	if err != nil {
		return "", err
	}
	line := geojson.NewLineString(geometry.NewLine(points, nil))
	return geojson.NewFeature(line, string(members)).JSON(), nil
}
