package outline

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestLoadGeoJSON(t *testing.T) {
	const fc = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}},
	{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,5],[0,5],[0,0]]]}},
	{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,1]}}
	]}`
	o, err := LoadGeoJSON(strings.NewReader(fc))
	if err != nil {
		t.Fatal(err)
	}
	if len(o) != 4 {
		t.Fatalf("closing point not stripped: %v", o)
	}
	if math.Abs(o.Area()-50) > 1e-9 {
		t.Errorf("expected largest polygon, got area %g", o.Area())
	}

	const line = `{"type":"LineString","coordinates":[[0,0],[1,0],[1,1],[0,0]]}`
	o, err = LoadGeoJSON(strings.NewReader(line))
	if err != nil {
		t.Fatal(err)
	}
	if len(o) != 3 {
		t.Errorf("got %d points", len(o))
	}

	const open = `{"type":"LineString","coordinates":[[0,0],[1,0],[1,1]]}`
	if _, err = LoadGeoJSON(strings.NewReader(open)); !errors.Is(err, ErrNoOutline) {
		t.Errorf("expected ErrNoOutline, got %v", err)
	}
}
