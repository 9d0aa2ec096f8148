package outline

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rpaloschi/dxf-go/document"
	dxfentities "github.com/rpaloschi/dxf-go/entities"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/entity"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrNoOutline is returned when a drawing holds no closed polygon.
var ErrNoOutline = errors.New("no closed polyline found")

// LoadDXF reads a DXF drawing and returns the closed polyline with the
// largest area. If layer is not empty only entities on that layer are
// considered. Polylines inside blocks are considered too.
func LoadDXF(r io.Reader, layer string) (Outline, error) {
	doc, err := document.DxfDocumentFromStream(r)
	if err != nil {
		return nil, fmt.Errorf("parsing dxf: %w", err)
	}
	var candidates [][]r2.Vec
	collect := func(ents dxfentities.EntitySlice) {
		for _, ent := range ents {
			var pts []r2.Vec
			var closed bool
			switch e := ent.(type) {
			case *dxfentities.LWPolyline:
				if layer != "" && e.LayerName != layer {
					continue
				}
				for _, v := range e.Points {
					pts = append(pts, r2.Vec{X: v.Point.X, Y: v.Point.Y})
				}
				closed = e.Closed
			case *dxfentities.Polyline:
				if layer != "" && e.LayerName != layer {
					continue
				}
				for _, v := range e.Vertices {
					pts = append(pts, r2.Vec{X: v.Location.X, Y: v.Location.Y})
				}
			default:
				continue
			}
			if len(pts) > 2 && (closed || pts[0] == pts[len(pts)-1]) {
				candidates = append(candidates, pts)
			}
		}
	}
	collect(doc.Entities.Entities)
	for _, block := range doc.Blocks {
		collect(block.Entities)
	}
	return largest(candidates)
}

// LoadGeoJSON reads a GeoJSON FeatureCollection, Feature or bare geometry
// and returns the exterior ring with the largest area. Closed LineStrings
// are accepted as rings.
func LoadGeoJSON(r io.Reader) (Outline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var geoms []orb.Geometry
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	} else if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		geoms = append(geoms, f.Geometry)
	} else {
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("parsing geojson: %w", err)
		}
		geoms = append(geoms, g.Geometry())
	}
	var candidates [][]r2.Vec
	addRing := func(ring []orb.Point) {
		pts := make([]r2.Vec, len(ring))
		for i, p := range ring {
			pts[i] = r2.Vec{X: p[0], Y: p[1]}
		}
		candidates = append(candidates, pts)
	}
	for _, g := range geoms {
		switch g := g.(type) {
		case orb.Polygon:
			if len(g) > 0 {
				addRing(g[0])
			}
		case orb.MultiPolygon:
			for _, p := range g {
				if len(p) > 0 {
					addRing(p[0])
				}
			}
		case orb.Ring:
			addRing(g)
		case orb.LineString:
			if len(g) > 3 && g[0].Equal(g[len(g)-1]) {
				addRing(g)
			}
		}
	}
	return largest(candidates)
}

func largest(candidates [][]r2.Vec) (Outline, error) {
	var best Outline
	bestArea := 0.0
	for _, c := range candidates {
		o, err := Normalize(c)
		if err != nil {
			continue
		}
		if a := math.Abs(o.Area()); a > bestArea {
			best, bestArea = o, a
		}
	}
	if best == nil {
		return nil, ErrNoOutline
	}
	return best, nil
}

// LoadFile loads an outline from a .dxf or .geojson/.json file.
func LoadFile(path, layer string) (Outline, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	var o Outline
	switch ext := filepath.Ext(path); ext {
	case ".dxf", ".DXF":
		o, err = LoadDXF(fp, layer)
	case ".geojson", ".json":
		o, err = LoadGeoJSON(fp)
	default:
		return nil, fmt.Errorf("outline %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("outline %s: %w", path, err)
	}
	return o, nil
}

// Layer is a named set of outlines written to a DXF drawing.
type Layer struct {
	Name     string
	Color    color.ColorNumber
	Outlines []Outline
}

// WriteDXF writes the layers as closed LWPOLYLINE entities to path.
func WriteDXF(path string, layers ...Layer) error {
	d := dxf.NewDrawing()
	for _, l := range layers {
		if _, err := d.AddLayer(l.Name, l.Color, dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("dxf layer %q: %w", l.Name, err)
		}
		for _, o := range l.Outlines {
			lwp := entity.NewLwPolyline(len(o))
			for i, p := range o {
				lwp.Vertices[i] = []float64{p.X, p.Y}
			}
			lwp.Close()
			d.AddEntity(lwp)
		}
	}
	return d.SaveAs(path)
}
