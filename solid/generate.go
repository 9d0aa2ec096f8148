package solid

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/soypat/keebcase/heightfield"
	"github.com/soypat/keebcase/outline"
	"github.com/soypat/keebcase/triangulate"
	"gonum.org/v1/gonum/spatial/r2"
)

// Height function kinds.
const (
	KindSlope = "slope"
	KindRamp  = "ramp"
	KindFlat  = "flat"
)

// HeightConfig selects and parametrizes the top surface.
type HeightConfig struct {
	// Kind is one of KindSlope, KindRamp or KindFlat.
	Kind string
	Axis heightfield.Axis
	ZMin float64
	ZMax float64
	// Angle of a slope in degrees.
	Angle float64
	// Reference coordinate at which a slope has height ZMin. Nil uses the
	// outline's minimum along Axis.
	Reference *float64
	// Threshold past which a ramp stays at ZMax. Nil places it Plateau
	// units before the outline's maximum along Axis.
	Threshold *float64
	Plateau   float64
	// AxisMin is the coordinate where a ramp starts. Nil uses the outline's
	// minimum along Axis.
	AxisMin       *float64
	CurveStrength float64
}

// Config holds the parameters of the generation pipeline.
type Config struct {
	// Subdivisions per outline edge, at least 1.
	Subdivisions int
	// Spacing of the interior sample grid.
	Spacing float64
	// WallThickness hollows the solid when positive.
	WallThickness float64
	Base          float64
	Height        HeightConfig
	// Repair runs the Repair post-pass on the result.
	Repair  bool
	Workers int
}

// Layout is the planar stage of the pipeline, before any height is assigned.
type Layout struct {
	Outline  outline.Outline
	Hollow   outline.Outline
	Interior []r2.Vec
	Cap      triangulate.Cap
	Top      heightfield.Func
}

// Plan normalizes and resamples raw, computes the hollow boundary,
// samples the interior, triangulates the cap and resolves the height
// function. A wall thickness that collapses the outline is logged and
// the layout falls back to a solid.
func Plan(raw []r2.Vec, cfg Config, log logrus.FieldLogger) (Layout, error) {
	if log == nil {
		log = discard()
	}
	if cfg.Spacing <= 0 {
		return Layout{}, fmt.Errorf("interior spacing must be positive, got %g", cfg.Spacing)
	}
	o, err := outline.Normalize(raw)
	if err != nil {
		return Layout{}, err
	}
	sub := cfg.Subdivisions
	if sub == 0 {
		sub = 1
	}
	o, err = outline.Resample(o, sub)
	if err != nil {
		return Layout{}, err
	}
	l := Layout{Outline: o}
	if cfg.WallThickness > 0 {
		inner, err := outline.Shrink(o, cfg.WallThickness)
		switch {
		case errors.Is(err, outline.ErrCollapsed):
			log.WithField("thickness", cfg.WallThickness).Warn("hollowing not possible at this thickness, building solid")
		case err != nil:
			return Layout{}, err
		default:
			l.Hollow = inner
		}
	}
	if err := outline.CheckSpacing(o, cfg.Spacing); err != nil {
		return Layout{}, err
	}
	interior := outline.SampleInterior(o, cfg.Spacing)
	if l.Hollow != nil {
		hidx := outline.NewIndex(l.Hollow)
		kept := interior[:0]
		for _, p := range interior {
			if hidx.Locate(p) == outline.Outside {
				kept = append(kept, p)
			}
		}
		interior = kept
	}
	l.Interior = interior
	l.Cap, err = triangulate.Triangulate(o, interior, l.Hollow)
	if err != nil {
		return Layout{}, err
	}
	if l.Cap.Missing > 0 {
		log.WithField("edges", l.Cap.Missing).Warn("cap does not follow the outline, mesh will be open")
	}
	l.Top, err = cfg.Height.Func(o)
	if err != nil {
		return Layout{}, err
	}
	log.WithFields(logrus.Fields{
		"outline":   len(o),
		"interior":  len(interior),
		"triangles": len(l.Cap.Triangles),
		"hollow":    l.Hollow != nil,
	}).Debug("planned cap")
	return l, nil
}

// Func resolves the height function for outline o.
func (h HeightConfig) Func(o outline.Outline) (heightfield.Func, error) {
	lo, hi := h.Axis.Range(o)
	pick := func(v *float64, def float64) float64 {
		if v != nil {
			return *v
		}
		return def
	}
	switch h.Kind {
	case KindSlope, "":
		return heightfield.LinearSlope(h.ZMin, h.Angle*math.Pi/180, h.Axis, pick(h.Reference, lo)), nil
	case KindRamp:
		return heightfield.EasedRamp(heightfield.EasedRampParams{
			ZMax:          h.ZMax,
			ZMin:          h.ZMin,
			Axis:          h.Axis,
			Threshold:     pick(h.Threshold, hi-h.Plateau),
			AxisMin:       pick(h.AxisMin, lo),
			CurveStrength: h.CurveStrength,
		}), nil
	case KindFlat:
		return heightfield.Flat(h.ZMax), nil
	}
	return nil, fmt.Errorf("unknown height kind %q", h.Kind)
}

// Generate runs the full pipeline on the raw outline points.
func Generate(raw []r2.Vec, cfg Config, log logrus.FieldLogger) (Mesh, error) {
	if log == nil {
		log = discard()
	}
	l, err := Plan(raw, cfg, log)
	if err != nil {
		return Mesh{}, err
	}
	m, err := Build(Params{
		Outline: l.Outline,
		Hollow:  l.Hollow,
		Cap:     l.Cap,
		Top:     l.Top,
		Base:    cfg.Base,
		Workers: cfg.Workers,
		Log:     log,
	})
	if err != nil {
		return Mesh{}, err
	}
	if open := m.OpenEdges(); open > 0 {
		log.WithField("edges", open).Warn("mesh is not closed")
	}
	if cfg.Repair {
		m = Repair(m)
	}
	return m, nil
}
