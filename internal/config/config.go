// Package config loads keebcase settings from a TOML file, KEEBCASE_*
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/soypat/keebcase/heightfield"
	"github.com/soypat/keebcase/scene"
	"github.com/soypat/keebcase/solid"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. KEEBCASE_LOG_LEVEL.
const EnvPrefix = "KEEBCASE"

// Config is the full set of settings.
type Config struct {
	LogLevel string  `mapstructure:"log_level" toml:"log_level"`
	Workers  int     `mapstructure:"workers" toml:"workers"`
	Assets   []Asset `mapstructure:"asset" toml:"asset"`
	Merge    Merge   `mapstructure:"merge" toml:"merge"`
}

// Asset describes one generated part.
type Asset struct {
	Name    string `mapstructure:"name" toml:"name"`
	Outline string `mapstructure:"outline" toml:"outline"`
	// Layer restricts DXF outlines to one layer.
	Layer         string  `mapstructure:"layer" toml:"layer,omitempty"`
	Output        string  `mapstructure:"output" toml:"output"`
	ASCII         bool    `mapstructure:"ascii" toml:"ascii,omitempty"`
	Subdivisions  int     `mapstructure:"subdivisions" toml:"subdivisions"`
	Spacing       float64 `mapstructure:"spacing" toml:"spacing"`
	WallThickness float64 `mapstructure:"wall_thickness" toml:"wall_thickness,omitempty"`
	Base          float64 `mapstructure:"base" toml:"base,omitempty"`
	Repair        bool    `mapstructure:"repair" toml:"repair,omitempty"`
	// Material compensates for print shrinkage: pla, petg, abs or none.
	Material string `mapstructure:"material" toml:"material,omitempty"`
	Height   Height `mapstructure:"height" toml:"height"`
}

// Height parametrizes the top surface of an asset.
type Height struct {
	Kind          string   `mapstructure:"kind" toml:"kind"`
	Axis          string   `mapstructure:"axis" toml:"axis"`
	ZMin          float64  `mapstructure:"z_min" toml:"z_min"`
	ZMax          float64  `mapstructure:"z_max" toml:"z_max,omitempty"`
	Angle         float64  `mapstructure:"angle" toml:"angle,omitempty"`
	Reference     *float64 `mapstructure:"reference" toml:"reference,omitempty"`
	Threshold     *float64 `mapstructure:"threshold" toml:"threshold,omitempty"`
	Plateau       float64  `mapstructure:"plateau" toml:"plateau,omitempty"`
	AxisMin       *float64 `mapstructure:"axis_min" toml:"axis_min,omitempty"`
	CurveStrength float64  `mapstructure:"curve_strength" toml:"curve_strength,omitempty"`
}

// Merge describes how part meshes are spliced into a primary scene.
type Merge struct {
	Primary string   `mapstructure:"primary" toml:"primary"`
	Output  string   `mapstructure:"output" toml:"output"`
	Alpha   float64  `mapstructure:"alpha" toml:"alpha"`
	Include []string `mapstructure:"include" toml:"include"`
	Parts   []Part   `mapstructure:"part" toml:"part"`
	Offsets []Offset `mapstructure:"offset" toml:"offset,omitempty"`
}

// Part is a mesh file added to the merged scene as a node called Name.
type Part struct {
	Name string `mapstructure:"name" toml:"name"`
	STL  string `mapstructure:"stl" toml:"stl"`
	// Color is RGBA in [0,1]. Empty uses a grey.
	Color    []float64 `mapstructure:"color" toml:"color,omitempty"`
	Decimate float64   `mapstructure:"decimate" toml:"decimate,omitempty"`
}

// Offset moves the node called Node after merging.
type Offset struct {
	Node        string    `mapstructure:"node" toml:"node"`
	Translation []float64 `mapstructure:"translation" toml:"translation"`
}

// Default returns the settings for the left half palm rest and tenting
// base of an ergogen keyboard project.
func Default() Config {
	return Config{
		LogLevel: "info",
		Assets: []Asset{
			{
				Name:         "palm_rest",
				Outline:      "ergogen/output/outlines/l_hand_rest_polygon.dxf",
				Output:       "filtered-output/palmrest/palm_rest.stl",
				Subdivisions: 50,
				Spacing:      2,
				Height: Height{
					Kind:          solid.KindRamp,
					Axis:          "y",
					ZMin:          3,
					ZMax:          10,
					Plateau:       20,
					CurveStrength: 1,
				},
			},
			{
				Name:         "tenting_system",
				Outline:      "ergogen/output/outlines/l_tenting_base_bottom_outline.dxf",
				Output:       "filtered-output/cases/tenting_system.stl",
				Subdivisions: 50,
				Spacing:      2,
				Height: Height{
					Kind:  solid.KindSlope,
					Axis:  "x",
					ZMin:  3,
					Angle: 6.5,
				},
			},
		},
		Merge: Merge{
			Primary: "filtered-output/pcbs/3d/left_pcb-3d.glb",
			Output:  "filtered-output/combined_scene.glb",
			Alpha:   scene.DefaultAlpha,
			Include: append([]string(nil), scene.DefaultInclude...),
			Parts: []Part{
				{Name: "Case", STL: "filtered-output/cases/case.stl"},
				{Name: "L_Cover", STL: "filtered-output/cases/l_cover.stl"},
				{Name: "Tenting_System", STL: "filtered-output/cases/tenting_system.stl", Color: []float64{200. / 255, 60. / 255, 60. / 255, 1}},
				{Name: "Palm_Rest", STL: "filtered-output/palmrest/palm_rest.stl", Color: []float64{60. / 255, 60. / 255, 200. / 255, 1}},
			},
		},
	}
}

// Load reads settings into v. An empty path searches for keebcase.toml in
// the working directory; a missing file there is not an error. Keys absent
// from the file take Default values and environment variables override
// both.
func Load(v *viper.Viper, path string) (Config, error) {
	def := Default()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("merge.primary", def.Merge.Primary)
	v.SetDefault("merge.output", def.Merge.Output)
	v.SetDefault("merge.alpha", def.Merge.Alpha)
	v.SetDefault("merge.include", def.Merge.Include)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("keebcase")
		v.AddConfigPath(".")
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = def.Assets
	}
	if len(cfg.Merge.Parts) == 0 {
		cfg.Merge.Parts = def.Merge.Parts
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail deep inside a build.
func (c Config) Validate() error {
	var errs []error
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	seen := make(map[string]bool)
	for i, a := range c.Assets {
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
			errs = append(errs, fmt.Errorf("asset %s: missing name", name))
		}
		if seen[a.Name] {
			errs = append(errs, fmt.Errorf("asset %s: duplicate name", name))
		}
		seen[a.Name] = true
		if a.Outline == "" || a.Output == "" {
			errs = append(errs, fmt.Errorf("asset %s: outline and output are required", name))
		}
		if _, err := a.Solid(); err != nil {
			errs = append(errs, fmt.Errorf("asset %s: %w", name, err))
		}
	}
	for _, p := range c.Merge.Parts {
		if _, err := p.RGBA(); err != nil {
			errs = append(errs, fmt.Errorf("merge part %s: %w", p.Name, err))
		}
	}
	if _, err := c.Merge.Options(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Asset returns the asset called name.
func (c Config) Asset(name string) (Asset, bool) {
	for _, a := range c.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}

// Solid converts the asset parameters into a generator configuration.
func (a Asset) Solid() (solid.Config, error) {
	axis, err := heightfield.ParseAxis(a.Height.Axis)
	if err != nil {
		return solid.Config{}, err
	}
	switch a.Height.Kind {
	case solid.KindSlope, solid.KindRamp, solid.KindFlat:
	default:
		return solid.Config{}, fmt.Errorf("unknown height kind %q", a.Height.Kind)
	}
	if a.Subdivisions < 0 || a.Spacing < 0 {
		return solid.Config{}, fmt.Errorf("negative subdivisions or spacing")
	}
	spacing := a.Spacing
	if spacing == 0 {
		spacing = 2
	}
	h := a.Height
	return solid.Config{
		Subdivisions:  a.Subdivisions,
		Spacing:       spacing,
		WallThickness: a.WallThickness,
		Base:          a.Base,
		Repair:        a.Repair,
		Height: solid.HeightConfig{
			Kind:          h.Kind,
			Axis:          axis,
			ZMin:          h.ZMin,
			ZMax:          h.ZMax,
			Angle:         h.Angle,
			Reference:     h.Reference,
			Threshold:     h.Threshold,
			Plateau:       h.Plateau,
			AxisMin:       h.AxisMin,
			CurveStrength: h.CurveStrength,
		},
	}, nil
}

// RGBA returns the part colour, grey when unset.
func (p Part) RGBA() ([4]float64, error) {
	switch len(p.Color) {
	case 0:
		return [4]float64{0.8, 0.8, 0.8, 1}, nil
	case 3:
		return [4]float64{p.Color[0], p.Color[1], p.Color[2], 1}, nil
	case 4:
		return [4]float64{p.Color[0], p.Color[1], p.Color[2], p.Color[3]}, nil
	}
	return [4]float64{}, fmt.Errorf("color needs 3 or 4 components, got %d", len(p.Color))
}

// Options converts the merge settings for scene.Merge.
func (m Merge) Options() (scene.MergeOptions, error) {
	opts := scene.MergeOptions{
		Alpha:   m.Alpha,
		Include: m.Include,
		Offsets: make(map[string][3]float64, len(m.Offsets)),
	}
	for _, o := range m.Offsets {
		if len(o.Translation) != 3 {
			return opts, fmt.Errorf("offset for %s: translation needs 3 components, got %d", o.Node, len(o.Translation))
		}
		t := opts.Offsets[o.Node]
		opts.Offsets[o.Node] = [3]float64{t[0] + o.Translation[0], t[1] + o.Translation[1], t[2] + o.Translation[2]}
	}
	return opts, nil
}

// Write encodes c as TOML.
func Write(w io.Writer, c Config) error {
	return toml.NewEncoder(w).Encode(c)
}
