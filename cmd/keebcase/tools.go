package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/soypat/keebcase/helpers/plot"
	"github.com/soypat/keebcase/helpers/preview"
	"github.com/soypat/keebcase/outline"
	"github.com/soypat/keebcase/render"
	"github.com/soypat/keebcase/solid"
	"github.com/spf13/cobra"
	"github.com/yofu/dxf/color"
	"gonum.org/v1/plot/vg"
)

// asciiName derives the output name of stl2ascii from its input.
func asciiName(src string) string {
	if strings.HasSuffix(src, ".stl") {
		return strings.TrimSuffix(src, ".stl") + "-ascii.stl"
	}
	return src + "-ascii.stl"
}

func (a *app) stl2asciiCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "stl2ascii SRC [DST]",
		Short: "Convert an STL file to ASCII STL",
		Long: `stl2ascii rewrites a binary STL file as ASCII. DST defaults to
SRC with the .stl extension replaced by -ascii.stl.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			dst := asciiName(src)
			if len(args) == 2 {
				dst = args[1]
			}
			n, err := render.ConvertToASCII(dst, src, name)
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("file %s not found", src)
			} else if err != nil {
				return err
			}
			a.log.WithField("file", dst).WithField("facets", n).Info("converted to ASCII")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Mesh", "solid name written to the file")
	return cmd
}

func (a *app) previewCmd() *cobra.Command {
	var (
		out  string
		top  bool
		opts = preview.DefaultOptions
	)
	cmd := &cobra.Command{
		Use:   "preview STL|ASSET",
		Short: "Render a PNG preview of an STL file or a configured asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if top {
				opts.View = preview.Top
			}
			model, err := a.previewModel(args[0])
			if err != nil {
				return err
			}
			img, err := preview.Render(model, opts)
			if err != nil {
				return err
			}
			if out == "" {
				out = strings.TrimSuffix(filepath.Base(args[0]), ".stl") + ".png"
			}
			if err := preview.SavePNG(out, img); err != nil {
				return err
			}
			a.log.WithField("file", out).Info("wrote preview")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "output", "o", "", "PNG output (default NAME.png)")
	f.BoolVar(&top, "top", false, "view from above instead of isometric")
	f.IntVar(&opts.Width, "width", opts.Width, "image width")
	f.IntVar(&opts.Height, "height", opts.Height, "image height")
	f.IntVar(&opts.Supersample, "supersample", opts.Supersample, "antialiasing factor")
	f.StringVar(&opts.Color, "color", opts.Color, "object colour")
	return cmd
}

// previewModel generates the named asset or reads arg as an STL file.
func (a *app) previewModel(arg string) ([]render.Triangle3, error) {
	if asset, ok := a.cfg.Asset(arg); ok {
		mesh, err := generate(asset, a.log.WithField("asset", asset.Name))
		if err != nil {
			return nil, err
		}
		return mesh.Triangles(), nil
	}
	return render.ReadSTLFile(arg)
}

func (a *app) plotCmd() *cobra.Command {
	var (
		dir     string
		format  string
		samples int
		dxf     bool
	)
	cmd := &cobra.Command{
		Use:   "plot ASSET",
		Short: "Plot the planar layout and height profile of an asset",
		Long: `Plot writes ASSET-layout and ASSET-profile images showing the resampled
outline, the hollow boundary, the interior samples and the top surface
height along the asset axis. With --dxf the outline and hollow boundary
are also written as a DXF drawing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, ok := a.cfg.Asset(args[0])
			if !ok {
				return fmt.Errorf("no asset named %q", args[0])
			}
			sc, err := asset.Solid()
			if err != nil {
				return err
			}
			raw, err := outline.LoadFile(asset.Outline, asset.Layer)
			if err != nil {
				return err
			}
			log := a.log.WithField("asset", asset.Name)
			l, err := solid.Plan(raw, sc, log)
			if err != nil {
				return err
			}
			lp, err := plot.Layout(l)
			if err != nil {
				return err
			}
			pp, err := plot.Profile(l.Top, sc.Height.Axis, l.Outline, samples)
			if err != nil {
				return err
			}
			base := filepath.Join(dir, asset.Name)
			if err := plot.Save(base+"-layout."+format, lp, 6*vg.Inch, 6*vg.Inch); err != nil {
				return err
			}
			if err := plot.Save(base+"-profile."+format, pp, 6*vg.Inch, 3*vg.Inch); err != nil {
				return err
			}
			if dxf {
				layers := []outline.Layer{{Name: "outline", Color: color.Red, Outlines: []outline.Outline{l.Outline}}}
				if len(l.Hollow) > 0 {
					layers = append(layers, outline.Layer{Name: "hollow", Color: color.Blue, Outlines: []outline.Outline{l.Hollow}})
				}
				if err := outline.WriteDXF(base+"-layout.dxf", layers...); err != nil {
					return err
				}
			}
			log.WithField("dir", dir).Info("wrote plots")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&dir, "dir", "d", ".", "output directory")
	f.StringVar(&format, "format", "png", "image format: png, svg or pdf")
	f.IntVar(&samples, "samples", 200, "profile samples")
	f.BoolVar(&dxf, "dxf", false, "also write the layout as DXF")
	return cmd
}
