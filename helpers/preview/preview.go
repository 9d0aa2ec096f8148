// Package preview renders meshes to PNG images for a quick visual check of
// generated parts.
package preview

import (
	"errors"
	"image"
	"image/png"
	"os"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/keebcase/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// View places the camera. Meshes are fitted into a bi-unit cube centred at
// the origin before rendering so the same view works for any part.
type View struct {
	// what position (point) to look at
	LookAt r3.Vec
	// which way is up (direction)
	Up r3.Vec
	// where the camera/eye located at (point)
	Eye  r3.Vec
	Far  float64
	Near float64
}

// Iso is an isometric view from the +X+Y+Z octant.
var Iso = View{
	Up:   r3.Vec{Z: 1},
	Eye:  r3.Vec{X: 2.4, Y: 2.4, Z: 2.4},
	Near: 1,
	Far:  10,
}

// Top looks straight down with +Y up.
var Top = View{
	Up:   r3.Vec{Y: 1},
	Eye:  r3.Vec{Z: 4},
	Near: 1,
	Far:  10,
}

// Options controls image size and colours.
type Options struct {
	Width, Height int
	// Supersample renders at this multiple of the output size and
	// downsamples for antialiasing. Zero means 1.
	Supersample int
	// Object and background colours as hex strings.
	Color, Background string
	View              View
}

// DefaultOptions renders at 40% of Full HD.
var DefaultOptions = Options{
	Width:       768,
	Height:      432,
	Supersample: 1,
	Color:       "#468966",
	Background:  "#FFF8E3",
	View:        Iso,
}

// Render draws the triangles with a Phong shader.
func Render(model []render.Triangle3, opts Options) (image.Image, error) {
	if len(model) == 0 {
		return nil, render.ErrEmptyModel
	}
	tris := make([]*fauxgl.Triangle, 0, len(model))
	for _, t := range model {
		tris = append(tris, fauxgl.NewTriangleForPoints(vec(t.V[0]), vec(t.V[1]), vec(t.V[2])))
	}
	return draw(fauxgl.NewTriangleMesh(tris), opts)
}

// RenderSTL loads and draws an STL file.
func RenderSTL(path string, opts Options) (image.Image, error) {
	mesh, err := fauxgl.LoadSTL(path)
	if err != nil {
		return nil, err
	}
	return draw(mesh, opts)
}

// SavePNG writes img to path atomically.
func SavePNG(path string, img image.Image) error {
	return render.WriteFileAtomic(path, func(f *os.File) error {
		return png.Encode(f, img)
	})
}

func draw(mesh *fauxgl.Mesh, opts Options) (image.Image, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New("preview: image size must be positive")
	}
	scale := opts.Supersample
	if scale <= 0 {
		scale = 1
	}
	const fovy = 30 // vertical field of view in degrees
	view := opts.View
	if view.Far <= view.Near {
		view = Iso
	}
	var (
		eye    = vec(view.Eye)                        // camera position
		center = vec(view.LookAt)                     // view center position
		up     = vec(view.Up)                         // up vector
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize() // light direction
		color  = fauxgl.HexColor(orDefault(opts.Color, DefaultOptions.Color))
	)

	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()
	context := fauxgl.NewContext(opts.Width*scale, opts.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor(orDefault(opts.Background, DefaultOptions.Background)))
	aspect := float64(opts.Width) / float64(opts.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(mesh)
	img := context.Image()
	if scale > 1 {
		img = resize.Resize(uint(opts.Width), uint(opts.Height), img, resize.Bilinear)
	}
	return img, nil
}

func vec(v r3.Vec) fauxgl.Vector { return fauxgl.V(v.X, v.Y, v.Z) }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
