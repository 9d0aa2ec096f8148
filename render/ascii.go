package render

import (
	"fmt"
	"io"
	"os"

	"github.com/hschendel/stl"
)

// WriteASCIISTL writes model as an ASCII STL solid called name.
func WriteASCIISTL(w io.Writer, name string, model []Triangle3) error {
	if len(model) == 0 {
		return ErrEmptyModel
	}
	return toSolid(name, model).WriteAll(w)
}

// ConvertToASCII reads the binary STL at src and writes it as ASCII STL
// to dst. It returns the number of facets converted.
func ConvertToASCII(dst, src, name string) (int, error) {
	model, err := ReadSTLFile(src)
	if err != nil {
		return 0, err
	}
	err = WriteFileAtomic(dst, func(f *os.File) error {
		return WriteASCIISTL(f, name, model)
	})
	if err != nil {
		return 0, fmt.Errorf("writing %s: %w", dst, err)
	}
	return len(model), nil
}

func toSolid(name string, model []Triangle3) *stl.Solid {
	s := &stl.Solid{
		Name:      name,
		IsAscii:   true,
		Triangles: make([]stl.Triangle, len(model)),
	}
	for i, t := range model {
		s.Triangles[i] = stl.Triangle{
			Normal: stl.Vec3(f32From(t.Normal())),
			Vertices: [3]stl.Vec3{
				stl.Vec3(f32From(t.V[0])),
				stl.Vec3(f32From(t.V[1])),
				stl.Vec3(f32From(t.V[2])),
			},
		}
	}
	return s
}
