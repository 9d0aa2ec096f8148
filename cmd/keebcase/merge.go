package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/soypat/keebcase/internal/config"
	"github.com/soypat/keebcase/scene"
	"github.com/soypat/keebcase/scene/glb"
	"github.com/spf13/cobra"
)

func (a *app) mergeCmd() *cobra.Command {
	var secondary string
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge the generated parts into the primary PCB scene",
		Long: `Merge loads the primary glTF scene, builds a secondary scene from the
configured part STL files (or loads --secondary) and writes the combined
binary glTF. Part materials are made translucent so the PCB stays visible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.merge(secondary)
		},
	}
	f := cmd.Flags()
	f.String("primary", "", "primary glTF scene")
	f.StringP("output", "o", "", "merged .glb output")
	f.Float64("alpha", 0, "alpha forced onto every material, 1 leaves them untouched")
	f.StringSlice("include", nil, "node names promoted to scene roots")
	f.StringVar(&secondary, "secondary", "", "glTF scene merged instead of the configured parts")
	bindFlags(a.v, f, map[string]string{
		"merge.primary": "primary",
		"merge.output":  "output",
		"merge.alpha":   "alpha",
		"merge.include": "include",
	})
	return cmd
}

func (a *app) merge(secondaryPath string) error {
	m := a.cfg.Merge
	opts, err := m.Options()
	if err != nil {
		return err
	}
	primary, err := glb.Load(m.Primary)
	if err != nil {
		return fmt.Errorf("primary scene: %w", err)
	}
	var secondary *scene.Document
	if secondaryPath != "" {
		secondary, err = glb.Load(secondaryPath)
	} else {
		secondary, err = loadParts(m.Parts, a.log)
	}
	if err != nil {
		return fmt.Errorf("secondary scene: %w", err)
	}
	merged, err := scene.Merge(primary, secondary, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.Output), 0o755); err != nil {
		return err
	}
	if err := glb.Save(m.Output, merged); err != nil {
		return err
	}
	nodes, meshes, accessors, _ := merged.Counts()
	a.log.WithFields(logrus.Fields{
		"file":      m.Output,
		"nodes":     nodes,
		"meshes":    meshes,
		"accessors": accessors,
		"roots":     len(merged.Roots()),
	}).Info("merged scene")
	return nil
}

// loadParts reads the part STL files into one scene. Parts whose file does
// not exist are skipped with a warning.
func loadParts(parts []config.Part, log logrus.FieldLogger) (*scene.Document, error) {
	var loaded []glb.Part
	for _, cp := range parts {
		color, err := cp.RGBA()
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", cp.Name, err)
		}
		p, err := glb.LoadSTLPart(cp.Name, cp.STL, color, cp.Decimate)
		if errors.Is(err, fs.ErrNotExist) {
			log.WithFields(logrus.Fields{"part": cp.Name, "file": cp.STL}).Warn("part file not found, skipping")
			continue
		} else if err != nil {
			return nil, fmt.Errorf("part %s: %w", cp.Name, err)
		}
		log.WithFields(logrus.Fields{"part": cp.Name, "vertices": len(p.Vertices), "faces": len(p.Indices) / 3}).Debug("loaded part")
		loaded = append(loaded, p)
	}
	if len(loaded) == 0 {
		return nil, errors.New("no part files found")
	}
	return glb.FromParts(loaded...)
}
