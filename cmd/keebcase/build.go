package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soypat/keebcase/helpers/matter"
	"github.com/soypat/keebcase/internal/config"
	"github.com/soypat/keebcase/outline"
	"github.com/soypat/keebcase/render"
	"github.com/soypat/keebcase/solid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *app) buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build [asset...]",
		Short: "Generate the STL of every configured asset, or only the named ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := a.selectAssets(args)
			if err != nil {
				return err
			}
			return a.buildAll(assets)
		},
	}
}

func (a *app) selectAssets(names []string) ([]config.Asset, error) {
	if len(names) == 0 {
		return a.cfg.Assets, nil
	}
	var assets []config.Asset
	for _, name := range names {
		asset, ok := a.cfg.Asset(name)
		if !ok {
			return nil, fmt.Errorf("no asset named %q", name)
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// buildAll builds assets concurrently. A failed asset does not stop the
// others; every failure is reported and joined into the result.
func (a *app) buildAll(assets []config.Asset) error {
	workers := a.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(workers)
	errs := make([]error, len(assets))
	for i := range assets {
		i := i
		g.Go(func() error {
			log := a.log.WithField("asset", assets[i].Name)
			start := time.Now()
			faces, err := buildAsset(assets[i], log)
			if err != nil {
				log.WithError(err).Error("build failed")
				errs[i] = fmt.Errorf("asset %s: %w", assets[i].Name, err)
				return nil
			}
			log.WithFields(logrus.Fields{
				"file":    assets[i].Output,
				"faces":   faces,
				"elapsed": time.Since(start).Round(time.Millisecond),
			}).Info("built")
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// buildAsset runs the pipeline for one asset and writes its STL. It
// returns the number of faces written.
func buildAsset(asset config.Asset, log logrus.FieldLogger) (int, error) {
	mesh, err := generate(asset, log)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(asset.Output), 0o755); err != nil {
		return 0, err
	}
	if asset.ASCII {
		err = render.WriteFileAtomic(asset.Output, func(f *os.File) error {
			return render.WriteASCIISTL(f, asset.Name, mesh.Triangles())
		})
	} else {
		err = render.CreateSTL(asset.Output, mesh.Renderer())
	}
	if err != nil {
		return 0, fmt.Errorf("writing %s: %w", asset.Output, err)
	}
	return len(mesh.Faces), nil
}

// generate loads the outline of asset and builds its solid, applying
// shrink compensation for the configured material.
func generate(asset config.Asset, log logrus.FieldLogger) (solid.Mesh, error) {
	sc, err := asset.Solid()
	if err != nil {
		return solid.Mesh{}, err
	}
	raw, err := outline.LoadFile(asset.Outline, asset.Layer)
	if err != nil {
		return solid.Mesh{}, err
	}
	log.WithFields(logrus.Fields{"file": asset.Outline, "points": len(raw)}).Debug("loaded outline")
	mesh, err := solid.Generate(raw, sc, log)
	if err != nil {
		return solid.Mesh{}, err
	}
	mat, ok, err := matter.ByName(asset.Material)
	if err != nil {
		return solid.Mesh{}, err
	}
	if ok {
		mesh = mat.Scale(mesh)
		log.WithField("scale", mat.ScaleFactor()).Debug("applied shrink compensation")
	}
	return mesh, nil
}
