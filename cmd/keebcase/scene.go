package main

import (
	"errors"
	"fmt"

	"github.com/soypat/keebcase/internal/config"
	"github.com/soypat/keebcase/scene"
	"github.com/soypat/keebcase/scene/glb"
	"github.com/spf13/cobra"
)

func (a *app) rescaleCmd() *cobra.Command {
	var factor float64
	cmd := &cobra.Command{
		Use:   "rescale IN OUT",
		Short: "Scale vertex positions and node translations of a glTF scene",
		Long: `Rescale multiplies every POSITION accessor and node translation by
--factor. The default converts a scene exported in metres to millimetres.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := glb.Load(args[0])
			if err != nil {
				return err
			}
			scaled, err := scene.Rescale(d, factor)
			if err != nil {
				return err
			}
			if err := glb.Save(args[1], scaled); err != nil {
				return err
			}
			a.log.WithField("file", args[1]).WithField("factor", factor).Info("rescaled scene")
			return nil
		},
	}
	cmd.Flags().Float64VarP(&factor, "factor", "f", 1000, "scale factor")
	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the node tree of a glTF scene and check it for errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := glb.Load(args[0])
			if err != nil {
				return err
			}
			if len(names) == 0 {
				names = a.cfg.Merge.Include
			}
			out := cmd.OutOrStdout()
			if err := scene.Describe(out, d, names...); err != nil {
				return err
			}
			if err := scene.Validate(d); err != nil {
				fmt.Fprintln(out, "validation errors:")
				for _, e := range unwrapJoined(err) {
					fmt.Fprintln(out, "  -", e)
				}
				return errors.New("scene is not valid")
			}
			fmt.Fprintln(out, "scene is valid")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&names, "node", nil, "node names whose reachability is reported (default merge.include)")
	return cmd
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Long: `Config prints the settings after merging defaults, the config file,
environment variables and flags. Redirect it to keebcase.toml to start a
new project.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Write(cmd.OutOrStdout(), a.cfg)
		},
	}
}
