// Command keebcase generates keyboard palm rests and tenting bases from
// 2D outlines and merges them into a PCB scene for visual checks.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/soypat/keebcase/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app holds state shared by all subcommands.
type app struct {
	v       *viper.Viper
	cfg     config.Config
	log     *logrus.Logger
	cfgPath string
	verbose bool
}

func main() {
	a := &app{v: viper.New(), log: logrus.New()}
	if err := a.root().Execute(); err != nil {
		a.log.Error(err)
		os.Exit(1)
	}
}

func (a *app) root() *cobra.Command {
	root := &cobra.Command{
		Use:           "keebcase",
		Short:         "Generate keyboard case accessories and preview them with the PCB",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "config file (default ./keebcase.toml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Int("workers", 0, "assets built in parallel, 0 for one per CPU")
	bindFlags(a.v, pf, map[string]string{
		"log_level": "log-level",
		"workers":   "workers",
	})

	root.AddCommand(
		a.buildCmd(),
		a.mergeCmd(),
		a.rescaleCmd(),
		a.inspectCmd(),
		a.stl2asciiCmd(),
		a.previewCmd(),
		a.plotCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) setup() error {
	a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	cfg, err := config.Load(a.v, a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if a.verbose {
		level = logrus.DebugLevel
	}
	a.log.SetLevel(level)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.WithField("file", used).Debug("loaded config")
	}
	return nil
}

// bindFlags makes the flags of fs override the config keys they are mapped
// from when set on the command line.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, flags map[string]string) {
	for key, name := range flags {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(err)
		}
	}
}
