// Package cmd holds the command line tools built on top of the toolbox:
// inspecting and fetching datasets, converting dat files and generating
// sample data.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dot5enko/coltoolbox/config"
	"github.com/dot5enko/coltoolbox/logging"
	"github.com/dot5enko/coltoolbox/store"
	"github.com/dot5enko/coltoolbox/store/arrowstore"
	"github.com/dot5enko/coltoolbox/store/slab"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	backend    string

	cfg    *config.Config
	logger *slog.Logger

	out    io.Writer
	logOut io.Writer
}

// NewRootCommand builds the command tree. Command output goes to out and
// logs to logOut.
func NewRootCommand(out, logOut io.Writer) *cobra.Command {

	a := &app{out: out, logOut: logOut}

	root := &cobra.Command{
		Use:           "coltoolbox",
		Short:         "Typed access to columnar datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.SetOut(out)
	root.SetErr(logOut)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVarP(&a.backend, "backend", "b", "", "store backend, slab or arrow (overrides config)")

	root.AddCommand(
		a.inspectCommand(),
		a.fetchCommand(),
		a.importDatCommand(),
		a.generateCommand(),
		a.configCommand(),
	)

	return root
}

func (a *app) setup() error {

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.backend != "" {
		cfg.Store.Backend = a.backend
		if validateErr := cfg.Validate(); validateErr != nil {
			return validateErr
		}
	}

	logger, err := logging.New(cfg.Log, a.logOut)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger

	return nil
}

func (a *app) opener() store.Opener {
	if a.cfg.Store.Backend == config.ArrowBackend {
		return arrowstore.Open
	}
	return slab.NewOpener(a.cfg.Store.CacheBytes)
}

func (a *app) createWriter(path string) (store.DatasetWriter, error) {
	if a.cfg.Store.Backend == config.ArrowBackend {
		w, err := arrowstore.Create(path)
		if err != nil {
			return nil, err
		}
		return w, nil
	}

	w, err := slab.Create(path, a.cfg.Codec())
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Execute runs the command line and exits non zero on failure.
func Execute() {
	root := NewRootCommand(os.Stdout, os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
