package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/deltafy/pkg/deltafy/config"
	"github.com/jamesainslie/deltafy/pkg/deltafy/logging"
	"github.com/jamesainslie/deltafy/pkg/deltafy/output"
	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// errMissingDir is returned when deltafy is run without a directory.
var errMissingDir = errors.New("no directory given")

// app carries the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	stdout  io.Writer
	stderr  io.Writer

	mu      sync.Mutex
	skipped []types.ScanError
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{v: viper.New(), stdout: stdout, stderr: stderr}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "deltafy <dir>",
		Short: "Report files created, modified, or deleted under a directory",
		Long: `Deltafy watches a directory tree by polling it and reports every file
that was created, modified, or deleted since the previous poll.

The last seen modification time of every file is kept in a store that
survives restarts, so changes made while deltafy was not running are
reported by the first scan after it starts.

Examples:
  deltafy ~/projects               # Watch a directory, one scan per second
  deltafy --interval 10s /srv      # Poll less often
  deltafy scan .                   # Scan once and exit
  deltafy preview -o pretty .      # Show pending changes without recording them
  deltafy --exclude-dir .git .     # Skip .git directories everywhere
  deltafy store list ~/projects    # Show tracked files
  deltafy history                  # Review past changes`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errMissingDir
			}
			return cobra.MaximumNArgs(1)(cmd, args)
		},
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		RunE:               a.runWatch,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	// Persistent flags (available to all commands)
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ~/.config/deltafy/config.yaml)")
	pf.String("store", "", "timestamp store location (default: $XDG_DATA_HOME/deltafy/deltas.db)")
	pf.String("backend", "", "timestamp store backend: sqlite or badger")
	pf.StringSlice("exclude-dir", nil, "glob of directories to prune (can be specified multiple times)")
	pf.StringSlice("exclude-file", nil, "glob of files to ignore (can be specified multiple times)")
	pf.StringP("output", "o", "", "output format: "+strings.Join(output.Available(), ", "))
	pf.BoolP("verbose", "v", false, "debug output")
	pf.BoolP("quiet", "q", false, "minimal output")

	// Watch-only flags
	root.Flags().Duration("interval", 0, "pause between scans (default 1s)")
	root.Flags().Bool("initial", false, "report the baseline scan instead of only recording it")

	// Bind flags to viper
	_ = a.v.BindPFlag("store.path", pf.Lookup("store"))
	_ = a.v.BindPFlag("store.backend", pf.Lookup("backend"))
	_ = a.v.BindPFlag("exclude.dirs", pf.Lookup("exclude-dir"))
	_ = a.v.BindPFlag("exclude.files", pf.Lookup("exclude-file"))
	_ = a.v.BindPFlag("output", pf.Lookup("output"))
	_ = a.v.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = a.v.BindPFlag("quiet", pf.Lookup("quiet"))
	_ = a.v.BindPFlag("interval", root.Flags().Lookup("interval"))

	root.AddCommand(
		newScanCmd(a),
		newPreviewCmd(a),
		newStoreCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	a := newApp(os.Stdout, os.Stderr)
	if err := newRootCmd(a).Execute(); err != nil {
		a.printError("%v", err)
		return err
	}
	return nil
}

// setup loads configuration and starts logging before any command runs.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	if _, err := output.Get(a.cfg.Output); err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(output.Available(), ", "))
	}
	return a.initLogging()
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	return logging.Close()
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg
	if cfg.File != "" {
		a.printVerbose("Using config file %s", cfg.File)
	}
	return nil
}

// initLogging opens the log file. Warnings are mirrored to stderr, or all
// debug output with --verbose; --quiet silences the console entirely.
func (a *app) initLogging() error {
	maxSize, err := a.cfg.Logging.Rotation.MaxSizeBytes()
	if err != nil {
		return err
	}

	consoleLevel := "warn"
	switch {
	case a.quiet():
		consoleLevel = ""
	case a.verbose():
		consoleLevel = "debug"
	}

	err = logging.Init(logging.Config{
		Level: a.cfg.Logging.Level,
		Path:  a.cfg.Logging.Path,
		Rotation: logging.RotationConfig{
			MaxSize:    maxSize,
			MaxBackups: a.cfg.Logging.Rotation.MaxBackups,
		},
		Components:   a.cfg.Logging.Components,
		ConsoleLevel: consoleLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

func (a *app) verbose() bool {
	return a.v.GetBool("verbose")
}

func (a *app) quiet() bool {
	return a.v.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func (a *app) printVerbose(format string, args ...any) {
	if a.verbose() && !a.quiet() {
		fmt.Fprintf(a.stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func (a *app) printInfo(format string, args ...any) {
	if !a.quiet() {
		fmt.Fprintf(a.stdout, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func (a *app) printError(format string, args ...any) {
	fmt.Fprintf(a.stderr, "Error: "+format+"\n", args...)
}
