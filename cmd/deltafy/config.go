package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/deltafy/pkg/deltafy/config"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage deltafy configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/deltafy/config.yaml (if set)
  2. ~/.config/deltafy/config.yaml

Environment variables can override config file settings using the DELTAFY_ prefix:
  DELTAFY_INTERVAL=5s
  DELTAFY_STORE_BACKEND=badger
  DELTAFY_HISTORY_ENABLED=false`,
	}
	// Config commands must work while the config file is broken.
	configCmd.PersistentPreRunE = func(*cobra.Command, []string) error { return nil }

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			Long:  `Display the resolved configuration from all sources as YAML.`,
			Args:  cobra.NoArgs,
			RunE:  a.runConfigShow,
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create default configuration file",
			Long:  `Create a commented default configuration file if one doesn't exist.`,
			Args:  cobra.NoArgs,
			RunE:  a.runConfigInit,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show configuration file path",
			Args:  cobra.NoArgs,
			RunE:  a.runConfigPath,
		},
	)
	return configCmd
}

// runConfigShow prints the resolved configuration.
func (a *app) runConfigShow(_ *cobra.Command, _ []string) error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	settings := a.v.AllSettings()
	// Durations would otherwise print as nanoseconds.
	settings["interval"] = a.cfg.Interval.String()
	delete(settings, "verbose")
	delete(settings, "quiet")

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if a.cfg.File != "" {
		fmt.Fprintf(a.stdout, "# config file: %s\n", a.cfg.File)
	} else {
		fmt.Fprintln(a.stdout, "# config file: (using defaults, no file found)")
	}

	overrides := envOverrides()
	if len(overrides) > 0 {
		fmt.Fprintln(a.stdout, "# environment overrides:")
		for _, kv := range overrides {
			fmt.Fprintf(a.stdout, "#   %s\n", kv)
		}
	}

	_, err = a.stdout.Write(data)
	return err
}

// envOverrides lists DELTAFY_ variables in the environment, sorted.
func envOverrides() []string {
	var out []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix+"_") {
			out = append(out, kv)
		}
	}
	sort.Strings(out)
	return out
}

// runConfigInit creates a default config file.
func (a *app) runConfigInit(_ *cobra.Command, _ []string) error {
	path, created, err := config.WriteDefault(a.cfgFile)
	if err != nil {
		return err
	}

	if !created {
		a.printInfo("Config file already exists: %s", path)
		return nil
	}
	a.printInfo("Created default config file: %s", path)
	return nil
}

// runConfigPath shows the config file path.
func (a *app) runConfigPath(_ *cobra.Command, _ []string) error {
	path := a.cfgFile
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	fmt.Fprintln(a.stdout, path)

	if _, err := os.Stat(path); err == nil {
		a.printVerbose("File exists")
	} else if os.IsNotExist(err) {
		a.printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
