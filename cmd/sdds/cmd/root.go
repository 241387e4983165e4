/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/sdds/pkg/api"
	"github.com/ssargent/sdds/pkg/config"
	"github.com/ssargent/sdds/pkg/di"
	"github.com/ssargent/sdds/pkg/logging"
)

var container *di.Container

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

type runtimeKey struct{}

// runtime is what PersistentPreRunE resolves for the command being run
type runtime struct {
	configPath string
	cfg        *config.Config
	log        *logrus.Entry
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sdds",
	Short: "sdds - self-describing data stream documents",
	Long: `sdds builds and reads self-describing data stream documents.

A <Fields> document carries a whole field store: every field's name, bit
size, modifier and payload. A <cFList> document is built token by token in
a fixed-size buffer and read back one field at a time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey{}, rt))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ~/.config/sdds/config.yaml)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Archive directory (overrides data_dir)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides logging.level)")
}

// loadRuntime reads the config file when there is one, applies flag
// overrides and builds the logger.
func loadRuntime(cmd *cobra.Command) (*runtime, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return &runtime{
		configPath: configPath,
		cfg:        cfg,
		log:        logrus.NewEntry(logger).WithField("command", cmd.Name()),
	}, nil
}

func runtimeFrom(cmd *cobra.Command) (*runtime, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtime)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return rt, nil
}

// openArchive opens the configured archive. The caller closes it.
func openArchive(rt *runtime) (api.ArchiveStore, error) {
	if container == nil {
		return nil, errors.New("dependency container not initialized")
	}
	archive, err := container.GetArchiveFactory().OpenArchive(rt.cfg.DataDir, rt.log)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return archive, nil
}
