/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/sdds/pkg/api"
	"github.com/ssargent/sdds/pkg/config"
)

// autoAPIKey asks serve to generate a key for this run only.
const autoAPIKey = "auto"

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the sdds REST API server over the configured archive.

Clients build, archive and query documents over HTTP. Every /api/v1 request
must carry the configured key in the X-API-Key header.

Examples:
  sdds serve
  sdds serve --port 9000 --bind 0.0.0.0 --api-key mysecretkey`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}
		cfg := rt.cfg

		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			cfg.APIKey, _ = cmd.Flags().GetString("api-key")
		}

		switch cfg.APIKey {
		case "":
			return errors.New("no API key configured (run 'sdds init' or pass --api-key)")
		case autoAPIKey:
			key, err := config.GenerateSecureKey(32)
			if err != nil {
				return err
			}
			cfg.APIKey = key
			cmd.Printf("🔑 Generated API key for this run: %s\n", key)
		}

		if container == nil {
			return errors.New("dependency container not initialized")
		}
		archive, err := openArchive(rt)
		if err != nil {
			return err
		}
		defer archive.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cmd.Printf("🚀 Starting sdds server on %s:%d\n", cfg.Bind, cfg.Port)
		cmd.Printf("📁 Data directory: %s\n", cfg.DataDir)

		starter := container.GetServerFactory().CreateServerStarter()
		if err := starter.StartServer(ctx, archive, api.ServerConfig{
			Port:            cfg.Port,
			Bind:            cfg.Bind,
			APIKey:          cfg.APIKey,
			ScratchSize:     cfg.Codec.ScratchSize,
			BufferSize:      cfg.Codec.BufferSize,
			MaxFields:       cfg.Codec.MaxFields,
			MaxPayloadBytes: cfg.Codec.MaxPayloadBytes,
		}, rt.log); err != nil {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().String("api-key", "", "API key for authentication (overrides api_key)")
}
