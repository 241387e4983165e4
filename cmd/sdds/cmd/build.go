package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/sdds/pkg/cflist"
	"github.com/ssargent/sdds/pkg/storage"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build <manifest.yaml>",
	Short: "Build a <cFList> document in a fixed buffer",
	Long: `Build a <cFList> document from a YAML manifest of token fields. The
document is built in a buffer of --buffer-size bytes (or the manifest's
buffer_size, or codec.buffer_size); a document that does not fit is an error.

Example:
  sdds build device.yaml --buffer-size 256`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}
		archive, _ := cmd.Flags().GetBool("archive")

		var m tokensManifest
		if err := readManifest(args[0], &m); err != nil {
			return err
		}

		doc, err := buildForCommand(cmd, rt, &m)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(doc))

		if !archive {
			return nil
		}
		a, err := openArchive(rt)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.Create(storage.KindCFList, defaultName(m.Name, args[0]), doc)
		if err != nil {
			return fmt.Errorf("failed to archive document: %w", err)
		}
		cmd.Printf("Archived as %s\n", id)
		return nil
	},
}

// buildForCommand builds m in a buffer sized by --buffer-size, the manifest,
// or codec.buffer_size, in that order.
func buildForCommand(cmd *cobra.Command, rt *runtime, m *tokensManifest) ([]byte, error) {
	bufSize := rt.cfg.Codec.BufferSize
	if m.BufferSize > 0 {
		bufSize = m.BufferSize
	}
	if cmd.Flags().Changed("buffer-size") {
		bufSize, _ = cmd.Flags().GetInt("buffer-size")
	}
	if bufSize < 1 {
		return nil, fmt.Errorf("buffer size must be positive, got %d", bufSize)
	}

	doc, err := buildFromManifest(newCodec(rt), m, bufSize)
	var capErr *cflist.CapacityError
	if errors.As(err, &capErr) {
		return nil, fmt.Errorf("document does not fit: %w", err)
	}
	return doc, err
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().Int("buffer-size", 0, "Size of the build buffer in bytes, terminator included")
	buildCmd.Flags().Bool("archive", false, "Store the document in the archive")
}
