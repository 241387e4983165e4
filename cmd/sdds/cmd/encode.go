package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/sdds/pkg/document"
	"github.com/ssargent/sdds/pkg/fields"
	"github.com/ssargent/sdds/pkg/storage"
)

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode <manifest.yaml>",
	Short: "Encode a field manifest as a <Fields> document",
	Long: `Build a field store from a YAML manifest and print it as a <Fields>
document. With --archive the document is also stored and its id printed.

Example:
  sdds encode sensor.yaml
  sdds encode sensor.yaml --archive`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}
		archive, _ := cmd.Flags().GetBool("archive")

		var m fieldsManifest
		if err := readManifest(args[0], &m); err != nil {
			return err
		}
		store, err := storeFromManifest(&m, fields.Limits{
			MaxFields:       rt.cfg.Codec.MaxFields,
			MaxPayloadBytes: rt.cfg.Codec.MaxPayloadBytes,
		})
		if err != nil {
			return err
		}
		defer store.Close()

		if err := document.Write(cmd.OutOrStdout(), store); err != nil {
			return fmt.Errorf("failed to write document: %w", err)
		}
		if !archive {
			return nil
		}

		a, err := openArchive(rt)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.Create(storage.KindFields, defaultName(m.Name, args[0]), []byte(document.Encode(store)))
		if err != nil {
			return fmt.Errorf("failed to archive document: %w", err)
		}
		rt.log.WithField("id", id.String()).Info("document archived")
		cmd.Printf("Archived as %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().Bool("archive", false, "Store the document in the archive")
}
