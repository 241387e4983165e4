package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/sdds/pkg/document"
	"github.com/ssargent/sdds/pkg/fields"
	"github.com/ssargent/sdds/pkg/storage"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update <id> <manifest.yaml>",
	Short: "Replace an archived document from a manifest",
	Long: `Rebuild an archived document from a manifest of the same kind: a field
manifest for a <Fields> document, a token manifest for a <cFList> one. The
document keeps its id, kind and name.

Example:
  sdds update 2HqGK4wpAqqFLM1gSZNZ4UTMJbx sensor.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}
		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid document id %q: %w", args[0], err)
		}

		a, err := openArchive(rt)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.Read(id)
		if err != nil {
			return fmt.Errorf("error reading document: %w", err)
		}

		var body []byte
		switch rec.Kind {
		case storage.KindFields:
			var m fieldsManifest
			if err := readManifest(args[1], &m); err != nil {
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
			body = []byte(document.Encode(store))
		case storage.KindCFList:
			var m tokensManifest
			if err := readManifest(args[1], &m); err != nil {
				return err
			}
			if body, err = buildForCommand(cmd, rt, &m); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s", storage.ErrUnknownKind, rec.Kind)
		}

		if err := a.Update(id, body); err != nil {
			return fmt.Errorf("error updating document: %w", err)
		}
		rt.log.WithFields(logrus.Fields{"id": id.String(), "kind": rec.Kind.String()}).Info("document updated")
		cmd.Printf("Updated %s (%s, %d bytes)\n", id, rec.Kind, len(body))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().Int("buffer-size", 0, "Size of the build buffer in bytes for <cFList> documents")
}
