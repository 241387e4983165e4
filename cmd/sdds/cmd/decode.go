package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ssargent/sdds/pkg/column"
	"github.com/ssargent/sdds/pkg/document"
	"github.com/ssargent/sdds/pkg/fields"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Decode a <Fields> document and list its fields",
	Long: `Parse a <Fields> document and print every field with its size,
modifier and payload. Use - to read from stdin.

Example:
  sdds decode sensor.xml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}
		text, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		store, err := document.Decode(text, fields.WithLimits(fields.Limits{
			MaxFields:       rt.cfg.Codec.MaxFields,
			MaxPayloadBytes: rt.cfg.Codec.MaxPayloadBytes,
		}))
		if err != nil {
			return err
		}
		defer store.Close()

		return printStore(cmd.OutOrStdout(), store)
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func printStore(out io.Writer, store *fields.Store) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBITS\tMODIFIER\tPAYLOAD")
	err := store.Each(func(name string, sizeBits uint32, payload []byte, modifier byte) error {
		_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, sizeBits, modifier, column.Hex(payload))
		return err
	})
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s fields, %s bits (%s)\n",
		humanize.Comma(int64(store.FieldCount())),
		humanize.Comma(int64(store.TotalBitSize())),
		humanize.IBytes(store.TotalByteSize()))
	return err
}
