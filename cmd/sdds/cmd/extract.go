package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/sdds/pkg/cflist"
	"github.com/ssargent/sdds/pkg/column"
	"github.com/ssargent/sdds/pkg/document"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <file> <key>",
	Short: "Extract one field from a document",
	Long: `Locate a single field in a document without decoding the rest of it.
<cFList> fields are found by token, <Fields> fields by name (--by name).

Example:
  sdds extract device.xml A
  sdds extract sensor.xml C --by name`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}
		by, _ := cmd.Flags().GetString("by")

		doc, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		typ, value, err := extractField(newCodec(rt), doc, args[1], by)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", typ, value)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().String("by", "token", "Locate the field by token or name")
}

// extractField returns the declared type and the display value of one field.
func extractField(c *cflist.Codec, doc []byte, key, by string) (cflist.FieldType, string, error) {
	var (
		typ   cflist.FieldType
		value string
	)
	err := withCodec(c, func(c *cflist.Codec) error {
		switch by {
		case "token":
			t, v, err := c.Field(doc, key)
			if err != nil {
				return err
			}
			if t == cflist.TypeString {
				if v, err = c.Unescape(v); err != nil {
					return err
				}
			}
			typ, value = t, v
		case "name":
			payload, size, err := document.ExtractPayload(c, doc, key)
			if err != nil {
				return err
			}
			typ = cflist.TypeHexBinary
			value = fmt.Sprintf("%s (%d bits)", column.Hex(payload), size)
		default:
			return fmt.Errorf("--by must be token or name, got %q", by)
		}
		return nil
	})
	return typ, value, err
}
