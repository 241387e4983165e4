package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived document",
	Long: `Delete a document from the archive.

Example:
  sdds delete 2HqGK4wpAqqFLM1gSZNZ4UTMJbx`,
	Args: cobra.ExactArgs(1),
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

		if err := a.Delete(id); err != nil {
			return fmt.Errorf("error deleting document: %w", err)
		}
		cmd.Printf("Deleted %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
