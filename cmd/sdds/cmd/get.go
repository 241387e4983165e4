package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print an archived document",
	Long: `Print the text of an archived document.

Example:
  sdds get 2HqGK4wpAqqFLM1gSZNZ4UTMJbx`,
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

		rec, err := a.Read(id)
		if err != nil {
			return fmt.Errorf("error getting document: %w", err)
		}
		rt.log.WithField("kind", rec.Kind.String()).Debug("document read")
		fmt.Fprintln(cmd.OutOrStdout(), string(rec.Body))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
