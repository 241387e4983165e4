package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ssargent/sdds/pkg/storage"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived documents",
	Long: `List archived documents, oldest first.

Example:
  sdds list --limit 20
  sdds list --kind cflist`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := runtimeFrom(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		kindName, _ := cmd.Flags().GetString("kind")

		var kind storage.Kind
		if kindName != "" {
			if kind, err = storage.ParseKind(kindName); err != nil {
				return err
			}
		}

		a, err := openArchive(rt)
		if err != nil {
			return err
		}
		defer a.Close()

		var entries []storage.Entry
		if kindName != "" {
			entries, err = a.ListKind(kind, limit)
		} else {
			entries, err = a.List(limit)
		}
		if err != nil {
			return fmt.Errorf("error listing documents: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tNAME\tSIZE\tCREATED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.Kind, e.Name, humanize.IBytes(uint64(e.Size)), humanize.Time(e.CreatedAt))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Int("limit", 100, "Maximum number of documents to list (0 for all)")
	listCmd.Flags().String("kind", "", "Only list documents of this kind (fields or cflist)")
}
