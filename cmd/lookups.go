package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/marcus/adminui/internal/db"
)

var lookupsCmd = &cobra.Command{
	Use:     "lookups",
	Short:   "Manage the local lookup candidate database",
	GroupID: "system",
}

var lookupsImportCmd = &cobra.Command{
	Use:   "import [page.yaml]",
	Short: "Import the lookup candidates of a page into the database",
	Long: `Copy the lookup candidates of a page definition into .adminui/lookups.db.
Each imported field replaces what the database held for it. Start the
console with --lookups-db to serve lookups from the database.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLookupsImport,
}

var lookupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the fields with stored candidates",
	Args:  cobra.NoArgs,
	RunE:  runLookupsList,
}

func init() {
	rootCmd.AddCommand(lookupsCmd)
	lookupsCmd.AddCommand(lookupsImportCmd, lookupsListCmd)
}

func runLookupsImport(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	def, err := loadDefinition(path)
	if err != nil {
		return err
	}

	store, err := db.Initialize(getBaseDir())
	if err != nil {
		return fmt.Errorf("open lookup database: %w", err)
	}
	defer store.Close()

	source := def.Source()
	children := make([]string, 0, len(source))
	for child := range source {
		children = append(children, child)
	}
	slices.Sort(children)

	for _, child := range children {
		if err := store.ImportCandidates(cmd.Context(), child, source[child]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d candidates for %s\n", len(source[child]), child)
	}
	if len(children) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "The page has no lookups.")
	}
	return nil
}

func runLookupsList(cmd *cobra.Command, args []string) error {
	store, err := db.Open(getBaseDir())
	if err != nil {
		return err
	}
	defer store.Close()

	children, err := store.Children(cmd.Context())
	if err != nil {
		return err
	}
	for _, c := range children {
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %d\n", c.Child, c.Count)
	}
	return nil
}
