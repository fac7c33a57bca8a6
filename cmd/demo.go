package cmd

import (
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Open the built-in product page",
	Long: `Open the built-in "Edit Product" page. Its links are served from the
page itself, so no admin server is needed: one opens a tabbed form, one a
help text, and the others answer with 403, 500 and 400 errors.`,
	GroupID: "console",
	Args:    cobra.NoArgs,
	RunE:    runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	consoleFlags(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	once, _ := cmd.Flags().GetBool("once")
	logger, closeLog, err := newLogger(!once)
	if err != nil {
		return err
	}
	defer closeLog()

	def, err := loadDefinition("")
	if err != nil {
		return err
	}
	s, err := newSession(def, "", logger)
	if err != nil {
		return err
	}
	return s.run(cmd)
}
