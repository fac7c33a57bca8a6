package cmd

import (
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <page.yaml>",
	Short: "Open a page definition",
	Long: `Open the page described by a YAML definition.

Links and form posts go to the admin server at --base-url (or base_url in
the config). Without one, the fragments embedded in the definition answer
them.`,
	GroupID: "console",
	Args:    cobra.ExactArgs(1),
	RunE:    runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().String("base-url", "", "Admin server URL links resolve against (overrides config)")
	consoleFlags(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	once, _ := cmd.Flags().GetBool("once")
	logger, closeLog, err := newLogger(!once)
	if err != nil {
		return err
	}
	defer closeLog()

	def, err := loadDefinition(args[0])
	if err != nil {
		return err
	}
	baseURL := cfg.BaseURL
	if flag, _ := cmd.Flags().GetString("base-url"); flag != "" {
		baseURL = flag
	}
	logger.Debug("opening page", "class", def.Class, "base_url", baseURL, "links", len(def.Links))

	s, err := newSession(def, baseURL, logger)
	if err != nil {
		return err
	}
	return s.run(cmd)
}
