package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var saveSettingsCmd = &cobra.Command{
	Use:   "save-settings",
	Short: "Ask the display to persist its current settings",
	Args:  cobra.NoArgs,
	RunE:  runSaveSettings,
}

func init() {
	rootCmd.AddCommand(saveSettingsCmd)
}

func runSaveSettings(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.finish()

	ch, err := s.openChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.SaveSettings(); err != nil {
		return renderError(err)
	}
	fmt.Println(successStyle.Render("Settings saved"))
	return nil
}
