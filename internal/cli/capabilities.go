package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarlstad/goddc/pkg/caps"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Query and decode the display's capabilities string",
	Args:  cobra.NoArgs,
	RunE:  runCapabilities,
}

func init() {
	capabilitiesCmd.Flags().Bool("raw", false, "Print the undecoded capabilities string")
	rootCmd.AddCommand(capabilitiesCmd)
}

func runCapabilities(cmd *cobra.Command, args []string) error {
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

	raw, err := ch.Capabilities()
	if err != nil {
		return renderError(err)
	}
	if rawFlag, _ := cmd.Flags().GetBool("raw"); rawFlag {
		fmt.Println(raw)
		return nil
	}

	c, err := caps.Parse(raw)
	if err != nil {
		// show what the display sent even when it cannot be decoded
		fmt.Println(warnStyle.Render(fmt.Sprintf("Capabilities string not parseable: %v", err)))
		fmt.Println(raw)
		return nil
	}

	fmt.Println(header("Capabilities"))
	if c.Model != "" {
		fmt.Println("   " + kv("Model", c.Model))
	}
	if c.MCCSVersion != "" {
		fmt.Println("   " + kv("MCCS version", c.MCCSVersion))
	}
	if len(c.Commands) > 0 {
		fmt.Println("   " + kv("Commands", fmt.Sprintf("% 02X", c.Commands)))
	}
	fmt.Println("   " + labelStyle.Render("VCP features:"))
	for _, f := range c.Features {
		line := fmt.Sprintf("      %02X", f.Code)
		if len(f.Values) > 0 {
			line += fmt.Sprintf("  values % 02X", f.Values)
		}
		fmt.Println(valueStyle.Render(line))
	}
	return nil
}
