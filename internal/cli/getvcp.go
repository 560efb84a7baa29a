package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getvcpCmd = &cobra.Command{
	Use:   "getvcp <feature-code>",
	Short: "Read a VCP feature value",
	Long: `Read one VCP feature, e.g. 10 for brightness or 12 for contrast.
The feature code is two hex digits. For table-typed features pass
--table to read the raw byte value.`,
	Args: cobra.ExactArgs(1),
	RunE: runGetVCP,
}

func init() {
	getvcpCmd.Flags().Bool("table", false, "Read a table-typed feature")
	rootCmd.AddCommand(getvcpCmd)
}

func runGetVCP(cmd *cobra.Command, args []string) error {
	code, err := parseFeatureCode(args[0])
	if err != nil {
		return err
	}

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

	if table, _ := cmd.Flags().GetBool("table"); table {
		data, err := ch.TableRead(code)
		if err != nil {
			return renderError(err)
		}
		fmt.Printf("%s % 02X\n", labelStyle.Render(fmt.Sprintf("VCP 0x%02X table value:", code)), data)
		return nil
	}

	val, err := ch.GetVCP(code)
	if err != nil {
		return renderError(err)
	}
	fmt.Printf("%s current %s, max %s\n",
		labelStyle.Render(fmt.Sprintf("VCP 0x%02X:", code)),
		valueStyle.Render(fmt.Sprintf("%d", val.Current)),
		valueStyle.Render(fmt.Sprintf("%d", val.Max)))
	return nil
}
