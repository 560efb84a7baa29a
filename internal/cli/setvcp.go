package cli

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var setvcpCmd = &cobra.Command{
	Use:   "setvcp <feature-code> <value>",
	Short: "Write a VCP feature value",
	Long: `Write one VCP feature. The value is decimal, e.g. "setvcp 10 70"
sets brightness to 70. With --table the value is a hex byte string
written as a table value. --verify reads the feature back afterwards.`,
	Args: cobra.ExactArgs(2),
	RunE: runSetVCP,
}

func init() {
	setvcpCmd.Flags().Bool("table", false, "Write a table-typed feature")
	setvcpCmd.Flags().Bool("verify", false, "Read the value back after writing")
	rootCmd.AddCommand(setvcpCmd)
}

func runSetVCP(cmd *cobra.Command, args []string) error {
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
		data, err := hex.DecodeString(strings.ReplaceAll(args[1], " ", ""))
		if err != nil {
			return fmt.Errorf("bad table value %q: hex bytes expected", args[1])
		}
		if err := ch.TableWrite(code, data); err != nil {
			return renderError(err)
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("VCP 0x%02X table value written (%d bytes)", code, len(data))))
		return nil
	}

	value, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		return fmt.Errorf("bad value %q: 0..65535 expected", args[1])
	}
	if err := ch.SetVCP(code, uint16(value)); err != nil {
		return renderError(err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("VCP 0x%02X set to %d", code, value)))

	if verify, _ := cmd.Flags().GetBool("verify"); verify {
		got, err := ch.GetVCP(code)
		if err != nil {
			return fmt.Errorf("verify read: %w", err)
		}
		if got.Current != uint16(value) {
			return fmt.Errorf("verify failed: display reports %d, expected %d", got.Current, value)
		}
		fmt.Println(successStyle.Render("Verified"))
	}
	return nil
}
