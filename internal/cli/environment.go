package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarlstad/goddc/internal/i2c"
	"github.com/mkarlstad/goddc/pkg/types"
)

var environmentCmd = &cobra.Command{
	Use:   "environment",
	Short: "Show the i2c environment and the settings in effect",
	Args:  cobra.NoArgs,
	RunE:  runEnvironment,
}

func init() {
	rootCmd.AddCommand(environmentCmd)
}

func runEnvironment(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.finish()

	fmt.Println(header("I2C buses"))
	buses, err := i2c.Enumerate()
	if err != nil {
		fmt.Println("   " + errorStyle.Render(err.Error()))
	} else if len(buses) == 0 {
		fmt.Println("   " + warnStyle.Render("none found"))
	} else {
		for _, bus := range buses {
			status := "no EDID"
			if _, err := i2c.ReadEDID(bus); err == nil {
				status = "display present"
			}
			fmt.Println("   " + kv(fmt.Sprintf("/dev/i2c-%d", bus), status))
		}
	}

	fmt.Println(header("Retry limits"))
	defaults := s.reg.Defaults()
	for _, c := range types.RetryClasses() {
		fmt.Println("   " + kv(c.Description(), fmt.Sprintf("%d", defaults.MaxTries(c))))
	}

	fmt.Println(header("Pacing"))
	fmt.Println("   " + kv("Sleep multiplier", fmt.Sprintf("%.2f", defaults.SleepMultiplier())))
	fmt.Println("   " + kv("Dynamic sleep", fmt.Sprintf("%t", defaults.DynamicSleepEnabled())))
	fmt.Println("   " + kv("Sleep less", fmt.Sprintf("%t", s.sleepLess)))
	return nil
}
