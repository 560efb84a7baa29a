package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarlstad/goddc/internal/i2c"
	"github.com/mkarlstad/goddc/internal/probe"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "List displays reachable over DDC/CI",
	Args:  cobra.NoArgs,
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().Int("workers", 4, "Buses probed in parallel")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.finish()

	buses, err := i2c.Enumerate()
	if err != nil {
		return err
	}

	workers, _ := cmd.Flags().GetInt("workers")
	scanner := probe.NewScanner(s.reg, probe.WithLogger(s.logger), probe.WithWorkers(workers))
	found := scanner.Scan(cmd.Context(), buses)

	if len(found) == 0 {
		fmt.Println(warnStyle.Render("No displays detected"))
		return nil
	}
	for _, d := range found {
		e := d.EDID
		fmt.Println(header(fmt.Sprintf("Display on /dev/i2c-%d", d.Bus)))
		fmt.Println("   " + kv("Manufacturer", e.Manufacturer))
		if e.ModelName != "" {
			fmt.Println("   " + kv("Model", e.ModelName))
		}
		fmt.Println("   " + kv("Product code", fmt.Sprintf("%d", e.ProductCode)))
		if e.SerialString != "" {
			fmt.Println("   " + kv("Serial", e.SerialString))
		}
		if e.YearOfManufacture != 0 {
			made := fmt.Sprintf("%d", e.YearOfManufacture)
			if e.WeekOfManufacture != 0 {
				made = fmt.Sprintf("week %d, %s", e.WeekOfManufacture, made)
			}
			fmt.Println("   " + kv("Manufactured", made))
		}
		fmt.Println("   " + kv("EDID version", fmt.Sprintf("%d.%d", e.Version, e.Revision)))
		if d.Comm {
			fmt.Println("   " + successStyle.Render("DDC/CI communication verified"))
		} else {
			fmt.Println("   " + warnStyle.Render("No DDC/CI response (EDID only)"))
		}
	}
	return nil
}
