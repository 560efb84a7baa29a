// Package cli implements the goddc command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "goddc",
	Short: "DDC/CI monitor control client",
	Long: `goddc talks to monitors over the DDC/CI protocol: reading and
writing VCP features, querying capabilities, and reporting the retry
and sleep statistics the transport layer accumulates while doing so.

DDC/CI is an unreliable protocol. Every exchange runs under a bounded
retry loop with per-class limits, and delays between exchanges adapt
to how the display is behaving. Use --stats to see what that cost.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default goddc.yaml if present)")
	pf.IntP("bus", "b", -1, "I2C bus number (default: first bus with a DDC display)")
	pf.String("maxtries", "", "Retry limits as \"wo,wr,mpr,mpw\"; blank fields keep defaults")
	pf.Float64("sleep-multiplier", 0, "Scale all protocol delays by this factor")
	pf.Bool("enable-dynamic-sleep", false, "Adapt delays to the display's error rate")
	pf.Bool("sleep-less", false, "Suppress low-risk delays (post-read, pre-EDID)")
	pf.Bool("stats", false, "Report retry and sleep statistics on exit")
	pf.BoolP("verbose", "v", false, "Debug logging")
	pf.String("log-file", "", "Also write a JSON trace log to this file")
}
