package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sigreer/esesgod/internal/config"
	"github.com/sigreer/esesgod/internal/version"
)

var (
	cfgFile string
	verbose bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "esesgod",
	Short: "ESES enclosure status decoder",
	Long: `esesgod decodes the SES diagnostic pages of EMC ESES enclosures into
per-component state: drive slots, expander phys, connectors, power
supplies, cooling, temperature sensors, LCCs and displays.

Pages are read from a /dev/sgN device with sg_ses, or from files saved
with 'sg_ses --page=0xNN -rr'. Decode history and fault symptoms are kept
in a SQLite database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("esesgod", version.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/esesgod/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output as JSON (default when stdout is not a terminal)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(thresholdsCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(fwrevCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(alertsCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// wantJSON reports whether output should be JSON rather than a table.
func wantJSON() bool {
	if jsonOut {
		return true
	}
	fd := os.Stdout.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
