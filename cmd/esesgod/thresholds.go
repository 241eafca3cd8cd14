package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigreer/esesgod/internal/ses"
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Show chassis temperature thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, cmd, false)
		if err != nil {
			return err
		}
		defer s.Close()

		page, err := readPage(ctx, cmd, s.device, "threshold-page", ses.PageThresholdIn)
		if err != nil {
			return err
		}
		thresholds, err := s.enc.CollectThresholds(page)
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(thresholds)
		}
		if len(thresholds) == 0 {
			fmt.Println("No chassis temperature sensors.")
			return nil
		}

		fmt.Printf("%-6s %-8s %-8s %-8s %-8s %s\n", "GROUP", "SUBENCL", "HI CRIT", "HI WARN", "LO WARN", "LO CRIT")
		fmt.Println(strings.Repeat("-", 50))
		for _, t := range thresholds {
			fmt.Printf("%-6d %-8d %-8s %-8s %-8s %s\n", t.Group, t.SubenclosureID,
				celsius(t.HighCritical), celsius(t.HighWarning), celsius(t.LowWarning), celsius(t.LowCritical))
		}
		return nil
	},
}

func init() {
	addPageFlags(thresholdsCmd, "threshold-page", "threshold in page (0x05)")
}

// celsius converts a raw reading; zero means the threshold is not set.
func celsius(raw uint8) string {
	if raw == 0 {
		return "-"
	}
	return fmt.Sprintf("%dC", int(raw)-ses.TempSensorOffset)
}
