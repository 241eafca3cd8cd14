package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigreer/esesgod/internal/ses"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List SES enclosure devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		enclosures, err := ses.DiscoverSESDevices(cmd.Context())
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(enclosures)
		}
		if len(enclosures) == 0 {
			fmt.Println("No SES enclosures found.")
			return nil
		}

		fmt.Printf("%-10s %-10s %-18s %-6s %s\n", "DEVICE", "VENDOR", "PRODUCT", "REV", "HCTL")
		fmt.Println(strings.Repeat("-", 60))
		for _, e := range enclosures {
			fmt.Printf("%-10s %-10s %-18s %-6s %s\n", e.SGDevice, e.Vendor, e.Product, e.Revision, e.HCTL)
		}
		return nil
	},
}
