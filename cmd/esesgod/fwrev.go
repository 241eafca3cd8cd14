package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigreer/esesgod/internal/eses"
)

var fwrevCmd = &cobra.Command{
	Use:   "fwrev <revision> [minimum]",
	Short: "Parse a firmware revision, or compare it to a minimum",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rev, err := eses.ParseRevision(args[0])
		if err != nil {
			return err
		}
		if len(args) == 1 {
			if wantJSON() {
				return printJSON(rev)
			}
			fmt.Println(rev)
			return nil
		}

		lower, err := eses.AtLowerRevision(args[0], args[1])
		if err != nil {
			return err
		}
		if wantJSON() {
			return printJSON(map[string]any{"revision": rev.String(), "minimum": args[1], "lower": lower})
		}
		if lower {
			fmt.Printf("%s is below %s\n", rev, args[1])
		} else {
			fmt.Printf("%s is at or above %s\n", rev, args[1])
		}
		return nil
	},
}
