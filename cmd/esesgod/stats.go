package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sigreer/esesgod/internal/eses"
	"github.com/sigreer/esesgod/internal/ses"
)

var (
	statsType  elementTypeValue
	statsSlots slotRangeValue
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Read the EMC statistics page",
	Long: `Read the EMC statistics page (0x11) and copy the selected items into
a response buffer of --buffer bytes, the way a statistics request would.

Examples:
  esesgod stats -d /dev/sg3
  esesgod stats -d /dev/sg3 --type phy
  esesgod stats -d /dev/sg3 --type drive --slots 0-11 --buffer 256`,
	RunE: runStats,
}

func init() {
	addPageFlags(statsCmd, "stats-page", "statistics page (0x11)")
	statsCmd.Flags().Var(&statsType, "type", "element type: drive, phy, ps, fan, temp, expander")
	statsCmd.Flags().Var(&statsSlots, "slots", "slot or phy range N-M (needs --type drive or phy)")
	statsCmd.Flags().Int("buffer", 4096, "response buffer size in bytes")
}

func selection() (eses.Selection, error) {
	switch {
	case statsSlots.set:
		if !statsType.set {
			return eses.Selection{}, fmt.Errorf("--slots needs --type")
		}
		return eses.BySlot(statsType.t, statsSlots.first, statsSlots.last), nil
	case statsType.set:
		return eses.ByType(statsType.t), nil
	}
	return eses.All(), nil
}

type statsOutput struct {
	eses.StatsResult
	Decoded []any `json:"decoded"`
}

func runStats(cmd *cobra.Command, args []string) error {
	size, _ := cmd.Flags().GetInt("buffer")
	if size < 0 {
		return fmt.Errorf("--buffer must not be negative")
	}
	sel, err := selection()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	page, err := readPage(ctx, cmd, s.device, "stats-page", ses.PageEmcStatistics)
	if err != nil {
		return err
	}
	// power cycle completion is tracked from the same page
	if err := s.enc.ProcessStatisticsPage(page); err != nil {
		s.log.Warn("power cycle tracking", slog.Any("error", err))
	}

	res, err := s.enc.CollectStatistics(page, sel, make([]byte, size))
	if err != nil {
		return err
	}
	out := statsOutput{StatsResult: res}
	for _, en := range res.Entries {
		v, err := en.Decode()
		if err != nil {
			v = err.Error()
		}
		out.Decoded = append(out.Decoded, v)
	}

	if wantJSON() {
		return printJSON(out)
	}

	fmt.Printf("%-18s %-6s %-18s %-5s %s\n", "TYPE", "SLOT", "ATTACHED", "SIZE", "VALUES")
	fmt.Println(strings.Repeat("-", 80))
	for i, en := range res.Entries {
		attached := "-"
		if en.DrvOrConn != ses.ElemInvalid && en.DrvOrConnNum != ses.ElemIndexNone {
			attached = fmt.Sprintf("%s %d", en.DrvOrConn, en.DrvOrConnNum)
		}
		fmt.Printf("%-18s %-6d %-18s %-5d %+v\n", en.ElementType, en.SlotOrID, attached, en.Size(), out.Decoded[i])
	}
	fmt.Printf("\nCopied %s of %s", humanize.Bytes(uint64(res.BytesCopied)), humanize.Bytes(uint64(res.RequiredSize)))
	if res.Truncated {
		fmt.Printf(" (truncated, use --buffer %d)", res.RequiredSize)
	}
	fmt.Println()
	return nil
}
