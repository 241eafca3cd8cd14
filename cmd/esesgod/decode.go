package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigreer/esesgod/internal/edal"
	"github.com/sigreer/esesgod/internal/eses"
	"github.com/sigreer/esesgod/internal/lifecycle"
	"github.com/sigreer/esesgod/internal/ses"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode the enclosure status page",
	Long: `Decode the enclosure status page (0x02) into component state.

Each pass is stored in the database (unless --no-db), and the metrics
textfile is rewritten when metrics.textfile is configured. With --count
the page is read and decoded repeatedly, which is how LCC faults get past
the debounce window.

Examples:
  esesgod decode -d /dev/sg3
  esesgod decode --config-page cfg.bin --status-page status.bin --json
  esesgod decode -d /dev/sg3 --count 0 --interval 10s   # until interrupted`,
	RunE: runDecode,
}

func init() {
	addPageFlags(decodeCmd, "status-page", "status page (0x02)")
	decodeCmd.Flags().Bool("no-db", false, "Do not record the pass in the database")
	decodeCmd.Flags().Int("count", 1, "Number of passes, 0 for no limit")
	decodeCmd.Flags().Duration("interval", 5*time.Second, "Time between passes")
	decodeCmd.Flags().Bool("components", true, "Print the component table")
}

type decodeOutput struct {
	Pass       *eses.PassResult         `json:"pass"`
	State      string                   `json:"state"`
	Pending    []string                 `json:"pending,omitempty"`
	Symptoms   []lifecycle.FaultSymptom `json:"symptoms,omitempty"`
	Decision   *eses.Decision           `json:"decision,omitempty"`
	Components []edal.Component         `json:"components,omitempty"`
}

func runDecode(cmd *cobra.Command, args []string) error {
	noDB, _ := cmd.Flags().GetBool("no-db")
	count, _ := cmd.Flags().GetInt("count")
	interval, _ := cmd.Flags().GetDuration("interval")
	showComponents, _ := cmd.Flags().GetBool("components")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cmd, !noDB)
	if err != nil {
		return err
	}
	defer s.Close()

	var lastErr error
	for n := 1; ; n++ {
		out, err := s.decodeOnce(ctx, cmd)
		lastErr = err
		if out != nil {
			if !showComponents {
				out.Components = nil
			}
			if wantJSON() {
				if err := printJSON(out); err != nil {
					return err
				}
			} else {
				printDecode(out)
			}
		}
		if count > 0 && n >= count {
			break
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(interval):
		}
		// the status page may be cached for a short while
		ses.InvalidatePages(s.device)
	}
	return lastErr
}

func (s *session) decodeOnce(ctx context.Context, cmd *cobra.Command) (*decodeOutput, error) {
	page, err := readPage(ctx, cmd, s.device, "status-page", ses.PageEnclosureStatus)
	if err != nil {
		d := s.enc.DecideRetry(eses.OpGetEnclosureStatus, err)
		s.log.Warn("reading status page", slog.Any("error", err),
			slog.String("result", d.Result.String()), slog.String("action", d.Action.String()))
		return nil, err
	}

	res, err := s.enc.DecodeStatusPage(ctx, page)
	out := &decodeOutput{Pass: res}
	if err != nil {
		d := s.enc.DecideRetry(eses.OpGetEnclosureStatus, err)
		out.Decision = &d
	}
	s.writeMetrics()

	out.State = s.rec.State().String()
	for _, c := range s.rec.Drain() {
		out.Pending = append(out.Pending, c.String())
	}
	out.Symptoms = s.rec.Symptoms()
	out.Components = s.enc.Store().Snapshot()
	return out, err
}

func printDecode(out *decodeOutput) {
	res := out.Pass
	fmt.Printf("Pass %s  gen %d  %s  %d changes\n",
		res.ID, res.GenCode, res.Duration.Round(time.Microsecond), len(res.Changes))
	if res.Error != "" {
		fmt.Printf("Error: %s\n", res.Error)
	}
	if out.Decision != nil {
		fmt.Printf("Decision: %s -> %s\n", out.Decision.Result, out.Decision.Action)
	}

	if len(res.Changes) > 0 {
		fmt.Println()
		fmt.Printf("%-14s %-5s %-28s %s\n", "COMPONENT", "INDEX", "ATTRIBUTE", "CHANGE")
		fmt.Println(strings.Repeat("-", 70))
		for _, c := range res.Changes {
			fmt.Printf("%-14s %-5d %-28s %v -> %v\n", c.Type, c.Index, c.Attr, c.Old, c.New)
		}
	}

	if len(out.Components) > 0 {
		fmt.Println()
		fmt.Printf("%-14s %-5s %s\n", "COMPONENT", "INDEX", "STATE")
		fmt.Println(strings.Repeat("-", 70))
		for _, c := range out.Components {
			fmt.Printf("%-14s %-5d %s\n", c.Type, c.Index, formatAttrs(c.Attrs))
		}
	}

	fmt.Println()
	fmt.Printf("State: %s\n", out.State)
	if len(out.Pending) > 0 {
		fmt.Printf("Pending: %s\n", strings.Join(out.Pending, ", "))
	}
	for _, fs := range out.Symptoms {
		fmt.Printf("Symptom: %s %s %d (%s)\n", fs.Symptom, fs.Component, fs.Index, fs.Detail)
	}
}

// formatAttrs renders the set attributes as sorted key=value pairs. False
// and zero values are left out.
func formatAttrs(attrs map[string]any) string {
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		switch v := attrs[k].(type) {
		case bool:
			if v {
				parts = append(parts, k)
			}
		case uint8:
			if v != 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", k, v))
			}
		case uint64:
			if v != 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", k, v))
			}
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
