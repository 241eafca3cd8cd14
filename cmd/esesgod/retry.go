package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigreer/esesgod/internal/eses"
)

var retryOpcodes opcodeListValue

var retryCmd = &cobra.Command{
	Use:   "retry <result>",
	Short: "Show how a command completion is handled",
	Long: `Show the retry decision for a command that completed with <result>,
for every opcode or the ones given with --opcode.

Results: ok, illegal_request, busy, cdb_request_failed, hardware_error,
unsupported_page_handled, encl_func_unsupported, parameter_invalid, ...

Examples:
  esesgod retry busy
  esesgod retry illegal_request --opcode mode_sense --retries 3`,
	Args: cobra.ExactArgs(1),
	RunE: runRetry,
}

func init() {
	retryCmd.Flags().Var(&retryOpcodes, "opcode", "opcode(s) to decide for, repeatable or comma separated")
	retryCmd.Flags().Int("retries", 0, "mode page retries already spent")
	retryCmd.Flags().Int("max-retries", 0, "mode page retry limit (default from config)")
	retryCmd.Flags().Bool("not-ready", false, "enclosure is not in the ready state")
	retryCmd.Flags().Int("fup-retries", 0, "firmware download retries already spent")
	retryCmd.Flags().Uint32("fup-bytes", 0, "firmware bytes already transferred")
}

type retryRow struct {
	Opcode   string        `json:"opcode"`
	Decision eses.Decision `json:"decision"`
}

func runRetry(cmd *cobra.Command, args []string) error {
	res, err := eses.ParseResult(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rc := eses.RetryContext{MaxRetries: cfg.Retry.MaxModeRetries, Ready: true}
	rc.RetryCount, _ = cmd.Flags().GetInt("retries")
	if n, _ := cmd.Flags().GetInt("max-retries"); n > 0 {
		rc.MaxRetries = n
	}
	if notReady, _ := cmd.Flags().GetBool("not-ready"); notReady {
		rc.Ready = false
	}
	rc.FupRetryCount, _ = cmd.Flags().GetInt("fup-retries")
	rc.FupBytesTransferred, _ = cmd.Flags().GetUint32("fup-bytes")

	ops := []eses.Opcode(retryOpcodes)
	if len(ops) == 0 {
		ops = eses.Opcodes()
	}

	rows := make([]retryRow, 0, len(ops))
	for _, op := range ops {
		rows = append(rows, retryRow{Opcode: op.String(), Decision: eses.Decide(op, res, rc)})
	}
	if wantJSON() {
		return printJSON(rows)
	}

	fmt.Printf("%-24s %-10s %s\n", "OPCODE", "ACTION", "EFFECTS")
	fmt.Println(strings.Repeat("-", 70))
	for _, r := range rows {
		fmt.Printf("%-24s %-10s %s\n", r.Opcode, r.Decision.Action, effects(r.Decision))
	}
	return nil
}

func effects(d eses.Decision) string {
	var out []string
	if d.MarkUnsupported {
		out = append(out, "mark page unsupported")
	}
	if d.DisableCapability {
		out = append(out, "disable capability")
	}
	if d.Rearm != 0 {
		out = append(out, "rearm "+d.Rearm.String())
	}
	if d.Symptom != 0 {
		out = append(out, "symptom "+d.Symptom.String())
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ", ")
}
