package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sigreer/esesgod/internal/db"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent decode passes, transitions and fault symptoms",
	Long: `Show the decode history kept in the database.

Examples:
  esesgod events
  esesgod events --pass 6f1c...        # changes of one pass
  esesgod events --component drive_slot:3`,
	RunE: runEvents,
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show and manage alerts",
	RunE:  runAlerts,
}

func init() {
	eventsCmd.Flags().Int("limit", 20, "Maximum number of rows per table")
	eventsCmd.Flags().String("pass", "", "Show the transitions of one pass")
	eventsCmd.Flags().String("component", "", "Show the history of one component, TYPE:INDEX")

	alertsCmd.Flags().Bool("ack-all", false, "Acknowledge all alerts")
	alertsCmd.Flags().Int64("ack", 0, "Acknowledge specific alert by ID")
	alertsCmd.Flags().Bool("all", false, "Include acknowledged alerts")
	alertsCmd.Flags().String("severity", "", "Filter by severity (info, warning, critical)")
	alertsCmd.Flags().String("category", "", "Filter by category")
	alertsCmd.Flags().Int("limit", 50, "Maximum number of alerts to show")
	alertsCmd.Flags().Duration("prune", 0, "Delete acknowledged alerts older than this")
}

func openDB() (*db.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return db.New(cfg.Database.Path)
}

type eventsOutput struct {
	Passes      []*db.PassRecord    `json:"passes,omitempty"`
	Transitions []*db.Transition    `json:"transitions,omitempty"`
	Symptoms    []*db.SymptomRecord `json:"symptoms,omitempty"`
}

func runEvents(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	passID, _ := cmd.Flags().GetString("pass")
	component, _ := cmd.Flags().GetString("component")

	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	var out eventsOutput
	switch {
	case passID != "":
		out.Transitions, err = database.GetPassTransitions(passID)
	case component != "":
		typ, idx, perr := parseComponent(component)
		if perr != nil {
			return perr
		}
		out.Transitions, err = database.GetComponentTransitions(typ, idx, limit)
	default:
		if out.Passes, err = database.GetRecentPasses(limit); err != nil {
			return err
		}
		if out.Transitions, err = database.GetRecentTransitions(limit); err != nil {
			return err
		}
		out.Symptoms, err = database.GetRecentSymptoms(limit)
	}
	if err != nil {
		return err
	}

	if wantJSON() {
		return printJSON(out)
	}
	if len(out.Passes)+len(out.Transitions)+len(out.Symptoms) == 0 {
		fmt.Println("No events found.")
		return nil
	}

	if len(out.Passes) > 0 {
		fmt.Printf("%-36s %-14s %-10s %-5s %-8s %s\n", "PASS", "WHEN", "DEVICE", "GEN", "CHANGES", "ERROR")
		fmt.Println(strings.Repeat("-", 100))
		for _, p := range out.Passes {
			fmt.Printf("%-36s %-14s %-10s %-5d %-8d %s\n",
				p.ID, humanize.Time(p.Started), orDash(p.Device), p.GenCode, p.Changes, orDash(p.Error))
		}
		fmt.Println()
	}

	if len(out.Transitions) > 0 {
		fmt.Printf("%-20s %-14s %-5s %-28s %s\n", "TIMESTAMP", "COMPONENT", "INDEX", "ATTRIBUTE", "CHANGE")
		fmt.Println(strings.Repeat("-", 90))
		for _, t := range out.Transitions {
			fmt.Printf("%-20s %-14s %-5d %-28s %s -> %s\n",
				t.Timestamp.Local().Format(time.DateTime), t.ComponentType, t.ComponentIndex,
				t.Attribute, t.OldValue, t.NewValue)
		}
		fmt.Println()
	}

	if len(out.Symptoms) > 0 {
		fmt.Printf("%-20s %-24s %-14s %-6s %s\n", "TIMESTAMP", "SYMPTOM", "COMPONENT", "INDEX", "DETAIL")
		fmt.Println(strings.Repeat("-", 80))
		for _, s := range out.Symptoms {
			fmt.Printf("%-20s %-24s %-14s %-6d %s\n",
				s.Timestamp.Local().Format(time.DateTime), s.Symptom, orDash(s.Component), s.ComponentIndex, orDash(s.Detail))
		}
	}
	return nil
}

// parseComponent splits "drive_slot:3".
func parseComponent(s string) (string, int, error) {
	typ, idx, ok := strings.Cut(s, ":")
	if !ok || typ == "" {
		return "", 0, fmt.Errorf("component %q: want TYPE:INDEX", s)
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return "", 0, fmt.Errorf("component %q: bad index", s)
	}
	return typ, n, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func runAlerts(cmd *cobra.Command, args []string) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	ackAll, _ := cmd.Flags().GetBool("ack-all")
	ackID, _ := cmd.Flags().GetInt64("ack")
	prune, _ := cmd.Flags().GetDuration("prune")

	if ackAll {
		count, err := database.AcknowledgeAllAlerts()
		if err != nil {
			return err
		}
		fmt.Printf("Acknowledged %d alerts\n", count)
		return nil
	}
	if ackID > 0 {
		if err := database.AcknowledgeAlert(ackID); err != nil {
			return err
		}
		fmt.Printf("Acknowledged alert %d\n", ackID)
		return nil
	}
	if prune > 0 {
		count, err := database.DeleteOldAlerts(prune)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d alerts\n", count)
		return nil
	}

	all, _ := cmd.Flags().GetBool("all")
	severity, _ := cmd.Flags().GetString("severity")
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")

	var alerts []*db.Alert
	switch {
	case category != "":
		alerts, err = database.GetAlertsByCategory(category, limit)
	case all || severity != "":
		alerts, err = database.GetAlerts(severity, limit)
	default:
		alerts, err = database.GetUnacknowledgedAlerts()
	}
	if err != nil {
		return err
	}

	if wantJSON() {
		return printJSON(alerts)
	}

	total, unacked, critical, warning, err := database.AlertCount()
	if err != nil {
		return err
	}
	fmt.Printf("%d alerts, %d unacknowledged (%d critical, %d warning)\n\n", total, unacked, critical, warning)
	if len(alerts) == 0 {
		fmt.Println("No alerts.")
		return nil
	}

	fmt.Printf("%-5s %-10s %-18s %-16s %-14s %s\n", "ID", "SEVERITY", "CATEGORY", "COMPONENT", "WHEN", "MESSAGE")
	fmt.Println(strings.Repeat("-", 90))
	for _, a := range alerts {
		comp := "-"
		if a.ComponentType != "" && a.ComponentIndex != nil {
			comp = fmt.Sprintf("%s:%d", a.ComponentType, *a.ComponentIndex)
		}
		fmt.Printf("%-5d %-10s %-18s %-16s %-14s %s\n",
			a.ID, strings.ToUpper(a.Severity), a.Category, comp, humanize.Time(a.Timestamp), a.Message)
	}
	return nil
}
