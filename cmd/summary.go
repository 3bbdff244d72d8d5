package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/inference-sim/queuenet/sim/trace"
)

const summaryBanner = "=== Simulation Summary ==="

// printSummary writes the run summary in the requested format (json or table).
func printSummary(w io.Writer, s *trace.Summary, format string, useColor bool) error {
	banner := color.New(color.FgCyan, color.Bold)
	if !useColor {
		banner.DisableColor()
	}
	banner.Fprintln(w, summaryBanner)

	switch format {
	case "json":
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	case "table":
		return printSummaryTable(w, s)
	default:
		return fmt.Errorf("unknown summary format %q; valid: json, table", format)
	}
}

func printSummaryTable(w io.Writer, s *trace.Summary) error {
	fmt.Fprintf(w, "records=%d customers=%d last_event=%g\n", s.TotalRecords, s.TotalCustomers, s.LastEventTime)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tARRIVALS\tSTARTED\tFINISHED\tLEFT\tMEAN WAIT\tP95 WAIT\tMAX WAIT\tROUTED")
	fmt.Fprintln(tw, "----\t--------\t-------\t--------\t----\t---------\t--------\t--------\t------")
	for _, n := range s.Nodes {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.4f\t%.4f\t%.4f\t%s\n",
			n.Node, n.Arrivals, n.ServiceStarts, n.ServiceFinish, n.Departures,
			n.MeanWait, n.P95Wait, n.MaxWait, formatRouted(n.Routed))
	}
	return tw.Flush()
}

// formatRouted renders destination counts as "a:3 exit:1" in name order.
func formatRouted(routed map[string]int) string {
	if len(routed) == 0 {
		return "-"
	}
	dests := make([]string, 0, len(routed))
	for d := range routed {
		dests = append(dests, d)
	}
	sort.Strings(dests)
	parts := make([]string, len(dests))
	for i, d := range dests {
		parts[i] = fmt.Sprintf("%s:%d", d, routed[d])
	}
	return strings.Join(parts, " ")
}
