package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/queuenet/sim/trace"
)

func TestPrintSummary_Table(t *testing.T) {
	// GIVEN a summary with one routing node
	s := &trace.Summary{
		TotalRecords:   9,
		TotalCustomers: 2,
		LastEventTime:  4.5,
		Nodes: []trace.NodeSummary{
			{Node: "front", Arrivals: 2, ServiceStarts: 2, ServiceFinish: 2, Routed: map[string]int{"exit": 1, "back": 1}, MeanWait: 0.25, MaxWait: 0.5, P95Wait: 0.5},
		},
	}

	// WHEN printed as a table without color
	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, s, "table", false))

	// THEN the banner, totals, header and node row are present
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, summaryBanner, lines[0])
	assert.Equal(t, "records=9 customers=2 last_event=4.5", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "NODE"))
	assert.Contains(t, lines[4], "front")
	assert.Contains(t, lines[4], "0.2500")
	assert.True(t, strings.HasSuffix(lines[4], "back:1 exit:1"))
}

func TestPrintSummary_UnknownFormat(t *testing.T) {
	err := printSummary(&bytes.Buffer{}, &trace.Summary{}, "xml", false)
	assert.ErrorContains(t, err, "unknown summary format")
}

func TestFormatRouted(t *testing.T) {
	assert.Equal(t, "-", formatRouted(nil))
	assert.Equal(t, "a:2 b:1 exit:4", formatRouted(map[string]int{"exit": 4, "b": 1, "a": 2}))
}
