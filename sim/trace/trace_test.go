package trace

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLog() *EventLog {
	l := NewEventLog()
	l.Append(Record{Customer: 1, Action: ActionArrival, Node: "cpu", Time: 1})
	l.Append(Record{Customer: 1, Action: ActionServiceStart, Node: "cpu", Time: 1})
	l.Append(Record{Customer: 2, Action: ActionArrival, Node: "cpu", Time: 1.5})
	l.Append(Record{Customer: 1, Action: ActionServiceFinish, Node: "cpu", Time: 2})
	l.Append(Record{Customer: 1, Action: ActionRouting, Node: "cpu", Time: 2, Destination: "disk"})
	return l
}

func TestIsValidAction(t *testing.T) {
	for _, a := range []string{"arrival", "service_start", "service_finish", "routing", "leave_system"} {
		assert.True(t, IsValidAction(a), a)
	}
	assert.False(t, IsValidAction("departure"))
	assert.False(t, IsValidAction(""))
}

func TestEventLog_AppendPreservesOrder(t *testing.T) {
	l := sampleLog()

	require.Equal(t, 5, l.Len())
	recs := l.Records()
	assert.Equal(t, ActionArrival, recs[0].Action)
	assert.Equal(t, int64(2), recs[2].Customer)
	assert.Equal(t, "disk", recs[4].Destination)
}

func TestEventLog_RecordsReturnsCopy(t *testing.T) {
	// GIVEN a log and a snapshot of its records
	l := sampleLog()
	snap := l.Records()

	// WHEN the snapshot is mutated
	snap[0].Node = "tampered"

	// THEN the log is unaffected
	assert.Equal(t, "cpu", l.Records()[0].Node)
}

func TestEventLog_ForCustomer(t *testing.T) {
	l := sampleLog()

	got := l.ForCustomer(1)
	require.Len(t, got, 4)
	actions := make([]Action, len(got))
	for i, r := range got {
		actions[i] = r.Action
	}
	assert.Equal(t, []Action{ActionArrival, ActionServiceStart, ActionServiceFinish, ActionRouting}, actions)
	assert.Empty(t, l.ForCustomer(99))
}

func TestEventLog_WriteJSONLines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleLog().WriteJSONLines(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)

	var first Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, Record{Customer: 1, Action: ActionArrival, Node: "cpu", Time: 1}, first)
	assert.NotContains(t, lines[0], "destination", "empty destination is omitted")
	assert.Contains(t, lines[4], `"destination":"disk"`)
}

func TestEventLog_WriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleLog().WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "customer,action,node,time,destination", lines[0])
	assert.Equal(t, "2,arrival,cpu,1.5,", lines[3])
	assert.Equal(t, "1,routing,cpu,2,disk", lines[5])
}

func TestEventLog_EmptyWritesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEventLog().WriteCSV(&buf))
	assert.Equal(t, "customer,action,node,time,destination\n", buf.String())
}
