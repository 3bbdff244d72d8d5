package trace

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// EventLog is the append-only, emission-ordered log of a run.
type EventLog struct {
	records []Record
}

// NewEventLog creates an empty EventLog ready for recording.
func NewEventLog() *EventLog {
	return &EventLog{records: make([]Record, 0)}
}

// Append adds a record at the end of the log.
func (l *EventLog) Append(record Record) {
	l.records = append(l.records, record)
}

// Len returns the number of records.
func (l *EventLog) Len() int {
	return len(l.records)
}

// Records returns a copy of all records in emission order.
func (l *EventLog) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// ForCustomer returns the records of one customer in emission order.
func (l *EventLog) ForCustomer(customer int64) []Record {
	var out []Record
	for _, r := range l.records {
		if r.Customer == customer {
			out = append(out, r)
		}
	}
	return out
}

// WriteJSONLines writes one JSON object per record.
func (l *EventLog) WriteJSONLines(w io.Writer) error {
	enc := json.NewEncoder(w)
	for i, r := range l.records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
	}
	return nil
}

var csvHeader = []string{"customer", "action", "node", "time", "destination"}

// WriteCSV writes the log as CSV with a header row.
func (l *EventLog) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i, r := range l.records {
		row := []string{
			strconv.FormatInt(r.Customer, 10),
			string(r.Action),
			r.Node,
			strconv.FormatFloat(r.Time, 'g', -1, 64),
			r.Destination,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
