package trace

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// NodeSummary aggregates the records of one node.
type NodeSummary struct {
	Node           string         `json:"node"`
	Arrivals       int            `json:"arrivals"`
	ServiceStarts  int            `json:"service_starts"`
	ServiceFinish  int            `json:"service_finishes"`
	Departures     int            `json:"departures"`
	Routed         map[string]int `json:"routed,omitempty"` // destination → count
	MeanWait       float64        `json:"mean_wait"`
	MaxWait        float64        `json:"max_wait"`
	P95Wait        float64        `json:"p95_wait"`
	WaitingSamples int            `json:"waiting_samples"`
}

// Summary aggregates statistics from an event log.
type Summary struct {
	TotalRecords   int           `json:"total_records"`
	TotalCustomers int           `json:"total_customers"`
	LastEventTime  float64       `json:"last_event_time"`
	Nodes          []NodeSummary `json:"nodes"` // in order of first appearance
}

type visitKey struct {
	customer int64
	node     string
}

// Summarize computes per-node statistics from records in emission order.
// A visit's waiting time is its service_start time minus its arrival time;
// visits still waiting when the log ends contribute no sample.
// Safe for nil or empty input (returns zero-value fields).
func Summarize(records []Record) *Summary {
	summary := &Summary{Nodes: make([]NodeSummary, 0)}
	index := make(map[string]int)
	waits := make(map[string][]float64)
	pending := make(map[visitKey][]float64) // arrival times not yet matched by a service_start
	customers := make(map[int64]bool)

	nodeFor := func(name string) *NodeSummary {
		i, ok := index[name]
		if !ok {
			i = len(summary.Nodes)
			index[name] = i
			summary.Nodes = append(summary.Nodes, NodeSummary{Node: name})
		}
		return &summary.Nodes[i]
	}

	for _, r := range records {
		summary.TotalRecords++
		customers[r.Customer] = true
		if r.Time > summary.LastEventTime {
			summary.LastEventTime = r.Time
		}
		ns := nodeFor(r.Node)
		key := visitKey{customer: r.Customer, node: r.Node}
		switch r.Action {
		case ActionArrival:
			ns.Arrivals++
			pending[key] = append(pending[key], r.Time)
		case ActionServiceStart:
			ns.ServiceStarts++
			if q := pending[key]; len(q) > 0 {
				waits[r.Node] = append(waits[r.Node], r.Time-q[0])
				pending[key] = q[1:]
			}
		case ActionServiceFinish:
			ns.ServiceFinish++
		case ActionLeaveSystem:
			ns.Departures++
		case ActionRouting:
			if ns.Routed == nil {
				ns.Routed = make(map[string]int)
			}
			ns.Routed[r.Destination]++
		}
	}
	summary.TotalCustomers = len(customers)

	for i := range summary.Nodes {
		ns := &summary.Nodes[i]
		w := waits[ns.Node]
		ns.WaitingSamples = len(w)
		if len(w) == 0 {
			continue
		}
		ns.MeanWait = stat.Mean(w, nil)
		sorted := slices.Clone(w)
		slices.Sort(sorted)
		ns.MaxWait = sorted[len(sorted)-1]
		ns.P95Wait = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	}
	return summary
}

// WaitTimes returns every completed waiting time at node, in service_start order.
func WaitTimes(records []Record, node string) []float64 {
	pending := make(map[int64][]float64)
	var out []float64
	for _, r := range records {
		if r.Node != node {
			continue
		}
		switch r.Action {
		case ActionArrival:
			pending[r.Customer] = append(pending[r.Customer], r.Time)
		case ActionServiceStart:
			if q := pending[r.Customer]; len(q) > 0 {
				out = append(out, r.Time-q[0])
				pending[r.Customer] = q[1:]
			}
		}
	}
	return out
}
