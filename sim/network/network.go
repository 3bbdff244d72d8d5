// Package network assembles queueing stations into a network: nodes with their
// server pools, arrival and service processes, routing strategies and the event log.
package network

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/queuenet/sim"
	"github.com/inference-sim/queuenet/sim/trace"
)

// ErrAlreadyStarted is returned when arrivals are started twice.
var ErrAlreadyStarted = errors.New("arrivals already started")

// Network owns a set of nodes, the customer id counter and the event log.
// It is driven by a single Simulator; every method is meant to be called either
// before the run or from inside simulation processes, never concurrently.
type Network struct {
	sim             *sim.Simulator
	nodes           []*Node
	byName          map[string]*Node
	customerCounter int64
	events          *trace.EventLog
	started         bool
}

// New creates a network over nodes. Node names must be unique and each node
// can belong to one network only.
func New(s *sim.Simulator, nodes ...*Node) (*Network, error) {
	net := &Network{
		sim:    s,
		nodes:  make([]*Node, 0, len(nodes)),
		byName: make(map[string]*Node, len(nodes)),
		events: trace.NewEventLog(),
	}
	for _, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("%w: nil node", ErrInvalidNode)
		}
		if _, dup := net.byName[n.name]; dup {
			return nil, fmt.Errorf("%w: duplicate node name %q", ErrInvalidNode, n.name)
		}
		if n.net != nil {
			return nil, fmt.Errorf("%w: node %q already belongs to a network", ErrInvalidNode, n.name)
		}
		if n.sim != s {
			return nil, fmt.Errorf("%w: node %q is driven by a different simulator", ErrInvalidNode, n.name)
		}
		net.byName[n.name] = n
		net.nodes = append(net.nodes, n)
	}
	for _, n := range net.nodes {
		n.net = net
	}
	return net, nil
}

// Simulator returns the simulator driving the network.
func (net *Network) Simulator() *sim.Simulator { return net.sim }

// Now returns the current virtual time.
func (net *Network) Now() float64 { return net.sim.Now() }

// Nodes returns the nodes in insertion order.
func (net *Network) Nodes() []*Node {
	out := make([]*Node, len(net.nodes))
	copy(out, net.nodes)
	return out
}

// Node looks a node up by name.
func (net *Network) Node(name string) (*Node, bool) {
	n, ok := net.byName[name]
	return n, ok
}

// Log appends a record to the event log.
func (net *Network) Log(record trace.Record) {
	net.events.Append(record)
}

// LogRouting records a routing decision of customer at node towards destination
// (a node name or trace.DestinationExit) at the current time.
func (net *Network) LogRouting(customer int64, node *Node, destination string) {
	net.Log(trace.Record{
		Customer:    customer,
		Action:      trace.ActionRouting,
		Node:        node.name,
		Time:        net.sim.Now(),
		Destination: destination,
	})
}

// NextCustomerID returns the next customer id: 1, 2, 3, ...
func (net *Network) NextCustomerID() int64 {
	net.customerCounter++
	return net.customerCounter
}

// CustomersCreated returns how many customer ids have been handed out.
func (net *Network) CustomersCreated() int64 {
	return net.customerCounter
}

// Events returns the event log.
func (net *Network) Events() *trace.EventLog {
	return net.events
}

// StartArrivals spawns one arrival-generation process per node that has an
// inter-arrival distribution, in node order. Must be called exactly once.
func (net *Network) StartArrivals() error {
	if net.started {
		return ErrAlreadyStarted
	}
	net.started = true
	for _, n := range net.nodes {
		if n.interArrival == nil {
			logrus.Debugf("node %q has no inter-arrival distribution; routed traffic only", n.name)
			continue
		}
		net.sim.Spawn("arrivals/"+n.name, n.generate)
	}
	return nil
}

// Run starts arrivals on first use and advances the simulation to until.
// It can be called again with a later end time to continue the run.
func (net *Network) Run(until float64) error {
	if !net.started {
		if err := net.StartArrivals(); err != nil {
			return err
		}
	}
	logrus.Infof("running network of %d nodes until t=%v", len(net.nodes), until)
	if err := net.sim.Run(until); err != nil {
		return fmt.Errorf("network run: %w", err)
	}
	logrus.Infof("network paused at t=%v: %d customers, %d events", net.sim.Now(), net.customerCounter, net.events.Len())
	return nil
}

// Close discards all in-flight customers. Their partial journeys stay in the
// event log as they are; nothing more is recorded for them.
func (net *Network) Close() {
	net.sim.Stop()
}

// Summary aggregates the event log per node.
func (net *Network) Summary() *trace.Summary {
	return trace.Summarize(net.events.Records())
}
