package network

import (
	"errors"
	"fmt"
	"math"

	"github.com/inference-sim/queuenet/sim"
	"github.com/inference-sim/queuenet/sim/trace"
	"github.com/inference-sim/queuenet/sim/workload"
)

var (
	// ErrInvalidNode is returned for a node configuration that cannot be built.
	ErrInvalidNode = errors.New("invalid node configuration")
	// ErrInvalidSample is returned when a distribution yields a negative or non-finite duration.
	ErrInvalidSample = errors.New("invalid distribution sample")
)

// NodeConfig holds the parameters of a queueing station.
type NodeConfig struct {
	Name    string
	Servers int
	// InterArrival drives external arrivals. Nil means the node only receives
	// customers routed from other nodes.
	InterArrival workload.Distribution
	Service      workload.Distribution
	// Routing decides where customers go after service. Nil means every customer
	// leaves the system after service.
	Routing RoutingStrategy
	// ReleaseBeforeRouting frees the server slot as soon as service finishes instead
	// of holding it until routing (including any downstream visit) completes.
	ReleaseBeforeRouting bool
}

// Node is a multi-server queueing station.
type Node struct {
	name                 string
	sim                  *sim.Simulator
	servers              *sim.ServerPool
	interArrival         workload.Distribution
	service              workload.Distribution
	routing              RoutingStrategy
	releaseBeforeRouting bool
	net                  *Network
}

// NewNode creates a node whose server pool is driven by s.
func NewNode(s *sim.Simulator, cfg NodeConfig) (*Node, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidNode)
	}
	if cfg.Service == nil {
		return nil, fmt.Errorf("%w: node %q has no service distribution", ErrInvalidNode, cfg.Name)
	}
	pool, err := sim.NewServerPool(s, cfg.Name, cfg.Servers)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNode, err)
	}
	return &Node{
		name:                 cfg.Name,
		sim:                  s,
		servers:              pool,
		interArrival:         cfg.InterArrival,
		service:              cfg.Service,
		routing:              cfg.Routing,
		releaseBeforeRouting: cfg.ReleaseBeforeRouting,
	}, nil
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Servers returns the node's server pool.
func (n *Node) Servers() *sim.ServerPool { return n.servers }

// Network returns the network the node belongs to, or nil.
func (n *Node) Network() *Network { return n.net }

// Visit spawns the service process of customer at this node.
// Panics if the node is not part of a network.
func (n *Node) Visit(customer int64) *sim.Process {
	if n.net == nil {
		panic(fmt.Sprintf("network: node %q visited before being added to a network", n.name))
	}
	return n.sim.Spawn(fmt.Sprintf("%s/customer-%d", n.name, customer), func(p *sim.Process) error {
		return n.serve(p, customer)
	})
}

// generate is the arrival-generation process: it never returns on its own.
func (n *Node) generate(p *sim.Process) error {
	for {
		iat, err := n.sample(n.interArrival, "inter-arrival")
		if err != nil {
			return err
		}
		if err := p.Wait(iat); err != nil {
			return err
		}
		n.Visit(n.net.NextCustomerID())
	}
}

// serve runs one customer through this node:
// arrival → acquire → service_start → service → service_finish → routing → release.
func (n *Node) serve(p *sim.Process, customer int64) error {
	n.record(customer, trace.ActionArrival)

	n.servers.Acquire(p)
	held := true
	defer func() {
		if held {
			n.servers.Release()
		}
	}()

	n.record(customer, trace.ActionServiceStart)
	d, err := n.sample(n.service, "service")
	if err != nil {
		return err
	}
	if err := p.Wait(d); err != nil {
		return err
	}
	n.record(customer, trace.ActionServiceFinish)

	if n.releaseBeforeRouting {
		n.servers.Release()
		held = false
	}
	return n.route(p, customer)
}

// route applies the routing strategy and, for a forward decision, runs the
// downstream visit to completion before returning.
func (n *Node) route(p *sim.Process, customer int64) error {
	if n.routing == nil {
		n.record(customer, trace.ActionLeaveSystem)
		return nil
	}
	decision, err := n.routing.Route(customer, n, n.net)
	if err != nil {
		return fmt.Errorf("routing customer %d at %q: %w", customer, n.name, err)
	}
	switch decision.kind {
	case decisionExit:
		return nil
	case decisionForward:
		next, ok := n.net.Node(decision.target)
		if !ok {
			return fmt.Errorf("%w: %q routed customer %d to %q", ErrUnknownNode, n.name, customer, decision.target)
		}
		return p.Join(next.Visit(customer))
	default:
		return fmt.Errorf("%w: %q returned %v for customer %d", ErrInvalidDecision, n.name, decision, customer)
	}
}

func (n *Node) sample(d workload.Distribution, what string) (float64, error) {
	v := d.Sample(workload.SampleContext{Node: n.name, Now: n.sim.Now()})
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: node %q drew %s time %v", ErrInvalidSample, n.name, what, v)
	}
	return v, nil
}

func (n *Node) record(customer int64, action trace.Action) {
	n.net.Log(trace.Record{
		Customer: customer,
		Action:   action,
		Node:     n.name,
		Time:     n.sim.Now(),
	})
}
