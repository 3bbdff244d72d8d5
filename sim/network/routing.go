package network

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/inference-sim/queuenet/sim/trace"
)

var (
	// ErrInvalidDecision is returned when a routing strategy yields neither Exit nor Forward.
	ErrInvalidDecision = errors.New("invalid routing decision")
	// ErrUnknownNode is returned when a customer is routed to a node that is not in the network.
	ErrUnknownNode = errors.New("unknown node")
)

type decisionKind int

const (
	decisionInvalid decisionKind = iota
	decisionExit
	decisionForward
)

// Decision is the outcome of a routing strategy: either the customer's journey
// ends (Exit) or it continues with a synchronous visit to another node (Forward).
// The zero Decision is invalid and aborts the run.
type Decision struct {
	kind   decisionKind
	target string
}

// Exit ends the customer's journey at the current node.
func Exit() Decision {
	return Decision{kind: decisionExit}
}

// Forward continues the journey at the named node. The current node's service
// process waits for the downstream visit to finish.
func Forward(node string) Decision {
	return Decision{kind: decisionForward, target: node}
}

// IsExit reports whether the decision ends the journey.
func (d Decision) IsExit() bool { return d.kind == decisionExit }

// Target returns the downstream node name for a Forward decision.
func (d Decision) Target() (string, bool) {
	return d.target, d.kind == decisionForward
}

func (d Decision) String() string {
	switch d.kind {
	case decisionExit:
		return "exit"
	case decisionForward:
		return "forward(" + d.target + ")"
	default:
		return "invalid"
	}
}

// RoutingStrategy decides a customer's next step after service at current.
// Implementations may record a routing entry through net.LogRouting.
type RoutingStrategy interface {
	Route(customer int64, current *Node, net *Network) (Decision, error)
}

// RoutingFunc adapts an ordinary function to the RoutingStrategy interface.
type RoutingFunc func(customer int64, current *Node, net *Network) (Decision, error)

// Route implements RoutingStrategy.
func (f RoutingFunc) Route(customer int64, current *Node, net *Network) (Decision, error) {
	return f(customer, current, net)
}

// ExitRouting logs a routing entry to "exit" and ends the journey.
type ExitRouting struct{}

// Route implements RoutingStrategy for ExitRouting.
func (ExitRouting) Route(customer int64, current *Node, net *Network) (Decision, error) {
	net.LogRouting(customer, current, trace.DestinationExit)
	return Exit(), nil
}

// AlwaysRouting sends every customer to the same node.
type AlwaysRouting struct {
	To string
}

// Route implements RoutingStrategy for AlwaysRouting.
func (a AlwaysRouting) Route(customer int64, current *Node, net *Network) (Decision, error) {
	net.LogRouting(customer, current, a.To)
	return Forward(a.To), nil
}

// Route is one weighted destination of a ProbabilisticRouting table.
type Route struct {
	To          string
	Probability float64
}

// ProbabilisticRouting picks a destination by weight. Whatever probability the
// table leaves unassigned is the chance of leaving the system.
type ProbabilisticRouting struct {
	routes []Route
	rng    *rand.Rand
}

// NewProbabilisticRouting validates routes and draws decisions from rng.
func NewProbabilisticRouting(routes []Route, rng *rand.Rand) (*ProbabilisticRouting, error) {
	total := 0.0
	for i, r := range routes {
		if r.To == "" {
			return nil, fmt.Errorf("route[%d]: destination is required", i)
		}
		if math.IsNaN(r.Probability) || r.Probability < 0 || r.Probability > 1 {
			return nil, fmt.Errorf("route[%d]: probability must be in [0, 1], got %f", i, r.Probability)
		}
		total += r.Probability
	}
	if total > 1+1e-9 {
		return nil, fmt.Errorf("route probabilities sum to %f, must be <= 1", total)
	}
	return &ProbabilisticRouting{routes: append([]Route(nil), routes...), rng: rng}, nil
}

// Route implements RoutingStrategy for ProbabilisticRouting.
// One uniform draw per decision; routes are scanned in table order.
func (pr *ProbabilisticRouting) Route(customer int64, current *Node, net *Network) (Decision, error) {
	u := pr.rng.Float64()
	cumulative := 0.0
	for _, r := range pr.routes {
		cumulative += r.Probability
		if u < cumulative {
			net.LogRouting(customer, current, r.To)
			return Forward(r.To), nil
		}
	}
	net.LogRouting(customer, current, trace.DestinationExit)
	return Exit(), nil
}
