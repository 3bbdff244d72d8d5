package network

import (
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/queuenet/sim"
	"github.com/inference-sim/queuenet/sim/workload"
)

// Build validates spec and assembles a Network on a fresh Simulator.
// Each node draws from its own RNG subsystems derived from spec.Seed, so the
// same spec always yields the same event log.
func Build(spec *workload.NetworkSpec) (*Network, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid network spec: %w", err)
	}
	s := sim.NewSimulator()
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed))

	nodes := make([]*Node, 0, len(spec.Nodes))
	for i := range spec.Nodes {
		ns := &spec.Nodes[i]
		cfg := NodeConfig{
			Name:                 ns.Name,
			Servers:              ns.Servers,
			ReleaseBeforeRouting: spec.ReleasesBeforeRouting(ns),
		}
		var err error
		if ns.Arrival != nil {
			cfg.InterArrival, err = workload.NewDistribution(*ns.Arrival, rng.ForSubsystem(sim.SubsystemArrival(ns.Name)))
			if err != nil {
				return nil, fmt.Errorf("node %q arrival: %w", ns.Name, err)
			}
		}
		cfg.Service, err = workload.NewDistribution(ns.Service, rng.ForSubsystem(sim.SubsystemService(ns.Name)))
		if err != nil {
			return nil, fmt.Errorf("node %q service: %w", ns.Name, err)
		}
		if ns.Routing != nil {
			cfg.Routing, err = newRoutingStrategy(ns.Routing, rng.ForSubsystem(sim.SubsystemRouting(ns.Name)))
			if err != nil {
				return nil, fmt.Errorf("node %q routing: %w", ns.Name, err)
			}
		}
		n, err := NewNode(s, cfg)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
		logrus.Debugf("built node %q: servers=%d release_before_routing=%v", ns.Name, ns.Servers, cfg.ReleaseBeforeRouting)
	}
	return New(s, nodes...)
}

func newRoutingStrategy(spec *workload.RoutingSpec, rng *rand.Rand) (RoutingStrategy, error) {
	switch spec.Policy {
	case workload.PolicyExit:
		return ExitRouting{}, nil
	case workload.PolicyAlways:
		return AlwaysRouting{To: spec.To}, nil
	case workload.PolicyProbabilistic:
		routes := make([]Route, len(spec.Routes))
		for i, r := range spec.Routes {
			routes[i] = Route{To: r.To, Probability: r.Probability}
		}
		return NewProbabilisticRouting(routes, rng)
	default:
		return nil, fmt.Errorf("unknown routing policy %q", spec.Policy)
	}
}
