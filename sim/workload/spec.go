package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// NetworkSpec is the top-level network configuration.
// Loaded from YAML via LoadNetworkSpec(path).
type NetworkSpec struct {
	Version              string     `yaml:"version"`
	Seed                 int64      `yaml:"seed"`
	Horizon              float64    `yaml:"horizon"`
	ReleaseBeforeRouting bool       `yaml:"release_before_routing,omitempty"`
	Nodes                []NodeSpec `yaml:"nodes"`
}

// NodeSpec defines a single queueing station.
type NodeSpec struct {
	Name    string       `yaml:"name"`
	Servers int          `yaml:"servers"`
	Arrival *DistSpec    `yaml:"arrival,omitempty"` // nil: node only receives routed customers
	Service DistSpec     `yaml:"service"`
	Routing *RoutingSpec `yaml:"routing,omitempty"` // nil: customers leave after service

	// ReleaseBeforeRouting overrides the network-wide setting for this node.
	ReleaseBeforeRouting *bool `yaml:"release_before_routing,omitempty"`
}

// DistSpec parameterizes a duration distribution.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// RoutingSpec configures a node's routing strategy.
type RoutingSpec struct {
	Policy string      `yaml:"policy"`
	To     string      `yaml:"to,omitempty"`     // "always" policy
	Routes []RouteSpec `yaml:"routes,omitempty"` // "probabilistic" policy
}

// RouteSpec is one weighted destination of a probabilistic routing table.
type RouteSpec struct {
	To          string  `yaml:"to"`
	Probability float64 `yaml:"probability"`
}

// Routing policy names.
const (
	PolicyExit          = "exit"
	PolicyAlways        = "always"
	PolicyProbabilistic = "probabilistic"
)

var validRoutingPolicies = map[string]bool{
	PolicyExit: true, PolicyAlways: true, PolicyProbabilistic: true,
}

// probabilityTolerance absorbs rounding in routing tables written by hand.
const probabilityTolerance = 1e-9

// LoadNetworkSpec reads and parses a YAML network specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadNetworkSpec(path string) (*NetworkSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network spec: %w", err)
	}
	return ParseNetworkSpec(data)
}

// ParseNetworkSpec parses a YAML network specification.
func ParseNetworkSpec(data []byte) (*NetworkSpec, error) {
	var spec NetworkSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing network spec: %w", err)
	}
	if spec.Version == "" {
		spec.Version = "1"
	}
	return &spec, nil
}

// ReleasesBeforeRouting reports the effective slot-release policy of node.
func (s *NetworkSpec) ReleasesBeforeRouting(node *NodeSpec) bool {
	if node.ReleaseBeforeRouting != nil {
		return *node.ReleaseBeforeRouting
	}
	return s.ReleaseBeforeRouting
}

// Validate checks that all fields in the spec are valid.
func (s *NetworkSpec) Validate() error {
	if s.Version != "1" {
		return fmt.Errorf("unsupported spec version %q; valid: 1", s.Version)
	}
	if err := validateFinitePositive("horizon", s.Horizon); err != nil {
		return err
	}
	if len(s.Nodes) == 0 {
		return fmt.Errorf("at least one node required")
	}
	names := make(map[string]bool, len(s.Nodes))
	for i, n := range s.Nodes {
		if n.Name == "" {
			return fmt.Errorf("node[%d]: name is required", i)
		}
		if names[n.Name] {
			return fmt.Errorf("node[%d]: duplicate name %q", i, n.Name)
		}
		names[n.Name] = true
	}
	hasArrivals := false
	for i := range s.Nodes {
		if err := validateNode(&s.Nodes[i], i, names); err != nil {
			return err
		}
		if s.Nodes[i].Arrival != nil {
			hasArrivals = true
		}
	}
	if !hasArrivals {
		logrus.Warnf("network spec has no node with an arrival distribution; the run will be empty")
	}
	return nil
}

func validateNode(n *NodeSpec, idx int, names map[string]bool) error {
	prefix := fmt.Sprintf("node[%d] %q", idx, n.Name)
	if n.Servers < 1 {
		return fmt.Errorf("%s: servers must be >= 1, got %d", prefix, n.Servers)
	}
	if n.Arrival != nil {
		if err := validateDistSpec(prefix+".arrival", n.Arrival); err != nil {
			return err
		}
		if n.Arrival.Type == "constant" && n.Arrival.Params["value"] <= 0 {
			return fmt.Errorf("%s.arrival: constant inter-arrival time must be positive, got %f", prefix, n.Arrival.Params["value"])
		}
	}
	if err := validateDistSpec(prefix+".service", &n.Service); err != nil {
		return err
	}
	if n.Service.Type == "constant" && n.Service.Params["value"] < 0 {
		return fmt.Errorf("%s.service: constant service time must be non-negative, got %f", prefix, n.Service.Params["value"])
	}
	if n.Routing != nil {
		if err := validateRouting(prefix+".routing", n.Routing, names); err != nil {
			return err
		}
	}
	return nil
}

func validateDistSpec(prefix string, d *DistSpec) error {
	for name, val := range d.Params {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("%s.params.%s must be a finite number, got %f", prefix, name, val)
		}
	}
	if err := CheckDistSpec(*d); err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	return nil
}

func validateRouting(prefix string, r *RoutingSpec, names map[string]bool) error {
	if !validRoutingPolicies[r.Policy] {
		return fmt.Errorf("%s: unknown policy %q; valid: exit, always, probabilistic", prefix, r.Policy)
	}
	switch r.Policy {
	case PolicyAlways:
		if !names[r.To] {
			return fmt.Errorf("%s: destination %q is not a node", prefix, r.To)
		}
	case PolicyProbabilistic:
		if len(r.Routes) == 0 {
			return fmt.Errorf("%s: probabilistic policy requires at least one route", prefix)
		}
		total := 0.0
		for i, route := range r.Routes {
			if !names[route.To] {
				return fmt.Errorf("%s.routes[%d]: destination %q is not a node", prefix, i, route.To)
			}
			if math.IsNaN(route.Probability) || route.Probability < 0 || route.Probability > 1 {
				return fmt.Errorf("%s.routes[%d]: probability must be in [0, 1], got %f", prefix, i, route.Probability)
			}
			total += route.Probability
		}
		if total > 1+probabilityTolerance {
			return fmt.Errorf("%s: route probabilities sum to %f, must be <= 1", prefix, total)
		}
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}
