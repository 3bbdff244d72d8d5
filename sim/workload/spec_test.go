package workload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tandemYAML = `
version: "1"
seed: 7
horizon: 100
release_before_routing: true
nodes:
  - name: cpu
    servers: 2
    arrival:
      type: exponential
      params: {rate: 1.5}
    service:
      type: constant
      params: {value: 0.5}
    routing:
      policy: probabilistic
      routes:
        - {to: disk, probability: 0.3}
        - {to: cpu, probability: 0.2}
  - name: disk
    servers: 1
    service:
      type: uniform
      params: {min: 0.1, max: 0.4}
    release_before_routing: false
`

func writeSpec(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadNetworkSpec_ValidYAML_LoadsCorrectly(t *testing.T) {
	spec, err := LoadNetworkSpec(writeSpec(t, tandemYAML))
	require.NoError(t, err)
	require.NoError(t, spec.Validate())

	assert.Equal(t, "1", spec.Version)
	assert.Equal(t, int64(7), spec.Seed)
	assert.Equal(t, 100.0, spec.Horizon)
	require.Len(t, spec.Nodes, 2)

	cpu := spec.Nodes[0]
	assert.Equal(t, "cpu", cpu.Name)
	assert.Equal(t, 2, cpu.Servers)
	require.NotNil(t, cpu.Arrival)
	assert.Equal(t, 1.5, cpu.Arrival.Params["rate"])
	require.NotNil(t, cpu.Routing)
	assert.Equal(t, PolicyProbabilistic, cpu.Routing.Policy)
	assert.Equal(t, []RouteSpec{{To: "disk", Probability: 0.3}, {To: "cpu", Probability: 0.2}}, cpu.Routing.Routes)

	disk := spec.Nodes[1]
	assert.Nil(t, disk.Arrival)
	assert.Nil(t, disk.Routing)
}

func TestReleasesBeforeRouting_NodeOverridesNetwork(t *testing.T) {
	spec, err := ParseNetworkSpec([]byte(tandemYAML))
	require.NoError(t, err)

	assert.True(t, spec.ReleasesBeforeRouting(&spec.Nodes[0]), "inherits network-wide setting")
	assert.False(t, spec.ReleasesBeforeRouting(&spec.Nodes[1]), "node override wins")
}

func TestParseNetworkSpec_DefaultsVersion(t *testing.T) {
	spec, err := ParseNetworkSpec([]byte("horizon: 5\nnodes: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "1", spec.Version)
}

func TestParseNetworkSpec_UnknownKey_ReturnsError(t *testing.T) {
	// GIVEN a typo in a node field
	body := strings.Replace(tandemYAML, "servers: 2", "server: 2", 1)

	// WHEN parsing
	_, err := ParseNetworkSpec([]byte(body))

	// THEN strict decoding rejects it
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server")
}

func TestLoadNetworkSpec_MissingFile(t *testing.T) {
	_, err := LoadNetworkSpec(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading network spec")
}

func validSpec() *NetworkSpec {
	return &NetworkSpec{
		Version: "1",
		Horizon: 10,
		Nodes: []NodeSpec{
			{
				Name:    "a",
				Servers: 1,
				Arrival: &DistSpec{Type: "constant", Params: map[string]float64{"value": 1}},
				Service: DistSpec{Type: "constant", Params: map[string]float64{"value": 0.5}},
				Routing: &RoutingSpec{Policy: PolicyAlways, To: "b"},
			},
			{
				Name:    "b",
				Servers: 1,
				Service: DistSpec{Type: "exponential", Params: map[string]float64{"rate": 2}},
			},
		},
	}
}

func TestValidate_Accepts(t *testing.T) {
	assert.NoError(t, validSpec().Validate())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *NetworkSpec)
		wantErr string
	}{
		{"bad version", func(s *NetworkSpec) { s.Version = "2" }, "unsupported spec version"},
		{"zero horizon", func(s *NetworkSpec) { s.Horizon = 0 }, "horizon must be positive"},
		{"no nodes", func(s *NetworkSpec) { s.Nodes = nil }, "at least one node"},
		{"missing name", func(s *NetworkSpec) { s.Nodes[1].Name = "" }, "name is required"},
		{"duplicate name", func(s *NetworkSpec) { s.Nodes[1].Name = "a" }, "duplicate name"},
		{"zero servers", func(s *NetworkSpec) { s.Nodes[0].Servers = 0 }, "servers must be >= 1"},
		{"unknown service dist", func(s *NetworkSpec) { s.Nodes[0].Service.Type = "zipf" }, "unknown distribution type"},
		{"missing param", func(s *NetworkSpec) { s.Nodes[1].Service.Params = nil }, `requires parameter "rate"`},
		{"zero constant arrival", func(s *NetworkSpec) { s.Nodes[0].Arrival.Params["value"] = 0 }, "inter-arrival time must be positive"},
		{"negative constant service", func(s *NetworkSpec) { s.Nodes[0].Service.Params["value"] = -1 }, "service time must be non-negative"},
		{"zero exponential arrival rate", func(s *NetworkSpec) {
			s.Nodes[0].Arrival = &DistSpec{Type: "exponential", Params: map[string]float64{"rate": 0}}
		}, `arrival: parameter "rate" must be positive`},
		{"negative service rate", func(s *NetworkSpec) { s.Nodes[1].Service.Params["rate"] = -2 }, `service: parameter "rate" must be positive`},
		{"negative std_dev", func(s *NetworkSpec) {
			s.Nodes[1].Service = DistSpec{Type: "normal", Params: map[string]float64{"mean": 1, "std_dev": -0.5}}
		}, "must be non-negative"},
		{"zero gamma shape", func(s *NetworkSpec) {
			s.Nodes[1].Service = DistSpec{Type: "gamma", Params: map[string]float64{"shape": 0, "rate": 1}}
		}, `parameter "shape" must be positive`},
		{"zero lognormal sigma", func(s *NetworkSpec) {
			s.Nodes[1].Service = DistSpec{Type: "lognormal", Params: map[string]float64{"mu": 0, "sigma": 0}}
		}, `parameter "sigma" must be positive`},
		{"zero weibull scale", func(s *NetworkSpec) {
			s.Nodes[1].Service = DistSpec{Type: "weibull", Params: map[string]float64{"shape": 1, "scale": 0}}
		}, `parameter "scale" must be positive`},
		{"inverted uniform", func(s *NetworkSpec) {
			s.Nodes[1].Service = DistSpec{Type: "uniform", Params: map[string]float64{"min": 2, "max": 1}}
		}, "must be >= min"},
		{"unknown policy", func(s *NetworkSpec) { s.Nodes[0].Routing.Policy = "round_robin" }, "unknown policy"},
		{"always to missing node", func(s *NetworkSpec) { s.Nodes[0].Routing.To = "c" }, `destination "c" is not a node`},
		{"probabilistic without routes", func(s *NetworkSpec) {
			s.Nodes[0].Routing = &RoutingSpec{Policy: PolicyProbabilistic}
		}, "at least one route"},
		{"probability out of range", func(s *NetworkSpec) {
			s.Nodes[0].Routing = &RoutingSpec{Policy: PolicyProbabilistic, Routes: []RouteSpec{{To: "b", Probability: 1.5}}}
		}, "probability must be in [0, 1]"},
		{"probabilities over one", func(s *NetworkSpec) {
			s.Nodes[0].Routing = &RoutingSpec{Policy: PolicyProbabilistic, Routes: []RouteSpec{
				{To: "b", Probability: 0.6}, {To: "a", Probability: 0.6},
			}}
		}, "sum to"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSpec()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ProbabilitiesSummingToOneWithRounding(t *testing.T) {
	s := validSpec()
	s.Nodes[0].Routing = &RoutingSpec{Policy: PolicyProbabilistic, Routes: []RouteSpec{
		{To: "b", Probability: 0.1}, {To: "b", Probability: 0.2}, {To: "a", Probability: 0.7},
	}}
	assert.NoError(t, s.Validate())
}
