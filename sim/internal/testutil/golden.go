// Package testutil holds test helpers shared by the simulator packages: the
// golden networks in testdata/ and tolerant float comparisons.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// GoldenNetwork is a hand-computed run: a network spec and what running it to
// its horizon must produce.
type GoldenNetwork struct {
	Name    string        `json:"name"`
	Spec    string        `json:"spec"` // YAML, as accepted by workload.ParseNetworkSpec
	Metrics GoldenMetrics `json:"metrics"`
	Nodes   []GoldenNode  `json:"nodes"` // in order of first appearance in the log
}

// GoldenMetrics holds run-wide expectations.
type GoldenMetrics struct {
	TotalRecords   int     `json:"total_records"`
	TotalCustomers int     `json:"total_customers"`
	LastEventTime  float64 `json:"last_event_time"`
}

// GoldenNode holds the expected counters and waiting statistics of one node.
type GoldenNode struct {
	Node          string  `json:"node"`
	Arrivals      int     `json:"arrivals"`
	ServiceStarts int     `json:"service_starts"`
	Departures    int     `json:"departures"`
	MeanWait      float64 `json:"mean_wait"`
	MaxWait       float64 `json:"max_wait"`
}

// RepoPath joins elems onto the repository root, located from this file.
func RepoPath(t *testing.T, elems ...string) string {
	t.Helper()
	_, self, _, ok := runtime.Caller(0)
	require.True(t, ok, "cannot locate testutil source file")
	root := filepath.Join(filepath.Dir(self), "..", "..", "..")
	return filepath.Join(append([]string{root}, elems...)...)
}

// LoadGoldenNetworks reads testdata/golden_networks.json.
func LoadGoldenNetworks(t *testing.T) []GoldenNetwork {
	t.Helper()
	data, err := os.ReadFile(RepoPath(t, "testdata", "golden_networks.json"))
	require.NoError(t, err)

	var file struct {
		Tests []GoldenNetwork `json:"tests"`
	}
	require.NoError(t, json.Unmarshal(data, &file))
	return file.Tests
}

// AssertClose fails the test when got differs from want by more than relTol
// relative to the larger magnitude. Two zeros are always close.
func AssertClose(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	scale := math.Max(math.Abs(want), math.Abs(got))
	if scale == 0 {
		return
	}
	if rel := math.Abs(want-got) / scale; rel > relTol {
		t.Errorf("%s: got %v, want %v (relative error %.3g > %.3g)", name, got, want, rel, relTol)
	}
}
