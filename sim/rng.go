package sim

import (
	"hash/fnv"
	"math/rand/v2"
)

// SimulationKey is the master seed of a run. The same key and the same network
// configuration always produce the same event log.
type SimulationKey int64

// NewSimulationKey wraps a configured seed.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// SubsystemArrival returns the subsystem name for a node's inter-arrival draws.
func SubsystemArrival(node string) string {
	return "arrival/" + node
}

// SubsystemService returns the subsystem name for a node's service-time draws.
func SubsystemService(node string) string {
	return "service/" + node
}

// SubsystemRouting returns the subsystem name for a node's routing draws.
func SubsystemRouting(node string) string {
	return "routing/" + node
}

// PartitionedRNG hands out one independent random stream per named subsystem.
// Every node draws arrivals, services and routing choices from its own stream,
// so adding a node or changing one node's distribution does not shift the
// random sequence seen by the others.
//
// Derivation: PCG(masterSeed, fnv1a64(subsystemName)).
//
// Thread-safety: NOT thread-safe. Must only be used from simulation processes,
// which never run concurrently.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG derives all subsystem streams from key.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream of the named subsystem, creating it on first use.
// Repeated calls with the same name share one *rand.Rand.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewPCG(uint64(p.key), fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the master seed.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 maps a subsystem name to the PCG stream selector.
func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
