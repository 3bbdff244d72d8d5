package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrInvalidCapacity is returned when a server pool is configured with fewer than one slot.
var ErrInvalidCapacity = errors.New("invalid server capacity")

// ServerPool is a bounded-capacity resource with a FIFO waiting line.
// Slots are granted strictly in request order; a released slot is handed
// directly to the head of the line, so occupancy never dips between holders.
type ServerPool struct {
	sim      *Simulator
	name     string
	capacity int
	occupied int
	peak     int
	grants   int64
	waiting  []*Process
}

// NewServerPool creates a pool with the given number of slots.
func NewServerPool(s *Simulator, name string, capacity int) (*ServerPool, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: pool %q has capacity %d, must be >= 1", ErrInvalidCapacity, name, capacity)
	}
	return &ServerPool{
		sim:      s,
		name:     name,
		capacity: capacity,
	}, nil
}

// Acquire obtains a slot for p, suspending p in the waiting line if the pool is full.
// When Acquire returns the caller holds exactly one slot and must Release it.
func (sp *ServerPool) Acquire(p *Process) {
	p.mustBeActive("Acquire")
	if sp.occupied < sp.capacity {
		sp.occupied++
		sp.grants++
		if sp.occupied > sp.peak {
			sp.peak = sp.occupied
		}
		return
	}
	sp.waiting = append(sp.waiting, p)
	logrus.Tracef("[t=%.6f] %s queued on %s (waiting=%d)", sp.sim.clock, p.name, sp.name, len(sp.waiting))
	p.suspend()
}

// Release returns one slot. If processes are waiting, the slot is transferred
// to the head of the line and that process becomes runnable at the current time.
// Panics if the pool has no occupied slot.
func (sp *ServerPool) Release() {
	if sp.occupied == 0 {
		panic(fmt.Sprintf("sim: Release on idle server pool %q", sp.name))
	}
	if len(sp.waiting) > 0 {
		next := sp.waiting[0]
		sp.waiting[0] = nil
		sp.waiting = sp.waiting[1:]
		sp.grants++
		sp.sim.makeReady(next)
		return
	}
	sp.occupied--
}

// Name returns the pool name.
func (sp *ServerPool) Name() string { return sp.name }

// Capacity returns the configured number of slots.
func (sp *ServerPool) Capacity() int { return sp.capacity }

// Occupied returns the number of slots currently held.
func (sp *ServerPool) Occupied() int { return sp.occupied }

// Waiting returns the length of the waiting line.
func (sp *ServerPool) Waiting() int { return len(sp.waiting) }

// PeakOccupied returns the highest occupancy observed so far.
func (sp *ServerPool) PeakOccupied() int { return sp.peak }

// Grants returns the total number of slots granted so far.
func (sp *ServerPool) Grants() int64 { return sp.grants }
