package sim

import (
	"fmt"
	"math"
)

// ProcessFunc is the body of a process. It runs as straight-line code and
// suspends only through the primitives on *Process (Wait, Join, Call) and
// ServerPool.Acquire. Returning a non-nil error aborts the whole run.
type ProcessFunc func(p *Process) error

// killSignal unwinds a suspended process when the simulator discards it.
type killSignal struct{}

// Process is a cooperatively-suspendable unit of work driven by a Simulator.
type Process struct {
	sim     *Simulator
	id      int64
	name    string
	fn      ProcessFunc
	resume  chan struct{}
	started bool
	done    bool
	killed  bool
	err     error
	// joiners are resumed when this process terminates.
	joiners []*Process
}

// ID returns the spawn sequence number of the process (1-based).
func (p *Process) ID() int64 { return p.id }

// Name returns the name given at spawn time.
func (p *Process) Name() string { return p.name }

// Done reports whether the process body has returned.
func (p *Process) Done() bool { return p.done }

// Err returns the error the process body returned, if it is done.
func (p *Process) Err() error { return p.err }

// Now returns the simulator's current virtual time.
func (p *Process) Now() float64 { return p.sim.clock }

// Simulator returns the simulator driving this process.
func (p *Process) Simulator() *Simulator { return p.sim }

// Wait suspends the process for d units of virtual time.
// A negative or non-finite d returns ErrInvalidDelay without suspending.
func (p *Process) Wait(d float64) error {
	p.mustBeActive("Wait")
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return fmt.Errorf("%w: %s asked to wait %v", ErrInvalidDelay, p.name, d)
	}
	p.sim.scheduleAt(p.sim.clock+d, p)
	p.suspend()
	return nil
}

// Join suspends the process until child terminates and returns the child's error.
// Joining an already finished child returns immediately.
func (p *Process) Join(child *Process) error {
	p.mustBeActive("Join")
	if child == p {
		panic(fmt.Sprintf("sim: process %q cannot join itself", p.name))
	}
	if !child.done {
		child.joiners = append(child.joiners, p)
		p.suspend()
	}
	return child.err
}

// Call spawns a child process and joins it: a synchronous sub-process call.
func (p *Process) Call(name string, fn ProcessFunc) error {
	return p.Join(p.sim.Spawn(name, fn))
}

// mustBeActive panics when a suspension primitive is used outside the process
// currently holding control.
func (p *Process) mustBeActive(op string) {
	if p.sim.active != p {
		panic(fmt.Sprintf("sim: %s called on process %q while it is not running", op, p.name))
	}
}

// suspend hands control back to the simulator and blocks until resumed.
func (p *Process) suspend() {
	if p.sim.stopped {
		panic(killSignal{})
	}
	p.sim.yield <- struct{}{}
	if _, ok := <-p.resume; !ok {
		panic(killSignal{})
	}
}

func (p *Process) run() {
	defer p.finish()
	p.err = p.fn(p)
}

// finish runs on the process goroutine once the body returns or unwinds.
func (p *Process) finish() {
	if r := recover(); r != nil {
		if _, ok := r.(killSignal); ok {
			p.killed = true
		} else {
			p.err = fmt.Errorf("%w: %v", ErrProcessPanic, r)
		}
	}
	p.done = true

	s := p.sim
	delete(s.live, p.id)
	if !p.killed {
		if p.err != nil && s.err == nil {
			s.err = fmt.Errorf("process %q at t=%v: %w", p.name, s.clock, p.err)
		}
		for _, j := range p.joiners {
			s.makeReady(j)
		}
	}
	p.joiners = nil
	s.yield <- struct{}{}
}
