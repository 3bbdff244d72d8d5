// sim/simulator.go
package sim

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidDelay is returned when a process asks to wait a negative or non-finite duration.
	ErrInvalidDelay = errors.New("invalid delay")
	// ErrInvalidHorizon is returned by Run when the end time lies before the current clock.
	ErrInvalidHorizon = errors.New("invalid horizon")
	// ErrStopped is returned by Run after Stop has discarded the remaining processes.
	ErrStopped = errors.New("simulator stopped")
	// ErrProcessPanic wraps a panic raised inside a process body.
	ErrProcessPanic = errors.New("process panicked")
)

// Simulator is the event scheduler: it owns the virtual clock, the heap of pending
// timed wake-ups and the FIFO ready list of processes runnable at the current time.
//
// Processes are backed by goroutines but never run concurrently: the simulator hands
// control to exactly one process and blocks until that process suspends or returns.
// All simulation state is therefore only touched by one logical thread.
type Simulator struct {
	clock   float64
	seq     int64
	nextPID int64
	wakeups wakeupQueue
	ready   []*Process
	// yield is signalled by the active process when it suspends or finishes.
	yield  chan struct{}
	active *Process
	// live holds processes whose goroutine has started and not yet returned.
	live    map[int64]*Process
	err     error
	stopped bool
	steps   int64
}

// NewSimulator creates a Simulator with its clock at 0.
func NewSimulator() *Simulator {
	return &Simulator{
		wakeups: make(wakeupQueue, 0),
		yield:   make(chan struct{}),
		live:    make(map[int64]*Process),
	}
}

// Now returns the current virtual time.
func (s *Simulator) Now() float64 {
	return s.clock
}

// Steps returns how many process resumptions have been executed so far.
func (s *Simulator) Steps() int64 {
	return s.steps
}

// Err returns the error that aborted the run, if any.
func (s *Simulator) Err() error {
	return s.err
}

// Pending reports whether any process is runnable now or waiting on a timer.
func (s *Simulator) Pending() bool {
	return len(s.ready) > 0 || s.wakeups.Len() > 0
}

// PeekNextTime returns the time of the earliest timed wake-up.
// The second value is false when no wake-up is pending.
func (s *Simulator) PeekNextTime() (float64, bool) {
	next := s.wakeups.peek()
	if next == nil {
		return 0, false
	}
	return next.time, true
}

// Spawn registers a new process. It first runs at the current time, after the
// processes already in the ready list, until its first suspension point.
func (s *Simulator) Spawn(name string, fn ProcessFunc) *Process {
	s.nextPID++
	p := &Process{
		sim:    s,
		id:     s.nextPID,
		name:   name,
		fn:     fn,
		resume: make(chan struct{}),
	}
	s.makeReady(p)
	return p
}

// Run advances the simulation until the next pending wake-up lies strictly after
// until (wake-ups at exactly until are processed) or nothing is left to run.
// On return the clock reads until, unless until is +Inf.
//
// Run can be called repeatedly with increasing end times to continue a simulation.
// When a process returns an error the run is aborted: remaining processes are
// discarded and that error is returned now and by every later call.
func (s *Simulator) Run(until float64) error {
	if s.err != nil {
		return s.err
	}
	if s.stopped {
		return ErrStopped
	}
	if math.IsNaN(until) || until < s.clock {
		return fmt.Errorf("%w: run until %v with clock at %v", ErrInvalidHorizon, until, s.clock)
	}
	logrus.Debugf("[t=%.6f] Run until %v", s.clock, until)

	for {
		for len(s.ready) > 0 {
			p := s.ready[0]
			s.ready[0] = nil
			s.ready = s.ready[1:]
			if err := s.step(p); err != nil {
				return err
			}
		}

		next := s.wakeups.peek()
		if next == nil || next.time > until {
			break
		}
		s.wakeups.popNext()
		s.clock = next.time
		if err := s.step(next.proc); err != nil {
			return err
		}
	}

	if !math.IsInf(until, 1) {
		s.clock = until
	}
	logrus.Debugf("[t=%.6f] Run paused after %d steps", s.clock, s.steps)
	return nil
}

// Stop discards every suspended or not-yet-started process. Their partial state is
// dropped without being finalized. The simulator cannot be run afterwards.
func (s *Simulator) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true

	ids := make([]int64, 0, len(s.live))
	for id := range s.live {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		p := s.live[id]
		s.active = p
		close(p.resume)
		<-s.yield
	}
	s.active = nil
	s.ready = nil
	s.wakeups = nil
	logrus.Debugf("[t=%.6f] Simulator stopped, %d suspended processes discarded", s.clock, len(ids))
}

// step transfers control to p and blocks until p suspends or terminates.
func (s *Simulator) step(p *Process) error {
	if p.done {
		return nil
	}
	s.steps++
	s.active = p
	if !p.started {
		p.started = true
		s.live[p.id] = p
		logrus.Tracef("[t=%.6f] start %s", s.clock, p.name)
		go p.run()
	} else {
		logrus.Tracef("[t=%.6f] resume %s", s.clock, p.name)
		p.resume <- struct{}{}
	}
	<-s.yield
	s.active = nil

	if s.err != nil {
		logrus.Errorf("[t=%.6f] simulation aborted: %v", s.clock, s.err)
		s.Stop()
		return s.err
	}
	return nil
}

// makeReady appends p to the ready list.
func (s *Simulator) makeReady(p *Process) {
	if s.stopped {
		return
	}
	s.ready = append(s.ready, p)
}

// scheduleAt registers a timed wake-up for p.
func (s *Simulator) scheduleAt(t float64, p *Process) {
	s.seq++
	s.wakeups.schedule(t, s.seq, p)
}
