// Package sim provides the discrete-event simulation kernel for queuenet.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - simulator.go: virtual clock, wake-up heap, ready list and the Run loop
//   - process.go: suspendable processes and their primitives (Wait, Join, Call)
//   - server_pool.go: bounded-capacity resource with a FIFO waiting line
//
// # Architecture
//
// The sim package knows nothing about customers or routing; those live in
// sub-packages:
//   - sim/network/: Nodes, the Network, service and arrival processes, routing
//   - sim/workload/: Distribution capability and the YAML network specification
//   - sim/trace/: event records, the append-only event log and its summary
//
// # Scheduling model
//
// Processes are cooperative. Only one runs at a time, and it runs until it reaches
// a suspension point: a timed wait, a server acquisition or a join on a child
// process. Timed wake-ups are ordered by (time, scheduling sequence); processes made
// runnable at the current time (spawned, granted a slot, joined child finished) go
// to a FIFO ready list that is drained before the clock advances.
//
// Because of that, a slot handoff or a finished child runs ahead of timers already
// queued for the same instant. With one server, arrivals every 1 and service 2, the
// t=3 log shows customer 2's service_start before customer 3's arrival, where a
// kernel that queues grants behind pending timers logs the arrival first. Times and
// waits are the same under either order.
package sim
