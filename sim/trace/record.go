// Package trace provides the event log produced by a queueing-network run.
// This package has no dependencies on sim/ or sim/network/; it stores pure data types.
package trace

// Action names a customer state transition.
type Action string

const (
	ActionArrival       Action = "arrival"
	ActionServiceStart  Action = "service_start"
	ActionServiceFinish Action = "service_finish"
	ActionRouting       Action = "routing"
	ActionLeaveSystem   Action = "leave_system"
)

// DestinationExit is the routing destination meaning the customer leaves the network.
const DestinationExit = "exit"

// validActions maps accepted action strings.
var validActions = map[Action]bool{
	ActionArrival:       true,
	ActionServiceStart:  true,
	ActionServiceFinish: true,
	ActionRouting:       true,
	ActionLeaveSystem:   true,
}

// IsValidAction returns true if the given string is a recognized action.
func IsValidAction(action string) bool {
	return validActions[Action(action)]
}

// Record captures a single customer event.
type Record struct {
	Customer    int64   `json:"customer"`
	Action      Action  `json:"action"`
	Node        string  `json:"node"`
	Time        float64 `json:"time"`
	Destination string  `json:"destination,omitempty"` // routing records only: node name or "exit"
}
