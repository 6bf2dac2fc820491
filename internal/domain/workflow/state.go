package workflow

import "fmt"

// State is the status of an acquisition request in its loan cycle
type State string

const (
	StateRequested State = "requested"
	StateOrdered   State = "ordered"
	StateReceived  State = "received"
	StateDelivered State = "delivered"
	StateDeclined  State = "declined"
	StateCanceled  State = "canceled"
)

// AllStates lists every state in lifecycle order
var AllStates = []State{
	StateRequested,
	StateOrdered,
	StateReceived,
	StateDelivered,
	StateDeclined,
	StateCanceled,
}

var validStates = map[State]bool{
	StateRequested: true,
	StateOrdered:   true,
	StateReceived:  true,
	StateDelivered: true,
	StateDeclined:  true,
	StateCanceled:  true,
}

var terminalStates = map[State]bool{
	StateDelivered: true,
	StateDeclined:  true,
	StateCanceled:  true,
}

// IsTerminal returns true if no operation transitions out of the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known acquisition state.
// Matching is exact: "Requested" or "REQUESTED" are not valid.
func (s State) IsValid() bool {
	return validStates[s]
}

// ParseState converts a stored or user supplied value into a State
func ParseState(v string) (State, error) {
	s := State(v)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, v)
	}
	return s, nil
}
