package push

import "fmt"

// State is the connection state of a Channel.
type State int

const (
	Closed State = iota
	Connecting
	Open
	Errored
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var transitions = map[State][]State{
	Closed:     {Connecting},
	Connecting: {Open, Errored, Closed},
	Open:       {Closed, Errored},
	Errored:    {Connecting, Closed},
}

// CanTransition reports whether a Channel may move from one state to another.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
