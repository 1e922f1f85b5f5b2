package trigger

// State is the lifecycle of one exchange.
type State int

// Exchange states, in the order they are reached.
const (
	StateUnsent State = iota
	StateOpened
	StateSent
	StateHeadersReceived
	StateLoading
	StateDone
)

var stateNames = [...]string{
	StateUnsent:          "unsent",
	StateOpened:          "opened",
	StateSent:            "sent",
	StateHeadersReceived: "headers_received",
	StateLoading:         "loading",
	StateDone:            "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s is the final state.
func (s State) Terminal() bool {
	return s == StateDone
}
