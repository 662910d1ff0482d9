package session

// State is the lifecycle state of the messaging session.
type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateAwaitingAuth State = "AWAITING_AUTH"
	StateConnected    State = "CONNECTED"
	StateReconnecting State = "RECONNECTING"
	StateLoggedOut    State = "LOGGED_OUT"
)

var allStates = []State{
	StateDisconnected,
	StateConnecting,
	StateAwaitingAuth,
	StateConnected,
	StateReconnecting,
	StateLoggedOut,
}

func (s State) String() string {
	return string(s)
}

// canStart reports whether a new connection sequence may begin.
func (s State) canStart() bool {
	return s == StateDisconnected || s == StateLoggedOut
}

// inFlight reports whether a connection is established or being established.
func (s State) inFlight() bool {
	return s == StateConnecting || s == StateAwaitingAuth || s == StateConnected
}
