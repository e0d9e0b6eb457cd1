package session

type State string

const (
	StateIdle          State = "idle"
	StateConnecting    State = "connecting"
	StateConnected     State = "connected"
	StateDisconnecting State = "disconnecting"
	StateFailed        State = "failed"
)

// active states reject a new Start.
func (s State) active() bool {
	return s == StateConnecting || s == StateConnected || s == StateDisconnecting
}
