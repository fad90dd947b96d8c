package session

// State is the lifecycle state of a Conn.
type State int

const (
	Unconnected  State = iota // Created, no successful handshake yet
	Connecting                // Initial dial + handshake in progress
	Connected                 // Handshake done, transport usable
	Reconnecting              // Transport lost, re-dialing
	Closed                    // Closed by the caller; terminal
	Failed                    // Handshake rejected by the server; terminal
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Unconnected:
		return "Unconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Reconnecting:
		return "Reconnecting"
	case Closed:
		return "Closed"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}
