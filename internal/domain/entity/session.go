package entity

// SessionState is the connection lifecycle state of the wallet session.
type SessionState int

const (
	SessionDisconnected SessionState = iota
	SessionConnecting
	SessionConnected
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// SessionInfo is a read-only snapshot of the active wallet connection.
type SessionInfo struct {
	State    SessionState `json:"-"`
	StateStr string       `json:"state"`
	Accounts []string     `json:"accounts"` // ordered, first = active
	Address  string       `json:"address"`  // active account, empty when disconnected
	ChainID  uint64       `json:"chainId"`
}
