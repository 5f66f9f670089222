package session

// State tracks handshake progress for one connection.
type State int

const (
	StateConnecting State = iota // greeting not yet sent
	StateAwaitingApproval
	StateAwaitingWorldInfo
	StateAwaitingSpawn
	StatePlaying // terminal steady state
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateAwaitingApproval:
		return "AWAITING_APPROVAL"
	case StateAwaitingWorldInfo:
		return "AWAITING_WORLD_INFO"
	case StateAwaitingSpawn:
		return "AWAITING_SPAWN"
	case StatePlaying:
		return "PLAYING"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
