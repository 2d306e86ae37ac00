package scanner

// State — состояние распознавания в сессии.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}
