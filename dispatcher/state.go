package dispatcher

// State is where the dispatcher is in handling one command.
//
//	Idle → AwaitingInput → InFlight → Rendering → Idle
//
// AwaitingInput loops on itself while a field is re-prompted.
type State int

const (
	Idle State = iota
	AwaitingInput
	InFlight
	Rendering
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingInput:
		return "awaiting_input"
	case InFlight:
		return "in_flight"
	case Rendering:
		return "rendering"
	}
	return "unknown"
}
