package pipeline

// State is a job's position in the pipeline.
type State string

const (
	StateReceived     State = "received"
	StateFetching     State = "fetching"
	StateTranscribing State = "transcribing"
	StateAssembling   State = "assembling"
	StateDelivering   State = "delivering"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

var forward = map[State]State{
	StateReceived:     StateFetching,
	StateFetching:     StateTranscribing,
	StateTranscribing: StateAssembling,
	StateAssembling:   StateDelivering,
	StateDelivering:   StateCompleted,
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransition reports whether from → to is a legal step.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	next, ok := forward[from]
	return ok && next == to
}
