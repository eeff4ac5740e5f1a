package executor

// State is a step of one pipeline run. The last state of a run is one of
// the terminal states.
type State string

const (
	StateValidatingInput     State = "VALIDATING_INPUT"
	StateResolvingSession    State = "RESOLVING_SESSION"
	StatePersistingQuery     State = "PERSISTING_QUERY"
	StateRetrieving          State = "RETRIEVING"
	StateGatingContext       State = "GATING_CONTEXT"
	StateGenerating          State = "GENERATING"
	StateValidatingGrounding State = "VALIDATING_GROUNDING"
	StatePersistingResponse  State = "PERSISTING_RESPONSE"

	StateDone                State = "DONE"
	StateRejected            State = "REJECTED"
	StateAbstained           State = "ABSTAINED"
	StateInsufficientContext State = "INSUFFICIENT_CONTEXT"
	StateFailedGeneration    State = "FAILED_GENERATION"
	StateFailedPersistence   State = "FAILED_PERSISTENCE"
)

func (s State) Terminal() bool {
	switch s {
	case StateDone, StateRejected, StateAbstained, StateInsufficientContext, StateFailedGeneration, StateFailedPersistence:
		return true
	}
	return false
}
