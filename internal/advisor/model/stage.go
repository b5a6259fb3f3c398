package model

// Stage is the current named position in the conversation state machine.
// Exactly one value is active at any time; external serialization uses the
// string form below and nothing else.
type Stage string

const (
	// StageInitialInput - waiting for the user's first request.
	StageInitialInput Stage = "INITIAL_INPUT"
	// StageProcessing - a model round is due (the original flow also calls
	// this the "decision" stage).
	StageProcessing Stage = "PROCESSING_INITIAL"
	// StageAwaitingAnswers - clarifying questions are pending user answers.
	StageAwaitingAnswers Stage = "AWAITING_ANSWERS"
	// StageShowingSolution - a recommendation has been produced; terminal
	// until an explicit restart.
	StageShowingSolution Stage = "SHOWING_SOLUTION"
	// StageError - an unrecoverable condition was observed.
	StageError Stage = "ERROR"
)

// String returns the serialized form of the stage.
func (s Stage) String() string {
	return string(s)
}

// Valid reports whether the value is a member of the closed stage set.
func (s Stage) Valid() bool {
	switch s {
	case StageInitialInput, StageProcessing, StageAwaitingAnswers, StageShowingSolution, StageError:
		return true
	}
	return false
}

// ParseStage normalises an external string into a Stage. Unknown values
// fall back to StageInitialInput so a corrupted session restarts cleanly
// instead of wedging.
func ParseStage(v string) Stage {
	s := Stage(v)
	if s.Valid() {
		return s
	}
	return StageInitialInput
}
