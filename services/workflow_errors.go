package services

// WorkflowError is a client-visible, language-neutral failure of a workflow
// request. The caller has to change the request, not retry it; genuine
// infrastructure failures are returned as ordinary errors instead.
type WorkflowError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *WorkflowError) Error() string {
	return e.Message
}

var (
	// ErrTerminalState: the letter is in draft or a terminal status and
	// accepts no workflow action from anyone.
	ErrTerminalState = &WorkflowError{Code: "TERMINAL_STATE", Message: "letter is not accepting workflow actions in its current status"}

	// ErrNotYourTurn: the actor's pipeline step does not match the step
	// currently responsible for the letter.
	ErrNotYourTurn = &WorkflowError{Code: "NOT_YOUR_TURN", Message: "letter is not at the actor's pipeline step"}

	// ErrInvalidRevisionTarget: revision must route to a step strictly
	// before the actor's own.
	ErrInvalidRevisionTarget = &WorkflowError{Code: "INVALID_REVISION_TARGET", Message: "revision target must be an earlier pipeline step"}

	// ErrIncompletePublication: the publisher tried to complete a letter
	// without a drafted number or stamp.
	ErrIncompletePublication = &WorkflowError{Code: "INCOMPLETE_PUBLICATION", Message: "letter number and stamp are required before publishing"}

	// ErrNumberConflict: another letter already holds the candidate number.
	ErrNumberConflict = &WorkflowError{Code: "NUMBER_CONFLICT", Message: "letter number is already bound to another letter"}

	// ErrUnknownRole: the role is not part of the pipeline.
	ErrUnknownRole = &WorkflowError{Code: "UNKNOWN_ROLE", Message: "role is not part of the approval pipeline"}

	// ErrUnknownAction: the action is not one of the workflow verbs.
	ErrUnknownAction = &WorkflowError{Code: "UNKNOWN_ACTION", Message: "action is not a recognized workflow action"}

	// ErrNoteRequired: reject and revision must carry a reason.
	ErrNoteRequired = &WorkflowError{Code: "NOTE_REQUIRED", Message: "a non-empty note is required for this action"}

	// ErrArtifactRequired: a signature or stamp attachment needs a
	// non-empty storage reference.
	ErrArtifactRequired = &WorkflowError{Code: "ARTIFACT_REQUIRED", Message: "a non-empty artifact reference is required"}

	// ErrInvalidNumberFormat: the candidate does not match the letter
	// number pattern.
	ErrInvalidNumberFormat = &WorkflowError{Code: "INVALID_NUMBER_FORMAT", Message: "letter number does not match the required format"}

	// ErrNotFound: verification lookups on unknown codes. Deliberately
	// carries no internal detail.
	ErrNotFound = &WorkflowError{Code: "NOT_FOUND", Message: "no published letter matches this code"}

	// ErrLetterNotFound: the letter id does not exist (or is a deleted
	// draft).
	ErrLetterNotFound = &WorkflowError{Code: "LETTER_NOT_FOUND", Message: "letter not found"}

	// ErrNotCompleted: amendment is only defined for completed letters.
	ErrNotCompleted = &WorkflowError{Code: "NOT_COMPLETED", Message: "letter has not been completed"}
)
