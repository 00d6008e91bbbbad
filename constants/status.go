package constants

// ProcessingStatus is the canonical status stored on documents.processing_status.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending    ProcessingStatus = "PENDING"
	StatusProcessing ProcessingStatus = "PROCESSING"
	StatusCompleted  ProcessingStatus = "COMPLETED"
	StatusFailed     ProcessingStatus = "FAILED"
)

var ProcessingStatuses = []string{
	string(StatusPending),
	string(StatusProcessing),
	string(StatusCompleted),
	string(StatusFailed),
}

var transitions = map[ProcessingStatus][]ProcessingStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusPending},
	StatusFailed:     {StatusPending},
}

// CanTransition reports whether from -> to is an edge of the document state machine.
// Terminal states only leave through an explicit reprocess (back to PENDING).
func CanTransition(from, to ProcessingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports COMPLETED or FAILED.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
