package models

// Rollup derives the ticket status promotion implied by the current set of
// line statuses. It returns the promoted status and true when every line is
// resolved (completed or cancelled) and at least one is completed.
//
// A ticket with zero lines is never promoted; it stays pending until
// explicitly cancelled. Rollup never downgrades: the caller applies the
// result only when the ticket is not already completed or cancelled.
func Rollup(lines []LineStatus) (TicketStatus, bool) {
	if len(lines) == 0 {
		return "", false
	}

	anyCompleted := false
	for _, s := range lines {
		switch s {
		case LineCompleted:
			anyCompleted = true
		case LineCancelled:
			// resolved, but does not count toward completion on its own
		default:
			return "", false
		}
	}

	if !anyCompleted {
		return "", false
	}
	return TicketCompleted, true
}
