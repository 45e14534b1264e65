package application

type Status string

const (
	StatusPending     Status = "pending"
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusShortlisted Status = "shortlisted"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

// pending is accepted as a legacy spelling of submitted.
var transitions = map[Status][]Status{
	StatusSubmitted:   {StatusUnderReview, StatusApproved, StatusRejected},
	StatusUnderReview: {StatusShortlisted, StatusApproved, StatusRejected},
	StatusShortlisted: {StatusApproved, StatusRejected},
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusSubmitted, StatusUnderReview, StatusShortlisted, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) canonical() Status {
	if s == StatusPending {
		return StatusSubmitted
	}
	return s
}

func (s Status) IsTerminal() bool { return s == StatusApproved || s == StatusRejected }

// CheckTransition returns nil when from -> to is in the transition table.
func CheckTransition(from, to Status) error {
	from, to = from.canonical(), to.canonical()
	if from.IsTerminal() {
		return ErrTerminalState
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

// NeedsActiveScholarship reports whether moving into s requires the
// scholarship to be active. Rejection is always allowed so closed
// scholarships can still be drained.
func NeedsActiveScholarship(s Status) bool {
	switch s.canonical() {
	case StatusUnderReview, StatusShortlisted, StatusApproved:
		return true
	}
	return false
}
