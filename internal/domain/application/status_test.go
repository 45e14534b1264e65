package application

import (
	"errors"
	"testing"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     error
	}{
		{StatusSubmitted, StatusUnderReview, nil},
		{StatusPending, StatusUnderReview, nil},
		{StatusSubmitted, StatusApproved, nil},
		{StatusSubmitted, StatusRejected, nil},
		{StatusSubmitted, StatusShortlisted, ErrInvalidTransition},
		{StatusUnderReview, StatusShortlisted, nil},
		{StatusUnderReview, StatusApproved, nil},
		{StatusUnderReview, StatusUnderReview, ErrInvalidTransition},
		{StatusShortlisted, StatusApproved, nil},
		{StatusShortlisted, StatusRejected, nil},
		{StatusShortlisted, StatusUnderReview, ErrInvalidTransition},
		{StatusUnderReview, StatusSubmitted, ErrInvalidTransition},
		{StatusApproved, StatusRejected, ErrTerminalState},
		{StatusRejected, StatusApproved, ErrTerminalState},
		{StatusApproved, StatusApproved, ErrTerminalState},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("under_review"); err != nil {
		t.Fatalf("under_review rejected: %v", err)
	}
	if _, err := ParseStatus("UNDER_REVIEW"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("want ErrInvalidStatus, got %v", err)
	}
}

func TestNeedsActiveScholarship(t *testing.T) {
	if !NeedsActiveScholarship(StatusApproved) || !NeedsActiveScholarship(StatusUnderReview) {
		t.Fatal("approval and review must require an active scholarship")
	}
	if NeedsActiveScholarship(StatusRejected) {
		t.Fatal("rejection must not require an active scholarship")
	}
}
