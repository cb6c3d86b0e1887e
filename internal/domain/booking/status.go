package booking

import "fmt"

// Status is the booking lifecycle state. The same values are used on the wire
// and in storage; "Declined" is never rewritten to "Cancelled".
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusDeclined  Status = "Declined"
	StatusCancelled Status = "Cancelled"
)

var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusDeclined, StatusCancelled},
	StatusConfirmed: {StatusCompleted},
	StatusCompleted: {},
	StatusDeclined:  {},
	StatusCancelled: {},
}

func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal is true for Completed, Declined and Cancelled; unknown values are
// treated as terminal too.
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// HoldsSlot reports whether a booking in this status occupies its slots.
func (s Status) HoldsSlot() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Notifies reports whether reaching this status emails the customer.
func (s Status) Notifies() bool {
	return s == StatusConfirmed || s == StatusDeclined
}

func (s Status) String() string {
	return string(s)
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %q", s)
	}
	return status, nil
}

func activeStatuses() []string {
	return []string{string(StatusPending), string(StatusConfirmed)}
}
