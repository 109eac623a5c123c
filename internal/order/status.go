package order

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a placed order.
type Status string

const (
	StatusTaken      Status = "Taken"
	StatusPacked     Status = "Packed"
	StatusProcessing Status = "Processing"
	StatusDone       Status = "Done"
	StatusCancelled  Status = "Cancelled"
)

// progression is the forward order of non-cancelled statuses.
var progression = []Status{StatusTaken, StatusPacked, StatusProcessing, StatusDone}

// Statuses lists every known status, progression first.
func Statuses() []Status {
	return append(append([]Status(nil), progression...), StatusCancelled)
}

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses() {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("order: parse status %q: %w", s, ErrInvalidStatus)
}

func (s Status) Valid() bool {
	return s.ProgressIndex() >= 0 || s == StatusCancelled
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// ProgressIndex is the position on the tracker (Taken=0 ... Done=3), or -1
// for Cancelled and unknown values.
func (s Status) ProgressIndex() int {
	for i, st := range progression {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransitionTo allows any forward move along the progression, and
// cancellation from a non-terminal status.
func (s Status) CanTransitionTo(next Status) bool {
	if !s.Valid() || !next.Valid() || s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return next.ProgressIndex() > s.ProgressIndex()
}

func (s Status) String() string { return string(s) }
