package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardViolation matches any *GuardViolation via errors.Is
	ErrGuardViolation = errors.New("guard violation")
)

// GuardViolation reports every precondition an operation failed.
// It is never retried automatically.
type GuardViolation struct {
	Operation string
	State     State
	Reasons   []string
}

// NewGuardViolation returns nil when reasons is empty
func NewGuardViolation(operation string, state State, reasons []string) error {
	if len(reasons) == 0 {
		return nil
	}
	return &GuardViolation{
		Operation: operation,
		State:     state,
		Reasons:   append([]string(nil), reasons...),
	}
}

func (v *GuardViolation) Error() string {
	return fmt.Sprintf("%s: %s rejected: %s", ErrGuardViolation, v.Operation, strings.Join(v.Reasons, "; "))
}

// Is lets errors.Is(err, ErrGuardViolation) match
func (v *GuardViolation) Is(target error) bool {
	return target == ErrGuardViolation
}
