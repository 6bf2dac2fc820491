package workflow

import (
	"errors"
	"fmt"

	"github.com/garyjia/library-acquisition/internal/application/port"
)

var (
	// ErrProvisioning wraps placeholder item failures during Create
	ErrProvisioning = errors.New("placeholder provisioning failed")

	// ErrStorage wraps persistence failures; nothing was committed
	ErrStorage = errors.New("storage failure")
)

// storageError classifies a persistence error. Conflicts and missing records
// keep their identity so callers can retry or report them.
func storageError(err error) error {
	if errors.Is(err, port.ErrConflict) || errors.Is(err, port.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
