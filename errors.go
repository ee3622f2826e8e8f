package stockfolio

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports bad date ordering, missing data, quantity
	// violations or malformed percentages. Callers are expected to present it to the user.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSnapshotNotFound is returned by a SnapshotStore when no snapshot exists
	// for a (portfolio, date) key.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// invalidf returns an error wrapping ErrInvalidArgument.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
