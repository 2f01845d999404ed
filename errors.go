package raid

import "github.com/pkg/errors"

// Error taxonomy surfaced across the array's interface (spec.md §6).
// Each is a sentinel so callers can branch with errors.Is even after a
// wrap adds call-site context.
var (
	// ErrOffsetTooLarge is returned when an address is at or beyond the
	// array's addressable capacity.
	ErrOffsetTooLarge = errors.New("raid: offset too large")

	// ErrArrayFailed is returned by every read/write while the array is
	// in the Failed state; it mutates nothing.
	ErrArrayFailed = errors.New("raid: array failed")

	// ErrNotInitialized is returned by Repair on an array that has
	// never been Init'd.
	ErrNotInitialized = errors.New("raid: not initialized")

	// ErrDrivesNeedReplaced is returned by Repair when one or more
	// drives are still marked failed (not yet swapped for a blank
	// replacement via ReplaceFailedDrives).
	ErrDrivesNeedReplaced = errors.New("raid: drives need replaced")

	// ErrNotDegraded is returned by Repair when the array is not in the
	// Degraded state (nothing to repair, or the array is Failed/Uninit —
	// those cases surface their own, more specific errors first).
	ErrNotDegraded = errors.New("raid: not degraded")

	// ErrInvalidConfig is returned by New for a mode/drive-count/drive-size
	// combination that cannot form a valid array.
	ErrInvalidConfig = errors.New("raid: invalid configuration")
)
