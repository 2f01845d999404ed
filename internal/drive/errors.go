package drive

import "github.com/pkg/errors"

// ErrFailed is returned by Read/Write/ReadSlice/WriteSlice/SetData when
// the drive has been marked failed; a failed drive is simulated
// inaccessible hardware, never half-readable.
var ErrFailed = errors.New("drive: failed")

// ErrUnformatted is part of the error taxonomy propagated up to the
// array controller (spec: "DriveUnformatted"). The drive layer itself
// never returns it — an unformatted drive is readable and writable, it
// simply hasn't had its contents established by init or repair yet; it
// is the controller's job to avoid reading/writing one on the client
// path and it does so by consulting IsFormatted, not by relying on this
// error.
var ErrUnformatted = errors.New("drive: unformatted")
