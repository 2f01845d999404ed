// Package parity implements the P and Q parity kernels: pure functions
// over a set of data drives that never mutate them. Index space here is
// zero-based over data drives only, independent of the array
// controller's absolute drive index.
package parity

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/raidsim/raid/internal/drive"
	"github.com/raidsim/raid/internal/gf256"
)

// Ignore is a set of data-drive indices to exclude from a fold. A nil
// or empty Ignore excludes nothing.
type Ignore map[int]struct{}

// NewIgnore builds an Ignore set from the given data-drive indices.
func NewIgnore(idxs ...int) Ignore {
	ig := make(Ignore, len(idxs))
	for _, i := range idxs {
		ig[i] = struct{}{}
	}
	return ig
}

func (ig Ignore) has(k int) bool {
	_, ok := ig[k]
	return ok
}

// PFoldByte returns the XOR of byte offset i across every data drive
// whose index is not in ignore.
func PFoldByte(dataDrives []*drive.Drive, i int, ignore Ignore) (byte, error) {
	var acc byte
	for k, d := range dataDrives {
		if ignore.has(k) {
			continue
		}
		b, err := d.Read(i)
		if err != nil {
			return 0, errors.Wrapf(err, "p-fold: data drive %d", k)
		}
		acc ^= b
	}
	return acc, nil
}

// QFoldByte returns the XOR of g^k * data-drive[k][i] across every data
// drive whose index k is not in ignore.
func QFoldByte(dataDrives []*drive.Drive, i int, ignore Ignore) (byte, error) {
	var acc byte
	for k, d := range dataDrives {
		if ignore.has(k) {
			continue
		}
		b, err := d.Read(i)
		if err != nil {
			return 0, errors.Wrapf(err, "q-fold: data drive %d", k)
		}
		term := gf256.FromByte(b).Mul(gf256.FromPower(k))
		acc = term.AddByte(acc)
	}
	return acc, nil
}

// PFoldWhole is the whole-drive variant of PFoldByte, used by the
// integrity check in Verify rather than by hot reads.
func PFoldWhole(dataDrives []*drive.Drive, size int, ignore Ignore) ([]byte, error) {
	acc := make([]byte, size)
	for k, d := range dataDrives {
		if ignore.has(k) {
			continue
		}
		s, err := d.ReadSlice(0, size)
		if err != nil {
			return nil, errors.Wrapf(err, "p-fold: data drive %d", k)
		}
		for i, b := range s {
			acc[i] ^= b
		}
	}
	return acc, nil
}

// QFoldWhole is the whole-drive variant of QFoldByte.
func QFoldWhole(dataDrives []*drive.Drive, size int, ignore Ignore) ([]byte, error) {
	acc := make([]byte, size)
	for k, d := range dataDrives {
		if ignore.has(k) {
			continue
		}
		s, err := d.ReadSlice(0, size)
		if err != nil {
			return nil, errors.Wrapf(err, "q-fold: data drive %d", k)
		}
		g := gf256.FromPower(k)
		for i, b := range s {
			acc[i] = gf256.FromByte(b).Mul(g).AddByte(acc[i])
		}
	}
	return acc, nil
}

// Verify recomputes P (and, if q is non-nil, Q) from dataDrives and
// compares the result against the stored parity drives byte-for-byte.
// firstMismatch is the lowest offset where either parity disagrees, or
// -1 if both parities fully agree. A parity whose drives cannot be read
// is reported as not OK without contributing an offset, so
// firstMismatch can be -1 while pOK or qOK is false. It is read-only and
// is used by post-repair invariant checks and tests, never by the
// write/read hot path.
func Verify(dataDrives []*drive.Drive, p, q *drive.Drive, size int) (pOK, qOK bool, firstMismatch int) {
	firstMismatch = -1

	wantP, err := PFoldWhole(dataDrives, size, nil)
	if err != nil {
		return false, q == nil, firstMismatch
	}
	gotP, err := p.ReadSlice(0, size)
	if err != nil {
		return false, q == nil, firstMismatch
	}
	pOK = bytes.Equal(wantP, gotP)
	if !pOK {
		firstMismatch = firstDiff(wantP, gotP)
	}

	if q == nil {
		qOK = true
		return pOK, qOK, firstMismatch
	}

	wantQ, err := QFoldWhole(dataDrives, size, nil)
	if err != nil {
		return pOK, false, firstMismatch
	}
	gotQ, err := q.ReadSlice(0, size)
	if err != nil {
		return pOK, false, firstMismatch
	}
	qOK = bytes.Equal(wantQ, gotQ)
	if !qOK {
		if d := firstDiff(wantQ, gotQ); firstMismatch == -1 || d < firstMismatch {
			firstMismatch = d
		}
	}
	return pOK, qOK, firstMismatch
}

func firstDiff(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}
