// Package raid is a pedagogical RAID-5/RAID-6 array simulator. It
// exposes a byte-addressable store of capacity (N-p)*S bytes over N
// fixed-size drives with p parity drives (p=1 for RAID-5, p=2 for
// RAID-6), fixed parity placement (P at drive 0, Q at drive 1), fault
// injection, and repair.
//
// The array is not safe for concurrent use by multiple goroutines; this
// is a deliberate simplification (spec: "no concurrency across
// requests"), not an oversight, so Array does not carry a mutex.
package raid

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/raidsim/raid/internal/drive"
	"github.com/raidsim/raid/internal/gf256"
	"github.com/raidsim/raid/internal/parity"
)

const (
	pIndex = 0
	qIndex = 1
)

// Array is the controller: it owns every drive exclusively, enforces
// the Uninit/Ok/Degraded/Failed state machine, and implements
// client-visible reads and writes with incremental parity maintenance.
type Array struct {
	mode      Mode
	driveSize int
	drives    []*drive.Drive
	roles     []Role
	stats     liveStats
}

// New constructs an array of numDrives drives of driveSize bytes each,
// in Uninit state. numDrives must be at least p+1 (room for at least
// one data drive beyond the parity drives mode requires).
func New(mode Mode, numDrives, driveSize int) (*Array, error) {
	p := mode.parityDrives()
	if numDrives < p+1 {
		return nil, errors.Wrapf(ErrInvalidConfig, "%s needs at least %d drives, got %d", mode, p+1, numDrives)
	}
	if driveSize < 1 {
		return nil, errors.Wrapf(ErrInvalidConfig, "drive size must be >= 1, got %d", driveSize)
	}

	drives := make([]*drive.Drive, numDrives)
	roles := make([]Role, numDrives)
	for i := range drives {
		drives[i] = drive.New(driveSize)
		switch {
		case i == pIndex:
			roles[i] = RoleP
		case mode == RAID6 && i == qIndex:
			roles[i] = RoleQ
		default:
			roles[i] = RoleData
		}
	}

	return &Array{mode: mode, driveSize: driveSize, drives: drives, roles: roles}, nil
}

// Init formats every drive. Contents stay zero, so both parity
// invariants hold trivially.
func (a *Array) Init() {
	prev := a.State()
	for _, d := range a.drives {
		d.Format()
	}
	logStateChange(prev, a.State())
}

// State computes the array's current state from its drives' flags.
func (a *Array) State() State {
	n := len(a.drives)
	u, f := 0, 0
	for _, d := range a.drives {
		switch {
		case d.IsFailed():
			f++
		case !d.IsFormatted():
			u++
		}
	}
	return computeState(n, u, f, a.mode.parityDrives(), a.mode)
}

// Size returns the addressable capacity in bytes: (numDrives-p)*driveSize.
func (a *Array) Size() int64 {
	return int64(len(a.drives)-a.mode.parityDrives()) * int64(a.driveSize)
}

// Mode returns the array's RAID mode.
func (a *Array) Mode() Mode {
	return a.mode
}

func (a *Array) dataDrives() []*drive.Drive {
	return a.drives[a.mode.parityDrives():]
}

// validateOffset maps a logical byte address to (data-drive index,
// offset within the drive), or ErrOffsetTooLarge if out of range.
func (a *Array) validateOffset(addr int64) (k, o int, err error) {
	if addr < 0 || addr >= a.Size() {
		return 0, 0, errors.Wrapf(ErrOffsetTooLarge, "offset %d (capacity %d)", addr, a.Size())
	}
	k = int(addr / int64(a.driveSize))
	o = int(addr % int64(a.driveSize))
	return k, o, nil
}

// Read returns the byte at logical address offset, reconstructing it
// from parity if the owning data drive has failed. A non-failed read
// never consults parity, so corrupted parity can never falsify a
// successful data read.
func (a *Array) Read(offset int64) (byte, error) {
	if a.State() == Failed {
		return 0, ErrArrayFailed
	}
	k, o, err := a.validateOffset(offset)
	if err != nil {
		return 0, err
	}

	degraded := a.dataDrives()[k].IsFailed()
	b, err := a.readByteRaw(k, o)
	if err != nil {
		return 0, err
	}

	atomic.AddUint64(&a.stats.reads, 1)
	if degraded {
		atomic.AddUint64(&a.stats.degradedReads, 1)
		atomic.AddUint64(&a.stats.reconstructions, 1)
	}
	return b, nil
}

// readByteRaw is the read path without stats bookkeeping, used both by
// the public Read and by Write's need for the pre-write byte.
func (a *Array) readByteRaw(k, o int) (byte, error) {
	dd := a.dataDrives()
	d := dd[k]
	if !d.IsFailed() {
		b, err := d.Read(o)
		if err != nil {
			return 0, errors.Wrapf(err, "read data drive %d", k)
		}
		return b, nil
	}
	return a.reconstructByte(dd, k, o)
}

// reconstructByte recovers data-drive k's byte at offset o from
// surviving drives, dispatching on which roles are unavailable per
// spec.md §4.4.
func (a *Array) reconstructByte(dd []*drive.Drive, k, o int) (byte, error) {
	pFailed := a.drives[pIndex].IsFailed()
	qFailed := a.mode == RAID6 && a.drives[qIndex].IsFailed()

	if a.mode == RAID5 || qFailed {
		return a.recoverViaP(dd, k, o)
	}
	if pFailed {
		return a.recoverViaQ(dd, k, o)
	}

	failedData := failedDataIndices(dd)
	if len(failedData) <= 1 {
		return a.recoverViaP(dd, k, o)
	}
	x, y := failedData[0], failedData[1]
	return a.recoverTwoData(dd, x, y, o, k)
}

func failedDataIndices(dd []*drive.Drive) []int {
	var idxs []int
	for i, d := range dd {
		if d.IsFailed() {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// recoverViaP implements d_k[o] = P[o] XOR P-fold(o, {k}).
func (a *Array) recoverViaP(dd []*drive.Drive, k, o int) (byte, error) {
	pxy, err := parity.PFoldByte(dd, o, parity.NewIgnore(k))
	if err != nil {
		return 0, err
	}
	pByte, err := a.drives[pIndex].Read(o)
	if err != nil {
		return 0, errors.Wrap(err, "read P parity")
	}
	return pByte ^ pxy, nil
}

// recoverViaQ implements d_k[o] = (Q[o] XOR Q-fold(o, {k})) * g^-k.
func (a *Array) recoverViaQ(dd []*drive.Drive, k, o int) (byte, error) {
	qxy, err := parity.QFoldByte(dd, o, parity.NewIgnore(k))
	if err != nil {
		return 0, err
	}
	qByte, err := a.drives[qIndex].Read(o)
	if err != nil {
		return 0, errors.Wrap(err, "read Q parity")
	}
	diff := qByte ^ qxy
	return gf256.FromByte(diff).Mul(gf256.FromPower(-k)).ToByte(), nil
}

// recoverTwoData implements the two-data-drive reconstruction formula
// (spec.md §4.4) and returns the byte for data-drive index `want`
// (either x or y).
func (a *Array) recoverTwoData(dd []*drive.Drive, x, y, o, want int) (byte, error) {
	ignore := parity.NewIgnore(x, y)
	pxy, err := parity.PFoldByte(dd, o, ignore)
	if err != nil {
		return 0, err
	}
	qxy, err := parity.QFoldByte(dd, o, ignore)
	if err != nil {
		return 0, err
	}
	pByte, err := a.drives[pIndex].Read(o)
	if err != nil {
		return 0, errors.Wrap(err, "read P parity")
	}
	qByte, err := a.drives[qIndex].Read(o)
	if err != nil {
		return 0, errors.Wrap(err, "read Q parity")
	}

	pDiff := pByte ^ pxy
	qDiff := qByte ^ qxy

	dxByte, dyByte := solveTwoUnknowns(x, y, pDiff, qDiff)
	if want == x {
		return dxByte, nil
	}
	return dyByte, nil
}

// solveTwoUnknowns applies the RAID-6 two-erasure formula:
//
//	A = g^(y-x) / (g^(y-x) + 1)
//	B = g^(-x)  / (g^(y-x) + 1)
//	d_x = A*(P XOR P_xy) XOR B*(Q XOR Q_xy)
//	d_y = (P XOR P_xy) XOR d_x
//
// The denominator g^(y-x)+1 is nonzero for every x != y in [0, 254].
func solveTwoUnknowns(x, y int, pDiff, qDiff byte) (dx, dy byte) {
	gYX := gf256.FromPower(y - x)
	denom := gf256.FromByte(gYX.AddByte(1))
	coeffA := gYX.Div(denom)
	coeffB := gf256.FromPower(-x).Div(denom)

	dx = gf256.FromByte(pDiff).Mul(coeffA).AddByte(gf256.FromByte(qDiff).Mul(coeffB).ToByte())
	dy = pDiff ^ dx
	return dx, dy
}

// Write stores b at logical address offset and incrementally updates
// whichever parity drives are still alive.
func (a *Array) Write(offset int64, b byte) error {
	if a.State() == Failed {
		return ErrArrayFailed
	}
	k, o, err := a.validateOffset(offset)
	if err != nil {
		return err
	}
	return a.writeByte(k, o, b)
}

func (a *Array) writeByte(k, o int, b byte) error {
	old, err := a.readByteRaw(k, o)
	if err != nil {
		return err
	}

	dd := a.dataDrives()
	dk := dd[k]
	if !dk.IsFailed() {
		if err := dk.Write(o, b); err != nil {
			return errors.Wrapf(err, "write data drive %d", k)
		}
	}

	delta := old ^ b

	if p := a.drives[pIndex]; !p.IsFailed() {
		pOld, err := p.Read(o)
		if err != nil {
			return errors.Wrap(err, "read P parity")
		}
		if err := p.Write(o, pOld^delta); err != nil {
			return errors.Wrap(err, "write P parity")
		}
	}

	if a.mode == RAID6 {
		if q := a.drives[qIndex]; !q.IsFailed() {
			qOld, err := q.Read(o)
			if err != nil {
				return errors.Wrap(err, "read Q parity")
			}
			term := gf256.FromByte(delta).Mul(gf256.FromPower(k))
			if err := q.Write(o, term.AddByte(qOld)); err != nil {
				return errors.Wrap(err, "write Q parity")
			}
		}
	}

	atomic.AddUint64(&a.stats.writes, 1)
	return nil
}

// WriteSlice writes buf starting at offset, byte by byte, producing a
// state indistinguishable from that many calls to Write.
func (a *Array) WriteSlice(offset int64, buf []byte) error {
	for i, b := range buf {
		if err := a.Write(offset+int64(i), b); err != nil {
			return err
		}
	}
	return nil
}

// ReadSlice reads n contiguous bytes starting at offset.
func (a *Array) ReadSlice(offset int64, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		b, err := a.Read(offset + int64(i))
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// Snapshot reads the entire logical address space. It is an
// introspection helper for tests, not part of the hot path; callers
// should expect it to fail exactly as Read would on a Failed array.
func (a *Array) Snapshot() ([]byte, error) {
	return a.ReadSlice(0, int(a.Size()))
}

// DriveInfo is an introspection view of one physical drive.
type DriveInfo struct {
	Index      int
	Role       Role
	Failed     bool
	Formatted  bool
	Generation uint64
}

// Drives returns an introspection snapshot of every physical drive,
// in absolute index order (spec.md §6: "iteration over failed and
// unformatted drives, access to P and Q drives").
func (a *Array) Drives() []DriveInfo {
	out := make([]DriveInfo, len(a.drives))
	for i, d := range a.drives {
		out[i] = DriveInfo{
			Index:      i,
			Role:       a.roles[i],
			Failed:     d.IsFailed(),
			Formatted:  d.IsFormatted(),
			Generation: d.Generation(),
		}
	}
	return out
}

// Stats returns a snapshot of the array's running counters.
func (a *Array) Stats() Stats {
	return a.stats.snapshot()
}
