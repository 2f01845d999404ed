package raid

import (
	"math/rand"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/raidsim/raid/internal/drive"
)

// FailRandom marks one uniformly-random currently-healthy drive
// (parity or data) as failed and returns its absolute index. It
// returns an error if every drive is already failed.
func (a *Array) FailRandom(rng *rand.Rand) (int, error) {
	return a.failRandomInRange(rng, 0, len(a.drives))
}

// FailRandomData marks one uniformly-random currently-healthy data
// drive (never P or Q) as failed and returns its absolute index.
func (a *Array) FailRandomData(rng *rand.Rand) (int, error) {
	p := a.mode.parityDrives()
	return a.failRandomInRange(rng, p, len(a.drives))
}

// failRandomInRange picks uniformly among the healthy drives in
// [lo, hi) and fails one of them.
func (a *Array) failRandomInRange(rng *rand.Rand, lo, hi int) (int, error) {
	var healthy []int
	for i := lo; i < hi; i++ {
		if !a.drives[i].IsFailed() {
			healthy = append(healthy, i)
		}
	}
	if len(healthy) == 0 {
		return 0, errors.New("raid: no healthy drive to fail")
	}
	idx := healthy[rng.Intn(len(healthy))]
	if err := a.failDrive(idx); err != nil {
		return 0, err
	}
	return idx, nil
}

// FailPParity marks the P-parity drive (index 0) as failed.
func (a *Array) FailPParity() error {
	return a.failDrive(pIndex)
}

// FailQParity marks the Q-parity drive (index 1) as failed. It is an
// error to call this on a RAID-5 array, which has no Q drive.
func (a *Array) FailQParity() error {
	if a.mode != RAID6 {
		return errors.New("raid: FailQParity called on a RAID-5 array")
	}
	return a.failDrive(qIndex)
}

func (a *Array) failDrive(idx int) error {
	d := a.drives[idx]
	if d.IsFailed() {
		return errors.Errorf("raid: drive %d already failed", idx)
	}
	prev := a.State()
	d.Fail()
	atomic.AddUint64(&a.stats.faultsInjected, 1)
	logFault("fail", idx, a.roles[idx])
	logStateChange(prev, a.State())
	return nil
}

// ReplaceFailedDrives swaps every failed drive for a blank, unformatted
// replacement (spec.md: hot-swap semantics — capacity and role are
// unchanged, contents and write generation are reset). It does not
// attempt repair; call Repair afterward to restore parity consistency.
func (a *Array) ReplaceFailedDrives() {
	prev := a.State()
	for i, d := range a.drives {
		if d.IsFailed() {
			a.drives[i] = drive.New(a.driveSize)
		}
	}
	logStateChange(prev, a.State())
}
