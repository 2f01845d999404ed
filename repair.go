package raid

import (
	"sync/atomic"

	"github.com/raidsim/raid/internal/drive"
	"github.com/raidsim/raid/internal/gf256"
	"github.com/raidsim/raid/internal/parity"
)

// Repair reconstructs every unavailable drive's contents from its
// surviving peers and formats it, moving the array from Degraded back
// to Ok. It requires every failed drive to have already been replaced
// via ReplaceFailedDrives (a failed drive cannot be read from, so there
// is nothing to preserve a mapping onto; only a blank, unformatted
// replacement can be repaired).
func (a *Array) Repair() error {
	switch a.State() {
	case Uninit:
		return ErrNotInitialized
	case Failed:
		return ErrArrayFailed
	case Ok:
		return ErrNotDegraded
	}

	var failed, unformatted []int
	for i, d := range a.drives {
		switch {
		case d.IsFailed():
			failed = append(failed, i)
		case !d.IsFormatted():
			unformatted = append(unformatted, i)
		}
	}
	if len(failed) > 0 {
		return ErrDrivesNeedReplaced
	}

	logRepairStart(len(unformatted))
	err := a.repairDrives(unformatted)
	logRepairDone(err)
	atomic.AddUint64(&a.stats.repairs, 1)
	if err != nil {
		atomic.AddUint64(&a.stats.repairFailures, 1)
	}
	return err
}

// repairDrives reconstructs and formats every drive named in missing
// (absolute indices), dispatching on which roles are among them. Every
// case in spec.md §4.4's repair table is covered: P alone, Q alone, one
// data drive, P+Q, P+data, Q+data, and two data drives.
func (a *Array) repairDrives(missing []int) error {
	p := a.mode.parityDrives()

	var missingData []int
	missingP, missingQ := false, false
	for _, idx := range missing {
		switch {
		case idx == pIndex:
			missingP = true
		case a.mode == RAID6 && idx == qIndex:
			missingQ = true
		default:
			missingData = append(missingData, idx-p)
		}
	}

	dd := a.dataDrives()
	size := a.driveSize

	switch len(missingData) {
	case 0:
		if missingP {
			if err := a.rebuildWhole(a.drives[pIndex], func(o int) (byte, error) {
				return parity.PFoldByte(dd, o, nil)
			}); err != nil {
				return err
			}
		}
		if missingQ {
			if err := a.rebuildWhole(a.drives[qIndex], func(o int) (byte, error) {
				return parity.QFoldByte(dd, o, nil)
			}); err != nil {
				return err
			}
		}
		return nil

	case 1:
		k := missingData[0]
		ignoreK := parity.NewIgnore(k)

		var dataVal func(o int) (byte, error)
		if !missingP {
			dataVal = func(o int) (byte, error) { return a.recoverViaP(dd, k, o) }
		} else {
			dataVal = func(o int) (byte, error) { return a.recoverViaQ(dd, k, o) }
		}

		reconstructed := make([]byte, size)
		for o := 0; o < size; o++ {
			b, err := dataVal(o)
			if err != nil {
				return err
			}
			reconstructed[o] = b
		}
		if err := a.rebuildWhole(dd[k], byteSource(reconstructed)); err != nil {
			return err
		}

		if missingP {
			if err := a.rebuildWhole(a.drives[pIndex], func(o int) (byte, error) {
				pxy, err := parity.PFoldByte(dd, o, ignoreK)
				if err != nil {
					return 0, err
				}
				return pxy ^ reconstructed[o], nil
			}); err != nil {
				return err
			}
		}
		if missingQ {
			if err := a.rebuildWhole(a.drives[qIndex], func(o int) (byte, error) {
				qxy, err := parity.QFoldByte(dd, o, ignoreK)
				if err != nil {
					return 0, err
				}
				term := gf256.FromByte(reconstructed[o]).Mul(gf256.FromPower(k))
				return term.AddByte(qxy), nil
			}); err != nil {
				return err
			}
		}
		return nil

	case 2:
		x, y := missingData[0], missingData[1]
		ignoreXY := parity.NewIgnore(x, y)
		xVals := make([]byte, size)
		yVals := make([]byte, size)
		for o := 0; o < size; o++ {
			pxy, err := parity.PFoldByte(dd, o, ignoreXY)
			if err != nil {
				return err
			}
			qxy, err := parity.QFoldByte(dd, o, ignoreXY)
			if err != nil {
				return err
			}
			pByte, err := a.drives[pIndex].Read(o)
			if err != nil {
				return err
			}
			qByte, err := a.drives[qIndex].Read(o)
			if err != nil {
				return err
			}
			dx, dy := solveTwoUnknowns(x, y, pByte^pxy, qByte^qxy)
			xVals[o] = dx
			yVals[o] = dy
		}
		if err := a.rebuildWhole(dd[x], byteSource(xVals)); err != nil {
			return err
		}
		return a.rebuildWhole(dd[y], byteSource(yVals))

	default:
		return ErrDrivesNeedReplaced
	}
}

func byteSource(buf []byte) func(int) (byte, error) {
	return func(o int) (byte, error) { return buf[o], nil }
}

// rebuildWhole fills d with f(0..size-1) and formats it, making it a
// full participant in the array again.
func (a *Array) rebuildWhole(d *drive.Drive, f func(int) (byte, error)) error {
	buf := make([]byte, a.driveSize)
	for o := range buf {
		b, err := f(o)
		if err != nil {
			return err
		}
		buf[o] = b
	}
	d.Format()
	return d.SetData(buf)
}
