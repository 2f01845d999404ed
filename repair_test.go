package raid

import (
	"testing"

	"github.com/raidsim/raid/internal/parity"
)

func TestRepairNotInitialized(t *testing.T) {
	a, _ := New(RAID5, 3, 4)
	if err := a.Repair(); err != ErrNotInitialized {
		t.Fatalf("Repair() = %v, want ErrNotInitialized", err)
	}
}

func TestRepairNotDegraded(t *testing.T) {
	a := newReadyArray(t, RAID5, 3, 4)
	if err := a.Repair(); err != ErrNotDegraded {
		t.Fatalf("Repair() = %v, want ErrNotDegraded", err)
	}
}

func TestRepairRequiresReplaceFirst(t *testing.T) {
	a := newReadyArray(t, RAID5, 3, 4)
	if err := a.failDrive(1); err != nil {
		t.Fatalf("failDrive: %v", err)
	}
	if err := a.Repair(); err != ErrDrivesNeedReplaced {
		t.Fatalf("Repair() = %v, want ErrDrivesNeedReplaced", err)
	}
}

func TestRepairSingleDataDriveRAID5(t *testing.T) {
	a := newReadyArray(t, RAID5, 4, 4)
	want := []byte{11, 22, 33}
	if err := a.WriteSlice(0, want); err != nil {
		t.Fatalf("WriteSlice: %v", err)
	}
	if err := a.failDrive(1); err != nil {
		t.Fatalf("failDrive: %v", err)
	}
	a.ReplaceFailedDrives()
	if err := a.Repair(); err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if got := a.State(); got != Ok {
		t.Fatalf("State() after repair = %v, want Ok", got)
	}
	for i, w := range want {
		got, err := a.Read(int64(i))
		if err != nil {
			t.Fatalf("Read(%d): %v", i, err)
		}
		if got != w {
			t.Fatalf("Read(%d) after repair = %d, want %d", i, got, w)
		}
	}
}

func TestRepairPParityRAID5(t *testing.T) {
	a := newReadyArray(t, RAID5, 4, 4)
	if err := a.WriteSlice(0, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteSlice: %v", err)
	}
	if err := a.FailPParity(); err != nil {
		t.Fatalf("FailPParity: %v", err)
	}
	a.ReplaceFailedDrives()
	if err := a.Repair(); err != nil {
		t.Fatalf("Repair: %v", err)
	}
	pOK, _, _ := parity.Verify(a.dataDrives(), a.drives[pIndex], nil, a.driveSize)
	if !pOK {
		t.Fatalf("P parity incorrect after repair")
	}
}

func TestRepairPAndQRAID6(t *testing.T) {
	a := newReadyArray(t, RAID6, 5, 4)
	if err := a.WriteSlice(0, []byte{5, 6, 7}); err != nil {
		t.Fatalf("WriteSlice: %v", err)
	}
	if err := a.FailPParity(); err != nil {
		t.Fatalf("FailPParity: %v", err)
	}
	if err := a.FailQParity(); err != nil {
		t.Fatalf("FailQParity: %v", err)
	}
	a.ReplaceFailedDrives()
	if err := a.Repair(); err != nil {
		t.Fatalf("Repair: %v", err)
	}
	pOK, qOK, _ := parity.Verify(a.dataDrives(), a.drives[pIndex], a.drives[qIndex], a.driveSize)
	if !pOK || !qOK {
		t.Fatalf("parity incorrect after repairing both P and Q: pOK=%v qOK=%v", pOK, qOK)
	}
}

func TestRepairQPlusDataRAID6(t *testing.T) {
	a := newReadyArray(t, RAID6, 5, 4)
	want := []byte{9, 8, 7}
	if err := a.WriteSlice(0, want); err != nil {
		t.Fatalf("WriteSlice: %v", err)
	}
	if err := a.FailQParity(); err != nil {
		t.Fatalf("FailQParity: %v", err)
	}
	if err := a.failDrive(2); err != nil { // first data drive
		t.Fatalf("failDrive: %v", err)
	}
	a.ReplaceFailedDrives()
	if err := a.Repair(); err != nil {
		t.Fatalf("Repair: %v", err)
	}
	for i, w := range want {
		got, err := a.Read(int64(i))
		if err != nil {
			t.Fatalf("Read(%d): %v", i, err)
		}
		if got != w {
			t.Fatalf("Read(%d) after repair = %d, want %d", i, got, w)
		}
	}
	pOK, qOK, _ := parity.Verify(a.dataDrives(), a.drives[pIndex], a.drives[qIndex], a.driveSize)
	if !pOK || !qOK {
		t.Fatalf("parity incorrect after repair: pOK=%v qOK=%v", pOK, qOK)
	}
}

func TestRepairTwoDataDrivesRAID6(t *testing.T) {
	a := newReadyArray(t, RAID6, 6, 4)
	want := []byte{1, 2, 3, 4}
	if err := a.WriteSlice(0, want); err != nil {
		t.Fatalf("WriteSlice: %v", err)
	}
	if err := a.failDrive(2); err != nil {
		t.Fatalf("failDrive(2): %v", err)
	}
	if err := a.failDrive(3); err != nil {
		t.Fatalf("failDrive(3): %v", err)
	}
	a.ReplaceFailedDrives()
	if err := a.Repair(); err != nil {
		t.Fatalf("Repair: %v", err)
	}
	for i, w := range want {
		got, err := a.Read(int64(i))
		if err != nil {
			t.Fatalf("Read(%d): %v", i, err)
		}
		if got != w {
			t.Fatalf("Read(%d) after repair = %d, want %d", i, got, w)
		}
	}
}
