package parity

import (
	"testing"

	"github.com/raidsim/raid/internal/drive"
	"github.com/raidsim/raid/internal/gf256"
)

func makeData(t *testing.T, rows [][]byte) []*drive.Drive {
	t.Helper()
	drives := make([]*drive.Drive, len(rows))
	for i, row := range rows {
		d := drive.New(len(row))
		if err := d.SetData(row); err != nil {
			t.Fatalf("SetData: %v", err)
		}
		drives[i] = d
	}
	return drives
}

func TestPFoldByteAllZero(t *testing.T) {
	drives := makeData(t, [][]byte{{0, 0}, {0, 0}, {0, 0}})
	got, err := PFoldByte(drives, 0, nil)
	if err != nil {
		t.Fatalf("PFoldByte: %v", err)
	}
	if got != 0 {
		t.Fatalf("PFoldByte = %d, want 0", got)
	}
}

func TestPFoldByteSingleByte(t *testing.T) {
	drives := makeData(t, [][]byte{{0x01}, {0x00}})
	got, err := PFoldByte(drives, 0, nil)
	if err != nil {
		t.Fatalf("PFoldByte: %v", err)
	}
	if got != 0x01 {
		t.Fatalf("PFoldByte = 0x%02X, want 0x01", got)
	}
}

func TestQFoldByteMatchesFieldDefinition(t *testing.T) {
	// d0 = 0x01, d1 = 0x02: Q = g^0*0x01 XOR g^1*0x02
	drives := makeData(t, [][]byte{{0x01}, {0x02}})
	got, err := QFoldByte(drives, 0, nil)
	if err != nil {
		t.Fatalf("QFoldByte: %v", err)
	}
	term0 := gf256.FromByte(0x01).Mul(gf256.FromPower(0)).ToByte()
	term1 := gf256.FromByte(0x02).Mul(gf256.FromPower(1)).ToByte()
	want := term0 ^ term1
	if got != want {
		t.Fatalf("QFoldByte = 0x%02X, want 0x%02X", got, want)
	}
}

func TestFoldIgnoresListedIndices(t *testing.T) {
	drives := makeData(t, [][]byte{{0x01}, {0x02}, {0x04}})
	got, err := PFoldByte(drives, 0, NewIgnore(1))
	if err != nil {
		t.Fatalf("PFoldByte: %v", err)
	}
	want := byte(0x01 ^ 0x04)
	if got != want {
		t.Fatalf("PFoldByte ignoring index 1 = 0x%02X, want 0x%02X", got, want)
	}
}

func TestPFoldWholeMatchesByteFold(t *testing.T) {
	drives := makeData(t, [][]byte{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	whole, err := PFoldWhole(drives, 3, nil)
	if err != nil {
		t.Fatalf("PFoldWhole: %v", err)
	}
	for i := 0; i < 3; i++ {
		b, err := PFoldByte(drives, i, nil)
		if err != nil {
			t.Fatalf("PFoldByte: %v", err)
		}
		if whole[i] != b {
			t.Fatalf("PFoldWhole[%d] = %d, want %d", i, whole[i], b)
		}
	}
}

func TestFoldOnFailedDriveErrors(t *testing.T) {
	drives := makeData(t, [][]byte{{1}, {2}})
	drives[1].Fail()
	if _, err := PFoldByte(drives, 0, nil); err == nil {
		t.Fatalf("expected error folding over a failed, non-ignored drive")
	}
	// ignoring the failed drive sidesteps the read entirely
	got, err := PFoldByte(drives, 0, NewIgnore(1))
	if err != nil {
		t.Fatalf("PFoldByte with failed drive ignored: %v", err)
	}
	if got != 1 {
		t.Fatalf("PFoldByte = %d, want 1", got)
	}
}

func TestVerifyDetectsPMismatch(t *testing.T) {
	data := makeData(t, [][]byte{{1, 2}, {3, 4}})
	p := drive.New(2)
	p.SetData([]byte{1 ^ 3, 9}) // second byte deliberately wrong (want 2^4=6)
	pOK, qOK, mismatch := Verify(data, p, nil, 2)
	if pOK {
		t.Fatalf("expected P mismatch to be detected")
	}
	if !qOK {
		t.Fatalf("qOK should be true when q is nil (RAID-5)")
	}
	if mismatch != 1 {
		t.Fatalf("firstMismatch = %d, want 1", mismatch)
	}
}

func TestVerifyAgreesWhenConsistent(t *testing.T) {
	data := makeData(t, [][]byte{{1, 2}, {3, 4}})
	pWant, _ := PFoldWhole(data, 2, nil)
	qWant, _ := QFoldWhole(data, 2, nil)
	p := drive.New(2)
	p.SetData(pWant)
	q := drive.New(2)
	q.SetData(qWant)

	pOK, qOK, mismatch := Verify(data, p, q, 2)
	if !pOK || !qOK {
		t.Fatalf("expected both parities to agree: pOK=%v qOK=%v", pOK, qOK)
	}
	if mismatch != -1 {
		t.Fatalf("firstMismatch = %d, want -1", mismatch)
	}
}
