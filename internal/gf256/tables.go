// Package gf256 implements GF(2^8) arithmetic over the generator {02}
// under the reducing polynomial x^8+x^4+x^3+x^2+1, the field RAID-6's
// Q-parity is built on.
package gf256

import "sync"

const (
	// Order is the number of nonzero elements in the field; every
	// nonzero element is g^n for exactly one n in [0, Order).
	Order = 255
)

var (
	tablesOnce sync.Once

	// antilog[n] = g^n for n in [0, Order).
	antilog [Order]byte

	// logOf[v] = the unique n with g^n = v, for v in [1, 255].
	// logOf[0] is unused; zero has no discrete logarithm and is handled
	// as a distinct tag on Element rather than a sentinel here.
	logOf [256]int16
)

// buildTables constructs the antilog/log tables exactly once per
// process. They are read-only afterwards and safe to share across every
// Array without locking.
func buildTables() {
	tablesOnce.Do(func() {
		v := byte(1)
		for n := 0; n < Order; n++ {
			antilog[n] = v
			logOf[v] = int16(n)
			v = step(v)
		}
	})
}

// step applies the generator {02} once: left-shift by one bit, and XOR
// with 0x1D (the reduction of g^8) if the pre-shift high bit was set.
func step(v byte) byte {
	hi := v & 0x80
	v <<= 1
	if hi != 0 {
		v ^= 0x1D
	}
	return v
}

func init() {
	buildTables()
}
