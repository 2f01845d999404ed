package raid

import "sync/atomic"

// Stats is a snapshot of the array's atomic counters, in the spirit of
// an SNMP-style counter block (grounded on the teacher's own
// atomic.AddUint64(&DefaultSnmp.X, 1) convention in its FEC layer).
// Every field is a running total since the array was constructed.
type Stats struct {
	Reads           uint64
	DegradedReads   uint64
	Reconstructions uint64 // bytes reconstructed from parity to serve a Read
	Writes          uint64
	FaultsInjected  uint64
	Repairs         uint64
	RepairFailures  uint64
}

// liveStats holds the mutable counters backing Array.Stats. Kept as a
// separate struct of plain uint64s (not embedded Stats) so the zero
// value is usable and atomic.AddUint64 has a concrete address to target.
type liveStats struct {
	reads           uint64
	degradedReads   uint64
	reconstructions uint64
	writes          uint64
	faultsInjected  uint64
	repairs         uint64
	repairFailures  uint64
}

func (s *liveStats) snapshot() Stats {
	return Stats{
		Reads:           atomic.LoadUint64(&s.reads),
		DegradedReads:   atomic.LoadUint64(&s.degradedReads),
		Reconstructions: atomic.LoadUint64(&s.reconstructions),
		Writes:          atomic.LoadUint64(&s.writes),
		FaultsInjected:  atomic.LoadUint64(&s.faultsInjected),
		Repairs:         atomic.LoadUint64(&s.repairs),
		RepairFailures:  atomic.LoadUint64(&s.repairFailures),
	}
}
