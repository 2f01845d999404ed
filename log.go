package raid

import "github.com/rs/zerolog/log"

// logStateChange emits a structured Debug event for a state transition.
// Kept separate from the rest of the controller so the logging concern
// can be swapped (or silenced, via zerolog's global level) without
// touching the parity math.
func logStateChange(from, to State) {
	if from == to {
		return
	}
	log.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("raid: state transition")
}

func logFault(op string, idx int, role Role) {
	log.Debug().
		Str("op", op).
		Int("drive", idx).
		Str("role", role.String()).
		Msg("raid: fault injected")
}

func logRepairStart(u int) {
	log.Debug().
		Int("unformatted", u).
		Msg("raid: repair starting")
}

func logRepairDone(err error) {
	ev := log.Debug()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("raid: repair finished")
}
