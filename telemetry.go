package raid

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Header returns the CSV column names for Stats, in the same order
// ToSlice emits values.
func (s Stats) Header() []string {
	return []string{
		"Reads",
		"DegradedReads",
		"Reconstructions",
		"Writes",
		"FaultsInjected",
		"Repairs",
		"RepairFailures",
	}
}

// ToSlice renders Stats as a row of strings matching Header's columns.
func (s Stats) ToSlice() []string {
	return []string{
		fmt.Sprint(s.Reads),
		fmt.Sprint(s.DegradedReads),
		fmt.Sprint(s.Reconstructions),
		fmt.Sprint(s.Writes),
		fmt.Sprint(s.FaultsInjected),
		fmt.Sprint(s.Repairs),
		fmt.Sprint(s.RepairFailures),
	}
}

// StatsLogger periodically appends a.Stats() as a CSV row to path, in
// the teacher's own SNMP-dumper shape (split dirname/filename, apply
// time.Now().Format to the filename half so callers can rotate by
// passing a path like "stats-20060102.csv", write a header only into a
// freshly-created file). The returned function is intended to run in its
// own goroutine; it returns when done is closed, or at once if path is
// empty or interval is not positive.
func StatsLogger(a *Array, path string, interval time.Duration) func(done <-chan struct{}) {
	return func(done <-chan struct{}) {
		if path == "" || interval <= 0 {
			return
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := appendStatsRow(a, path); err != nil {
					log.Debug().Err(err).Msg("raid: stats logger write failed")
				}
			}
		}
	}
}

func appendStatsRow(a *Array, path string) error {
	logdir, logfile := filepath.Split(path)
	f, err := os.OpenFile(logdir+time.Now().Format(logfile), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	st := a.Stats()

	if stat, err := f.Stat(); err == nil && stat.Size() == 0 {
		if err := w.Write(append([]string{"Unix"}, st.Header()...)); err != nil {
			return err
		}
	}
	if err := w.Write(append([]string{fmt.Sprint(time.Now().Unix())}, st.ToSlice()...)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
