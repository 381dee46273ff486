package engine

import (
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// ProgramStat is the reported-row count and CE hour total for one
// program.
type ProgramStat struct {
	Program  string  `json:"program"`
	Reported int     `json:"reported"`
	Hours    float64 `json:"hours"`
}

// StatsReport summarizes the ledger per program.
type StatsReport struct {
	Programs      []ProgramStat `json:"programs"`
	TotalReported int           `json:"total_reported"`
	TotalHours    float64       `json:"total_hours"`
}

// Stats tallies reported rows and CE hours per program from the ledger.
// Unparsable hour cells count as zero hours but still count the row.
func (e *Engine) Stats() (*StatsReport, error) {
	ld, err := loadLedger(e.t.Ledger)
	if err != nil {
		return nil, err
	}

	byProgram := make(map[string]*ProgramStat)
	report := &StatsReport{}
	for _, entry := range ld.entries {
		if entry.Program == "" {
			continue
		}
		stat, ok := byProgram[entry.Program]
		if !ok {
			stat = &ProgramStat{Program: entry.Program}
			byProgram[entry.Program] = stat
		}
		stat.Reported++
		report.TotalReported++
		if h, err := strconv.ParseFloat(entry.Hours, 64); err == nil {
			stat.Hours += h
			report.TotalHours += h
		}
	}

	for _, stat := range byProgram {
		report.Programs = append(report.Programs, *stat)
	}
	sort.Slice(report.Programs, func(i, j int) bool {
		return report.Programs[i].Program < report.Programs[j].Program
	})
	zap.L().Info("stats computed",
		zap.Int("programs", len(report.Programs)),
		zap.Int("reported", report.TotalReported),
		zap.Float64("hours", report.TotalHours))
	return report, nil
}
