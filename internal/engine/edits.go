package engine

import (
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/edit"
	"github.com/irscelearn/ce-reporter/internal/model"
)

// ApplyEditEffects carries out the table-side effects produced by the
// edit rules. Notify effects are not performed here; the matching
// entries come back for the caller to dispatch. Row indices are
// zero-based body positions.
func (e *Engine) ApplyEditEffects(effects []edit.Effect) (notify []model.RosterEntry, err error) {
	if len(effects) == 0 {
		return nil, nil
	}
	d, err := loadMaster(e.t.Master)
	if err != nil {
		return nil, err
	}

	matches := func(entry model.RosterEntry, rec model.AttendeeRecord) bool {
		return (entry.Email != "" && entry.Email == rec.Email) ||
			(entry.PTIN != "" && entry.PTIN == rec.PTIN)
	}

	changed := false
	for _, eff := range effects {
		switch ef := eff.(type) {
		case edit.SyncIdentityToMaster:
			for _, r := range d.rows {
				if !matches(ef.Entry, r.rec) {
					continue
				}
				// The vetted identity is authoritative for names; keys
				// only fill blanks.
				r.rec.FirstName = ef.Entry.FirstName
				r.rec.LastName = ef.Entry.LastName
				if r.rec.PTIN == "" {
					r.rec.PTIN = ef.Entry.PTIN
				}
				if r.rec.Email == "" {
					r.rec.Email = ef.Entry.Email
				}
				changed = true
			}
		case edit.ClearIssue:
			// Vetting is the explicit fix path, so even the sticky
			// status clears here.
			for _, r := range d.rows {
				if matches(ef.Entry, r.rec) && r.rec.Issue != model.IssueNone {
					r.rec.Issue = model.IssueNone
					changed = true
				}
			}
		case edit.RewriteCell:
			if ef.Table == edit.TableMaster && ef.Row >= 0 && ef.Row < len(d.rows) {
				d.rows[ef.Row].rec.PTIN = ef.Value
				changed = true
			}
		case edit.FlagIssue:
			if ef.Table == edit.TableMaster && ef.Row >= 0 && ef.Row < len(d.rows) {
				d.rows[ef.Row].rec.Issue = ef.Issue
				changed = true
			}
		case edit.Notify:
			notify = append(notify, ef.Entry)
		}
	}

	if changed {
		if err := d.flush(e.t.Master); err != nil {
			return nil, err
		}
	}
	zap.L().Debug("edit effects applied",
		zap.Int("effects", len(effects)), zap.Int("notify", len(notify)))
	return notify, nil
}
