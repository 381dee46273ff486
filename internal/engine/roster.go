package engine

import (
	"sort"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/irscelearn/ce-reporter/internal/dedupe"
	"github.com/irscelearn/ce-reporter/internal/model"
)

// GenerateRoster appends a Roster entry for every Master identity not
// already on the Roster, keyed by email-or-PTIN. New entries arrive
// unvetted (Valid unset).
func (e *Engine) GenerateRoster() (added int, err error) {
	d, err := loadMaster(e.t.Master)
	if err != nil {
		return 0, err
	}
	rd, err := loadRoster(e.t.Roster)
	if err != nil {
		return 0, err
	}

	known := make(map[string]bool, len(rd.entries))
	for _, entry := range rd.entries {
		if k := entry.Key(); k != "" {
			known[k] = true
		}
	}

	for _, r := range d.rows {
		candidate := model.RosterEntry{
			FirstName: r.rec.FirstName,
			LastName:  r.rec.LastName,
			PTIN:      r.rec.PTIN,
			Email:     r.rec.Email,
			Group:     r.rec.Group,
		}
		k := candidate.Key()
		if k == "" || known[k] {
			continue
		}
		known[k] = true
		rd.entries = append(rd.entries, candidate)
		added++
	}

	if err := rd.flush(e.t.Roster); err != nil {
		return 0, err
	}
	zap.L().Info("roster generated", zap.Int("added", added), zap.Int("total", len(rd.entries)))
	return added, nil
}

// DedupeRoster collapses the Roster by email-or-PTIN, latest row winning
// wholesale, drops keyless rows, and re-sorts by first name
// case-insensitively.
func (e *Engine) DedupeRoster() (kept, removed int, err error) {
	rd, err := loadRoster(e.t.Roster)
	if err != nil {
		return 0, 0, err
	}

	deduped := dedupe.Dedupe(rd.entries, dedupe.Options[model.RosterEntry]{
		Keys:    []func(model.RosterEntry) string{dedupe.RosterKey},
		Unkeyed: dedupe.Drop,
	})
	kept, removed = len(deduped), len(rd.entries)-len(deduped)

	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(deduped, func(i, j int) bool {
		return c.CompareString(deduped[i].FirstName, deduped[j].FirstName) < 0
	})

	rd.entries = deduped
	if err := rd.flush(e.t.Roster); err != nil {
		return 0, 0, err
	}
	zap.L().Info("roster deduped", zap.Int("kept", kept), zap.Int("removed", removed))
	return kept, removed, nil
}

// BackfillMasterFromRoster fills blank Master PTINs from the Roster by
// email, and blank Master group fields by email-or-PTIN.
func (e *Engine) BackfillMasterFromRoster() (ptinFilled, groupFilled int, err error) {
	d, err := loadMaster(e.t.Master)
	if err != nil {
		return 0, 0, err
	}
	rd, err := loadRoster(e.t.Roster)
	if err != nil {
		return 0, 0, err
	}

	byEmail := make(map[string]model.RosterEntry)
	byPTIN := make(map[string]model.RosterEntry)
	for _, entry := range rd.entries {
		if entry.Email != "" {
			byEmail[entry.Email] = entry
		}
		if entry.PTIN != "" {
			byPTIN[entry.PTIN] = entry
		}
	}

	for _, r := range d.rows {
		if r.rec.PTIN == "" && r.rec.Email != "" {
			if entry, ok := byEmail[r.rec.Email]; ok && entry.PTIN != "" {
				r.rec.PTIN = entry.PTIN
				ptinFilled++
			}
		}
		if r.rec.Group == "" {
			entry, ok := byEmail[r.rec.Email]
			if !ok {
				entry, ok = byPTIN[r.rec.PTIN]
			}
			if ok && entry.Group != "" {
				r.rec.Group = entry.Group
				groupFilled++
			}
		}
	}

	if err := d.flush(e.t.Master); err != nil {
		return 0, 0, err
	}
	zap.L().Info("master backfilled from roster",
		zap.Int("ptin_filled", ptinFilled), zap.Int("group_filled", groupFilled))
	return ptinFilled, groupFilled, nil
}

// ValidateRosterFromLedger flips Valid on every Roster identity the
// ledger shows as successfully reported, and returns the entries that
// newly flipped so the caller can dispatch notifications.
func (e *Engine) ValidateRosterFromLedger() ([]model.RosterEntry, error) {
	ld, err := loadLedger(e.t.Ledger)
	if err != nil {
		return nil, err
	}
	reported := make(map[string]bool)
	for _, entry := range ld.entries {
		if entry.PTIN != "" {
			reported[entry.PTIN] = true
		}
		if entry.Email != "" {
			reported[entry.Email] = true
		}
	}
	return e.validateRoster(reported)
}

// validateRoster flips Valid true on Roster rows whose PTIN or email is
// in keys; already-valid rows are left alone and not returned.
func (e *Engine) validateRoster(keys map[string]bool) ([]model.RosterEntry, error) {
	rd, err := loadRoster(e.t.Roster)
	if err != nil {
		return nil, err
	}
	var flipped []model.RosterEntry
	for i := range rd.entries {
		entry := &rd.entries[i]
		if entry.Valid {
			continue
		}
		if keys[entry.PTIN] || keys[entry.Email] {
			entry.Valid = true
			flipped = append(flipped, *entry)
		}
	}
	if len(flipped) == 0 {
		return nil, nil
	}
	if err := rd.flush(e.t.Roster); err != nil {
		return nil, err
	}
	zap.L().Info("roster validated", zap.Int("flipped", len(flipped)))
	return flipped, nil
}

// InvalidateRosterFromIssues clears Valid on Roster rows whose identity
// is referenced by an unresolved Master issue, forcing re-vetting.
func (e *Engine) InvalidateRosterFromIssues() (flipped int, err error) {
	d, err := loadMaster(e.t.Master)
	if err != nil {
		return 0, err
	}
	flaggedPTIN := make(map[string]bool)
	flaggedEmail := make(map[string]bool)
	for _, r := range d.rows {
		if r.rec.Issue.Good() {
			continue
		}
		if r.rec.PTIN != "" {
			flaggedPTIN[r.rec.PTIN] = true
		}
		if r.rec.Email != "" {
			flaggedEmail[r.rec.Email] = true
		}
	}

	rd, err := loadRoster(e.t.Roster)
	if err != nil {
		return 0, err
	}
	for i := range rd.entries {
		entry := &rd.entries[i]
		if !entry.Valid {
			continue
		}
		if flaggedPTIN[entry.PTIN] || flaggedEmail[entry.Email] {
			entry.Valid = false
			flipped++
		}
	}
	if flipped == 0 {
		return 0, nil
	}
	if err := rd.flush(e.t.Roster); err != nil {
		return 0, err
	}
	zap.L().Info("roster invalidated from issues", zap.Int("flipped", flipped))
	return flipped, nil
}
