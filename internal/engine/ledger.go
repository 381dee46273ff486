package engine

import (
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/dedupe"
	"github.com/irscelearn/ce-reporter/internal/model"
)

// DedupeLedger compacts the ledger by PTIN+Program, keeping the most
// recently reported entry per key. Entries missing a key are audit rows
// of unknown identity and are kept in place rather than destroyed.
func (e *Engine) DedupeLedger() (kept, removed int, err error) {
	ld, err := loadLedger(e.t.Ledger)
	if err != nil {
		return 0, 0, err
	}

	deduped := dedupe.Dedupe(ld.entries, dedupe.Options[model.LedgerEntry]{
		Keys:    []func(model.LedgerEntry) string{dedupe.LedgerKey},
		Recency: dedupe.LedgerRecency,
		Unkeyed: dedupe.Keep,
	})
	kept, removed = len(deduped), len(ld.entries)-len(deduped)

	ld.entries = deduped
	if err := ld.flush(e.t.Ledger); err != nil {
		return 0, 0, err
	}
	zap.L().Info("ledger deduped", zap.Int("kept", kept), zap.Int("removed", removed))
	return kept, removed, nil
}

// BackfillLedgerFromRoster repairs ledger identity fields from the
// Roster: blank names are filled, and the email is always refreshed to
// the Roster's current address so old entries follow address changes.
func (e *Engine) BackfillLedgerFromRoster() (updated int, err error) {
	ld, err := loadLedger(e.t.Ledger)
	if err != nil {
		return 0, err
	}
	rd, err := loadRoster(e.t.Roster)
	if err != nil {
		return 0, err
	}

	byPTIN := make(map[string]model.RosterEntry)
	byEmail := make(map[string]model.RosterEntry)
	for _, entry := range rd.entries {
		if entry.PTIN != "" {
			byPTIN[entry.PTIN] = entry
		}
		if entry.Email != "" {
			byEmail[entry.Email] = entry
		}
	}

	for i := range ld.entries {
		le := &ld.entries[i]
		entry, ok := byPTIN[le.PTIN]
		if !ok {
			entry, ok = byEmail[le.Email]
		}
		if !ok {
			continue
		}
		changed := false
		if le.FirstName == "" && entry.FirstName != "" {
			le.FirstName = entry.FirstName
			changed = true
		}
		if le.LastName == "" && entry.LastName != "" {
			le.LastName = entry.LastName
			changed = true
		}
		if entry.Email != "" && le.Email != entry.Email {
			le.Email = entry.Email
			changed = true
		}
		if changed {
			updated++
		}
	}

	if err := ld.flush(e.t.Ledger); err != nil {
		return 0, err
	}
	zap.L().Info("ledger backfilled from roster", zap.Int("updated", updated))
	return updated, nil
}
