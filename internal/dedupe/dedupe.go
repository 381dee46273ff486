// Package dedupe collapses record sets under a priority-ordered,
// multi-key strategy with explicit recency and tie-break rules. The same
// algorithm, parameterized differently, backs Master dedup (first seen
// wins, blanks filled), Roster dedup (latest wins wholesale) and ledger
// compaction (most recent by date reported wins).
package dedupe

import (
	"time"
)

// UnkeyedPolicy decides what happens to a record that yields no usable
// key from any strategy in the chain.
type UnkeyedPolicy int

const (
	// Drop removes unkeyed records from the output.
	Drop UnkeyedPolicy = iota
	// Keep passes unkeyed records through unchanged, in place.
	Keep
)

// Options parameterizes one dedup pass over records of type T.
type Options[T any] struct {
	// Keys is the ordered fallback chain; the first function returning a
	// non-empty key identifies the record.
	Keys []func(T) string

	// Recency scores a record for winner selection. A false second
	// return means unscored, which loses to any scored record. Nil
	// disables scoring entirely (pure input-order, later wins).
	Recency func(T) (time.Time, bool)

	// FirstWins keeps the earliest record for a key instead of applying
	// the recency rule. Used by Master dedup.
	FirstWins bool

	// MergeBlanks, when set, fills the winner's blank fields from the
	// loser before the loser is discarded. It must never overwrite a
	// non-blank winner field.
	MergeBlanks func(winner, loser T) T

	// Unkeyed is the policy for records with no usable key.
	Unkeyed UnkeyedPolicy
}

type slot[T any] struct {
	item   T
	scored bool
	score  time.Time
}

// Dedupe collapses items under opts. Output order is stable by first
// occurrence of each surviving key; kept unkeyed records stay at their
// original positions relative to that order.
func Dedupe[T any](items []T, opts Options[T]) []T {
	type outEntry struct {
		keyed bool
		key   string
		item  T // unkeyed only
	}
	var order []outEntry
	slots := make(map[string]*slot[T])

	for _, item := range items {
		key := keyOf(item, opts.Keys)
		if key == "" {
			if opts.Unkeyed == Keep {
				order = append(order, outEntry{item: item})
			}
			continue
		}

		scored, score := false, time.Time{}
		if opts.Recency != nil {
			score, scored = opts.Recency(item)
		}

		cur, seen := slots[key]
		if !seen {
			slots[key] = &slot[T]{item: item, scored: scored, score: score}
			order = append(order, outEntry{keyed: true, key: key})
			continue
		}

		if opts.FirstWins {
			if opts.MergeBlanks != nil {
				cur.item = opts.MergeBlanks(cur.item, item)
			}
			continue
		}

		// Strictly greater recency wins; a tie, including two unscored
		// records, goes to the later arrival.
		newcomerWins := true
		if cur.scored && scored {
			newcomerWins = !score.Before(cur.score)
		} else if cur.scored && !scored {
			newcomerWins = false
		}

		if newcomerWins {
			winner := item
			if opts.MergeBlanks != nil {
				winner = opts.MergeBlanks(item, cur.item)
			}
			cur.item, cur.scored, cur.score = winner, scored, score
		} else if opts.MergeBlanks != nil {
			cur.item = opts.MergeBlanks(cur.item, item)
		}
	}

	out := make([]T, 0, len(order))
	for _, e := range order {
		if e.keyed {
			out = append(out, slots[e.key].item)
		} else {
			out = append(out, e.item)
		}
	}
	return out
}

func keyOf[T any](item T, keys []func(T) string) string {
	for _, fn := range keys {
		if k := fn(item); k != "" {
			return k
		}
	}
	return ""
}
