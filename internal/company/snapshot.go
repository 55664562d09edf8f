package company

import "time"

// TimestampField is the one key every snapshot must carry.
const TimestampField = "timestamp"

// Snapshot is one record in a company's append-only financial
// history: a free-form mapping of field name to numeric value plus a
// timestamp. Known fields include checking_account, total_revenue,
// total_expenses and the rest of the balance-sheet keys the frontend
// submits; the merge below does not depend on the exact set.
type Snapshot map[string]any

// MergeSnapshot builds the next snapshot from the previous one and a
// partial update. The previous snapshot is copied, then every non-nil
// field from partial is overlaid on top; absent or nil fields keep
// their prior value. The result always carries a timestamp, stamped
// with now when the merge did not produce one.
//
// History is append-only: callers push the returned snapshot as a new
// last element and never touch earlier entries. Two concurrent
// merges against the same tail can both succeed and append divergent
// entries; that lost-update window is accepted (no version check on
// the history).
func MergeSnapshot(last, partial Snapshot, now time.Time) Snapshot {
	next := make(Snapshot, len(last)+len(partial))
	for k, v := range last {
		next[k] = v
	}
	for k, v := range partial {
		if v == nil {
			continue
		}
		next[k] = v
	}
	if ts, ok := next[TimestampField]; !ok || ts == nil {
		next[TimestampField] = now
	}
	return next
}
