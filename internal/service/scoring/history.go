package scoring

import (
	"time"

	"github.com/cardguard/cardguard-backend/internal/domain/transaction"
)

// historyWindow is the rolling record of recent transactions a scorer
// uses for velocity, travel, and outlier analysis. It is owned
// exclusively by its scorer; the scorer's lock guards all access.
type historyWindow struct {
	retention time.Duration
	entries   []*transaction.Transaction // ordered oldest to newest
}

func newHistoryWindow(retention time.Duration) *historyWindow {
	return &historyWindow{retention: retention}
}

// record appends a transaction and drops entries past the retention
// horizon relative to the new transaction's time.
func (h *historyWindow) record(txn *transaction.Transaction) {
	h.entries = append(h.entries, txn)
	h.evict(txn.OccurredAt)
}

// evict drops entries older than the retention horizon before now.
func (h *historyWindow) evict(now time.Time) {
	horizon := now.Add(-h.retention)
	cut := 0
	for cut < len(h.entries) && !h.entries[cut].OccurredAt.After(horizon) {
		cut++
	}
	if cut > 0 {
		h.entries = append(h.entries[:0], h.entries[cut:]...)
	}
}

// recent returns the entries within the given window before now.
func (h *historyWindow) recent(window time.Duration, now time.Time) []*transaction.Transaction {
	cutoff := now.Add(-window)

	var out []*transaction.Transaction
	for _, e := range h.entries {
		if e.OccurredAt.After(cutoff) && !e.OccurredAt.After(now) {
			out = append(out, e)
		}
	}
	return out
}

// last returns the most recent entry, or nil when the window is empty.
func (h *historyWindow) last() *transaction.Transaction {
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[len(h.entries)-1]
}

func (h *historyWindow) len() int {
	return len(h.entries)
}

// amounts returns the amounts of all entries, oldest first.
func (h *historyWindow) amounts() []float64 {
	out := make([]float64, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Amount.ToFloat64()
	}
	return out
}
