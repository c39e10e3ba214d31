package ledger

import "time"

// AuditTrail is the append-only stock history. Records are never mutated or
// deleted once appended; corrections happen by appending further records.
type AuditTrail struct {
	records []*AuditRecord
	nextID  int64
}

// NewAuditTrail returns a trail seeded with previously persisted records.
func NewAuditTrail(records []*AuditRecord, nextID int64) *AuditTrail {
	if nextID <= 0 {
		nextID = 1
		for _, r := range records {
			if r.ID >= nextID {
				nextID = r.ID + 1
			}
		}
	}
	return &AuditTrail{records: records, nextID: nextID}
}

// Append assigns the next history id and timestamp and appends the record.
// The caller fills in the book snapshot and before/after counts.
func (at *AuditTrail) Append(rec AuditRecord) *AuditRecord {
	rec.ID = at.nextID
	rec.Timestamp = time.Now()
	at.records = append(at.records, &rec)
	at.nextID++
	return &rec
}

// Records returns the trail in append order. Callers must not modify the
// returned records.
func (at *AuditTrail) Records() []*AuditRecord {
	out := make([]*AuditRecord, len(at.records))
	copy(out, at.records)
	return out
}

// ForBook returns the records touching one book, in append order.
func (at *AuditTrail) ForBook(bookID int64) []*AuditRecord {
	var out []*AuditRecord
	for _, r := range at.records {
		if r.BookID == bookID {
			out = append(out, r)
		}
	}
	return out
}

// truncate drops records appended after length n. Only the persistence
// rollback path uses it; the trail stays append-only for everyone else.
func (at *AuditTrail) truncate(n int) {
	if n < 0 || n > len(at.records) {
		return
	}
	at.records = at.records[:n]
	if n == 0 {
		at.nextID = 1
	} else {
		at.nextID = at.records[n-1].ID + 1
	}
}

func (at *AuditTrail) len() int { return len(at.records) }

// ReplayCounts reconstructs the (available, total) trajectory of a book by
// replaying its audit records from the given starting counts. Each step is
// the post-state recorded at append time.
func ReplayCounts(records []*AuditRecord) [][2]int {
	steps := make([][2]int, 0, len(records))
	for _, r := range records {
		steps = append(steps, [2]int{r.NewAvailable, r.NewTotal})
	}
	return steps
}
