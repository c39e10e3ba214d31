package ledger

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	cfg := DefaultConfig()
	cfg.StoreDriver = "file"
	cfg.StorePath = filepath.Join(t.TempDir(), "library.json")

	p, err := NewFileStore(cfg.StorePath)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	l, err := Open(cfg, p)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func addTestBook(t *testing.T, l *Ledger, title, isbn string, copies int) *Book {
	t.Helper()
	b, err := l.AddBook(BookFields{
		Title:       title,
		Author:      "Test Author",
		ISBN:        isbn,
		TotalCopies: copies,
	})
	if err != nil {
		t.Fatalf("add book: %v", err)
	}
	return b
}

func addTestMember(t *testing.T, l *Ledger, name string, maxBooks int) *Member {
	t.Helper()
	m, err := l.AddMember(MemberFields{
		Name:           name,
		MembershipType: "Student",
		MaxBooks:       maxBooks,
	})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	return m
}

func TestIssueAndReturnConservation(t *testing.T) {
	l := newTestLedger(t)
	b := addTestBook(t, l, "Dune", "978-0441013593", 3)
	m := addTestMember(t, l, "Alice", 5)

	tx, err := l.Issue(b.ID, m.Code)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tx.Status != TxIssued {
		t.Fatalf("want issued, got %s", tx.Status)
	}
	wantDue := time.Now().AddDate(0, 0, 14)
	if tx.DueDate.Format("2006-01-02") != wantDue.Format("2006-01-02") {
		t.Fatalf("due date %s, want %s", tx.DueDate.Format("2006-01-02"), wantDue.Format("2006-01-02"))
	}

	got, _ := l.GetBook(b.ID)
	if got.AvailableCopies != 2 || got.TotalCopies != 3 {
		t.Fatalf("after issue: available=%d total=%d", got.AvailableCopies, got.TotalCopies)
	}
	mem, _ := l.GetMember(m.Code)
	if mem.CurrentBorrowed != 1 || mem.TotalBorrowed != 1 {
		t.Fatalf("member counts: current=%d total=%d", mem.CurrentBorrowed, mem.TotalBorrowed)
	}

	ret, err := l.Return(tx.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if ret.Status != TxReturned || ret.ReturnDate.IsZero() {
		t.Fatalf("return state: %+v", ret)
	}
	got, _ = l.GetBook(b.ID)
	if got.AvailableCopies != 3 {
		t.Fatalf("after return: available=%d", got.AvailableCopies)
	}
	mem, _ = l.GetMember(m.Code)
	if mem.CurrentBorrowed != 0 || mem.TotalBorrowed != 1 {
		t.Fatalf("member counts after return: current=%d total=%d", mem.CurrentBorrowed, mem.TotalBorrowed)
	}
}

func TestIssueUntilOutOfStock(t *testing.T) {
	l := newTestLedger(t)
	b := addTestBook(t, l, "Neuromancer", "978-0441569595", 5)
	m := addTestMember(t, l, "Bob", 10)

	for i := 0; i < 5; i++ {
		if _, err := l.Issue(b.ID, m.Code); err != nil {
			t.Fatalf("issue %d: %v", i+1, err)
		}
	}
	if _, err := l.Issue(b.ID, m.Code); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("6th issue: want ErrNotAvailable, got %v", err)
	}

	status, err := l.StockStatusOf(b.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != OutOfStock {
		t.Fatalf("want out_of_stock, got %s", status)
	}
}

func TestIssueUnknownBookAndMember(t *testing.T) {
	l := newTestLedger(t)
	b := addTestBook(t, l, "Dune", "978-0441013593", 1)

	if _, err := l.Issue(999, "M0001"); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("want ErrBookNotFound, got %v", err)
	}
	if _, err := l.Issue(b.ID, "M9999"); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("want ErrMemberNotFound, got %v", err)
	}
}

func TestDoubleReturn(t *testing.T) {
	l := newTestLedger(t)
	b := addTestBook(t, l, "Dune", "978-0441013593", 2)
	m := addTestMember(t, l, "Alice", 5)

	tx, err := l.Issue(b.ID, m.Code)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := l.Return(tx.ID); err != nil {
		t.Fatalf("first return: %v", err)
	}
	if _, err := l.Return(tx.ID); !errors.Is(err, ErrAlreadyReturned) {
		t.Fatalf("second return: want ErrAlreadyReturned, got %v", err)
	}

	// No double increment.
	got, _ := l.GetBook(b.ID)
	if got.AvailableCopies != 2 {
		t.Fatalf("available=%d after double return", got.AvailableCopies)
	}
}

func TestMemberLoanLimit(t *testing.T) {
	l := newTestLedger(t)
	b := addTestBook(t, l, "Dune", "978-0441013593", 5)
	m := addTestMember(t, l, "Alice", 2)

	for i := 0; i < 2; i++ {
		if _, err := l.Issue(b.ID, m.Code); err != nil {
			t.Fatalf("issue %d: %v", i+1, err)
		}
	}
	if _, err := l.Issue(b.ID, m.Code); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("want ErrInvalidOperation at loan limit, got %v", err)
	}
}

func TestRestock(t *testing.T) {
	l := newTestLedger(t)
	b := addTestBook(t, l, "Dune", "978-0441013593", 5)
	m := addTestMember(t, l, "Alice", 10)

	// Drain to (available=0, total=5).
	for i := 0; i < 5; i++ {
		if _, err := l.Issue(b.ID, m.Code); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}

	got, err := l.Restock(b.ID, 3, "Purchase", "reorder")
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if got.AvailableCopies != 3 || got.TotalCopies != 8 {
		t.Fatalf("after restock: available=%d total=%d, want 3/8", got.AvailableCopies, got.TotalCopies)
	}

	records := l.AuditTrailForBook(b.ID)
	if len(records) != 1 {
		t.Fatalf("want 1 audit record, got %d", len(records))
	}
	r := records[0]
	if r.Action != ActionRestock || r.QuantityDelta != 3 {
		t.Fatalf("audit record: %+v", r)
	}
	if r.OldAvailable != 0 || r.NewAvailable != 3 || r.OldTotal != 5 || r.NewTotal != 8 {
		t.Fatalf("audit counts: %+v", r)
	}
	if r.Source != "Purchase" || r.Actor != "admin" {
		t.Fatalf("audit provenance: source=%q actor=%q", r.Source, r.Actor)
	}
}

func TestRestockRejectsBadInput(t *testing.T) {
	l := newTestLedger(t)
	b := addTestBook(t, l, "Dune", "978-0441013593", 1)

	if _, err := l.Restock(b.ID, 0, "", ""); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity: want ErrInvalidQuantity, got %v", err)
	}
	if _, err := l.Restock(b.ID, -2, "", ""); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("negative quantity: want ErrInvalidQuantity, got %v", err)
	}
	if _, err := l.Restock(999, 1, "", ""); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("unknown book: want ErrBookNotFound, got %v", err)
	}
}

func TestBulkRestockPartial(t *testing.T) {
	l := newTestLedger(t)
	addTestBook(t, l, "Dune", "isbn-1", 1)
	addTestBook(t, l, "Neuromancer", "isbn-2", 1)
	addTestBook(t, l, "Hyperion", "isbn-3", 1)

	rows := []RestockRow{
		{ISBN: "isbn-1", Quantity: 2},
		{ISBN: "unknown-1", Quantity: 2},
		{ISBN: "isbn-2", Quantity: 1},
		{ISBN: "unknown-2", Quantity: 4},
		{ISBN: "isbn-3", Quantity: 3},
	}
	res, err := l.BulkRestock(rows)
	if err != nil {
		t.Fatalf("bulk restock: %v", err)
	}
	if len(res.Restocked) != 3 {
		t.Fatalf("restocked %d, want 3: %v", len(res.Restocked), res.Restocked)
	}
	if len(res.Skipped) != 2 || res.Skipped[0] != "unknown-1" || res.Skipped[1] != "unknown-2" {
		t.Fatalf("skipped: %v", res.Skipped)
	}

	b, _ := l.GetBookByISBN("isbn-1")
	if b.AvailableCopies != 3 || b.TotalCopies != 3 {
		t.Fatalf("isbn-1 counts: %d/%d", b.AvailableCopies, b.TotalCopies)
	}
}

func TestUpdateBookTotalCopies(t *testing.T) {
	l := newTestLedger(t)
	b := addTestBook(t, l, "Dune", "978-0441013593", 5)
	m := addTestMember(t, l, "Alice", 10)

	// Issue 4 copies: (available=1, total=5).
	for i := 0; i < 4; i++ {
		if _, err := l.Issue(b.ID, m.Code); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}

	// Reducing below the 4 on loan is unrepresentable.
	two := 2
	if _, err := l.UpdateBook(b.ID, BookUpdate{TotalCopies: &two}); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("want ErrInvalidOperation, got %v", err)
	}
	got, _ := l.GetBook(b.ID)
	if got.AvailableCopies != 1 || got.TotalCopies != 5 {
		t.Fatalf("rejected update touched counts: %d/%d", got.AvailableCopies, got.TotalCopies)
	}

	// An increase flows entirely to available.
	eight := 8
	upd, err := l.UpdateBook(b.ID, BookUpdate{TotalCopies: &eight})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.AvailableCopies != 4 || upd.TotalCopies != 8 {
		t.Fatalf("after increase: %d/%d, want 4/8", upd.AvailableCopies, upd.TotalCopies)
	}

	// Reducing to exactly the issued count leaves zero available.
	four := 4
	upd, err = l.UpdateBook(b.ID, BookUpdate{TotalCopies: &four})
	if err != nil {
		t.Fatalf("reduce to issued: %v", err)
	}
	if upd.AvailableCopies != 0 || upd.TotalCopies != 4 {
		t.Fatalf("after reduce: %d/%d, want 0/4", upd.AvailableCopies, upd.TotalCopies)
	}
}

func TestDeleteBookBlockedByLoans(t *testing.T) {
	l := newTestLedger(t)
	free := addTestBook(t, l, "Free", "isbn-free", 3)
	loaned := addTestBook(t, l, "Loaned", "isbn-loaned", 3)
	m := addTestMember(t, l, "Alice", 10)

	if _, err := l.Issue(loaned.ID, m.Code); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := l.Issue(loaned.ID, m.Code); err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := l.DeleteBook(free.ID); err != nil {
		t.Fatalf("delete free book: %v", err)
	}
	if err := l.DeleteBook(loaned.ID); !errors.Is(err, ErrDeleteBlocked) {
		t.Fatalf("want ErrDeleteBlocked, got %v", err)
	}
	if _, err := l.GetBook(loaned.ID); err != nil {
		t.Fatalf("blocked book vanished: %v", err)
	}
}

func TestDeleteBooksPartial(t *testing.T) {
	l := newTestLedger(t)
	b1 := addTestBook(t, l, "One", "isbn-1", 1)
	b2 := addTestBook(t, l, "Two", "isbn-2", 1)
	b3 := addTestBook(t, l, "Three", "isbn-3", 1)
	m := addTestMember(t, l, "Alice", 10)

	if _, err := l.Issue(b2.ID, m.Code); err != nil {
		t.Fatalf("issue: %v", err)
	}

	res, err := l.DeleteBooks([]int64{b1.ID, b2.ID, b3.ID})
	if err != nil {
		t.Fatalf("delete books: %v", err)
	}
	if len(res.Deleted) != 2 || len(res.Blocked) != 1 {
		t.Fatalf("deleted=%v blocked=%d", res.Deleted, len(res.Blocked))
	}
	if res.Blocked[0].ID != b2.ID {
		t.Fatalf("blocked wrong book: %d", res.Blocked[0].ID)
	}

	records := l.AuditTrail()
	deletions := 0
	for _, r := range records {
		if r.Action == ActionDelete {
			deletions++
		}
	}
	if deletions != 2 {
		t.Fatalf("want 2 deletion audit records, got %d", deletions)
	}
}

func TestComputeFine(t *testing.T) {
	l := newTestLedger(t)
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		asOf time.Time
		want int64
	}{
		{"before due", due.AddDate(0, 0, -3), 0},
		{"on due date", due, 0},
		{"same day later hours", time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC), 0},
		{"next day early hours", time.Date(2026, 3, 11, 0, 5, 0, 0, time.UTC), 10},
		{"five days late", due.AddDate(0, 0, 5), 50},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := l.ComputeFine(due, tc.asOf)
			if !got.Equal(decimal.NewFromInt(tc.want)) {
				t.Fatalf("fine=%s, want %d", got, tc.want)
			}
		})
	}
}

func TestFineMonotonicity(t *testing.T) {
	l := newTestLedger(t)
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	prev := decimal.Zero
	for day := 0; day <= 30; day++ {
		fine := l.ComputeFine(due, due.AddDate(0, 0, day))
		if fine.LessThan(prev) {
			t.Fatalf("fine decreased at day %d: %s < %s", day, fine, prev)
		}
		prev = fine
	}
}

// flakyPersister fails every SaveAll after it is armed.
type flakyPersister struct {
	inner *FileStore
	fail  bool
}

func (f *flakyPersister) LoadAll() (Snapshot, error) { return f.inner.LoadAll() }

func (f *flakyPersister) SaveAll(snap Snapshot) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.inner.SaveAll(snap)
}

func (f *flakyPersister) Close() error { return nil }

func TestPersistenceFailureReverts(t *testing.T) {
	inner, err := NewFileStore(filepath.Join(t.TempDir(), "library.json"))
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	p := &flakyPersister{inner: inner}

	cfg := DefaultConfig()
	l, err := Open(cfg, p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	b := addTestBook(t, l, "Dune", "978-0441013593", 5)
	m := addTestMember(t, l, "Alice", 10)

	p.fail = true

	if _, err := l.Issue(b.ID, m.Code); !errors.Is(err, ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", err)
	}

	// Memory reverted: counts, transactions and member counters untouched.
	got, err := l.GetBook(b.ID)
	if err != nil {
		t.Fatalf("get after revert: %v", err)
	}
	if got.AvailableCopies != 5 || got.TotalCopies != 5 {
		t.Fatalf("counts after revert: %d/%d", got.AvailableCopies, got.TotalCopies)
	}
	mem, _ := l.GetMember(m.Code)
	if mem.CurrentBorrowed != 0 {
		t.Fatalf("member counter after revert: %d", mem.CurrentBorrowed)
	}

	audLen := len(l.AuditTrail())
	if _, err := l.Restock(b.ID, 2, "", ""); !errors.Is(err, ErrPersistence) {
		t.Fatalf("restock: want ErrPersistence, got %v", err)
	}
	if len(l.AuditTrail()) != audLen {
		t.Fatalf("audit trail grew on failed commit")
	}

	// Recovery works once the store heals.
	p.fail = false
	if _, err := l.Issue(b.ID, m.Code); err != nil {
		t.Fatalf("issue after heal: %v", err)
	}
}

// recordingObserver collects events in delivery order.
type recordingObserver struct {
	events []Event
}

func (r *recordingObserver) OnInventoryChanged(ev Event) { r.events = append(r.events, ev) }

// panickyObserver always panics.
type panickyObserver struct{}

func (panickyObserver) OnInventoryChanged(Event) { panic("boom") }

func TestObserverDelivery(t *testing.T) {
	l := newTestLedger(t)
	b := addTestBook(t, l, "Dune", "978-0441013593", 5)

	first := &recordingObserver{}
	second := &recordingObserver{}
	l.Subscribe(panickyObserver{})
	l.Subscribe(first)
	l.Subscribe(second)
	l.Subscribe(first) // duplicate subscribe is a no-op

	if _, err := l.Restock(b.ID, 2, "Purchase", ""); err != nil {
		t.Fatalf("restock with panicking observer: %v", err)
	}

	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("deliveries: first=%d second=%d", len(first.events), len(second.events))
	}
	ev := first.events[0]
	if ev.Kind != BookStockUpdated || ev.OldAvailable != 5 || ev.NewAvailable != 7 {
		t.Fatalf("event payload: %+v", ev)
	}

	// Panic during publish never corrupts ledger state.
	got, _ := l.GetBook(b.ID)
	if got.AvailableCopies != 7 || got.TotalCopies != 7 {
		t.Fatalf("counts after panicking observer: %d/%d", got.AvailableCopies, got.TotalCopies)
	}

	l.Unsubscribe(first)
	if _, err := l.Restock(b.ID, 1, "Purchase", ""); err != nil {
		t.Fatalf("restock: %v", err)
	}
	if len(first.events) != 1 || len(second.events) != 2 {
		t.Fatalf("after unsubscribe: first=%d second=%d", len(first.events), len(second.events))
	}
}

func TestStatsAndOverdue(t *testing.T) {
	l := newTestLedger(t)
	addTestBook(t, l, "Dune", "isbn-1", 3)
	b2 := addTestBook(t, l, "Neuromancer", "isbn-2", 2)
	m := addTestMember(t, l, "Alice", 10)

	if _, err := l.Issue(b2.ID, m.Code); err != nil {
		t.Fatalf("issue: %v", err)
	}

	s := l.Stats()
	if s.TotalBooks != 2 || s.TotalCopies != 5 || s.AvailableCopies != 4 || s.BorrowedCopies != 1 {
		t.Fatalf("stats: %+v", s)
	}
	if s.ActiveBorrowings != 1 || s.ActiveMembers != 1 {
		t.Fatalf("stats circulation: %+v", s)
	}

	// Fresh loans are not overdue.
	if entries := l.Overdue(); len(entries) != 0 {
		t.Fatalf("overdue: %d entries", len(entries))
	}
}

func TestCachedReadsStayFresh(t *testing.T) {
	l := newTestLedger(t)
	b := addTestBook(t, l, "Dune", "978-0441013593", 5)

	// Prime the cache, mutate, read again: the count must be current.
	if _, err := l.GetBook(b.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := l.Restock(b.ID, 2, "Purchase", ""); err != nil {
		t.Fatalf("restock: %v", err)
	}
	got, err := l.GetBook(b.ID)
	if err != nil {
		t.Fatalf("get after restock: %v", err)
	}
	if got.AvailableCopies != 7 {
		t.Fatalf("stale cached count: %d", got.AvailableCopies)
	}

	byCode, err := l.GetBookByCode(got.Code)
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if byCode.ID != b.ID || byCode.AvailableCopies != 7 {
		t.Fatalf("by code: %+v", byCode)
	}
	if _, err := l.GetBookByCode("T999"); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("unknown code: want ErrBookNotFound, got %v", err)
	}

	// Returned copies are value snapshots; writing to one changes nothing.
	got.AvailableCopies = 0
	again, _ := l.GetBook(b.ID)
	if again.AvailableCopies != 7 {
		t.Fatalf("caller mutation leaked into ledger: %d", again.AvailableCopies)
	}
}

func TestGetTransaction(t *testing.T) {
	l := newTestLedger(t)
	b := addTestBook(t, l, "Dune", "978-0441013593", 2)
	m := addTestMember(t, l, "Alice", 5)

	tx, err := l.Issue(b.ID, m.Code)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := l.GetTransaction(tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BookID != b.ID || got.MemberCode != m.Code || got.Status != TxIssued {
		t.Fatalf("transaction: %+v", got)
	}
	if _, err := l.GetTransaction(999); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("unknown tx: want ErrTransactionNotFound, got %v", err)
	}
}

func TestSearchBooks(t *testing.T) {
	l := newTestLedger(t)
	addTestBook(t, l, "The Go Programming Language", "isbn-1", 1)
	addTestBook(t, l, "Learning SQL", "isbn-2", 1)

	hits := l.SearchBooks("go")
	if len(hits) != 1 || hits[0].Title != "The Go Programming Language" {
		t.Fatalf("hits: %+v", hits)
	}
	if hits := l.SearchBooks("zzz"); len(hits) != 0 {
		t.Fatalf("unexpected hits: %d", len(hits))
	}
}

func TestReopenRestoresState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.json")
	cfg := DefaultConfig()
	cfg.StoreDriver = "file"
	cfg.StorePath = path

	p, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	l, err := Open(cfg, p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b := addTestBook(t, l, "Dune", "978-0441013593", 5)
	m := addTestMember(t, l, "Alice", 10)
	tx, err := l.Issue(b.ID, m.Code)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := l.Restock(b.ID, 2, "Purchase", ""); err != nil {
		t.Fatalf("restock: %v", err)
	}
	l.Close()

	p2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	l2, err := Open(cfg, p2)
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	t.Cleanup(func() { l2.Close() })

	got, err := l2.GetBook(b.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.AvailableCopies != 6 || got.TotalCopies != 7 {
		t.Fatalf("counts after reopen: %d/%d", got.AvailableCopies, got.TotalCopies)
	}
	if len(l2.AuditTrail()) != 1 {
		t.Fatalf("audit records after reopen: %d", len(l2.AuditTrail()))
	}

	// The reloaded transaction can still be returned exactly once.
	if _, err := l2.Return(tx.ID); err != nil {
		t.Fatalf("return after reopen: %v", err)
	}
	if _, err := l2.Return(tx.ID); !errors.Is(err, ErrAlreadyReturned) {
		t.Fatalf("want ErrAlreadyReturned, got %v", err)
	}
}

func TestBackgroundFlushAndStats(t *testing.T) {
	l := newTestLedger(t)
	addTestBook(t, l, "Dune", "978-0441013593", 5)

	ch, err := l.FlushAsync()
	if err != nil {
		t.Fatalf("flush async: %v", err)
	}
	res := <-ch
	if res.Err != nil {
		t.Fatalf("flush result: %v", res.Err)
	}

	sch, err := l.StatsAsync()
	if err != nil {
		t.Fatalf("stats async: %v", err)
	}
	sres := <-sch
	if sres.Err != nil {
		t.Fatalf("stats result: %v", sres.Err)
	}
	if stats := sres.Value.(Statistics); stats.TotalBooks != 1 {
		t.Fatalf("stats: %+v", stats)
	}
}
