package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger enforces the copy-count rules over the catalog. Every mutation
// runs under one mutex, persists as its last step, rebuilds the lookup
// index, clears the read cache, and only then publishes change events.
type Ledger struct {
	mu  sync.Mutex
	cfg Config

	store     *CatalogStore
	index     *LookupIndex
	cache     *ReadCache
	notifier  *Notifier
	audit     *AuditTrail
	persister Persister
	worker    *Worker

	actor string
}

// New wires a ledger over an already-populated store and audit trail.
// Dependencies are passed in explicitly; nothing here is a singleton.
func New(cfg Config, store *CatalogStore, trail *AuditTrail, p Persister) (*Ledger, error) {
	cache, err := NewReadCache(cfg.CacheCapacity)
	if err != nil {
		return nil, err
	}

	l := &Ledger{
		cfg:       cfg,
		store:     store,
		index:     NewLookupIndex(),
		cache:     cache,
		notifier:  NewNotifier(),
		audit:     trail,
		persister: p,
		worker:    NewWorker(cfg.WorkerQueueSize),
		actor:     "admin",
	}
	l.index.Rebuild(store.Books())
	return l, nil
}

// Open loads the persisted snapshot and builds a ledger from it.
func Open(cfg Config, p Persister) (*Ledger, error) {
	snap, err := p.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	store := NewCatalogStoreFromSnapshot(snap)
	trail := NewAuditTrail(snap.AuditRecords, snap.NextAuditID)
	return New(cfg, store, trail, p)
}

// Close drains the background worker and releases the persister.
func (l *Ledger) Close() error {
	l.worker.Close()
	return l.persister.Close()
}

// SetActor names the operator recorded on audit entries.
func (l *Ledger) SetActor(actor string) { l.actor = actor }

// Subscribe registers an observer for inventory-changed events.
func (l *Ledger) Subscribe(obs Observer) { l.notifier.Subscribe(obs) }

// Unsubscribe removes an observer.
func (l *Ledger) Unsubscribe(obs Observer) { l.notifier.Unsubscribe(obs) }

// ------------------ Commit machinery ------------------

// commitLocked persists the mutated state. On a persistence failure the
// store and audit trail are restored to the pre-mutation snapshot so memory
// never diverges from disk. Must be called with mu held.
func (l *Ledger) commitLocked(undo *CatalogStore, auditLen int) error {
	snap := l.store.snapshot(l.audit.Records(), l.audit.nextID)
	if err := l.persister.SaveAll(snap); err != nil {
		l.store.restore(undo)
		l.audit.truncate(auditLen)
		l.index.Rebuild(l.store.Books())
		l.cache.Clear()
		logger.Error().Err(err).Msg("persist failed, state reverted")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	l.index.Rebuild(l.store.Books())
	l.cache.Clear()
	return nil
}

func stockEvent(kind EventKind, b *Book, oldAvail, oldTotal int) Event {
	return Event{
		Kind:         kind,
		BookID:       b.ID,
		Title:        b.Title,
		Author:       b.Author,
		OldAvailable: oldAvail,
		NewAvailable: b.AvailableCopies,
		OldTotal:     oldTotal,
		NewTotal:     b.TotalCopies,
	}
}

// ------------------ Circulation ------------------

// Issue lends one copy to a member: availability drops by one, a loan
// transaction opens in issued state, and the member's counters move.
func (l *Ledger) Issue(bookID int64, memberCode string) (*Transaction, error) {
	l.mu.Lock()

	b, ok := l.index.ByID(bookID)
	if !ok {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: book %d", ErrBookNotFound, bookID)
	}
	if b.AvailableCopies <= 0 {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrNotAvailable, b.Title)
	}
	m, ok := l.store.Member(memberCode)
	if !ok {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberCode)
	}
	if !m.Active {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrMemberInactive, memberCode)
	}
	if m.CurrentBorrowed >= m.MaxBooks {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: member %s is at the loan limit of %d", ErrInvalidOperation, memberCode, m.MaxBooks)
	}

	undo := l.store.clone()
	auditLen := l.audit.len()
	oldAvail, oldTotal := b.AvailableCopies, b.TotalCopies

	now := time.Now()
	b.AvailableCopies--
	if err := l.store.checkCounts(b); err != nil {
		l.store.restore(undo)
		l.mu.Unlock()
		return nil, err
	}
	m.CurrentBorrowed++
	m.TotalBorrowed++

	tx := &Transaction{
		BookID:     bookID,
		MemberCode: memberCode,
		IssueDate:  now,
		DueDate:    now.AddDate(0, 0, l.cfg.LoanPeriodDays),
		Status:     TxIssued,
		FineAmount: decimal.Zero,
	}
	l.store.appendTransaction(tx)

	if err := l.commitLocked(undo, auditLen); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	ev := stockEvent(BookStockUpdated, b, oldAvail, oldTotal)
	out := *tx
	l.mu.Unlock()

	logger.Info().Int64("book_id", bookID).Str("member", memberCode).Int64("tx_id", out.ID).Msg("book issued")
	l.notifier.Publish(ev)
	return &out, nil
}

// Return closes an issued transaction: the copy comes back, the member's
// current count drops, and the final fine is fixed from the due date.
// Returning the same transaction twice fails with ErrAlreadyReturned.
func (l *Ledger) Return(txID int64) (*Transaction, error) {
	l.mu.Lock()

	tx, ok := l.store.Transaction(txID)
	if !ok {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: transaction %d", ErrTransactionNotFound, txID)
	}
	if tx.Status == TxReturned {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: transaction %d", ErrAlreadyReturned, txID)
	}
	b, ok := l.index.ByID(tx.BookID)
	if !ok {
		// An issued transaction pins its book in the catalog; a missing book
		// means the store is corrupt.
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: issued transaction %d references missing book %d", ErrInvariant, txID, tx.BookID)
	}
	if b.AvailableCopies >= b.TotalCopies {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: return would push book %d above total copies", ErrInvariant, b.ID)
	}

	undo := l.store.clone()
	auditLen := l.audit.len()
	oldAvail, oldTotal := b.AvailableCopies, b.TotalCopies

	now := time.Now()
	b.AvailableCopies++
	tx.Status = TxReturned
	tx.ReturnDate = now
	tx.FineAmount = l.ComputeFine(tx.DueDate, now)

	if m, ok := l.store.Member(tx.MemberCode); ok {
		m.CurrentBorrowed--
		if m.CurrentBorrowed < 0 {
			m.CurrentBorrowed = 0
		}
	}

	if err := l.commitLocked(undo, auditLen); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	ev := stockEvent(BookStockUpdated, b, oldAvail, oldTotal)
	out := *tx
	l.mu.Unlock()

	logger.Info().Int64("tx_id", txID).Str("fine", out.FineAmount.String()).Msg("book returned")
	l.notifier.Publish(ev)
	return &out, nil
}

// ComputeFine is the pure fine rule: whole days overdue times the daily
// rate. The comparison is at date granularity, so a return late by less
// than a day boundary accrues nothing.
func (l *Ledger) ComputeFine(due, asOf time.Time) decimal.Decimal {
	days := daysOverdue(due, asOf)
	if days <= 0 {
		return decimal.Zero
	}
	return l.cfg.FineRate().Mul(decimal.NewFromInt(int64(days)))
}

func daysOverdue(due, asOf time.Time) int {
	d := truncateToDate(due)
	a := truncateToDate(asOf)
	if !a.After(d) {
		return 0
	}
	return int(a.Sub(d) / (24 * time.Hour))
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ------------------ Stock ------------------

// Restock adds new physical copies: available and total both grow by
// quantity, so the outstanding-loan count is untouched. One audit record
// captures the before/after state.
func (l *Ledger) Restock(bookID int64, quantity int, source, notes string) (*Book, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	l.mu.Lock()
	b, ok := l.index.ByID(bookID)
	if !ok {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: book %d", ErrBookNotFound, bookID)
	}

	undo := l.store.clone()
	auditLen := l.audit.len()

	oldAvail, oldTotal := l.applyRestock(b, quantity, ActionRestock, source, notes)

	if err := l.commitLocked(undo, auditLen); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	ev := stockEvent(BookStockUpdated, b, oldAvail, oldTotal)
	out := *b
	l.mu.Unlock()

	logger.Info().Int64("book_id", bookID).Int("quantity", quantity).Str("source", source).Msg("book restocked")
	l.notifier.Publish(ev)
	return &out, nil
}

// applyRestock mutates counts and appends the audit record. Must be called
// with mu held; the caller owns commit and publish.
func (l *Ledger) applyRestock(b *Book, quantity int, action AuditAction, source, notes string) (oldAvail, oldTotal int) {
	oldAvail, oldTotal = b.AvailableCopies, b.TotalCopies
	b.AvailableCopies += quantity
	b.TotalCopies += quantity
	l.audit.Append(AuditRecord{
		BookID:        b.ID,
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		Action:        action,
		QuantityDelta: quantity,
		OldAvailable:  oldAvail,
		NewAvailable:  b.AvailableCopies,
		OldTotal:      oldTotal,
		NewTotal:      b.TotalCopies,
		Source:        source,
		Notes:         notes,
		Actor:         l.actor,
	})
	return oldAvail, oldTotal
}

// BulkRestock applies one restock per row, looked up by ISBN. Rows with an
// unknown ISBN or a non-positive quantity are skipped and reported; a bad
// row never fails the batch. The whole batch persists as one commit.
func (l *Ledger) BulkRestock(rows []RestockRow) (BulkRestockResult, error) {
	var res BulkRestockResult

	l.mu.Lock()
	undo := l.store.clone()
	auditLen := l.audit.len()

	var events []Event
	for _, row := range rows {
		b, ok := l.index.ByISBN(row.ISBN)
		if !ok || row.Quantity <= 0 {
			res.Skipped = append(res.Skipped, row.ISBN)
			continue
		}
		oldAvail, oldTotal := l.applyRestock(b, row.Quantity, ActionBulkRestock, "Bulk Import", "")
		events = append(events, stockEvent(BookStockUpdated, b, oldAvail, oldTotal))
		res.Restocked = append(res.Restocked, b.Title)
	}

	if len(res.Restocked) > 0 {
		if err := l.commitLocked(undo, auditLen); err != nil {
			l.mu.Unlock()
			return BulkRestockResult{}, err
		}
	}
	l.mu.Unlock()

	logger.Info().Int("restocked", len(res.Restocked)).Int("skipped", len(res.Skipped)).Msg("bulk restock complete")
	for _, ev := range events {
		l.notifier.Publish(ev)
	}
	return res, nil
}

// StockStatusOf classifies a book's current availability.
func (l *Ledger) StockStatusOf(bookID int64) (StockStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.index.ByID(bookID)
	if !ok {
		return "", fmt.Errorf("%w: book %d", ErrBookNotFound, bookID)
	}
	return l.statusFor(b), nil
}

func (l *Ledger) statusFor(b *Book) StockStatus {
	switch {
	case b.AvailableCopies <= 0:
		return OutOfStock
	case b.AvailableCopies <= l.cfg.LowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}

// BooksByStatus returns the books currently in the given stock band, in
// catalog order.
func (l *Ledger) BooksByStatus(status StockStatus) []Book {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Book
	for _, b := range l.store.Books() {
		if l.statusFor(b) == status {
			out = append(out, *b)
		}
	}
	return out
}

// ------------------ Catalog ------------------

// AddBook validates and appends a new catalog entry with all copies
// available.
func (l *Ledger) AddBook(f BookFields) (*Book, error) {
	l.mu.Lock()
	undo := l.store.clone()
	auditLen := l.audit.len()

	b, err := l.store.AddBook(f)
	if err != nil {
		l.store.restore(undo)
		l.mu.Unlock()
		return nil, err
	}

	if err := l.commitLocked(undo, auditLen); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	ev := stockEvent(BookAdded, b, 0, 0)
	out := *b
	l.mu.Unlock()

	logger.Info().Int64("book_id", out.ID).Str("title", out.Title).Msg("book added")
	l.notifier.Publish(ev)
	return &out, nil
}

// ImportBooks adds a parsed batch of catalog rows. Rows are independent:
// a rejected row lands in Failed and the rest still import. One commit
// covers the whole batch.
func (l *Ledger) ImportBooks(rows []BookFields) (ImportResult, error) {
	var res ImportResult

	l.mu.Lock()
	undo := l.store.clone()
	auditLen := l.audit.len()

	var events []Event
	for _, f := range rows {
		b, err := l.store.AddBook(f)
		if err != nil {
			key := f.ISBN
			if key == "" {
				key = f.Title
			}
			res.Failed = append(res.Failed, key)
			continue
		}
		events = append(events, stockEvent(BookImported, b, 0, 0))
		res.Added = append(res.Added, b.ID)
	}

	if len(res.Added) > 0 {
		if err := l.commitLocked(undo, auditLen); err != nil {
			l.mu.Unlock()
			return ImportResult{}, err
		}
	}
	l.mu.Unlock()

	logger.Info().Int("added", len(res.Added)).Int("failed", len(res.Failed)).Msg("catalog import complete")
	for _, ev := range events {
		l.notifier.Publish(ev)
	}
	return res, nil
}

// UpdateBook applies a partial overwrite. See CatalogStore.UpdateBook for
// the total-copies rules.
func (l *Ledger) UpdateBook(bookID int64, upd BookUpdate) (*Book, error) {
	l.mu.Lock()
	undo := l.store.clone()
	auditLen := l.audit.len()

	var oldAvail, oldTotal int
	if b, ok := l.store.Book(bookID); ok {
		oldAvail, oldTotal = b.AvailableCopies, b.TotalCopies
	}

	b, err := l.store.UpdateBook(bookID, upd)
	if err != nil {
		l.store.restore(undo)
		l.index.Rebuild(l.store.Books())
		l.mu.Unlock()
		return nil, err
	}

	if err := l.commitLocked(undo, auditLen); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	ev := stockEvent(BookStockUpdated, b, oldAvail, oldTotal)
	out := *b
	l.mu.Unlock()

	logger.Info().Int64("book_id", bookID).Msg("book updated")
	l.notifier.Publish(ev)
	return &out, nil
}

// DeleteBook removes a book with no copies on loan and appends a deletion
// audit record.
func (l *Ledger) DeleteBook(bookID int64) error {
	res, err := l.DeleteBooks([]int64{bookID})
	if err != nil {
		return err
	}
	if len(res.Blocked) > 0 {
		b := res.Blocked[0]
		return fmt.Errorf("%w: %q has %d copies issued", ErrDeleteBlocked, b.Title, b.Issued())
	}
	if len(res.Deleted) == 0 {
		return fmt.Errorf("%w: book %d", ErrBookNotFound, bookID)
	}
	return nil
}

// DeleteBooks removes every deletable book in ids and reports the ones
// blocked by outstanding loans. Partial success is the contract: blocked
// books never abort the rest.
func (l *Ledger) DeleteBooks(ids []int64) (DeleteResult, error) {
	var res DeleteResult

	l.mu.Lock()
	undo := l.store.clone()
	auditLen := l.audit.len()

	var events []Event
	for _, id := range ids {
		b, ok := l.store.Book(id)
		if !ok {
			continue
		}
		if b.AvailableCopies < b.TotalCopies {
			cp := *b
			res.Blocked = append(res.Blocked, &cp)
			continue
		}
		oldAvail, oldTotal := b.AvailableCopies, b.TotalCopies
		if _, err := l.store.DeleteBook(id); err != nil {
			cp := *b
			res.Blocked = append(res.Blocked, &cp)
			continue
		}
		l.audit.Append(AuditRecord{
			BookID:        b.ID,
			Title:         b.Title,
			Author:        b.Author,
			ISBN:          b.ISBN,
			Action:        ActionDelete,
			QuantityDelta: -oldTotal,
			OldAvailable:  oldAvail,
			NewAvailable:  0,
			OldTotal:      oldTotal,
			NewTotal:      0,
			Actor:         l.actor,
		})
		events = append(events, Event{
			Kind:         BookDeleted,
			BookID:       b.ID,
			Title:        b.Title,
			Author:       b.Author,
			OldAvailable: oldAvail,
			OldTotal:     oldTotal,
		})
		res.Deleted = append(res.Deleted, id)
	}

	if len(res.Deleted) > 0 {
		if err := l.commitLocked(undo, auditLen); err != nil {
			l.mu.Unlock()
			return DeleteResult{}, err
		}
	}
	l.mu.Unlock()

	logger.Info().Int("deleted", len(res.Deleted)).Int("blocked", len(res.Blocked)).Msg("delete complete")
	for _, ev := range events {
		l.notifier.Publish(ev)
	}
	return res, nil
}

// ------------------ Members ------------------

// AddMember registers a borrower and returns the generated member code.
func (l *Ledger) AddMember(f MemberFields) (*Member, error) {
	l.mu.Lock()
	undo := l.store.clone()
	auditLen := l.audit.len()

	m, err := l.store.AddMember(f)
	if err != nil {
		l.store.restore(undo)
		l.mu.Unlock()
		return nil, err
	}

	if err := l.commitLocked(undo, auditLen); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	out := *m
	l.mu.Unlock()

	logger.Info().Str("member", out.Code).Str("name", out.Name).Msg("member added")
	return &out, nil
}

// GetMember returns a copy of the member with the given code.
func (l *Ledger) GetMember(code string) (*Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.store.Member(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, code)
	}
	out := *m
	return &out, nil
}

// Members returns copies of every registered member.
func (l *Ledger) Members() []Member {
	l.mu.Lock()
	defer l.mu.Unlock()
	members := l.store.Members()
	out := make([]Member, len(members))
	for i, m := range members {
		out[i] = *m
	}
	return out
}

// ------------------ Reads ------------------

// GetBook returns a copy of the book with the given id, via the read cache.
func (l *Ledger) GetBook(id int64) (*Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := fmt.Sprintf("book_%d", id)
	if cached, ok := l.cache.Get(key); ok {
		out := cached.(Book)
		return &out, nil
	}

	b, ok := l.index.ByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: book %d", ErrBookNotFound, id)
	}
	out := *b
	l.cache.Set(key, out)
	return &out, nil
}

// GetBookByCode looks a book up by its display code.
func (l *Ledger) GetBookByCode(code string) (*Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := "book_code_" + code
	if cached, ok := l.cache.Get(key); ok {
		out := cached.(Book)
		return &out, nil
	}

	b, ok := l.index.ByCode(code)
	if !ok {
		return nil, fmt.Errorf("%w: code %s", ErrBookNotFound, code)
	}
	out := *b
	l.cache.Set(key, out)
	return &out, nil
}

// GetBookByISBN looks a book up by ISBN.
func (l *Ledger) GetBookByISBN(isbn string) (*Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.index.ByISBN(isbn)
	if !ok {
		return nil, fmt.Errorf("%w: isbn %s", ErrBookNotFound, isbn)
	}
	out := *b
	return &out, nil
}

// SearchBooks is a case-insensitive substring search over titles, falling
// back to authors. See LookupIndex.SearchByText.
func (l *Ledger) SearchBooks(query string) []Book {
	l.mu.Lock()
	defer l.mu.Unlock()
	hits := l.index.SearchByText(query)
	out := make([]Book, len(hits))
	for i, b := range hits {
		out[i] = *b
	}
	return out
}

// GetTransaction returns a copy of one loan transaction.
func (l *Ledger) GetTransaction(id int64) (*Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.store.Transaction(id)
	if !ok {
		return nil, fmt.Errorf("%w: transaction %d", ErrTransactionNotFound, id)
	}
	out := *tx
	return &out, nil
}

// Overdue lists issued transactions past their due date with the fine
// accrued so far.
func (l *Ledger) Overdue() []OverdueEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	var out []OverdueEntry
	for _, tx := range l.store.Transactions() {
		if tx.Status != TxIssued {
			continue
		}
		days := daysOverdue(tx.DueDate, now)
		if days <= 0 {
			continue
		}
		cp := *tx
		out = append(out, OverdueEntry{
			Transaction: &cp,
			DaysOverdue: days,
			Fine:        l.cfg.FineRate().Mul(decimal.NewFromInt(int64(days))),
		})
	}
	return out
}

// Stats aggregates catalog and circulation counters, served from the read
// cache until the next structural mutation.
func (l *Ledger) Stats() Statistics {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, ok := l.cache.Get("library_stats"); ok {
		return cached.(Statistics)
	}

	stats := Statistics{Categories: make(map[string]int)}
	for _, b := range l.store.Books() {
		stats.TotalBooks++
		stats.TotalCopies += b.TotalCopies
		stats.AvailableCopies += b.AvailableCopies
		cat := b.Category
		if cat == "" {
			cat = "General"
		}
		stats.Categories[cat]++
	}
	stats.BorrowedCopies = stats.TotalCopies - stats.AvailableCopies
	for _, m := range l.store.Members() {
		stats.TotalMembers++
		if m.Active {
			stats.ActiveMembers++
		}
	}
	for _, tx := range l.store.Transactions() {
		if tx.Status == TxIssued {
			stats.ActiveBorrowings++
		}
	}

	l.cache.Set("library_stats", stats)
	return stats
}

// ------------------ Export and audit surfaces ------------------

// SnapshotForExport returns the catalog in insertion order as value
// copies; formatting is the export collaborator's job.
func (l *Ledger) SnapshotForExport() []Book {
	l.mu.Lock()
	defer l.mu.Unlock()
	books := l.store.Books()
	out := make([]Book, len(books))
	for i, b := range books {
		out[i] = *b
	}
	return out
}

// AuditTrail returns the full stock history in append order.
func (l *Ledger) AuditTrail() []AuditRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	records := l.audit.Records()
	out := make([]AuditRecord, len(records))
	for i, r := range records {
		out[i] = *r
	}
	return out
}

// AuditTrailForBook returns the stock history touching one book.
func (l *Ledger) AuditTrailForBook(bookID int64) []AuditRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	records := l.audit.ForBook(bookID)
	out := make([]AuditRecord, len(records))
	for i, r := range records {
		out[i] = *r
	}
	return out
}

// ------------------ Background tasks ------------------

// FlushAsync queues a persistence flush on the background worker. The
// mutation lock is taken inside the task, so flushes serialize with
// mutations like any other operation.
func (l *Ledger) FlushAsync() (<-chan TaskResult, error) {
	return l.worker.Submit("flush", func() (any, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		snap := l.store.snapshot(l.audit.Records(), l.audit.nextID)
		if err := l.persister.SaveAll(snap); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return nil, nil
	})
}

// StatsAsync computes statistics on the background worker.
func (l *Ledger) StatsAsync() (<-chan TaskResult, error) {
	return l.worker.Submit("stats", func() (any, error) {
		return l.Stats(), nil
	})
}
