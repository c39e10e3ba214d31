package ledger

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CatalogStore owns the book, member and transaction records. It is the
// single source of truth for copy counts. The store does no locking of its
// own; the Ledger serializes every mutation behind one mutex.
type CatalogStore struct {
	books        []*Book
	members      []*Member
	transactions []*Transaction

	nextBookID   int64
	nextTxID     int64
	nextMemberNo int
}

// NewCatalogStore returns an empty store.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{nextBookID: 1, nextTxID: 1, nextMemberNo: 1}
}

// NewCatalogStoreFromSnapshot rebuilds a store from persisted state.
func NewCatalogStoreFromSnapshot(snap Snapshot) *CatalogStore {
	s := &CatalogStore{
		books:        snap.Books,
		members:      snap.Members,
		transactions: snap.Transactions,
		nextBookID:   snap.NextBookID,
		nextTxID:     snap.NextTxID,
		nextMemberNo: snap.NextMemberNo,
	}
	if s.nextBookID <= 0 {
		s.nextBookID = 1
		for _, b := range s.books {
			if b.ID >= s.nextBookID {
				s.nextBookID = b.ID + 1
			}
		}
	}
	if s.nextTxID <= 0 {
		s.nextTxID = 1
		for _, tx := range s.transactions {
			if tx.ID >= s.nextTxID {
				s.nextTxID = tx.ID + 1
			}
		}
	}
	if s.nextMemberNo <= 0 {
		s.nextMemberNo = len(s.members) + 1
	}
	return s
}

// ------------------ Books ------------------

// AddBook validates fields, assigns the next sequential id and appends the
// book with all copies available.
func (s *CatalogStore) AddBook(f BookFields) (*Book, error) {
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	b := &Book{
		ID:              s.nextBookID,
		Code:            f.Code,
		ISBN:            f.ISBN,
		Title:           f.Title,
		Author:          f.Author,
		Publisher:       f.Publisher,
		Category:        f.Category,
		PageCount:       f.PageCount,
		Price:           f.Price,
		ShelfLocation:   f.ShelfLocation,
		Description:     f.Description,
		AddedDate:       time.Now(),
		TotalCopies:     f.TotalCopies,
		AvailableCopies: f.TotalCopies,
	}
	if b.Code == "" {
		b.Code = fmt.Sprintf("T%d", b.ID)
	}

	s.books = append(s.books, b)
	s.nextBookID++
	return b, nil
}

// Book returns the book with the given id. Linear scan; the LookupIndex is
// the fast path.
func (s *CatalogStore) Book(id int64) (*Book, bool) {
	for _, b := range s.books {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

func (s *CatalogStore) BookByISBN(isbn string) (*Book, bool) {
	for _, b := range s.books {
		if b.ISBN == isbn {
			return b, true
		}
	}
	return nil, false
}

func (s *CatalogStore) BookByCode(code string) (*Book, bool) {
	for _, b := range s.books {
		if b.Code == code {
			return b, true
		}
	}
	return nil, false
}

// Books returns the catalog in insertion order. The slice is a copy; the
// pointed-to records are live and must not be mutated by callers.
func (s *CatalogStore) Books() []*Book {
	out := make([]*Book, len(s.books))
	copy(out, s.books)
	return out
}

// UpdateBook applies a partial field overwrite. When TotalCopies changes,
// AvailableCopies moves by the same delta: an increase is entirely new
// available stock, and a decrease below the issued count is rejected as
// unrepresentable rather than clamped.
func (s *CatalogStore) UpdateBook(id int64, upd BookUpdate) (*Book, error) {
	b, ok := s.Book(id)
	if !ok {
		return nil, fmt.Errorf("%w: book %d", ErrBookNotFound, id)
	}

	// Validate everything up front: a rejected update must not leave a
	// partially applied record behind.
	if upd.TotalCopies != nil {
		newTotal := *upd.TotalCopies
		if newTotal < 0 {
			return nil, fmt.Errorf("%w: total_copies must not be negative", ErrValidation)
		}
		if issued := b.Issued(); newTotal < issued {
			return nil, fmt.Errorf("%w: cannot reduce total copies to %d with %d on loan", ErrInvalidOperation, newTotal, issued)
		}
	}
	if upd.ISBN != nil && *upd.ISBN == "" {
		return nil, fmt.Errorf("%w: isbn must not be empty", ErrValidation)
	}
	if upd.Title != nil && *upd.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if upd.Author != nil && *upd.Author == "" {
		return nil, fmt.Errorf("%w: author must not be empty", ErrValidation)
	}

	if upd.Code != nil {
		b.Code = *upd.Code
	}
	if upd.ISBN != nil {
		b.ISBN = *upd.ISBN
	}
	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Author != nil {
		b.Author = *upd.Author
	}
	if upd.Publisher != nil {
		b.Publisher = *upd.Publisher
	}
	if upd.Category != nil {
		b.Category = *upd.Category
	}
	if upd.PageCount != nil {
		b.PageCount = *upd.PageCount
	}
	if upd.Price != nil {
		b.Price = *upd.Price
	}
	if upd.ShelfLocation != nil {
		b.ShelfLocation = *upd.ShelfLocation
	}
	if upd.Description != nil {
		b.Description = *upd.Description
	}
	if upd.TotalCopies != nil {
		delta := *upd.TotalCopies - b.TotalCopies
		b.TotalCopies = *upd.TotalCopies
		b.AvailableCopies += delta
		if b.AvailableCopies < 0 {
			b.AvailableCopies = 0
		}
	}

	if err := s.checkCounts(b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBook removes a book. A book with copies on loan cannot be deleted.
func (s *CatalogStore) DeleteBook(id int64) (*Book, error) {
	for i, b := range s.books {
		if b.ID != id {
			continue
		}
		if b.AvailableCopies < b.TotalCopies {
			return nil, fmt.Errorf("%w: %q has %d copies issued", ErrDeleteBlocked, b.Title, b.Issued())
		}
		s.books = append(s.books[:i], s.books[i+1:]...)
		return b, nil
	}
	return nil, fmt.Errorf("%w: book %d", ErrBookNotFound, id)
}

// ------------------ Members ------------------

// AddMember validates fields, assigns the next member code (M0001 style)
// and appends an active member.
func (s *CatalogStore) AddMember(f MemberFields) (*Member, error) {
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	m := &Member{
		Code:           fmt.Sprintf("M%04d", s.nextMemberNo),
		Name:           f.Name,
		Email:          f.Email,
		Phone:          f.Phone,
		Address:        f.Address,
		MembershipType: f.MembershipType,
		MaxBooks:       f.MaxBooks,
		JoinDate:       time.Now(),
		Active:         true,
	}
	s.members = append(s.members, m)
	s.nextMemberNo++
	return m, nil
}

func (s *CatalogStore) Member(code string) (*Member, bool) {
	for _, m := range s.members {
		if m.Code == code {
			return m, true
		}
	}
	return nil, false
}

func (s *CatalogStore) Members() []*Member {
	out := make([]*Member, len(s.members))
	copy(out, s.members)
	return out
}

// ------------------ Transactions ------------------

func (s *CatalogStore) Transaction(id int64) (*Transaction, bool) {
	for _, tx := range s.transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return nil, false
}

func (s *CatalogStore) Transactions() []*Transaction {
	out := make([]*Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

func (s *CatalogStore) appendTransaction(tx *Transaction) {
	tx.ID = s.nextTxID
	s.transactions = append(s.transactions, tx)
	s.nextTxID++
}

// ------------------ Invariants and snapshots ------------------

// checkCounts enforces 0 <= available <= total. A failure here is a
// programming error, not bad caller input.
func (s *CatalogStore) checkCounts(b *Book) error {
	if b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies {
		return fmt.Errorf("%w: book %d has available=%d total=%d", ErrInvariant, b.ID, b.AvailableCopies, b.TotalCopies)
	}
	return nil
}

// snapshot packages the store plus the audit trail for persistence.
func (s *CatalogStore) snapshot(audit []*AuditRecord, nextAuditID int64) Snapshot {
	return Snapshot{
		Books:        s.Books(),
		Members:      s.Members(),
		Transactions: s.Transactions(),
		AuditRecords: audit,
		NextBookID:   s.nextBookID,
		NextTxID:     s.nextTxID,
		NextAuditID:  nextAuditID,
		NextMemberNo: s.nextMemberNo,
	}
}

// clone deep-copies the store for the persistence rollback path.
func (s *CatalogStore) clone() *CatalogStore {
	c := &CatalogStore{
		books:        make([]*Book, len(s.books)),
		members:      make([]*Member, len(s.members)),
		transactions: make([]*Transaction, len(s.transactions)),
		nextBookID:   s.nextBookID,
		nextTxID:     s.nextTxID,
		nextMemberNo: s.nextMemberNo,
	}
	for i, b := range s.books {
		cp := *b
		c.books[i] = &cp
	}
	for i, m := range s.members {
		cp := *m
		c.members[i] = &cp
	}
	for i, tx := range s.transactions {
		cp := *tx
		c.transactions[i] = &cp
	}
	return c
}

// restore overwrites this store's contents with a previously taken clone.
func (s *CatalogStore) restore(from *CatalogStore) {
	s.books = from.books
	s.members = from.members
	s.transactions = from.transactions
	s.nextBookID = from.nextBookID
	s.nextTxID = from.nextTxID
	s.nextMemberNo = from.nextMemberNo
}
