package ledger

import (
	"errors"
	"testing"
)

func TestStoreAddBook(t *testing.T) {
	s := NewCatalogStore()

	b, err := s.AddBook(BookFields{ISBN: "isbn-1", Title: "Dune", Author: "Herbert", TotalCopies: 4})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if b.ID != 1 {
		t.Fatalf("first id = %d", b.ID)
	}
	if b.Code != "T1" {
		t.Fatalf("default code = %q", b.Code)
	}
	if b.AvailableCopies != 4 || b.TotalCopies != 4 {
		t.Fatalf("counts: %d/%d", b.AvailableCopies, b.TotalCopies)
	}
	if b.AddedDate.IsZero() {
		t.Fatal("added date not set")
	}

	b2, err := s.AddBook(BookFields{Code: "SF-01", ISBN: "isbn-2", Title: "Hyperion", Author: "Simmons"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if b2.ID != 2 || b2.Code != "SF-01" {
		t.Fatalf("second book: id=%d code=%q", b2.ID, b2.Code)
	}
}

func TestStoreAddBookValidation(t *testing.T) {
	s := NewCatalogStore()

	tests := []struct {
		name   string
		fields BookFields
	}{
		{"missing isbn", BookFields{Title: "Dune", Author: "Herbert"}},
		{"missing title", BookFields{ISBN: "isbn-1", Author: "Herbert"}},
		{"missing author", BookFields{ISBN: "isbn-1", Title: "Dune"}},
		{"negative copies", BookFields{ISBN: "isbn-1", Title: "Dune", Author: "Herbert", TotalCopies: -1}},
		{"negative pages", BookFields{ISBN: "isbn-1", Title: "Dune", Author: "Herbert", PageCount: -5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.AddBook(tc.fields); !errors.Is(err, ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}
	if len(s.Books()) != 0 {
		t.Fatalf("rejected rows landed in the catalog: %d", len(s.Books()))
	}
}

func TestStoreUpdateBookFields(t *testing.T) {
	s := NewCatalogStore()
	b, err := s.AddBook(BookFields{ISBN: "isbn-1", Title: "Dune", Author: "Herbert", TotalCopies: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	title := "Dune Messiah"
	shelf := "A-12"
	got, err := s.UpdateBook(b.ID, BookUpdate{Title: &title, ShelfLocation: &shelf})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "Dune Messiah" || got.ShelfLocation != "A-12" {
		t.Fatalf("updated fields: %+v", got)
	}
	// Untouched fields survive a partial update.
	if got.Author != "Herbert" || got.TotalCopies != 2 {
		t.Fatalf("untouched fields changed: %+v", got)
	}

	empty := ""
	if _, err := s.UpdateBook(b.ID, BookUpdate{Title: &empty}); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty title: want ErrValidation, got %v", err)
	}
	neg := -1
	if _, err := s.UpdateBook(b.ID, BookUpdate{TotalCopies: &neg}); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative total: want ErrValidation, got %v", err)
	}
	if _, err := s.UpdateBook(999, BookUpdate{Title: &title}); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("unknown id: want ErrBookNotFound, got %v", err)
	}
}

func TestStoreUpdateBookRejectionLeavesNoTrace(t *testing.T) {
	s := NewCatalogStore()
	b, err := s.AddBook(BookFields{ISBN: "isbn-1", Title: "Dune", Author: "Herbert", TotalCopies: 5})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b.AvailableCopies = 1 // 4 on loan

	// A mixed update where the copies change is invalid must not apply any
	// of the other fields either.
	title := "Renamed"
	two := 2
	if _, err := s.UpdateBook(b.ID, BookUpdate{Title: &title, TotalCopies: &two}); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("want ErrInvalidOperation, got %v", err)
	}
	got, _ := s.Book(b.ID)
	if got.Title != "Dune" || got.TotalCopies != 5 || got.AvailableCopies != 1 {
		t.Fatalf("rejected update partially applied: %+v", got)
	}
}

func TestStoreDeleteBook(t *testing.T) {
	s := NewCatalogStore()
	b, _ := s.AddBook(BookFields{ISBN: "isbn-1", Title: "Dune", Author: "Herbert", TotalCopies: 2})

	b.AvailableCopies = 1
	if _, err := s.DeleteBook(b.ID); !errors.Is(err, ErrDeleteBlocked) {
		t.Fatalf("want ErrDeleteBlocked, got %v", err)
	}

	b.AvailableCopies = 2
	if _, err := s.DeleteBook(b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Book(b.ID); ok {
		t.Fatal("book still present after delete")
	}
	if _, err := s.DeleteBook(b.ID); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("second delete: want ErrBookNotFound, got %v", err)
	}
}

func TestStoreAddMember(t *testing.T) {
	s := NewCatalogStore()

	m1, err := s.AddMember(MemberFields{Name: "Alice", MembershipType: "Student", MaxBooks: 3})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if m1.Code != "M0001" || !m1.Active {
		t.Fatalf("first member: code=%q active=%v", m1.Code, m1.Active)
	}
	m2, _ := s.AddMember(MemberFields{Name: "Bob", MembershipType: "Faculty", MaxBooks: 5})
	if m2.Code != "M0002" {
		t.Fatalf("second member code: %q", m2.Code)
	}

	if _, err := s.AddMember(MemberFields{MembershipType: "Student", MaxBooks: 3}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing name: want ErrValidation, got %v", err)
	}
	if _, err := s.AddMember(MemberFields{Name: "Carol", MembershipType: "Student", MaxBooks: 0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero max books: want ErrValidation, got %v", err)
	}
	if _, err := s.AddMember(MemberFields{Name: "Dan", Email: "not-an-email", MembershipType: "Student", MaxBooks: 1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad email: want ErrValidation, got %v", err)
	}
}

func TestStoreSnapshotRoundTrip(t *testing.T) {
	s := NewCatalogStore()
	s.AddBook(BookFields{ISBN: "isbn-1", Title: "Dune", Author: "Herbert", TotalCopies: 3})
	s.AddBook(BookFields{ISBN: "isbn-2", Title: "Hyperion", Author: "Simmons", TotalCopies: 1})
	s.AddMember(MemberFields{Name: "Alice", MembershipType: "Student", MaxBooks: 3})

	snap := s.snapshot(nil, 1)
	restored := NewCatalogStoreFromSnapshot(snap)

	if len(restored.Books()) != 2 || len(restored.Members()) != 1 {
		t.Fatalf("restored sizes: books=%d members=%d", len(restored.Books()), len(restored.Members()))
	}
	// Id sequences continue where the original left off.
	b, err := restored.AddBook(BookFields{ISBN: "isbn-3", Title: "Foundation", Author: "Asimov"})
	if err != nil {
		t.Fatalf("add after restore: %v", err)
	}
	if b.ID != 3 {
		t.Fatalf("id after restore: %d, want 3", b.ID)
	}
	m, _ := restored.AddMember(MemberFields{Name: "Bob", MembershipType: "Student", MaxBooks: 3})
	if m.Code != "M0002" {
		t.Fatalf("member code after restore: %q", m.Code)
	}
}

func TestStoreSnapshotRecomputesSequences(t *testing.T) {
	// Snapshots from older files may lack the sequence counters.
	snap := Snapshot{
		Books: []*Book{
			{ID: 7, ISBN: "isbn-7", Title: "Seven", Author: "A", TotalCopies: 1, AvailableCopies: 1},
		},
		Transactions: []*Transaction{{ID: 12, BookID: 7, Status: TxReturned}},
	}
	s := NewCatalogStoreFromSnapshot(snap)

	b, err := s.AddBook(BookFields{ISBN: "isbn-8", Title: "Eight", Author: "B"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if b.ID != 8 {
		t.Fatalf("recomputed book id: %d, want 8", b.ID)
	}
	tx := &Transaction{BookID: 7, Status: TxIssued}
	s.appendTransaction(tx)
	if tx.ID != 13 {
		t.Fatalf("recomputed tx id: %d, want 13", tx.ID)
	}
}

func TestStoreCloneIsolation(t *testing.T) {
	s := NewCatalogStore()
	b, _ := s.AddBook(BookFields{ISBN: "isbn-1", Title: "Dune", Author: "Herbert", TotalCopies: 3})

	undo := s.clone()
	b.AvailableCopies = 0
	b.Title = "Mutated"

	s.restore(undo)
	got, _ := s.Book(b.ID)
	if got.AvailableCopies != 3 || got.Title != "Dune" {
		t.Fatalf("restore did not undo mutation: %+v", got)
	}
}
