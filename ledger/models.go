package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is one catalog entry. ID is assigned once and never changes; Code is
// the librarian-facing display code and may be edited later.
type Book struct {
	ID              int64           `json:"id"`
	Code            string          `json:"code"`
	ISBN            string          `json:"isbn"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	Publisher       string          `json:"publisher"`
	Category        string          `json:"category"`
	PageCount       int             `json:"page_count"`
	Price           decimal.Decimal `json:"price"`
	ShelfLocation   string          `json:"shelf_location"`
	Description     string          `json:"description"`
	AddedDate       time.Time       `json:"added_date"`
	TotalCopies     int             `json:"total_copies"`
	AvailableCopies int             `json:"available_copies"`
}

// Issued is the number of copies currently on loan.
func (b *Book) Issued() int { return b.TotalCopies - b.AvailableCopies }

// StockStatus classifies a book by its available-copy count.
type StockStatus string

const (
	OutOfStock StockStatus = "out_of_stock"
	LowStock   StockStatus = "low_stock"
	InStock    StockStatus = "in_stock"
)

// BookFields carries the caller-supplied attributes for a new book.
type BookFields struct {
	Code          string          `validate:"omitempty,max=32"`
	ISBN          string          `validate:"required"`
	Title         string          `validate:"required"`
	Author        string          `validate:"required"`
	Publisher     string
	Category      string
	PageCount     int             `validate:"gte=0"`
	Price         decimal.Decimal
	ShelfLocation string
	Description   string
	TotalCopies   int `validate:"gte=0"`
}

// BookUpdate is a partial overwrite of a book's mutable fields. Nil means
// "leave unchanged". Changing TotalCopies adjusts AvailableCopies by the
// same delta; reducing it below the issued count is rejected.
type BookUpdate struct {
	Code          *string
	ISBN          *string
	Title         *string
	Author        *string
	Publisher     *string
	Category      *string
	PageCount     *int
	Price         *decimal.Decimal
	ShelfLocation *string
	Description   *string
	TotalCopies   *int
}

// Member is a registered borrower. Members are never hard-deleted; Active
// is flipped off instead.
type Member struct {
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Address         string    `json:"address"`
	MembershipType  string    `json:"membership_type"`
	MaxBooks        int       `json:"max_books"`
	JoinDate        time.Time `json:"join_date"`
	Active          bool      `json:"active"`
	TotalBorrowed   int       `json:"total_borrowed"`
	CurrentBorrowed int       `json:"current_borrowed"`
}

// MemberFields carries the caller-supplied attributes for a new member.
type MemberFields struct {
	Name           string `validate:"required"`
	Email          string `validate:"omitempty,email"`
	Phone          string
	Address        string
	MembershipType string `validate:"required"`
	MaxBooks       int    `validate:"gt=0"`
}

// TxStatus is the lifecycle state of a loan transaction.
type TxStatus string

const (
	TxIssued   TxStatus = "issued"
	TxReturned TxStatus = "returned"
)

// Transaction records one issue-to-return cycle for a single copy.
type Transaction struct {
	ID         int64           `json:"id"`
	BookID     int64           `json:"book_id"`
	MemberCode string          `json:"member_code"`
	IssueDate  time.Time       `json:"issue_date"`
	DueDate    time.Time       `json:"due_date"`
	ReturnDate time.Time       `json:"return_date"`
	Status     TxStatus        `json:"status"`
	FineAmount decimal.Decimal `json:"fine_amount"`
	FinePaid   bool            `json:"fine_paid"`
	Renewals   int             `json:"renewals"`
}

// AuditAction is the kind of stock change an audit record describes.
type AuditAction string

const (
	ActionRestock     AuditAction = "restock"
	ActionBulkRestock AuditAction = "bulk_restock"
	ActionDelete      AuditAction = "delete"
)

// AuditRecord is one append-only entry in the stock history. The book
// fields are a snapshot taken at write time so the record stays readable
// after the book itself is deleted.
type AuditRecord struct {
	ID            int64       `json:"history_id"`
	BookID        int64       `json:"book_id"`
	Title         string      `json:"book_title"`
	Author        string      `json:"book_author"`
	ISBN          string      `json:"book_isbn"`
	Action        AuditAction `json:"action"`
	QuantityDelta int         `json:"quantity_delta"`
	OldAvailable  int         `json:"old_stock"`
	NewAvailable  int         `json:"new_stock"`
	OldTotal      int         `json:"old_total"`
	NewTotal      int         `json:"new_total"`
	Source        string      `json:"source"`
	Notes         string      `json:"notes"`
	Actor         string      `json:"performed_by"`
	Timestamp     time.Time   `json:"timestamp"`
}

// Snapshot is the full durable state handed to a Persister. SaveAll writes
// it atomically; LoadAll returns the last one written.
type Snapshot struct {
	Books        []*Book        `json:"books"`
	Members      []*Member      `json:"members"`
	Transactions []*Transaction `json:"transactions"`
	AuditRecords []*AuditRecord `json:"audit_records"`
	NextBookID   int64          `json:"next_book_id"`
	NextTxID     int64          `json:"next_tx_id"`
	NextAuditID  int64          `json:"next_audit_id"`
	NextMemberNo int            `json:"next_member_no"`
}

// RestockRow is one parsed row of a bulk-restock input.
type RestockRow struct {
	ISBN     string
	Quantity int
}

// BulkRestockResult reports per-row outcomes of a bulk restock. Unknown
// ISBNs are skipped, never fatal for the batch.
type BulkRestockResult struct {
	Restocked []string // titles, in input order
	Skipped   []string // ISBNs with no matching book
}

// DeleteResult reports per-book outcomes of a multi-delete.
type DeleteResult struct {
	Deleted []int64
	Blocked []*Book // books with copies still on loan
}

// ImportResult reports per-row outcomes of a bulk catalog import.
type ImportResult struct {
	Added  []int64
	Failed []string // ISBN (or title when ISBN missing) of rejected rows
}

// OverdueEntry is one issued transaction past its due date.
type OverdueEntry struct {
	Transaction *Transaction
	DaysOverdue int
	Fine        decimal.Decimal
}

// Statistics is the aggregate view served by the stats command.
type Statistics struct {
	TotalBooks       int
	TotalCopies      int
	AvailableCopies  int
	BorrowedCopies   int
	Categories       map[string]int
	TotalMembers     int
	ActiveMembers    int
	ActiveBorrowings int
}
