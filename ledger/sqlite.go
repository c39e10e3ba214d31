package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// SQLiteStore persists snapshots in a SQLite database. Every SaveAll runs
// in one transaction, so a failed write leaves the previous snapshot intact.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies
// schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (st *SQLiteStore) Close() error { return st.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY,
            code TEXT NOT NULL,
            isbn TEXT NOT NULL,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            publisher TEXT NOT NULL DEFAULT '',
            category TEXT NOT NULL DEFAULT '',
            page_count INTEGER NOT NULL DEFAULT 0,
            price TEXT NOT NULL DEFAULT '0',
            shelf_location TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            added_date DATETIME NOT NULL,
            total_copies INTEGER NOT NULL,
            available_copies INTEGER NOT NULL,
            CHECK (available_copies >= 0 AND available_copies <= total_copies)
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            code TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            membership_type TEXT NOT NULL,
            max_books INTEGER NOT NULL,
            join_date DATETIME NOT NULL,
            active BOOLEAN NOT NULL DEFAULT 1,
            total_borrowed INTEGER NOT NULL DEFAULT 0,
            current_borrowed INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS transactions (
            id INTEGER PRIMARY KEY,
            book_id INTEGER NOT NULL,
            member_code TEXT NOT NULL,
            issue_date DATETIME NOT NULL,
            due_date DATETIME NOT NULL,
            return_date DATETIME,
            status TEXT NOT NULL,
            fine_amount TEXT NOT NULL DEFAULT '0',
            fine_paid BOOLEAN NOT NULL DEFAULT 0,
            renewals INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS stock_history (
            history_id INTEGER PRIMARY KEY,
            book_id INTEGER NOT NULL,
            book_title TEXT NOT NULL,
            book_author TEXT NOT NULL,
            book_isbn TEXT NOT NULL,
            action TEXT NOT NULL,
            quantity_delta INTEGER NOT NULL,
            old_stock INTEGER NOT NULL,
            new_stock INTEGER NOT NULL,
            old_total INTEGER NOT NULL,
            new_total INTEGER NOT NULL,
            source TEXT NOT NULL DEFAULT '',
            notes TEXT NOT NULL DEFAULT '',
            performed_by TEXT NOT NULL DEFAULT '',
            timestamp DATETIME NOT NULL
        );`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Snapshot persistence
// ---------------------------------------------------------------------------

// SaveAll replaces the stored snapshot in one transaction.
func (st *SQLiteStore) SaveAll(snap Snapshot) error {
	tx, err := st.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"books", "members", "transactions", "stock_history"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, b := range snap.Books {
		_, err := tx.Exec(`INSERT INTO books
            (id,code,isbn,title,author,publisher,category,page_count,price,shelf_location,description,added_date,total_copies,available_copies)
            VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			b.ID, b.Code, b.ISBN, b.Title, b.Author, b.Publisher, b.Category, b.PageCount,
			b.Price.String(), b.ShelfLocation, b.Description, b.AddedDate, b.TotalCopies, b.AvailableCopies)
		if err != nil {
			return fmt.Errorf("save book %d: %w", b.ID, err)
		}
	}

	for _, m := range snap.Members {
		_, err := tx.Exec(`INSERT INTO members
            (code,name,email,phone,address,membership_type,max_books,join_date,active,total_borrowed,current_borrowed)
            VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
			m.Code, m.Name, m.Email, m.Phone, m.Address, m.MembershipType, m.MaxBooks,
			m.JoinDate, m.Active, m.TotalBorrowed, m.CurrentBorrowed)
		if err != nil {
			return fmt.Errorf("save member %s: %w", m.Code, err)
		}
	}

	for _, t := range snap.Transactions {
		var returned any
		if !t.ReturnDate.IsZero() {
			returned = t.ReturnDate
		}
		_, err := tx.Exec(`INSERT INTO transactions
            (id,book_id,member_code,issue_date,due_date,return_date,status,fine_amount,fine_paid,renewals)
            VALUES(?,?,?,?,?,?,?,?,?,?)`,
			t.ID, t.BookID, t.MemberCode, t.IssueDate, t.DueDate, returned,
			string(t.Status), t.FineAmount.String(), t.FinePaid, t.Renewals)
		if err != nil {
			return fmt.Errorf("save transaction %d: %w", t.ID, err)
		}
	}

	for _, r := range snap.AuditRecords {
		_, err := tx.Exec(`INSERT INTO stock_history
            (history_id,book_id,book_title,book_author,book_isbn,action,quantity_delta,old_stock,new_stock,old_total,new_total,source,notes,performed_by,timestamp)
            VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			r.ID, r.BookID, r.Title, r.Author, r.ISBN, string(r.Action), r.QuantityDelta,
			r.OldAvailable, r.NewAvailable, r.OldTotal, r.NewTotal, r.Source, r.Notes, r.Actor, r.Timestamp)
		if err != nil {
			return fmt.Errorf("save audit record %d: %w", r.ID, err)
		}
	}

	if err := saveMeta(tx, snap); err != nil {
		return err
	}
	return tx.Commit()
}

func saveMeta(tx *sql.Tx, snap Snapshot) error {
	meta := map[string]int64{
		"next_book_id":   snap.NextBookID,
		"next_tx_id":     snap.NextTxID,
		"next_audit_id":  snap.NextAuditID,
		"next_member_no": int64(snap.NextMemberNo),
	}
	for key, val := range meta {
		if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES(?,?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, key, fmt.Sprint(val)); err != nil {
			return fmt.Errorf("save meta %s: %w", key, err)
		}
	}
	return nil
}

// LoadAll reads the whole snapshot back. An empty database is an empty
// library.
func (st *SQLiteStore) LoadAll() (Snapshot, error) {
	var snap Snapshot

	rows, err := st.db.Query(`SELECT id,code,isbn,title,author,publisher,category,page_count,price,shelf_location,description,added_date,total_copies,available_copies FROM books ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("load books: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var b Book
		var price string
		if err := rows.Scan(&b.ID, &b.Code, &b.ISBN, &b.Title, &b.Author, &b.Publisher, &b.Category,
			&b.PageCount, &price, &b.ShelfLocation, &b.Description, &b.AddedDate, &b.TotalCopies, &b.AvailableCopies); err != nil {
			return snap, fmt.Errorf("scan book: %w", err)
		}
		if b.Price, err = decimal.NewFromString(price); err != nil {
			return snap, fmt.Errorf("book %d price: %w", b.ID, err)
		}
		snap.Books = append(snap.Books, &b)
	}
	if err := rows.Err(); err != nil {
		return snap, err
	}

	mrows, err := st.db.Query(`SELECT code,name,email,phone,address,membership_type,max_books,join_date,active,total_borrowed,current_borrowed FROM members ORDER BY code`)
	if err != nil {
		return snap, fmt.Errorf("load members: %w", err)
	}
	defer mrows.Close()
	for mrows.Next() {
		var m Member
		if err := mrows.Scan(&m.Code, &m.Name, &m.Email, &m.Phone, &m.Address, &m.MembershipType,
			&m.MaxBooks, &m.JoinDate, &m.Active, &m.TotalBorrowed, &m.CurrentBorrowed); err != nil {
			return snap, fmt.Errorf("scan member: %w", err)
		}
		snap.Members = append(snap.Members, &m)
	}
	if err := mrows.Err(); err != nil {
		return snap, err
	}

	trows, err := st.db.Query(`SELECT id,book_id,member_code,issue_date,due_date,return_date,status,fine_amount,fine_paid,renewals FROM transactions ORDER BY id`)
	if err != nil {
		return snap, fmt.Errorf("load transactions: %w", err)
	}
	defer trows.Close()
	for trows.Next() {
		var t Transaction
		var returned sql.NullTime
		var status, fine string
		if err := trows.Scan(&t.ID, &t.BookID, &t.MemberCode, &t.IssueDate, &t.DueDate,
			&returned, &status, &fine, &t.FinePaid, &t.Renewals); err != nil {
			return snap, fmt.Errorf("scan transaction: %w", err)
		}
		if returned.Valid {
			t.ReturnDate = returned.Time
		}
		t.Status = TxStatus(status)
		if t.FineAmount, err = decimal.NewFromString(fine); err != nil {
			return snap, fmt.Errorf("transaction %d fine: %w", t.ID, err)
		}
		snap.Transactions = append(snap.Transactions, &t)
	}
	if err := trows.Err(); err != nil {
		return snap, err
	}

	hrows, err := st.db.Query(`SELECT history_id,book_id,book_title,book_author,book_isbn,action,quantity_delta,old_stock,new_stock,old_total,new_total,source,notes,performed_by,timestamp FROM stock_history ORDER BY history_id`)
	if err != nil {
		return snap, fmt.Errorf("load stock history: %w", err)
	}
	defer hrows.Close()
	for hrows.Next() {
		var r AuditRecord
		var action string
		if err := hrows.Scan(&r.ID, &r.BookID, &r.Title, &r.Author, &r.ISBN, &action, &r.QuantityDelta,
			&r.OldAvailable, &r.NewAvailable, &r.OldTotal, &r.NewTotal, &r.Source, &r.Notes, &r.Actor, &r.Timestamp); err != nil {
			return snap, fmt.Errorf("scan audit record: %w", err)
		}
		r.Action = AuditAction(action)
		snap.AuditRecords = append(snap.AuditRecords, &r)
	}
	if err := hrows.Err(); err != nil {
		return snap, err
	}

	snap.NextBookID = st.metaInt("next_book_id")
	snap.NextTxID = st.metaInt("next_tx_id")
	snap.NextAuditID = st.metaInt("next_audit_id")
	snap.NextMemberNo = int(st.metaInt("next_member_no"))
	return snap, nil
}

func (st *SQLiteStore) metaInt(key string) int64 {
	var val int64
	_ = st.db.QueryRow(`SELECT value FROM meta WHERE key=?`, key).Scan(&val)
	return val
}
