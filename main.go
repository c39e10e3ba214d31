package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-ledger/ledger"
)

// Exit codes, one per failure kind so scripts can branch on the outcome.
const (
	exitOK           = 0
	exitError        = 1
	exitValidation   = 2
	exitNotFound     = 3
	exitNotAvailable = 4
	exitBlocked      = 5
	exitInvalidOp    = 6
	exitPersistence  = 7
	exitInvariant    = 8
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ledger.ErrValidation), errors.Is(err, ledger.ErrInvalidQuantity):
		return exitValidation
	case errors.Is(err, ledger.ErrBookNotFound),
		errors.Is(err, ledger.ErrMemberNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound):
		return exitNotFound
	case errors.Is(err, ledger.ErrNotAvailable):
		return exitNotAvailable
	case errors.Is(err, ledger.ErrDeleteBlocked):
		return exitBlocked
	case errors.Is(err, ledger.ErrInvalidOperation),
		errors.Is(err, ledger.ErrAlreadyReturned),
		errors.Is(err, ledger.ErrMemberInactive):
		return exitInvalidOp
	case errors.Is(err, ledger.ErrPersistence):
		return exitPersistence
	case errors.Is(err, ledger.ErrInvariant):
		return exitInvariant
	default:
		return exitError
	}
}

var (
	cfgFile string
	verbose bool

	cfg ledger.Config
	lib *ledger.Ledger
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "library-ledger",
		Short:         "Book catalog, circulation and stock ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = ledger.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if verbose {
				level = "debug"
			}
			ledger.InitLogger(level, true)

			p, err := ledger.OpenPersister(cfg)
			if err != nil {
				return err
			}
			lib, err = ledger.Open(cfg, p)
			if err != nil {
				return err
			}
			if user := os.Getenv("USER"); user != "" {
				lib.SetActor(user)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if lib != nil {
				lib.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newIssueCmd(),
		newReturnCmd(),
		newRestockCmd(),
		newBulkRestockCmd(),
		newAddBookCmd(),
		newUpdateBookCmd(),
		newDeleteBooksCmd(),
		newAddMemberCmd(),
		newListBooksCmd(),
		newSearchCmd(),
		newStockCmd(),
		newHistoryCmd(),
		newOverdueCmd(),
		newStatsCmd(),
		newExportCmd(),
	)
	return root
}

// ------------------ Circulation commands ------------------

func newIssueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issue <bookId> <memberCode>",
		Short: "Lend one copy of a book to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID(args[0])
			if err != nil {
				return err
			}
			tx, err := lib.Issue(bookID, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Issued transaction %d. Due date: %s\n", tx.ID, tx.DueDate.Format("2006-01-02"))
			return nil
		},
	}
}

func newReturnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return <transactionId>",
		Short: "Return a borrowed copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, err := parseID(args[0])
			if err != nil {
				return err
			}
			tx, err := lib.Return(txID)
			if err != nil {
				return err
			}
			if tx.FineAmount.IsPositive() {
				fmt.Printf("Returned. Fine due: %s\n", tx.FineAmount.StringFixed(2))
			} else {
				fmt.Println("Returned on time. No fine.")
			}
			return nil
		},
	}
}

// ------------------ Stock commands ------------------

func newRestockCmd() *cobra.Command {
	var source, notes string
	var skipGate bool
	cmd := &cobra.Command{
		Use:   "restock <bookId> <quantity>",
		Short: "Add new copies of a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !skipGate {
				if err := adminGate(); err != nil {
					return err
				}
			}
			bookID, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: quantity %q is not a number", ledger.ErrValidation, args[1])
			}
			b, err := lib.Restock(bookID, qty, source, notes)
			if err != nil {
				return err
			}
			fmt.Printf("Restocked %q: available %d, total %d\n", b.Title, b.AvailableCopies, b.TotalCopies)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "Purchase", "where the copies came from")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes for the audit record")
	cmd.Flags().BoolVar(&skipGate, "no-gate", false, "skip the admin secret prompt (scripts)")
	return cmd
}

func newBulkRestockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-restock <file>",
		Short: "Restock many books from a CSV of ISBN,Quantity rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := ledger.ParseRestockRows(f)
			if err != nil {
				return err
			}
			res, err := lib.BulkRestock(rows)
			if err != nil {
				return err
			}
			fmt.Printf("Restocked %d books.\n", len(res.Restocked))
			for _, title := range res.Restocked {
				fmt.Printf("  + %s\n", title)
			}
			if len(res.Skipped) > 0 {
				fmt.Printf("Skipped %d rows (ISBN not found or bad quantity):\n", len(res.Skipped))
				for _, isbn := range res.Skipped {
					fmt.Printf("  - %s\n", isbn)
				}
			}
			return nil
		},
	}
}

func newStockCmd() *cobra.Command {
	var band string
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "List books by stock band",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var status ledger.StockStatus
			switch band {
			case "out":
				status = ledger.OutOfStock
			case "low":
				status = ledger.LowStock
			case "in":
				status = ledger.InStock
			default:
				return fmt.Errorf("%w: unknown stock band %q (want out, low or in)", ledger.ErrValidation, band)
			}
			books := lib.BooksByStatus(status)
			if len(books) == 0 {
				fmt.Println("No books in this band.")
				return nil
			}
			printBooks(books)
			return nil
		},
	}
	cmd.Flags().StringVar(&band, "band", "low", "stock band: out, low or in")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [bookId]",
		Short: "Show the stock audit trail, optionally for one book",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []ledger.AuditRecord
			if len(args) == 1 {
				bookID, err := parseID(args[0])
				if err != nil {
					return err
				}
				records = lib.AuditTrailForBook(bookID)
			} else {
				records = lib.AuditTrail()
			}
			if len(records) == 0 {
				fmt.Println("No stock history.")
				return nil
			}
			fmt.Printf("%-5s %-12s %-30s %-6s %-12s %-12s %s\n", "ID", "Action", "Title", "Delta", "Avail", "Total", "When")
			for _, r := range records {
				fmt.Printf("%-5d %-12s %-30s %-6d %4d->%-7d %4d->%-7d %s\n",
					r.ID, r.Action, truncate(r.Title, 30), r.QuantityDelta,
					r.OldAvailable, r.NewAvailable, r.OldTotal, r.NewTotal,
					r.Timestamp.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

// ------------------ Catalog commands ------------------

func newAddBookCmd() *cobra.Command {
	var f ledger.BookFields
	var price string
	cmd := &cobra.Command{
		Use:   "add-book",
		Short: "Add a book to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if price != "" {
				p, err := parsePrice(price)
				if err != nil {
					return err
				}
				f.Price = p
			}
			b, err := lib.AddBook(f)
			if err != nil {
				return err
			}
			fmt.Printf("Added book %d (%s): %q by %s, %d copies\n", b.ID, b.Code, b.Title, b.Author, b.TotalCopies)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Title, "title", "", "title (required)")
	cmd.Flags().StringVar(&f.Author, "author", "", "author (required)")
	cmd.Flags().StringVar(&f.ISBN, "isbn", "", "ISBN (required)")
	cmd.Flags().StringVar(&f.Code, "code", "", "display code (default T<id>)")
	cmd.Flags().StringVar(&f.Publisher, "publisher", "", "publisher")
	cmd.Flags().StringVar(&f.Category, "category", "", "category")
	cmd.Flags().IntVar(&f.PageCount, "pages", 0, "page count")
	cmd.Flags().StringVar(&price, "price", "", "price")
	cmd.Flags().StringVar(&f.ShelfLocation, "shelf", "", "shelf location")
	cmd.Flags().StringVar(&f.Description, "description", "", "free-text description")
	cmd.Flags().IntVar(&f.TotalCopies, "copies", 1, "number of copies")
	return cmd
}

func newUpdateBookCmd() *cobra.Command {
	var (
		title, author, isbn, code, publisher, category, shelf, description, price string

		pages, totalCopies int
	)
	cmd := &cobra.Command{
		Use:   "update-book <bookId>",
		Short: "Update book fields; only the flags you set are applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID(args[0])
			if err != nil {
				return err
			}

			var upd ledger.BookUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				upd.Title = &title
			}
			if flags.Changed("author") {
				upd.Author = &author
			}
			if flags.Changed("isbn") {
				upd.ISBN = &isbn
			}
			if flags.Changed("code") {
				upd.Code = &code
			}
			if flags.Changed("publisher") {
				upd.Publisher = &publisher
			}
			if flags.Changed("category") {
				upd.Category = &category
			}
			if flags.Changed("shelf") {
				upd.ShelfLocation = &shelf
			}
			if flags.Changed("description") {
				upd.Description = &description
			}
			if flags.Changed("pages") {
				upd.PageCount = &pages
			}
			if flags.Changed("total-copies") {
				upd.TotalCopies = &totalCopies
			}
			if flags.Changed("price") {
				p, err := parsePrice(price)
				if err != nil {
					return err
				}
				upd.Price = &p
			}

			b, err := lib.UpdateBook(bookID, upd)
			if err != nil {
				return err
			}
			fmt.Printf("Updated book %d: available %d, total %d\n", b.ID, b.AvailableCopies, b.TotalCopies)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&author, "author", "", "author")
	cmd.Flags().StringVar(&isbn, "isbn", "", "ISBN")
	cmd.Flags().StringVar(&code, "code", "", "display code")
	cmd.Flags().StringVar(&publisher, "publisher", "", "publisher")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&shelf, "shelf", "", "shelf location")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&price, "price", "", "price")
	cmd.Flags().IntVar(&pages, "pages", 0, "page count")
	cmd.Flags().IntVar(&totalCopies, "total-copies", 0, "total copies")
	return cmd
}

func newDeleteBooksCmd() *cobra.Command {
	var skipGate bool
	cmd := &cobra.Command{
		Use:   "delete-books <bookId>...",
		Short: "Delete books with no copies on loan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !skipGate {
				if err := adminGate(); err != nil {
					return err
				}
			}

			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			res, err := lib.DeleteBooks(ids)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d books.\n", len(res.Deleted))
			for _, b := range res.Blocked {
				fmt.Printf("  blocked: %q (%d copies issued)\n", b.Title, b.Issued())
			}
			if len(res.Blocked) > 0 && len(res.Deleted) == 0 {
				return fmt.Errorf("%w: nothing deleted", ledger.ErrDeleteBlocked)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipGate, "no-gate", false, "skip the admin secret prompt (scripts)")
	return cmd
}

func newListBooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-books",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books := lib.SnapshotForExport()
			if len(books) == 0 {
				fmt.Println("Catalog is empty.")
				return nil
			}
			printBooks(books)
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Search books by title, then author",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books := lib.SearchBooks(args[0])
			if len(books) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			printBooks(books)
			return nil
		},
	}
}

// ------------------ Members, reports, export ------------------

func newAddMemberCmd() *cobra.Command {
	var f ledger.MemberFields
	cmd := &cobra.Command{
		Use:   "add-member",
		Short: "Register a borrower",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := lib.AddMember(f)
			if err != nil {
				return err
			}
			fmt.Printf("Added member %s: %s (%s, up to %d books)\n", m.Code, m.Name, m.MembershipType, m.MaxBooks)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "name (required)")
	cmd.Flags().StringVar(&f.Email, "email", "", "email")
	cmd.Flags().StringVar(&f.Phone, "phone", "", "phone")
	cmd.Flags().StringVar(&f.Address, "address", "", "address")
	cmd.Flags().StringVar(&f.MembershipType, "type", "Student", "membership type")
	cmd.Flags().IntVar(&f.MaxBooks, "max-books", 3, "max concurrent loans")
	return cmd
}

func newOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List overdue loans with accrued fines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := lib.Overdue()
			if len(entries) == 0 {
				fmt.Println("Nothing overdue.")
				return nil
			}
			fmt.Printf("%-5s %-8s %-10s %-12s %-5s %s\n", "Tx", "Book", "Member", "Due", "Days", "Fine")
			for _, e := range entries {
				fmt.Printf("%-5d %-8d %-10s %-12s %-5d %s\n",
					e.Transaction.ID, e.Transaction.BookID, e.Transaction.MemberCode,
					e.Transaction.DueDate.Format("2006-01-02"), e.DaysOverdue, e.Fine.StringFixed(2))
			}
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Library statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := lib.Stats()
			fmt.Printf("Books: %d titles, %d copies (%d available, %d on loan)\n",
				s.TotalBooks, s.TotalCopies, s.AvailableCopies, s.BorrowedCopies)
			fmt.Printf("Members: %d (%d active), active borrowings: %d\n",
				s.TotalMembers, s.ActiveMembers, s.ActiveBorrowings)
			if len(s.Categories) > 0 {
				fmt.Println("Categories:")
				for cat, n := range s.Categories {
					fmt.Printf("  %-20s %d\n", cat, n)
				}
			}
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var booksOut, auditOut string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog and audit trail as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if booksOut == "" && auditOut == "" {
				return fmt.Errorf("%w: set --books and/or --audit", ledger.ErrValidation)
			}
			if booksOut != "" {
				if err := exportBooksCSV(booksOut, lib.SnapshotForExport()); err != nil {
					return err
				}
				fmt.Printf("Wrote catalog to %s\n", booksOut)
			}
			if auditOut != "" {
				if err := exportAuditCSV(auditOut, lib.AuditTrail()); err != nil {
					return err
				}
				fmt.Printf("Wrote audit trail to %s\n", auditOut)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&booksOut, "books", "", "catalog CSV output path")
	cmd.Flags().StringVar(&auditOut, "audit", "", "audit trail CSV output path")
	return cmd
}

// ------------------ Helpers ------------------

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a numeric id", ledger.ErrValidation, s)
	}
	return id, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	p, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q is not a number", ledger.ErrValidation, s)
	}
	return p, nil
}

// adminGate prompts for the shared admin secret without echo and compares
// it by plain equality.
func adminGate() error {
	fmt.Print("Admin secret: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read admin secret: %w", err)
	}
	if strings.TrimSpace(string(raw)) != cfg.AdminSecret {
		return fmt.Errorf("%w: admin secret mismatch", ledger.ErrValidation)
	}
	return nil
}

func printBooks(books []ledger.Book) {
	fmt.Printf("%-5s %-8s %-32s %-24s %-14s %-6s %s\n", "ID", "Code", "Title", "Author", "ISBN", "Avail", "Total")
	for _, b := range books {
		fmt.Printf("%-5d %-8s %-32s %-24s %-14s %-6d %d\n",
			b.ID, b.Code, truncate(b.Title, 32), truncate(b.Author, 24), b.ISBN, b.AvailableCopies, b.TotalCopies)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
