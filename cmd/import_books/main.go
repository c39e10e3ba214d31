package main

import (
	"fmt"
	"os"
	"path/filepath"

	"library-ledger/ledger"
)

// Seeds the catalog from a CSV file (ISBN,Title,Author plus optional
// Publisher/Category/Pages/Price/Shelf/Description/Copies columns).
// Usage: import_books <file.csv> [config.yaml]
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: import_books <file.csv> [config.yaml]")
		os.Exit(2)
	}

	cfgPath := ""
	if len(os.Args) > 2 {
		cfgPath = os.Args[2]
	}
	cfg, err := ledger.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	ledger.InitLogger(cfg.LogLevel, true)

	p, err := ledger.OpenPersister(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	lib, err := ledger.Open(cfg, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening library: %v\n", err)
		os.Exit(1)
	}
	defer lib.Close()

	path := filepath.Clean(os.Args[1])
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Printf("Importing books from %s...\n", path)
	rows, err := ledger.ParseBookRows(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", path, err)
		os.Exit(1)
	}

	res, err := lib.ImportBooks(rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", len(res.Added))
	fmt.Printf("Rejected rows: %d\n", len(res.Failed))
	for _, key := range res.Failed {
		fmt.Printf("  - %s\n", key)
	}

	if len(res.Added) > 0 {
		fmt.Println("\nImported books:")
		books := lib.SnapshotForExport()
		fmt.Printf("%-5s %-50s %-30s\n", "ID", "Title", "Author")
		for _, b := range books {
			fmt.Printf("%-5d %-50s %-30s\n", b.ID, truncateString(b.Title, 50), truncateString(b.Author, 30))
		}
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
