package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"library-ledger/ledger"
)

// exportBooksCSV writes the catalog snapshot as CSV. The ledger hands over
// the rows; formatting lives out here with the rest of the CLI.
func exportBooksCSV(path string, books []ledger.Book) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"ID", "Code", "ISBN", "Title", "Author", "Publisher", "Category", "Pages", "Price", "Shelf", "Available", "Total", "Added"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, b := range books {
		row := []string{
			strconv.FormatInt(b.ID, 10),
			b.Code,
			b.ISBN,
			b.Title,
			b.Author,
			b.Publisher,
			b.Category,
			strconv.Itoa(b.PageCount),
			b.Price.StringFixed(2),
			b.ShelfLocation,
			strconv.Itoa(b.AvailableCopies),
			strconv.Itoa(b.TotalCopies),
			b.AddedDate.Format("2006-01-02"),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// exportAuditCSV writes the stock history as CSV.
func exportAuditCSV(path string, records []ledger.AuditRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"HistoryID", "BookID", "Title", "Author", "ISBN", "Action", "Delta", "OldAvailable", "NewAvailable", "OldTotal", "NewTotal", "Source", "Notes", "Actor", "Timestamp"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.BookID, 10),
			r.Title,
			r.Author,
			r.ISBN,
			string(r.Action),
			strconv.Itoa(r.QuantityDelta),
			strconv.Itoa(r.OldAvailable),
			strconv.Itoa(r.NewAvailable),
			strconv.Itoa(r.OldTotal),
			strconv.Itoa(r.NewTotal),
			r.Source,
			r.Notes,
			r.Actor,
			r.Timestamp.Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
