package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseRestockRows reads bulk-restock input: a CSV with an ISBN and a
// Quantity column (header required, order and extra columns ignored).
// Malformed rows come back as an error before any ledger work starts.
func ParseRestockRows(r io.Reader) ([]RestockRow, error) {
	records, header, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	isbnCol, ok := header["isbn"]
	if !ok {
		return nil, fmt.Errorf("%w: input must contain an ISBN column", ErrValidation)
	}
	qtyCol, ok := header["quantity"]
	if !ok {
		return nil, fmt.Errorf("%w: input must contain a Quantity column", ErrValidation)
	}

	rows := make([]RestockRow, 0, len(records))
	for i, rec := range records {
		qty, err := strconv.Atoi(strings.TrimSpace(rec[qtyCol]))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d has non-numeric quantity %q", ErrValidation, i+2, rec[qtyCol])
		}
		rows = append(rows, RestockRow{
			ISBN:     strings.TrimSpace(rec[isbnCol]),
			Quantity: qty,
		})
	}
	return rows, nil
}

// ParseBookRows reads catalog-import input: a CSV with at least ISBN,
// Title and Author columns; Publisher, Category, Pages, Price, Shelf,
// Description and Copies are optional.
func ParseBookRows(r io.Reader) ([]BookFields, error) {
	records, header, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	for _, required := range []string{"isbn", "title", "author"} {
		if _, ok := header[required]; !ok {
			return nil, fmt.Errorf("%w: input must contain a %s column", ErrValidation, required)
		}
	}

	field := func(rec []string, name string) string {
		col, ok := header[name]
		if !ok || col >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[col])
	}

	rows := make([]BookFields, 0, len(records))
	for i, rec := range records {
		f := BookFields{
			ISBN:          field(rec, "isbn"),
			Title:         field(rec, "title"),
			Author:        field(rec, "author"),
			Publisher:     field(rec, "publisher"),
			Category:      field(rec, "category"),
			ShelfLocation: field(rec, "shelf"),
			Description:   field(rec, "description"),
			TotalCopies:   1,
		}
		if v := field(rec, "pages"); v != "" {
			pages, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d has non-numeric pages %q", ErrValidation, i+2, v)
			}
			f.PageCount = pages
		}
		if v := field(rec, "price"); v != "" {
			price, err := decimal.NewFromString(v)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d has non-numeric price %q", ErrValidation, i+2, v)
			}
			f.Price = price
		}
		if v := field(rec, "copies"); v != "" {
			copies, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d has non-numeric copies %q", ErrValidation, i+2, v)
			}
			f.TotalCopies = copies
		}
		rows = append(rows, f)
	}
	return rows, nil
}

// readCSV returns the data records plus a lower-cased header-name-to-column
// map.
func readCSV(r io.Reader) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%w: input is empty", ErrValidation)
	}

	header := make(map[string]int, len(all[0]))
	for i, name := range all[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return all[1:], header, nil
}
