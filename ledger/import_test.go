package ledger

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseRestockRows(t *testing.T) {
	in := strings.NewReader("Quantity,ISBN,Comment\n3, isbn-1 ,reorder\n10,isbn-2,\n")

	rows, err := ParseRestockRows(in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: %d", len(rows))
	}
	if rows[0].ISBN != "isbn-1" || rows[0].Quantity != 3 {
		t.Fatalf("row 0: %+v", rows[0])
	}
	if rows[1].ISBN != "isbn-2" || rows[1].Quantity != 10 {
		t.Fatalf("row 1: %+v", rows[1])
	}
}

func TestParseRestockRowsErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty input", ""},
		{"missing isbn column", "Quantity\n3\n"},
		{"missing quantity column", "ISBN\nisbn-1\n"},
		{"non-numeric quantity", "ISBN,Quantity\nisbn-1,lots\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRestockRows(strings.NewReader(tc.in)); !errors.Is(err, ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}
}

func TestParseBookRows(t *testing.T) {
	in := strings.NewReader(
		"ISBN,Title,Author,Publisher,Category,Pages,Price,Shelf,Copies\n" +
			"isbn-1,Dune,Herbert,Ace,SciFi,412,250.50,A-1,4\n" +
			"isbn-2,Hyperion,Simmons,,,,,,\n")

	rows, err := ParseBookRows(in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: %d", len(rows))
	}

	full := rows[0]
	if full.ISBN != "isbn-1" || full.Title != "Dune" || full.Publisher != "Ace" {
		t.Fatalf("full row: %+v", full)
	}
	if full.PageCount != 412 || full.TotalCopies != 4 || full.ShelfLocation != "A-1" {
		t.Fatalf("full row numerics: %+v", full)
	}
	if want, _ := decimal.NewFromString("250.50"); !full.Price.Equal(want) {
		t.Fatalf("price: %s", full.Price)
	}

	// Optional columns default; copies default to one.
	sparse := rows[1]
	if sparse.Title != "Hyperion" || sparse.TotalCopies != 1 || sparse.PageCount != 0 {
		t.Fatalf("sparse row: %+v", sparse)
	}
}

func TestParseBookRowsErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing title column", "ISBN,Author\nisbn-1,Herbert\n"},
		{"non-numeric pages", "ISBN,Title,Author,Pages\nisbn-1,Dune,Herbert,many\n"},
		{"non-numeric price", "ISBN,Title,Author,Price\nisbn-1,Dune,Herbert,cheap\n"},
		{"non-numeric copies", "ISBN,Title,Author,Copies\nisbn-1,Dune,Herbert,few\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseBookRows(strings.NewReader(tc.in)); !errors.Is(err, ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}
}
