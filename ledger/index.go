package ledger

import "strings"

const (
	searchResultCap   = 20
	authorFallbackMin = 10
)

// LookupIndex holds derived hash indexes over the catalog for O(1) reads.
// It is disposable state: Rebuild recomputes everything from the store, and
// nothing may treat the index as a source of truth.
type LookupIndex struct {
	byID    map[int64]*Book
	byISBN  map[string]*Book
	byCode  map[string]*Book
	byTitle map[string]*Book // normalized (lower-cased) title

	ordered []*Book // store iteration order, for text search
}

// NewLookupIndex returns an empty index.
func NewLookupIndex() *LookupIndex {
	idx := &LookupIndex{}
	idx.Rebuild(nil)
	return idx
}

// Rebuild recomputes all indexes from scratch. Called after any structural
// catalog change; a full O(n) rebuild can never drift from the store.
func (idx *LookupIndex) Rebuild(books []*Book) {
	idx.byID = make(map[int64]*Book, len(books))
	idx.byISBN = make(map[string]*Book, len(books))
	idx.byCode = make(map[string]*Book, len(books))
	idx.byTitle = make(map[string]*Book, len(books))
	idx.ordered = books

	for _, b := range books {
		idx.byID[b.ID] = b
		if b.ISBN != "" {
			idx.byISBN[b.ISBN] = b
		}
		if b.Code != "" {
			idx.byCode[b.Code] = b
		}
		if b.Title != "" {
			idx.byTitle[strings.ToLower(b.Title)] = b
		}
	}
}

func (idx *LookupIndex) ByID(id int64) (*Book, bool) {
	b, ok := idx.byID[id]
	return b, ok
}

func (idx *LookupIndex) ByISBN(isbn string) (*Book, bool) {
	b, ok := idx.byISBN[isbn]
	return b, ok
}

func (idx *LookupIndex) ByCode(code string) (*Book, bool) {
	b, ok := idx.byCode[code]
	return b, ok
}

// ByTitle looks up a single book by exact title, case-insensitively.
func (idx *LookupIndex) ByTitle(title string) (*Book, bool) {
	b, ok := idx.byTitle[strings.ToLower(title)]
	return b, ok
}

// SearchByText is a case-insensitive substring search. Title matches come
// first in store iteration order; authors are scanned only when titles
// produce fewer than authorFallbackMin hits. Results are capped, not ranked.
func (idx *LookupIndex) SearchByText(query string) []*Book {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var results []*Book
	seen := make(map[int64]bool)

	for _, b := range idx.ordered {
		if strings.Contains(strings.ToLower(b.Title), query) {
			results = append(results, b)
			seen[b.ID] = true
			if len(results) == searchResultCap {
				return results
			}
		}
	}

	if len(results) < authorFallbackMin {
		for _, b := range idx.ordered {
			if seen[b.ID] {
				continue
			}
			if strings.Contains(strings.ToLower(b.Author), query) {
				results = append(results, b)
				if len(results) == searchResultCap {
					break
				}
			}
		}
	}

	return results
}
