package pagination

import (
	"net/url"
	"strconv"
)

// Page is one slice of an ordered listing.
type Page[T any] struct {
	Items []T
	Next  string // encoded cursor, empty on the last page
}

// Paginate returns the items following the cursor in p, at most p.Limit of
// them (all when Limit is 0). items must already be in listing order and key
// must be unique per item. A cursor whose key is no longer present yields an
// empty page rather than restarting the listing.
func Paginate[T any](items []T, p Params, cursorType string, key func(T) string) (Page[T], error) {
	cur, err := DecodeCursor(p.Cursor)
	if err != nil {
		return Page[T]{}, err
	}
	if cur.Type != "" && cur.Type != cursorType {
		return Page[T]{}, ErrCursorType
	}

	start := 0
	if cur.Value != "" {
		start = len(items)
		for i, item := range items {
			if key(item) == cur.Value {
				start = i + 1
				break
			}
		}
	}

	end := len(items)
	if p.Limit > 0 {
		end = min(start+p.Limit, len(items))
	}
	page := Page[T]{Items: items[start:end]}
	if end < len(items) && end > start {
		page.Next = Cursor{Type: cursorType, Value: key(items[end-1])}.Encode()
	}
	return page, nil
}

// NextLink builds the RFC 8288 Link header for page, preserving query and
// the limit in p. It returns "" on the last page.
func NextLink[T any](baseURL string, query url.Values, p Params, page Page[T]) string {
	if page.Next == "" {
		return ""
	}
	q := cloneValues(query)
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return BuildLinkHeader(baseURL, q, page.Next)
}
