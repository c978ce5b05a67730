package orders

import (
	"sort"

	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/pagination"
)

// CursorKey places the order in newest-first listings.
func (o Order) CursorKey() pagination.Cursor {
	return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
}

// Page returns one page of items and the cursor of the next one. Without
// paging parameters every item is returned.
func Page(items []Order, params pagination.Params) ([]Order, string, error) {
	if !params.Requested() {
		return items, "", nil
	}
	sorted := append([]Order(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CursorKey().Precedes(sorted[j].CursorKey())
	})
	page, next, err := pagination.Page(sorted, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").WithDetails(map[string]any{"field": "cursor"})
	}
	return page, next, nil
}
