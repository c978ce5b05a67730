package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size when a cursor is sent without a limit.
	DefaultLimit = 25
	// MaxLimit caps how many rows a single page can hold.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers.
type Params struct {
	Limit  int
	Cursor string
}

// Requested reports whether the caller asked for a page at all. Listings
// without paging parameters return every row.
func (p Params) Requested() bool {
	return p.Limit > 0 || strings.TrimSpace(p.Cursor) != ""
}

// Cursor is the position of a row in a newest-first listing.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Precedes reports whether c is listed ahead of other in newest-first order.
// Equal timestamps fall back to the descending id.
func (c Cursor) Precedes(other Cursor) bool {
	if !c.CreatedAt.Equal(other.CreatedAt) {
		return c.CreatedAt.After(other.CreatedAt)
	}
	return strings.Compare(c.ID.String(), other.ID.String()) > 0
}

// Keyed is a row that can be located by a cursor.
type Keyed interface {
	CursorKey() Cursor
}

// NormalizeLimit enforces the default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Page slices a newest-first listing after the cursor in p and returns the
// cursor of the following page, or "" on the last page.
func Page[T Keyed](items []T, p Params) ([]T, string, error) {
	after, err := ParseCursor(p.Cursor)
	if err != nil {
		return nil, "", err
	}
	start := 0
	if after != nil {
		start = len(items)
		for i, item := range items {
			if after.Precedes(item.CursorKey()) {
				start = i
				break
			}
		}
	}
	limit := NormalizeLimit(p.Limit)
	end := start + limit
	if end >= len(items) {
		return items[start:], "", nil
	}
	return items[start:end], EncodeCursor(items[end-1].CursorKey()), nil
}

// EncodeCursor builds an opaque cursor string.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursor.CreatedAt.UTC().Format(time.RFC3339Nano), cursor.ID.String())
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor string. An empty string yields nil.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	ts, rawID, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: t, ID: id}, nil
}
