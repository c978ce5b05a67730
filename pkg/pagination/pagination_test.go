package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type row struct{ key Cursor }

func (r row) CursorKey() Cursor { return r.key }

func rows(n int) []row {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]row, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, row{key: Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Minute), ID: uuid.New()}})
	}
	return out
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 5, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.True(t, in.CreatedAt.Equal(out.CreatedAt))
	require.Equal(t, in.ID, out.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, empty)

	_, err = ParseCursor("not-a-cursor!")
	require.Error(t, err)
}

func TestPageWalksNewestFirst(t *testing.T) {
	items := rows(5)

	first, next, err := Page(items, Params{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, items[:2], first)
	require.NotEmpty(t, next)

	second, next, err := Page(items, Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Equal(t, items[2:4], second)

	last, next, err := Page(items, Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Equal(t, items[4:], last)
	require.Empty(t, next)
}

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	require.Equal(t, 7, NormalizeLimit(7))
	require.False(t, Params{}.Requested())
	require.True(t, Params{Cursor: "x"}.Requested())
}

func TestPrecedesBreaksTiesByID(t *testing.T) {
	at := time.Now()
	low := Cursor{CreatedAt: at, ID: uuid.MustParse("00000000-0000-0000-0000-000000000001")}
	high := Cursor{CreatedAt: at, ID: uuid.MustParse("00000000-0000-0000-0000-000000000002")}
	require.True(t, high.Precedes(low))
	require.False(t, low.Precedes(high))
}
