package dbtypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONScanAndValue(t *testing.T) {
	src := NewJSON([]int64{3, 1, 2})
	value, err := src.Value()
	require.NoError(t, err)
	require.Equal(t, "[3,1,2]", value)

	var dst JSON[[]int64]
	require.NoError(t, dst.Scan([]byte("[3,1,2]")))
	require.Equal(t, []int64{3, 1, 2}, dst.Data)

	require.NoError(t, dst.Scan(nil))
	require.Nil(t, dst.Data)
}

func TestJSONScanRejectsUnknownType(t *testing.T) {
	var dst JSON[[]string]
	require.Error(t, dst.Scan(42))
}
