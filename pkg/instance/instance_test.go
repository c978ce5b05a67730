package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetIDPrefersDyno(t *testing.T) {
	t.Setenv("HOSTNAME", "api-7f9c")
	t.Setenv("DYNO", "web.1")
	require.Equal(t, "web.1", GetID())

	t.Setenv("DYNO", "")
	require.Equal(t, "api-7f9c", GetID())

	t.Setenv("HOSTNAME", "")
	require.Equal(t, "local", GetID())
}
