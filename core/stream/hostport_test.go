package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHostPort(t *testing.T) {
	hp, err := ParseHostPort("app.com:443")
	require.NoError(t, err)
	require.False(t, hp.IsIP())
	require.Equal(t, "app.com", hp.Domain)
	require.Equal(t, uint16(443), hp.Port)
	require.Equal(t, "app.com:443", hp.String())

	hp, err = ParseHostPort("127.0.0.1:8080")
	require.NoError(t, err)
	require.True(t, hp.IsIP())
	require.Equal(t, "127.0.0.1:8080", hp.String())

	hp, err = ParseHostPort("[::1]:9000")
	require.NoError(t, err)
	require.True(t, hp.IsIP())

	_, err = ParseHostPort("no-port")
	require.Error(t, err)

	_, err = ParseHostPort("app.com:notaport")
	require.Error(t, err)

	_, err = ParseHostPort(":80")
	require.Error(t, err)
}
