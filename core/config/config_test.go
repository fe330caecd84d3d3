package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadBytes(t *testing.T) {
	configStr := `
sniff:
  peek_bytes: 32
  timeout_ms: 500
routes:
  app.com:
    target: "localhost:8080"
    rate_limit:
      rate: 10
      burst: 10
      cooldown: 60000
  "*.api.com":
    target: "10.0.0.5:3000"
    terminate: true
`

	config := New()
	err := config.LoadBytes([]byte(configStr))
	require.NoError(t, err)
	require.Equal(t, 32, config.Sniff.PeekBytes)

	route := config.GetRoute("app.com")
	require.NotNil(t, route)
	require.NotNil(t, route.Limiter)
	require.NotNil(t, route.Metrics)
	require.False(t, route.Target.IsIP())
	require.Equal(t, "localhost:8080", route.Target.String())

	route = config.GetRoute("v1.api.com")
	require.NotNil(t, route)
	require.True(t, route.Terminate)
	require.True(t, route.Target.IsIP())

	require.Nil(t, config.GetRoute("unknown.com"))
}

func TestLoadBytesRejectsBadTargets(t *testing.T) {
	config := New()

	err := config.LoadBytes([]byte("routes:\n  app.com:\n    target: \"\"\n"))
	require.Error(t, err)

	err = config.LoadBytes([]byte("routes:\n  app.com:\n    target: \"no-port\"\n"))
	require.Error(t, err)
}

func TestAddAndRemoveRoute(t *testing.T) {
	config := New()
	require.NoError(t, config.AddRoute("svc.local", "127.0.0.1:9000"))
	require.Error(t, config.AddRoute("bad.local", "nonsense"))

	require.NotNil(t, config.GetRoute("svc.local"))
	require.ElementsMatch(t, []string{"svc.local"}, config.Hosts())

	require.True(t, config.RemoveRoute("svc.local"))
	require.False(t, config.RemoveRoute("svc.local"))
	require.Nil(t, config.GetRoute("svc.local"))
}
