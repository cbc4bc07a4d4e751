package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broker-scout/internal/browser"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PLACE", " oregon ")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "oregon", cfg.Place)
	assert.Equal(t, "https://www.ibba.org", cfg.BaseURL)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 25*time.Second, cfg.NavTimeout)
	assert.Equal(t, browser.LoadConditionDOMContentLoaded, cfg.ListingCondition)
	assert.Equal(t, browser.LoadConditionNetworkIdle, cfg.ProfileCondition)
	assert.True(t, cfg.Headless)
	assert.True(t, cfg.WarmUp)
	assert.False(t, cfg.RespectRobots)
	assert.Equal(t, []string{SinkLog}, cfg.Sinks)
	assert.Equal(t, 24*time.Hour, cfg.StatusTTL)
	assert.Equal(t, ProxyRotate, cfg.ProxyStrategy)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PLACE", "utah")
	t.Setenv("NAV_MAX_ATTEMPTS", "5")
	t.Setenv("NAV_TIMEOUT", "45s")
	t.Setenv("PROFILE_LOAD_CONDITION", "Load")
	t.Setenv("HEADLESS", "false")
	t.Setenv("SINKS", "log, JSONL ,mongo")
	t.Setenv("URI", "mongodb://localhost:27017")
	t.Setenv("PROXY_URL", "proxy.example:8080:user:pass")
	t.Setenv("PROXY_POOL", "a.example:1,b.example:2")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 45*time.Second, cfg.NavTimeout)
	assert.Equal(t, browser.LoadConditionLoad, cfg.ProfileCondition)
	assert.False(t, cfg.Headless)
	assert.Equal(t, []string{SinkLog, SinkJSONL, SinkMongo}, cfg.Sinks)
	assert.True(t, cfg.HasSink(SinkMongo))
	assert.False(t, cfg.HasSink(SinkKafka))

	proxies, err := cfg.Proxies()
	require.NoError(t, err)
	require.Len(t, proxies, 3)
	assert.True(t, proxies[0].HasCredentials())
	assert.Equal(t, "http://b.example:2", proxies[2].Server())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"missing place":     {},
		"timeout too long":  {"PLACE": "x", "NAV_TIMEOUT": "60s"},
		"zero attempts":     {"PLACE": "x", "NAV_MAX_ATTEMPTS": "0"},
		"unknown condition": {"PLACE": "x", "LISTING_LOAD_CONDITION": "idle"},
		"unknown sink":      {"PLACE": "x", "SINKS": "stdout"},
		"mongo without uri": {"PLACE": "x", "SINKS": "mongo"},
		"kafka no broker":   {"PLACE": "x", "SINKS": "kafka"},
		"relative base url": {"PLACE": "x", "IBBA_BASE_URL": "/ibba"},
		"proxy strategy":    {"PLACE": "x", "PROXY_STRATEGY": "random"},
		"bad proxy":         {"PLACE": "x", "PROXY_POOL": "nohostport"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("PLACE", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
