package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset(t *testing.T) {
	t.Helper()
	viper.Reset()
	SetDefaults()
	t.Cleanup(viper.Reset)
}

func TestValidateDefaults(t *testing.T) {
	reset(t)

	require.NoError(t, Validate())
	assert.Equal(t, int64(5<<20), viper.GetInt64("upload.max_size"))
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(){
		"log level":   func() { viper.Set("app.log_level", "loud") },
		"port":        func() { viper.Set("host.port", 0) },
		"driver":      func() { viper.Set("database.driver", "mysql") },
		"storage":     func() { viper.Set("storage.type", "ftp") },
		"r2 creds":    func() { viper.Set("storage.type", "r2") },
		"s3 region":   func() { viper.Set("storage.type", "s3") },
		"ssl cert":    func() { viper.Set("host.ssl.enabled", true) },
		"turnstile":   func() { viper.Set("cloudflare.turnstile.enabled", true) },
		"upload size": func() { viper.Set("upload.max_size", -1) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			reset(t)
			mutate()
			assert.Error(t, Validate())
		})
	}
}
