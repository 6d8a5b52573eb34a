package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
Title = "Test Portal"

[DB]
Engine = "sqlite"
Path = ":memory:"

[Webserver]
Port = 8080
URL = "http://localhost:8080"
TokenSecret = "test-secret"

[Webserver.Session]
ExpiryTime = 60000000000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir() + string(os.PathSeparator)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.toml"), []byte(content), 0o600))

	return dir
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "Test Portal", cfg.Title)
	assert.Equal(t, "sqlite", cfg.DB.Engine)
	assert.Equal(t, 8080, cfg.Webserver.Port)
	assert.Equal(t, time.Minute, cfg.Webserver.Session.ExpiryTime)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(t.TempDir() + string(os.PathSeparator))
	assert.Error(t, err)
}

func TestReadConfigValidation(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      string
		expectedErr error
	}{
		{
			name: "missing port",
			mutate: `
[Webserver]
URL = "http://localhost"
TokenSecret = "s"
`,
			expectedErr: ErrWebServerPortCanNotBeZero,
		},
		{
			name: "missing url",
			mutate: `
[Webserver]
Port = 8080
TokenSecret = "s"
`,
			expectedErr: ErrEmptyURL,
		},
		{
			name: "missing token secret",
			mutate: `
[Webserver]
Port = 8080
URL = "http://localhost"
`,
			expectedErr: ErrEmptyTokenSecret,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadConfig(writeConfig(t, tc.mutate))
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestReadConfigEnvOverride(t *testing.T) {
	t.Setenv("GO_PORTAL_CONFIG_JSON", `{"Title":"From Env","Webserver":{"Port":9090}}`)

	cfg, err := ReadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "From Env", cfg.Title)
	assert.Equal(t, 9090, cfg.Webserver.Port)
	// untouched values survive the merge
	assert.Equal(t, "test-secret", cfg.Webserver.TokenSecret)
}

func TestDumpConfigRoundTrip(t *testing.T) {
	cfg, err := ReadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	out, err := DumpConfig(cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Test Portal")

	jsonOut, err := DumpConfigJSON(cfg)
	require.NoError(t, err)
	assert.Contains(t, jsonOut, `"Title": "Test Portal"`)
}
