package config_test

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/unt-scan/pkg/config"
	"github.com/aquasecurity/unt-scan/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    func() config.Config
		wantErr string
	}{
		{
			name: "happy path",
			path: "testdata/unt-scan.toml",
			want: func() config.Config {
				c := config.Default()
				c.Directory = "/srv/unt-scan"
				c.AlertOnce = false
				c.Host = "mirror.example.com"
				c.HTTPS = false
				c.Timeout = 3 * time.Second
				c.Retries = 2
				c.StateBackend = types.StateBackendBolt
				c.Format = types.FormatJSON
				return c
			},
		},
		{
			name:    "unknown key",
			path:    "testdata/unknown-key.toml",
			wantErr: "unknown keys: colour",
		},
		{
			name:    "broken file",
			path:    "testdata/broken.toml",
			wantErr: "toml decode error",
		},
		{
			name:    "missing file",
			path:    "testdata/missing.toml",
			wantErr: "file open error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := config.Load(afero.NewOsFs(), tt.path, config.Default())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, types.KindConfig, types.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want(), got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *config.Config)
		wantErr string
	}{
		{
			name:   "defaults",
			modify: func(c *config.Config) {},
		},
		{
			name: "show all without storage",
			modify: func(c *config.Config) {
				c.AlertOnce = false
				c.PersistentStorage = false
			},
		},
		{
			name: "alert once without storage",
			modify: func(c *config.Config) {
				c.PersistentStorage = false
			},
			wantErr: "cannot track alerts without persistent storage",
		},
		{
			name: "zero timeout",
			modify: func(c *config.Config) {
				c.Timeout = 0
			},
			wantErr: "timeout must be positive",
		},
		{
			name: "unknown format",
			modify: func(c *config.Config) {
				c.Format = "xml"
			},
			wantErr: "unknown report format",
		},
		{
			name: "unknown backend",
			modify: func(c *config.Config) {
				c.StateBackend = "sqlite"
			},
			wantErr: "unknown state backend",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.Default()
			tt.modify(&c)
			err := c.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, types.KindConfig, types.KindOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_Paths(t *testing.T) {
	c := config.Default()
	assert.Equal(t, "https://usn.ubuntu.com/usn-db/database.json", c.URL())
	assert.Equal(t, "/var/lib/unt-scan/feed.json", c.FeedPath())
	assert.Equal(t, "/var/lib/unt-scan/feed.metadata.json", c.FeedMetadataPath())
	assert.Equal(t, "/var/lib/unt-scan/alerts.json", c.RegistryPath())

	c.HTTPS = false
	c.Path = "usn/database.json.bz2"
	c.StateBackend = types.StateBackendBolt
	assert.Equal(t, "http://usn.ubuntu.com/usn/database.json.bz2", c.URL())
	assert.Equal(t, "/var/lib/unt-scan/alerts.db", c.RegistryPath())
}
