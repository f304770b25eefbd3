package utils_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/unt-scan/pkg/types"
	"github.com/aquasecurity/unt-scan/pkg/utils"
)

func TestEnsureDir(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(fs afero.Fs)
		dir     string
		wantErr string
	}{
		{
			name: "missing directory is created",
			dir:  "/var/lib/unt-scan",
		},
		{
			name: "existing directory",
			setup: func(fs afero.Fs) {
				require.NoError(t, fs.MkdirAll("/var/lib/unt-scan", 0o755))
			},
			dir: "/var/lib/unt-scan",
		},
		{
			name: "file in the way",
			setup: func(fs afero.Fs) {
				require.NoError(t, afero.WriteFile(fs, "/var/lib/unt-scan", []byte("x"), 0o644))
			},
			dir:     "/var/lib/unt-scan",
			wantErr: "exists, but is not a directory",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.setup != nil {
				tt.setup(fs)
			}
			err := utils.EnsureDir(fs, tt.dir)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, types.KindStorage, types.KindOf(err))
				return
			}
			require.NoError(t, err)
			ok, err := afero.DirExists(fs, tt.dir)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewOsFs()
	path := filepath.Join(dir, "feed.json")

	require.NoError(t, utils.WriteFileAtomic(fs, path, []byte("first")))
	require.NoError(t, utils.WriteFileAtomic(fs, path, []byte("second")))

	got, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	// No temporary files are left behind.
	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteJSONAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/state", 0o755))

	type record struct {
		Version int      `json:"version"`
		IDs     []string `json:"ids"`
	}
	require.NoError(t, utils.WriteJSONAtomic(fs, "/state/record.json", record{Version: 1, IDs: []string{"USN-1"}}))

	var got record
	require.NoError(t, utils.UnmarshalJSONFile(fs, &got, "/state/record.json"))
	assert.Equal(t, record{Version: 1, IDs: []string{"USN-1"}}, got)

	err := utils.UnmarshalJSONFile(fs, &got, "/state/missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file open error")
}
