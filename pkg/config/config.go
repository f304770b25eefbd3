package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/spf13/afero"

	"github.com/aquasecurity/unt-scan/pkg/types"
)

const (
	DefaultDirectory  = "/var/lib/unt-scan"
	DefaultHost       = "usn.ubuntu.com"
	DefaultPath       = "/usn-db/database.json"
	DefaultTimeout    = 10 * time.Second
	DefaultDpkgStatus = "/var/lib/dpkg/status"

	feedFile         = "feed.json"
	feedMetadataFile = "feed.metadata.json"
	alertsFile       = "alerts.json"
	alertsBoltFile   = "alerts.db"
)

// Config is built once at startup and passed by value afterwards.
type Config struct {
	Directory         string `toml:"directory"`
	PersistentStorage bool   `toml:"persistent_storage"`
	AlertOnce         bool   `toml:"alert_once"`

	Host          string        `toml:"host"`
	Path          string        `toml:"path"`
	HTTPS         bool          `toml:"https"`
	Timeout       time.Duration `toml:"timeout"`
	Retries       uint64        `toml:"retries"`
	CacheFallback bool          `toml:"cache_fallback"`

	StateBackend types.StateBackend `toml:"state_backend"`
	Format       types.Format       `toml:"format"`
	DpkgStatus   string             `toml:"dpkg_status"`
	Codename     string             `toml:"codename"`
	Debug        bool               `toml:"debug"`
}

func Default() Config {
	return Config{
		Directory:         DefaultDirectory,
		PersistentStorage: true,
		AlertOnce:         true,
		Host:              DefaultHost,
		Path:              DefaultPath,
		HTTPS:             true,
		Timeout:           DefaultTimeout,
		StateBackend:      types.StateBackendFile,
		Format:            types.FormatText,
		DpkgStatus:        DefaultDpkgStatus,
	}
}

// Load overlays the TOML file at path onto base. Keys absent from the file keep
// their base value; unknown keys are rejected.
func Load(fs afero.Fs, path string, base Config) (Config, error) {
	eb := oops.In("config").Code(types.KindConfig).With("file_path", path)

	f, err := fs.Open(path)
	if err != nil {
		return Config{}, eb.Wrapf(err, "file open error")
	}
	defer f.Close()

	conf := base
	md, err := toml.NewDecoder(f).Decode(&conf)
	if err != nil {
		return Config{}, eb.Wrapf(err, "toml decode error")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := lo.Map(undecoded, func(k toml.Key, _ int) string {
			return k.String()
		})
		return Config{}, eb.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return conf, nil
}

func (c Config) Validate() error {
	eb := oops.In("config").Code(types.KindConfig)
	switch {
	case c.AlertOnce && !c.PersistentStorage:
		return eb.Errorf("cannot track alerts without persistent storage")
	case c.PersistentStorage && c.Directory == "":
		return eb.Errorf("persistent storage requires a directory")
	case c.Host == "":
		return eb.Errorf("feed host is empty")
	case c.Timeout <= 0:
		return eb.With("timeout", c.Timeout).Errorf("timeout must be positive")
	case !slices.Contains(types.Formats, c.Format):
		return eb.With("format", c.Format).Errorf("unknown report format")
	case c.StateBackend != types.StateBackendFile && c.StateBackend != types.StateBackendBolt:
		return eb.With("state_backend", c.StateBackend).Errorf("unknown state backend")
	}
	return nil
}

func (c Config) URL() string {
	scheme := "http"
	if c.HTTPS {
		scheme = "https"
	}
	path := c.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("%s://%s%s", scheme, c.Host, path)
}

func (c Config) FeedPath() string {
	return filepath.Join(c.Directory, feedFile)
}

func (c Config) FeedMetadataPath() string {
	return filepath.Join(c.Directory, feedMetadataFile)
}

func (c Config) RegistryPath() string {
	if c.StateBackend == types.StateBackendBolt {
		return filepath.Join(c.Directory, alertsBoltFile)
	}
	return filepath.Join(c.Directory, alertsFile)
}
