package pkg

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/unt-scan/pkg/config"
	"github.com/aquasecurity/unt-scan/pkg/feed"
	"github.com/aquasecurity/unt-scan/pkg/inventory"
	"github.com/aquasecurity/unt-scan/pkg/log"
	"github.com/aquasecurity/unt-scan/pkg/osrelease"
	"github.com/aquasecurity/unt-scan/pkg/registry"
	"github.com/aquasecurity/unt-scan/pkg/report"
	"github.com/aquasecurity/unt-scan/pkg/scanner"
	"github.com/aquasecurity/unt-scan/pkg/types"
	"github.com/aquasecurity/unt-scan/pkg/utils"
)

func (ac AppConfig) scan(ctx context.Context, c *cli.Context, version string) error {
	if c.NArg() > 0 {
		return ac.usageError(c, fmt.Sprintf("unexpected arguments: %s", strings.Join(c.Args(), " ")))
	}
	if c.Bool("all") && c.Bool("once") {
		return ac.usageError(c, "--all and --once cannot be used together")
	}

	conf, err := ac.loadConfig(c)
	if err != nil {
		return err
	}
	log.SetDebug(conf.Debug)

	if err = conf.Validate(); err != nil {
		return xerrors.Errorf("config error: %w", err)
	}
	if conf.Codename == "" {
		if conf.Codename, err = osrelease.Codename(ac.Fs); err != nil {
			return xerrors.Errorf("codename error: %w", err)
		}
	}
	if release, ok := osrelease.Release(conf.Codename); ok {
		log.Debug("Scanning", log.String("codename", conf.Codename), log.String("release", release))
	} else {
		log.Warn("Unknown Ubuntu release codename", log.String("codename", conf.Codename))
	}

	if conf.PersistentStorage {
		if err = utils.EnsureDir(ac.Fs, conf.Directory); err != nil {
			return xerrors.Errorf("storage error: %w", err)
		}
		log.Debug("Using persistent storage", log.DirPath(conf.Directory))
	}

	reg, err := registry.Load(ac.registryBackend(conf))
	if err != nil {
		return xerrors.Errorf("registry error: %w", err)
	}

	inv, err := inventory.LoadDpkgStatus(ac.Fs, conf.DpkgStatus)
	if err != nil {
		return xerrors.Errorf("inventory error: %w", err)
	}

	writer, err := report.NewWriter(conf.Format, report.WithColor(isTerminal(ac.Stdout)))
	if err != nil {
		return xerrors.Errorf("report error: %w", err)
	}

	var fetcher scanner.Fetcher = feed.NewClient(conf, version, feed.WithFs(ac.Fs), feed.WithClock(ac.Clock))
	if f, ok := ac.Stderr.(*os.File); ok && isTerminal(f) {
		fetcher = spinnerFetcher{fetcher: fetcher, out: f}
	}

	s := scanner.New(conf.Codename, conf.AlertOnce, fetcher, inv, reg,
		scanner.WithWriter(writer), scanner.WithOutput(ac.Stdout))
	result, err := s.Run(ctx)
	if err != nil {
		return xerrors.Errorf("scan error: %w", err)
	}
	if result.IssuesFound {
		return cli.NewExitError("", result.ExitCode())
	}
	return nil
}

func (ac AppConfig) registryBackend(conf config.Config) registry.Backend {
	switch {
	case !conf.PersistentStorage:
		return registry.NewMemoryBackend()
	case conf.StateBackend == types.StateBackendBolt:
		return registry.NewBoltBackend(conf.RegistryPath())
	default:
		return registry.NewFileBackend(ac.Fs, conf.RegistryPath())
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// spinnerFetcher shows progress on an interactive terminal while the feed is
// being fetched.
type spinnerFetcher struct {
	fetcher scanner.Fetcher
	out     *os.File
}

func (f spinnerFetcher) Fetch(ctx context.Context) (feed.Result, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriterFile(f.out),
		spinner.WithSuffix(" Fetching the USN feed"),
		spinner.WithHiddenCursor(true),
	)
	s.Start()
	defer s.Stop()
	return f.fetcher.Fetch(ctx)
}
