package pkg

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"golang.org/x/xerrors"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/unt-scan/pkg/config"
	"github.com/aquasecurity/unt-scan/pkg/osrelease"
	"github.com/aquasecurity/unt-scan/pkg/types"
)

// AppConfig carries what the application reads from and writes to, so that
// tests can run it against an in-memory filesystem.
type AppConfig struct {
	Fs     afero.Fs
	Clock  clock.Clock
	Stdout io.Writer
	Stderr io.Writer
}

func NewAppConfig() AppConfig {
	return AppConfig{
		Fs:     afero.NewOsFs(),
		Clock:  clock.RealClock{},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (ac AppConfig) NewApp(ctx context.Context, version string) *cli.App {
	codename, err := osrelease.Codename(ac.Fs)
	if err != nil {
		codename = "unknown"
	}

	app := cli.NewApp()
	app.Name = "unt-scan"
	app.Version = version
	app.Usage = "report installed packages affected by Ubuntu Security Notices"
	app.Writer = ac.Stdout
	app.ErrWriter = ac.Stderr

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "directory, d",
			Usage: "store files in `DIRECTORY` (enables persistent storage)",
			Value: config.DefaultDirectory,
		},
		cli.BoolFlag{
			Name:  "all, a",
			Usage: "show alerts that have already been shown",
		},
		cli.BoolFlag{
			Name:  "once, o",
			Usage: "show alerts only once (default)",
		},
		cli.StringFlag{
			Name:  "codename, c",
			Usage: "Ubuntu release `CODENAME`",
			Value: codename,
		},
		cli.BoolFlag{
			Name:  "age, A",
			Usage: "show the age of the cached feed in seconds, or 0 if there is no cache",
		},
		cli.StringFlag{
			Name:   "config",
			Usage:  "TOML configuration `FILE`",
			EnvVar: "UNT_SCAN_CONFIG",
		},
		cli.StringFlag{
			Name:  "format, f",
			Usage: "report format (text, json, yaml)",
			Value: string(types.FormatText),
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "debug logging",
		},
	}

	app.OnUsageError = func(c *cli.Context, err error, _ bool) error {
		return ac.usageError(c, err.Error())
	}
	// Exit codes are resolved by Run instead of inside the library.
	app.ExitErrHandler = func(*cli.Context, error) {}

	app.Action = func(c *cli.Context) error {
		if c.Bool("age") {
			return ac.age(c, version)
		}
		return ac.scan(ctx, c, version)
	}
	return app
}

// Run executes the application and returns the process exit status.
func (ac AppConfig) Run(ctx context.Context, version string, args []string) int {
	err := ac.NewApp(ctx, version).Run(args)
	if err == nil {
		return types.ExitClean
	}

	var exitErr cli.ExitCoder
	if xerrors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(ac.Stderr, msg)
		}
		return exitErr.ExitCode()
	}

	fmt.Fprintf(ac.Stderr, "unt-scan: %v\n", err)
	return types.ExitFatal
}

func (ac AppConfig) usageError(c *cli.Context, msg string) error {
	fmt.Fprintf(ac.Stderr, "Incorrect Usage. %s\n\n", msg)
	_ = cli.ShowAppHelp(c)
	return cli.NewExitError("", types.ExitUsage)
}

// loadConfig merges the defaults, the optional configuration file and the
// flags given on the command line, in that order.
func (ac AppConfig) loadConfig(c *cli.Context) (config.Config, error) {
	conf := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if conf, err = config.Load(ac.Fs, path, conf); err != nil {
			return config.Config{}, xerrors.Errorf("config error: %w", err)
		}
	}

	if c.IsSet("directory") {
		conf.Directory = c.String("directory")
		conf.PersistentStorage = true
	}
	switch {
	case c.Bool("all"):
		conf.AlertOnce = false
	case c.Bool("once"):
		conf.AlertOnce = true
	}
	if c.IsSet("codename") {
		conf.Codename = c.String("codename")
	}
	if c.IsSet("format") {
		conf.Format = types.Format(c.String("format"))
	}
	if c.Bool("debug") {
		conf.Debug = true
	}
	return conf, nil
}
