package scanner

import (
	"context"
	"io"
	"os"

	"github.com/samber/oops"

	"github.com/aquasecurity/unt-scan/pkg/advisory"
	"github.com/aquasecurity/unt-scan/pkg/feed"
	"github.com/aquasecurity/unt-scan/pkg/inventory"
	"github.com/aquasecurity/unt-scan/pkg/log"
	"github.com/aquasecurity/unt-scan/pkg/registry"
	"github.com/aquasecurity/unt-scan/pkg/report"
	"github.com/aquasecurity/unt-scan/pkg/types"
	"github.com/aquasecurity/unt-scan/pkg/version"
)

type Fetcher interface {
	Fetch(ctx context.Context) (feed.Result, error)
}

type Result struct {
	Alerts      []types.Alert
	IssuesFound bool
}

func (r Result) ExitCode() int {
	if r.IssuesFound {
		return types.ExitIssuesFound
	}
	return types.ExitClean
}

type Scanner struct {
	codename  string
	alertOnce bool

	fetcher   Fetcher
	inventory inventory.Inventory
	registry  *registry.Registry
	writer    report.Writer
	out       io.Writer
	logger    *log.Logger
}

type Option func(*Scanner)

func WithWriter(w report.Writer) Option {
	return func(s *Scanner) {
		s.writer = w
	}
}

func WithOutput(out io.Writer) Option {
	return func(s *Scanner) {
		s.out = out
	}
}

func New(codename string, alertOnce bool, fetcher Fetcher, inv inventory.Inventory, reg *registry.Registry,
	opts ...Option) *Scanner {
	s := &Scanner{
		codename:  codename,
		alertOnce: alertOnce,
		fetcher:   fetcher,
		inventory: inv,
		registry:  reg,
		writer:    report.NewTextWriter(false),
		out:       os.Stdout,
		logger:    log.WithPrefix("scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one scan. Nothing is reported unless every stage succeeds up to
// the report, and the registry is saved once after the report is written.
func (s *Scanner) Run(ctx context.Context) (Result, error) {
	eb := oops.In("scanner").With("codename", s.codename)

	res, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return Result{}, eb.Wrapf(err, "feed error")
	}
	s.logger.Debug("Feed acquired", log.String("source", res.Source.String()))

	advisories, err := advisory.Decode(res.Body)
	if err != nil {
		return Result{}, eb.Wrapf(err, "advisory decode error")
	}
	s.logger.Debug("Advisories decoded", log.Int("count", len(advisories)))

	alerts := s.crossReference(advisories)

	if err = s.writer.Write(s.out, alerts); err != nil {
		return Result{}, eb.Wrapf(err, "report error")
	}

	if err = s.registry.Save(); err != nil {
		return Result{}, eb.Wrapf(err, "registry error")
	}

	return Result{
		Alerts:      alerts,
		IssuesFound: len(alerts) > 0,
	}, nil
}

func (s *Scanner) crossReference(advisories advisory.Advisories) []types.Alert {
	var alerts []types.Alert

	// Whether an advisory is reported is settled on its first vulnerable
	// package and reused for the rest of its packages in this run.
	decisions := make(map[string]bool)

	for entry := range advisory.Filter(advisories, s.codename) {
		pkg, ok := s.inventory.Lookup(entry.Package)
		if !ok || !pkg.Installed {
			continue
		}
		if !version.Less(pkg.Version, entry.FixedVersion) {
			continue
		}

		alert, decided := decisions[entry.AdvisoryID]
		if !decided {
			alert = !s.alertOnce || !s.registry.IsRegistered(entry.AdvisoryID)
			decisions[entry.AdvisoryID] = alert
		}
		if !alert {
			s.logger.Debug("Already reported", log.AdvisoryID(entry.AdvisoryID), log.String("package", entry.Package))
			continue
		}

		s.registry.Register(entry.AdvisoryID)
		alerts = append(alerts, types.Alert{
			ID:               entry.AdvisoryID,
			CVEs:             entry.CVEs,
			Package:          entry.Package,
			InstalledVersion: pkg.Version,
			FixedVersion:     entry.FixedVersion,
			Summary:          entry.Summary,
			Title:            entry.Title,
			Description:      entry.Description,
			Published:        entry.Published,
		})
	}
	return alerts
}
