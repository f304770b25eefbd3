package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/oops"
	"gopkg.in/yaml.v2"

	"github.com/aquasecurity/unt-scan/pkg/types"
)

// Writer renders the alerts of one run.
type Writer interface {
	Write(w io.Writer, alerts []types.Alert) error
}

type options struct {
	color bool
}

type Option func(*options)

// WithColor highlights advisory ids in the text format.
func WithColor(enabled bool) Option {
	return func(o *options) {
		o.color = enabled
	}
}

func NewWriter(format types.Format, opts ...Option) (Writer, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	switch format {
	case types.FormatText:
		return NewTextWriter(o.color), nil
	case types.FormatJSON:
		return JSONWriter{}, nil
	case types.FormatYAML:
		return YAMLWriter{}, nil
	}
	return nil, oops.In("report").Code(types.KindConfig).With("format", format).Errorf("unknown report format")
}

type document struct {
	Alerts []types.Alert `json:"alerts" yaml:"alerts"`
}

func newDocument(alerts []types.Alert) document {
	if alerts == nil {
		alerts = []types.Alert{}
	}
	return document{Alerts: alerts}
}

// TextWriter prints the human readable report. Nothing is printed when there
// is nothing to report.
type TextWriter struct {
	id *color.Color
}

func NewTextWriter(enabled bool) TextWriter {
	c := color.New(color.FgRed, color.Bold)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return TextWriter{id: c}
}

func (tw TextWriter) Write(w io.Writer, alerts []types.Alert) error {
	var sb strings.Builder
	for _, a := range alerts {
		fmt.Fprintf(&sb, "UNT: %s\n", tw.id.Sprint(a.ID))
		fmt.Fprintf(&sb, "   CVEs: %s\n", strings.Join(a.CVEs, ", "))
		fmt.Fprintf(&sb, "   Package: %s\n", a.Package)
		fmt.Fprintf(&sb, "   Installed version: %s\n", a.InstalledVersion)
		fmt.Fprintf(&sb, "   Fix Version: %s\n", a.FixedVersion)
		fmt.Fprintf(&sb, "   Short Summary: %s\n", a.Summary)
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return oops.In("report").Wrapf(err, "write error")
	}
	return nil
}

type JSONWriter struct{}

func (JSONWriter) Write(w io.Writer, alerts []types.Alert) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newDocument(alerts)); err != nil {
		return oops.In("report").Wrapf(err, "json encode error")
	}
	return nil
}

type YAMLWriter struct{}

func (YAMLWriter) Write(w io.Writer, alerts []types.Alert) error {
	b, err := yaml.Marshal(newDocument(alerts))
	if err != nil {
		return oops.In("report").Wrapf(err, "yaml encode error")
	}
	if _, err = w.Write(b); err != nil {
		return oops.In("report").Wrapf(err, "write error")
	}
	return nil
}
