package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/aquasecurity/unt-scan/pkg/report"
	"github.com/aquasecurity/unt-scan/pkg/types"
)

var alerts = []types.Alert{
	{
		ID:               "USN-42-1",
		CVEs:             []string{"CVE-2019-5435", "CVE-2019-5436"},
		Package:          "curl",
		InstalledVersion: "7.58.0-2ubuntu3.7",
		FixedVersion:     "7.58.0-2ubuntu3.8",
		Summary:          "curl could be made to run programs if it received specially crafted network traffic.",
	},
	{
		ID:               "USN-200-1",
		Package:          "openssl",
		InstalledVersion: "1.1.1f-1ubuntu2",
		FixedVersion:     "1.1.1f-1ubuntu2.1",
		Summary:          "No summary",
	},
}

func TestTextWriter_Write(t *testing.T) {
	tests := []struct {
		name   string
		alerts []types.Alert
		color  bool
		want   string
	}{
		{
			name:   "plain",
			alerts: alerts,
			want: `UNT: USN-42-1
   CVEs: CVE-2019-5435, CVE-2019-5436
   Package: curl
   Installed version: 7.58.0-2ubuntu3.7
   Fix Version: 7.58.0-2ubuntu3.8
   Short Summary: curl could be made to run programs if it received specially crafted network traffic.
UNT: USN-200-1
   CVEs: 
   Package: openssl
   Installed version: 1.1.1f-1ubuntu2
   Fix Version: 1.1.1f-1ubuntu2.1
   Short Summary: No summary
`,
		},
		{
			name:   "colored id",
			alerts: alerts[1:],
			color:  true,
			want: "UNT: \x1b[31;1mUSN-200-1\x1b[0;22m\n" +
				"   CVEs: \n" +
				"   Package: openssl\n" +
				"   Installed version: 1.1.1f-1ubuntu2\n" +
				"   Fix Version: 1.1.1f-1ubuntu2.1\n" +
				"   Short Summary: No summary\n",
		},
		{
			name: "nothing to report",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := report.NewWriter(types.FormatText, report.WithColor(tt.color))
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, w.Write(&buf, tt.alerts))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestJSONWriter_Write(t *testing.T) {
	published := time.Date(2019, 5, 22, 5, 54, 0, 0, time.UTC)

	tests := []struct {
		name   string
		alerts []types.Alert
		want   string
	}{
		{
			name:   "alerts",
			alerts: alerts[:1],
			want: `{"alerts": [{
				"id": "USN-42-1",
				"cves": ["CVE-2019-5435", "CVE-2019-5436"],
				"package": "curl",
				"installed_version": "7.58.0-2ubuntu3.7",
				"fixed_version": "7.58.0-2ubuntu3.8",
				"summary": "curl could be made to run programs if it received specially crafted network traffic."
			}]}`,
		},
		{
			name: "advisory details",
			alerts: []types.Alert{
				{
					ID:               "USN-42-1",
					CVEs:             []string{"CVE-2019-5435"},
					Package:          "curl",
					InstalledVersion: "7.58.0-2ubuntu3.7",
					FixedVersion:     "7.58.0-2ubuntu3.8",
					Summary:          "No summary",
					Title:            "curl vulnerabilities",
					Description:      "It was discovered that curl incorrectly handled memory.",
					Published:        &published,
				},
			},
			want: `{"alerts": [{
				"id": "USN-42-1",
				"cves": ["CVE-2019-5435"],
				"package": "curl",
				"installed_version": "7.58.0-2ubuntu3.7",
				"fixed_version": "7.58.0-2ubuntu3.8",
				"summary": "No summary",
				"title": "curl vulnerabilities",
				"description": "It was discovered that curl incorrectly handled memory.",
				"published": "2019-05-22T05:54:00Z"
			}]}`,
		},
		{
			name: "empty",
			want: `{"alerts": []}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := report.NewWriter(types.FormatJSON)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, w.Write(&buf, tt.alerts))
			assert.JSONEq(t, tt.want, buf.String())
		})
	}
}

func TestYAMLWriter_Write(t *testing.T) {
	w, err := report.NewWriter(types.FormatYAML)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf, alerts[:1]))
	assert.Contains(t, buf.String(), "- id: USN-42-1\n")
	assert.Contains(t, buf.String(), "  installed_version: 7.58.0-2ubuntu3.7\n")

	var got struct {
		Alerts []types.Alert `yaml:"alerts"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, alerts[:1], got.Alerts)
}

func TestNewWriter(t *testing.T) {
	_, err := report.NewWriter("xml")
	require.ErrorContains(t, err, "unknown report format")
	assert.Equal(t, types.KindConfig, types.KindOf(err))
}
