package osrelease

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/afero"

	"github.com/aquasecurity/unt-scan/pkg/types"
)

const (
	LSBReleasePath = "/etc/lsb-release"
	OSReleasePath  = "/etc/os-release"
)

var releases = map[string]string{
	"precise":  "12.04",
	"quantal":  "12.10",
	"raring":   "13.04",
	"saucy":    "13.10",
	"trusty":   "14.04",
	"utopic":   "14.10",
	"vivid":    "15.04",
	"wily":     "15.10",
	"xenial":   "16.04",
	"yakkety":  "16.10",
	"zesty":    "17.04",
	"artful":   "17.10",
	"bionic":   "18.04",
	"cosmic":   "18.10",
	"disco":    "19.04",
	"eoan":     "19.10",
	"focal":    "20.04",
	"groovy":   "20.10",
	"hirsute":  "21.04",
	"impish":   "21.10",
	"jammy":    "22.04",
	"kinetic":  "22.10",
	"lunar":    "23.04",
	"mantic":   "23.10",
	"noble":    "24.04",
	"oracular": "24.10",
	"plucky":   "25.04",
	"questing": "25.10",
}

// Release returns the version number of an Ubuntu codename, e.g. "18.04" for bionic.
func Release(codename string) (string, bool) {
	v, ok := releases[codename]
	return v, ok
}

// Codename detects the release codename of the running system, preferring
// lsb-release and falling back to os-release.
func Codename(fs afero.Fs) (string, error) {
	sources := []struct {
		path string
		keys []string
	}{
		{LSBReleasePath, []string{"DISTRIB_CODENAME"}},
		{OSReleasePath, []string{"VERSION_CODENAME", "UBUNTU_CODENAME"}},
	}
	for _, src := range sources {
		b, err := afero.ReadFile(fs, src.path)
		if err != nil {
			continue
		}
		vars := parse(b)
		for _, key := range src.keys {
			if v := vars[key]; v != "" {
				return v, nil
			}
		}
	}
	return "", oops.In("osrelease").Code(types.KindConfig).
		With("paths", []string{LSBReleasePath, OSReleasePath}).
		Errorf("unable to detect the release codename")
}

// parse reads shell-style KEY=value assignments.
func parse(b []byte) map[string]string {
	vars := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(b))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		vars[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	return vars
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
