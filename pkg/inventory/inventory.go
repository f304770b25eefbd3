package inventory

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/afero"

	"github.com/aquasecurity/unt-scan/pkg/types"
)

// Package is one binary package known to dpkg.
type Package struct {
	Name         string
	Version      string
	Architecture string
	Installed    bool
}

type Inventory interface {
	Lookup(name string) (Package, bool)
}

// Static is an inventory backed by a map keyed by package name.
type Static map[string]Package

func NewStatic(pkgs ...Package) Static {
	s := make(Static, len(pkgs))
	for _, pkg := range pkgs {
		s.add(pkg)
	}
	return s
}

func (s Static) Lookup(name string) (Package, bool) {
	pkg, ok := s[name]
	return pkg, ok
}

// add keeps the first installed entry of a name, so a multi-arch package
// installed for several architectures resolves to the first one listed.
func (s Static) add(pkg Package) {
	if pkg.Name == "" {
		return
	}
	if cur, ok := s[pkg.Name]; ok && (cur.Installed || !pkg.Installed) {
		return
	}
	s[pkg.Name] = pkg
}

// LoadDpkgStatus reads the dpkg status database at path.
func LoadDpkgStatus(fs afero.Fs, path string) (Static, error) {
	eb := oops.In("inventory").Code(types.KindStorage).With("file_path", path)

	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, eb.Wrapf(err, "file read error")
	}
	s, err := parseStatus(b)
	if err != nil {
		return nil, eb.Wrapf(err, "dpkg status parse error")
	}
	return s, nil
}

func parseStatus(b []byte) (Static, error) {
	s := Static{}
	var pkg Package

	scanner := bufio.NewScanner(bytes.NewReader(b))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			s.add(pkg)
			pkg = Package{}
			continue
		}
		// Continuation lines of multi-line fields such as Description.
		if line[0] == ' ' || line[0] == '\t' {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Package":
			pkg.Name = value
		case "Version":
			pkg.Version = value
		case "Architecture":
			pkg.Architecture = value
		case "Status":
			pkg.Installed = isInstalled(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	s.add(pkg)
	return s, nil
}

// isInstalled checks the state word of "want flag state".
func isInstalled(status string) bool {
	fields := strings.Fields(status)
	return len(fields) == 3 && fields[2] == "installed"
}
