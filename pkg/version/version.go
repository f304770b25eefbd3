// Package version implements dpkg package version ordering.
//
// A version has the form [epoch:]upstream_version[-debian_revision].
// cf. https://www.debian.org/doc/debian-policy/ch-controlfields.html#version
package version

import (
	"regexp"
	"strings"

	debversion "github.com/knqyf263/go-deb-version"
)

// go-deb-version parses digit runs into an int.
const maxDigits = 18

var digitRun = regexp.MustCompile(`[0-9]+`)

type Version struct {
	Epoch    string
	Upstream string
	Revision string
}

// Parse splits ver into its components. It never fails: like apt, malformed
// versions are still ordered, just not meaningfully.
func Parse(ver string) Version {
	ver = strings.TrimSpace(ver)

	var v Version
	if i := strings.IndexByte(ver, ':'); i >= 0 {
		v.Epoch = ver[:i]
		ver = ver[i+1:]
	}
	if i := strings.LastIndexByte(ver, '-'); i >= 0 {
		v.Upstream = ver[:i]
		v.Revision = ver[i+1:]
	} else {
		v.Upstream = ver
	}
	return v
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to or after b.
// Well-formed versions are ordered by go-deb-version. When either side is
// rejected, both fall back to Parse and the dpkg walk below.
func Compare(a, b string) int {
	va, okA := strict(a)
	vb, okB := strict(b)
	if !okA || !okB {
		return Parse(a).Compare(Parse(b))
	}
	switch c := va.Compare(vb); {
	case c < 0:
		return -1
	case c > 0:
		return 1
	}
	return 0
}

// strict parses ver with go-deb-version. Leading zeros are stripped first
// since the library never settles versions that differ only in them.
func strict(ver string) (debversion.Version, bool) {
	tooLong := false
	ver = digitRun.ReplaceAllStringFunc(ver, func(run string) string {
		run = strings.TrimLeft(run, "0")
		if run == "" {
			return "0"
		}
		if len(run) > maxDigits {
			tooLong = true
		}
		return run
	})
	if tooLong {
		return debversion.Version{}, false
	}
	v, err := debversion.NewVersion(ver)
	if err != nil {
		return debversion.Version{}, false
	}
	return v, true
}

// Less reports whether a sorts strictly before b, i.e. an installed version a
// is older than a fixed version b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

func (v Version) Compare(other Version) int {
	if c := compareNumeric(v.Epoch, other.Epoch); c != 0 {
		return c
	}
	if c := compareFragment(v.Upstream, other.Upstream); c != 0 {
		return c
	}
	return compareFragment(v.Revision, other.Revision)
}

// compareFragment walks alternating non-digit and digit runs, like dpkg's verrevcmp.
func compareFragment(a, b string) int {
	for a != "" || b != "" {
		var na, nb string
		na, a = splitRun(a, false)
		nb, b = splitRun(b, false)
		if c := compareLexical(na, nb); c != 0 {
			return c
		}

		var da, db string
		da, a = splitRun(a, true)
		db, b = splitRun(b, true)
		if c := compareNumeric(da, db); c != 0 {
			return c
		}
	}
	return 0
}

// splitRun cuts the leading run of digits (or non-digits) off s.
func splitRun(s string, digits bool) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) == digits {
		i++
	}
	return s[:i], s[i:]
}

// compareLexical orders non-digit runs: '~' before everything, even the end
// of the run, then letters, then any other character.
func compareLexical(a, b string) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		oa, ob := order(a, i), order(b, i)
		if oa != ob {
			if oa < ob {
				return -1
			}
			return 1
		}
	}
	return 0
}

func order(s string, i int) int {
	if i >= len(s) {
		return 0
	}
	switch c := s[i]; {
	case c == '~':
		return -1
	case isDigit(c):
		return 0
	case isLetter(c):
		return int(c)
	default:
		return int(c) + 256
	}
}

// compareNumeric compares unsigned decimal runs of any length.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
