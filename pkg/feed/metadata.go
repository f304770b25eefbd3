package feed

import (
	"net/http"
	"time"

	"github.com/araddon/dateparse"
	"github.com/samber/oops"
	"github.com/spf13/afero"

	"github.com/aquasecurity/unt-scan/pkg/types"
	"github.com/aquasecurity/unt-scan/pkg/utils"
)

const metadataVersion = 1

// Metadata holds the validators of the cached feed body.
type Metadata struct {
	Version      int               `json:"version"`
	ETag         string            `json:"etag,omitempty"`
	LastModified string            `json:"last_modified,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func newMetadata(headers map[string]string, updatedAt time.Time) Metadata {
	return Metadata{
		Version:      metadataVersion,
		ETag:         headers["Etag"],
		LastModified: headers["Last-Modified"],
		Headers:      headers,
		UpdatedAt:    updatedAt,
	}
}

// IsFresh reports whether the body described by m is still current according
// to the validators in latest. ETags are compared when both sides have one;
// Last-Modified is only consulted otherwise.
func (m Metadata) IsFresh(latest Metadata) bool {
	if m.ETag != "" && latest.ETag != "" {
		return m.ETag == latest.ETag
	}
	if m.LastModified != "" && latest.LastModified != "" {
		return notOlder(m.LastModified, latest.LastModified)
	}
	return false
}

// LastModifiedTime parses the Last-Modified validator.
func (m Metadata) LastModifiedTime() (time.Time, error) {
	if m.LastModified == "" {
		return time.Time{}, oops.Errorf("no Last-Modified header recorded")
	}
	return parseHTTPDate(m.LastModified)
}

func notOlder(stored, latest string) bool {
	st, err := parseHTTPDate(stored)
	if err != nil {
		return stored == latest
	}
	lt, err := parseHTTPDate(latest)
	if err != nil {
		return stored == latest
	}
	return !st.Before(lt)
}

func parseHTTPDate(s string) (time.Time, error) {
	if t, err := http.ParseTime(s); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, oops.With("date", s).Wrapf(err, "date parse error")
	}
	return t, nil
}

// flatten keeps the first value of every header, keyed by canonical name.
func flatten(h http.Header) map[string]string {
	m := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			m[http.CanonicalHeaderKey(k)] = v[0]
		}
	}
	return m
}

type metadataStore struct {
	fs       afero.Fs
	filePath string
}

// Get returns the stored metadata. A missing file yields ok == false and no error.
func (s metadataStore) Get() (Metadata, bool, error) {
	exists, err := utils.Exists(s.fs, s.filePath)
	if err != nil {
		return Metadata{}, false, oops.Code(types.KindStorage).With("file_path", s.filePath).Wrapf(err, "stat error")
	} else if !exists {
		return Metadata{}, false, nil
	}

	var m Metadata
	if err = utils.UnmarshalJSONFile(s.fs, &m, s.filePath); err != nil {
		return Metadata{}, false, oops.Code(types.KindStorage).Wrapf(err, "metadata read error")
	}
	if m.Version != metadataVersion {
		return Metadata{}, false, oops.Code(types.KindStorage).With("file_path", s.filePath).
			Errorf("unsupported metadata version %d", m.Version)
	}
	return m, true, nil
}

func (s metadataStore) Update(m Metadata) error {
	return utils.WriteJSONAtomic(s.fs, s.filePath, m)
}
