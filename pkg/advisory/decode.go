package advisory

import (
	"bytes"
	"compress/bzip2"
	"encoding/json"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/samber/oops"
	"golang.org/x/text/encoding/charmap"

	"github.com/aquasecurity/unt-scan/pkg/types"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	bzip2Magic = []byte("BZh")
)

// Decode parses a raw feed body. Compressed payloads are detected by their
// magic bytes, and payloads that are not valid UTF-8 are read as ISO-8859-1,
// the encoding older feed snapshots were produced with.
func Decode(body []byte) (Advisories, error) {
	eb := oops.In("advisory").Code(types.KindDecode).With("size", len(body))

	raw, err := decompress(body)
	if err != nil {
		return nil, eb.Wrapf(err, "decompress error")
	}

	if !utf8.Valid(raw) {
		if raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw); err != nil {
			return nil, eb.Wrapf(err, "ISO-8859-1 decode error")
		}
	}

	var advisories Advisories
	if err = json.Unmarshal(raw, &advisories); err != nil {
		return nil, eb.Wrapf(err, "json decode error")
	}
	if advisories == nil {
		return nil, eb.Errorf("empty feed")
	}

	for id, adv := range advisories {
		if adv.ID == "" {
			adv.ID = id
			advisories[id] = adv
		}
	}
	return advisories, nil
}

func decompress(body []byte) ([]byte, error) {
	var r io.Reader
	switch {
	case bytes.HasPrefix(body, gzipMagic):
		gr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, oops.Wrapf(err, "gzip reader error")
		}
		defer gr.Close()
		r = gr
	case bytes.HasPrefix(body, zstdMagic):
		zr, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, oops.Wrapf(err, "zstd reader error")
		}
		defer zr.Close()
		r = zr
	case bytes.HasPrefix(body, bzip2Magic):
		r = bzip2.NewReader(bytes.NewReader(body))
	default:
		return body, nil
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, oops.Wrapf(err, "read error")
	}
	return raw, nil
}
