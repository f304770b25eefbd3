package registry

import (
	"github.com/samber/oops"
	"github.com/spf13/afero"

	"github.com/aquasecurity/unt-scan/pkg/types"
	"github.com/aquasecurity/unt-scan/pkg/utils"
)

const schemaVersion = 1

type document struct {
	Version int      `json:"version"`
	Alerts  []string `json:"alerts"`
}

// FileBackend stores the registry as a JSON document.
type FileBackend struct {
	fs       afero.Fs
	filePath string
}

func NewFileBackend(fs afero.Fs, filePath string) FileBackend {
	return FileBackend{
		fs:       fs,
		filePath: filePath,
	}
}

func (b FileBackend) Load() ([]string, bool, error) {
	eb := oops.Code(types.KindStorage).With("file_path", b.filePath)

	exists, err := utils.Exists(b.fs, b.filePath)
	if err != nil {
		return nil, false, eb.Wrapf(err, "stat error")
	} else if !exists {
		return nil, false, nil
	}

	var doc document
	if err = utils.UnmarshalJSONFile(b.fs, &doc, b.filePath); err != nil {
		return nil, false, eb.Wrapf(err, "corrupt alert registry")
	}
	if doc.Version != schemaVersion {
		return nil, false, eb.Errorf("unsupported alert registry version %d", doc.Version)
	}
	return doc.Alerts, true, nil
}

func (b FileBackend) Save(ids []string) error {
	doc := document{
		Version: schemaVersion,
		Alerts:  ids,
	}
	if doc.Alerts == nil {
		doc.Alerts = []string{}
	}
	return utils.WriteJSONAtomic(b.fs, b.filePath, doc)
}
