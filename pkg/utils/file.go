package utils

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/afero"

	"github.com/aquasecurity/unt-scan/pkg/types"
)

// EnsureDir creates dir when it is missing and fails if something other than
// a directory already exists at that path.
func EnsureDir(fs afero.Fs, dir string) error {
	eb := oops.Code(types.KindStorage).With("dir_path", dir)

	info, err := fs.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err = fs.MkdirAll(dir, 0o755); err != nil {
			return eb.Wrapf(err, "mkdir error")
		}
		return nil
	case err != nil:
		return eb.Wrapf(err, "stat error")
	case !info.IsDir():
		return eb.Errorf("%s exists, but is not a directory", dir)
	}
	return nil
}

func Exists(fs afero.Fs, path string) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return true, err
}

// WriteFileAtomic replaces path with data through a temporary file in the same
// directory, so readers see either the old or the new content.
func WriteFileAtomic(fs afero.Fs, path string, data []byte) error {
	eb := oops.Code(types.KindStorage).With("file_path", path)

	f, err := afero.TempFile(fs, filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return eb.Wrapf(err, "temp file create error")
	}
	tmp := f.Name()

	if _, err = f.Write(data); err != nil {
		f.Close()
		_ = fs.Remove(tmp)
		return eb.Wrapf(err, "write error")
	}
	if err = f.Sync(); err != nil {
		f.Close()
		_ = fs.Remove(tmp)
		return eb.Wrapf(err, "sync error")
	}
	if err = f.Close(); err != nil {
		_ = fs.Remove(tmp)
		return eb.Wrapf(err, "close error")
	}
	if err = fs.Chmod(tmp, 0o644); err != nil {
		_ = fs.Remove(tmp)
		return eb.Wrapf(err, "chmod error")
	}
	if err = fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return eb.Wrapf(err, "rename error")
	}
	return nil
}

func WriteJSONAtomic(fs afero.Fs, path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return oops.Code(types.KindStorage).With("file_path", path).Wrapf(err, "json encode error")
	}
	return WriteFileAtomic(fs, path, b)
}

func UnmarshalJSONFile(fs afero.Fs, v any, fileName string) error {
	eb := oops.With("file_name", fileName)

	f, err := fs.Open(fileName)
	if err != nil {
		return eb.Wrapf(err, "file open error")
	}
	defer f.Close()

	if err = json.NewDecoder(f).Decode(v); err != nil {
		return eb.Wrapf(err, "json decode error")
	}
	return nil
}
