package registry

import (
	"encoding/binary"
	"os"
	"time"

	"github.com/samber/oops"
	bolt "go.etcd.io/bbolt"

	"github.com/aquasecurity/unt-scan/pkg/types"
)

const (
	alertsBucket = "alerts"
	openTimeout  = time.Second
)

// BoltBackend stores the registry in a bbolt database. The file lock is held
// only while Load or Save has the database open: Load shares it, Save takes it
// exclusively, and either gives up after the open timeout. Two runs can still
// interleave a Load and a later Save.
type BoltBackend struct {
	dbPath  string
	timeout time.Duration
}

func NewBoltBackend(dbPath string) BoltBackend {
	return BoltBackend{
		dbPath:  dbPath,
		timeout: openTimeout,
	}
}

func (b BoltBackend) open(readOnly bool) (*bolt.DB, error) {
	db, err := bolt.Open(b.dbPath, 0o644, &bolt.Options{
		Timeout:  b.timeout,
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, oops.Code(types.KindStorage).With("file_path", b.dbPath).Wrapf(err, "failed to open db")
	}
	return db, nil
}

func (b BoltBackend) Load() ([]string, bool, error) {
	eb := oops.Code(types.KindStorage).With("file_path", b.dbPath)

	if _, err := os.Stat(b.dbPath); os.IsNotExist(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, eb.Wrapf(err, "stat error")
	}

	db, err := b.open(true)
	if err != nil {
		return nil, false, err
	}
	defer db.Close()

	var ids []string
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(alertsBucket))
		if bucket == nil {
			return oops.Errorf("%s bucket is missing", alertsBucket)
		}
		return bucket.ForEach(func(_, v []byte) error {
			ids = append(ids, string(v))
			return nil
		})
	})
	if err != nil {
		return nil, false, eb.Wrapf(err, "db read error")
	}
	return ids, true, nil
}

func (b BoltBackend) Save(ids []string) error {
	db, err := b.open(false)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(alertsBucket)) != nil {
			if err := tx.DeleteBucket([]byte(alertsBucket)); err != nil {
				return oops.Wrapf(err, "failed to delete a bucket")
			}
		}
		bucket, err := tx.CreateBucket([]byte(alertsBucket))
		if err != nil {
			return oops.Wrapf(err, "failed to create a bucket")
		}
		for _, id := range ids {
			seq, err := bucket.NextSequence()
			if err != nil {
				return oops.Wrapf(err, "sequence error")
			}
			if err = bucket.Put(itob(seq), []byte(id)); err != nil {
				return oops.With("id", id).Wrapf(err, "failed to put")
			}
		}
		return nil
	})
	if err != nil {
		return oops.Code(types.KindStorage).With("file_path", b.dbPath).Wrapf(err, "db update error")
	}
	return nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
