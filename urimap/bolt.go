package urimap

import (
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/phenotools/silexplorer/frame"
)

var (
	uriBucket  = []byte("uri_to_name")
	nameBucket = []byte("name_to_uri")
)

// BoltStore persists the URI<->Name registry in a bolt database, one bucket
// per direction. It is meant for long-running setups where reloading the
// CSV registry on every invocation gets wasteful; semantics match Table.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) a bolt-backed registry at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(uriBucket); err != nil {
			return errors.Wrap(err, "creating uri bucket")
		}
		if _, err := tx.CreateBucketIfNotExists(nameBucket); err != nil {
			return errors.Wrap(err, "creating name bucket")
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "ensuring bucket existence")
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Insert registers pairs. Pairs whose URI or name is already bound to a
// different value are kept out of the buckets (bolt holds one value per
// key) but reported back so the caller can warn.
func (s *BoltStore) Insert(pairs []frame.Pair) (conflicts []frame.Pair, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		ub := tx.Bucket(uriBucket)
		nb := tx.Bucket(nameBucket)
		for _, p := range pairs {
			existing := ub.Get([]byte(p.URI))
			if existing != nil && string(existing) != p.Name {
				conflicts = append(conflicts, p)
				continue
			}
			byName := nb.Get([]byte(p.Name))
			if byName != nil && string(byName) != p.URI {
				conflicts = append(conflicts, p)
				continue
			}
			if err := ub.Put([]byte(p.URI), []byte(p.Name)); err != nil {
				return errors.Wrap(err, "putting uri")
			}
			if err := nb.Put([]byte(p.Name), []byte(p.URI)); err != nil {
				return errors.Wrap(err, "putting name")
			}
		}
		return nil
	})
	return conflicts, errors.Wrap(err, "inserting pairs")
}

// URIByName resolves a name; missing names are errors.
func (s *BoltStore) URIByName(name string) (string, error) {
	if name == "" {
		return "", errors.New("name cannot be empty")
	}
	var uri string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(nameBucket).Get([]byte(name))
		if v == nil {
			return errors.Errorf("no URI found for '%v'", name)
		}
		uri = string(v)
		return nil
	})
	return uri, err
}

// NameByURI resolves a URI; missing URIs read as empty.
func (s *BoltStore) NameByURI(uri string) (string, error) {
	var name string
	err := s.db.View(func(tx *bolt.Tx) error {
		name = string(tx.Bucket(uriBucket).Get([]byte(uri)))
		return nil
	})
	return name, err
}

// Fill copies the whole store into an in-memory Table.
func (s *BoltStore) Fill(t *Table) error {
	var pairs []frame.Pair
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(uriBucket).ForEach(func(k, v []byte) error {
			pairs = append(pairs, frame.Pair{URI: string(k), Name: string(v)})
			return nil
		})
	})
	if err != nil {
		return errors.Wrap(err, "walking uri bucket")
	}
	t.Insert(pairs)
	return nil
}
