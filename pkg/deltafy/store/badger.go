package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// prefixTimestamp namespaces timestamp records within the Badger keyspace.
const prefixTimestamp = "t:"

// timestampSize is 8 bytes of Unix seconds followed by 4 bytes of nanoseconds.
const timestampSize = 12

// errCorruptValue is returned when a stored value is not a 12-byte timestamp.
var errCorruptValue = errors.New("corrupt timestamp value")

// BadgerStore keeps timestamps in a Badger directory.
// Keys are "t:<path>", values are the modification time as big-endian Unix
// seconds and nanoseconds.
type BadgerStore struct {
	db   *badger.DB
	path string
}

// OpenBadger opens or creates a Badger store in the directory at path.
// Badger's directory lock prevents a second process from opening it.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil      // Disable badger logging
	opts.SyncWrites = true // Each commit reaches disk before Update returns

	db, err := badger.Open(opts)
	if err != nil {
		return nil, storageErr("open", path, err)
	}

	return &BadgerStore{db: db, path: path}, nil
}

// Path returns the store directory.
func (s *BadgerStore) Path() string {
	return s.path
}

// Close closes the store.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return storageErr("close", s.path, err)
	}
	return nil
}

// Get retrieves the stored modification time for path.
func (s *BadgerStore) Get(ctx context.Context, path string) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, storageErr("get", path, err)
	}

	var (
		modified time.Time
		found    bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(timestampKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			t, decodeErr := decodeTimestamp(val)
			if decodeErr != nil {
				return decodeErr
			}
			modified, found = t, true
			return nil
		})
	})
	if err != nil {
		return time.Time{}, false, storageErr("get", path, err)
	}
	return modified, found, nil
}

// Upsert stores modified for path.
func (s *BadgerStore) Upsert(ctx context.Context, path string, modified time.Time) error {
	if err := ctx.Err(); err != nil {
		return storageErr("upsert", path, err)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(timestampKey(path), encodeTimestamp(modified))
	})
	if err != nil {
		return storageErr("upsert", path, err)
	}
	return nil
}

// Remove deletes the record for path.
func (s *BadgerStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return storageErr("remove", path, err)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(timestampKey(path))
	})
	if err != nil {
		return storageErr("remove", path, err)
	}
	return nil
}

// ListPaths returns every stored path in key order.
func (s *BadgerStore) ListPaths(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("list paths", "", err)
	}

	paths := make([]string, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixTimestamp)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			paths = append(paths, string(key[len(prefixTimestamp):]))
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("list paths", "", err)
	}
	return paths, nil
}

// timestampKey builds the key for path.
func timestampKey(path string) []byte {
	return []byte(prefixTimestamp + path)
}

// encodeTimestamp encodes t as big-endian Unix seconds then nanoseconds.
// UnixNano would overflow outside 1678-2262.
func encodeTimestamp(t time.Time) []byte {
	val := make([]byte, timestampSize)
	binary.BigEndian.PutUint64(val[:8], uint64(t.Unix()))
	binary.BigEndian.PutUint32(val[8:], uint32(t.Nanosecond()))
	return val
}

// decodeTimestamp reverses encodeTimestamp.
func decodeTimestamp(val []byte) (time.Time, error) {
	if len(val) != timestampSize {
		return time.Time{}, fmt.Errorf("%w: %d bytes", errCorruptValue, len(val))
	}
	sec := int64(binary.BigEndian.Uint64(val[:8]))
	nsec := int64(binary.BigEndian.Uint32(val[8:]))
	if nsec >= int64(time.Second) {
		return time.Time{}, fmt.Errorf("%w: nanoseconds out of range", errCorruptValue)
	}
	return time.Unix(sec, nsec), nil
}

// Ensure BadgerStore implements Store.
var _ Store = (*BadgerStore)(nil)
