//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../../mocks/mock_store.go -package=mocks
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Store is the synchronous side of the durability sink.
type Store interface {
	Set(ctx context.Context, path string, value []byte) error
	Push(ctx context.Context, path string, value []byte) error
	Remove(ctx context.Context, path string) error
}

type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

func OpenBadger(dir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	return NewBadgerStore(db), nil
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, now: time.Now}
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Set(ctx context.Context, path string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), value)
	})
}

// Push appends value under path. The child key is
// "{path}/{unix nanos, 19 digits}-{uuid}": the zero padding keeps
// lexicographic order chronological and the uuid breaks ties.
func (s *BadgerStore) Push(ctx context.Context, path string, value []byte) error {
	key := fmt.Sprintf("%s/%019d-%s", path, s.now().UnixNano(), uuid.NewString())
	return s.Set(ctx, key, value)
}

// Remove deletes path itself and everything below it.
func (s *BadgerStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	keys, err := s.keys(path + "/")
	if err != nil {
		return err
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	if err := wb.Delete([]byte(path)); err != nil {
		return err
	}
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (s *BadgerStore) keys(prefix string) ([][]byte, error) {
	var out [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			out = append(out, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return out, err
}
