// Package media holds uploaded file bytes in badger. Blobs are split into
// fixed-size chunks so a single upload never exceeds a transaction.
package media

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("blob not found")

const chunkSize = 1 << 20

// MaxUploadBytes is the ceiling advertised to users. It is not enforced.
const MaxUploadBytes = 100 << 20

type Store struct {
	db *badger.DB
}

// Open opens a badger store in dir. An empty dir keeps everything in memory.
func Open(dir string, log *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	if log != nil {
		opts = opts.WithLogger(badgerLogger{log.Named("badger").Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open media store: %w", err)
	}
	return &Store{db: db}, nil
}

func headKey(key string) []byte { return []byte("h/" + key) }

func chunkKey(key string, i uint32) []byte {
	b := make([]byte, 0, len(key)+7)
	b = append(b, "c/"...)
	b = append(b, key...)
	b = append(b, '/')
	return binary.BigEndian.AppendUint32(b, i)
}

// Put replaces whatever is stored under key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	n := uint32(0)
	for off := 0; off < len(data); off += chunkSize {
		end := min(off+chunkSize, len(data))
		if err := wb.Set(chunkKey(key, n), data[off:end]); err != nil {
			return fmt.Errorf("write chunk %d: %w", n, err)
		}
		n++
	}

	head := make([]byte, 0, 12)
	head = binary.BigEndian.AppendUint32(head, n)
	head = binary.BigEndian.AppendUint64(head, uint64(len(data)))
	if err := wb.Set(headKey(key), head); err != nil {
		return fmt.Errorf("write head: %w", err)
	}
	return wb.Flush()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		n, size, err := readHead(txn, key)
		if err != nil {
			return err
		}
		out = make([]byte, 0, size)
		for i := uint32(0); i < n; i++ {
			item, err := txn.Get(chunkKey(key, i))
			if err != nil {
				return fmt.Errorf("read chunk %d: %w", i, err)
			}
			if err := item.Value(func(v []byte) error {
				out = append(out, v...)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		n, _, err := readHead(txn, key)
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			if err := txn.Delete(chunkKey(key, i)); err != nil {
				return err
			}
		}
		return txn.Delete(headKey(key))
	})
}

func readHead(txn *badger.Txn, key string) (uint32, uint64, error) {
	item, err := txn.Get(headKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, 0, ErrNotFound
	}
	if err != nil {
		return 0, 0, err
	}
	var n uint32
	var size uint64
	err = item.Value(func(v []byte) error {
		if len(v) != 12 {
			return fmt.Errorf("corrupt head for %q", key)
		}
		n = binary.BigEndian.Uint32(v[:4])
		size = binary.BigEndian.Uint64(v[4:])
		return nil
	})
	return n, size, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's logging through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, a ...interface{})   { l.s.Errorf(f, a...) }
func (l badgerLogger) Warningf(f string, a ...interface{}) { l.s.Warnf(f, a...) }
func (l badgerLogger) Infof(f string, a ...interface{})    { l.s.Debugf(f, a...) }
func (l badgerLogger) Debugf(f string, a ...interface{})   { l.s.Debugf(f, a...) }
