// Package kv implements store.TagIndex on an embedded Badger database.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/storefrontapp/storefront-server/internal/store"
)

// ErrLocked is returned by Open when another process holds the database.
// Badger allows a single process per directory.
var ErrLocked = errors.New("badger directory is locked by another process")

// sequenceBandwidth is how many IDs each sequence leases at a time.
const sequenceBandwidth = 64

// Store is a Badger-backed tag index.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	contentTypeSeq *badger.Sequence
	tagSeq         *badger.Sequence
	itemSeq        *badger.Sequence
}

// Compile-time interface check.
var _ store.TagIndex = (*Store)(nil)

// Open opens (or creates) the Badger database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Badger's own logging is too chatty
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	return open(opts, logger)
}

// OpenInMemory opens a Badger database that lives only in memory.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		// Badger reports the flock failure as a plain wrapped error.
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, fmt.Errorf("%w: %s", ErrLocked, opts.Dir)
		}
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{db: db, logger: logger}
	for name, seq := range map[string]**badger.Sequence{
		contentTypeSequence: &s.contentTypeSeq,
		tagSequence:         &s.tagSeq,
		itemSequence:        &s.itemSeq,
	} {
		*seq, err = db.GetSequence([]byte(name), sequenceBandwidth)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open sequence %s: %w", name, err)
		}
	}

	if logger != nil {
		logger.Info("Badger tag index opened", "path", opts.Dir, "in_memory", opts.InMemory)
	}
	return s, nil
}

// Close releases the ID sequences and closes the database.
func (s *Store) Close() error {
	for _, seq := range []*badger.Sequence{s.contentTypeSeq, s.tagSeq, s.itemSeq} {
		if seq == nil {
			continue
		}
		if err := seq.Release(); err != nil && s.logger != nil {
			s.logger.Warn("failed to release badger sequence", "error", err)
		}
	}
	if s.logger != nil {
		s.logger.Info("Closing badger tag index")
	}
	return s.db.Close()
}

// Ping reports whether the database is open.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

// nextID leases the next ID from seq. IDs start at 1.
func nextID(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	return int64(n) + 1, nil
}

// getJSON loads the JSON value at key into dest. A missing key is store.ErrNotFound.
func getJSON(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

func setJSON(txn *badger.Txn, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return txn.Set(key, data)
}

// getID reads a hex ID stored as a value.
func getID(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	var id int64
	err = item.Value(func(val []byte) error {
		id, err = parseHexID(string(val))
		return err
	})
	return id, err
}

// exists reports whether key is present.
func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// keysWithPrefix returns copies of every key under prefix, in key order.
func keysWithPrefix(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// countPrefix counts keys under prefix without reading values.
func countPrefix(txn *badger.Txn, prefix []byte) int {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		n++
	}
	return n
}

// update runs fn in a read-write transaction, retrying when Badger reports a
// write conflict with a concurrent transaction.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	const attempts = 5
	var err error
	for i := 0; i < attempts; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("badger write conflict after %d attempts: %w", attempts, store.ErrConflict)
}
