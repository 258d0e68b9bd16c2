package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Key layout:
//
//	n/<name>                 -> empty
//	e/<source>\x00<target>   -> 8-byte big-endian IEEE-754 weight
var (
	nodePrefix = []byte("n/")
	edgePrefix = []byte("e/")
)

const keySep = 0x00

// BadgerConfig configures a BadgerGraphStore.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps all data in memory. Useful for testing.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	Logger *zap.Logger
}

// BadgerGraphStore is a GraphStore backed by BadgerDB. Edges are listed in
// key order (source, then target) rather than insertion order.
type BadgerGraphStore struct {
	db     *badger.DB
	logger *zap.Logger
}

// badgerLogger routes BadgerDB's internal logging through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.s.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }

// NewBadgerGraphStore opens a BadgerDB database according to cfg.
func NewBadgerGraphStore(cfg BadgerConfig) (*BadgerGraphStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, storeErr("open", errors.New("path is required for persistent database"))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0700); err != nil {
			return nil, storeErr("open", fmt.Errorf("create database directory %s: %w", cfg.Path, err))
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{s: logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, storeErr("open", err)
	}
	logger.Debug("opened badger graph store", zap.String("path", cfg.Path), zap.Bool("in_memory", cfg.InMemory))
	return &BadgerGraphStore{db: db, logger: logger}, nil
}

func nodeKey(name string) []byte {
	return append(append([]byte{}, nodePrefix...), name...)
}

func edgeKeyBytes(source, target string) []byte {
	k := make([]byte, 0, len(edgePrefix)+len(source)+1+len(target))
	k = append(k, edgePrefix...)
	k = append(k, source...)
	k = append(k, keySep)
	return append(k, target...)
}

func encodeWeight(w float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(w))
	return b
}

func decodeWeight(b []byte) (float64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("corrupt weight value of %d bytes", len(b))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

func (s *BadgerGraphStore) ListEdges(ctx context.Context) ([]Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr("list edges", err)
	}
	var edges []Edge
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		edges, err = txnEdges(txn)
		return err
	})
	if err != nil {
		return nil, storeErr("list edges", err)
	}
	return edges, nil
}

func (s *BadgerGraphStore) ListNodes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr("list nodes", err)
	}
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		names, err = txnNodes(txn)
		return err
	})
	if err != nil {
		return nil, storeErr("list nodes", err)
	}
	return names, nil
}

func txnEdges(txn *badger.Txn) ([]Edge, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var edges []Edge
	for it.Seek(edgePrefix); it.ValidForPrefix(edgePrefix); it.Next() {
		item := it.Item()
		rest := item.KeyCopy(nil)[len(edgePrefix):]
		i := bytes.IndexByte(rest, keySep)
		if i < 0 {
			return nil, fmt.Errorf("corrupt edge key %q", rest)
		}
		e := Edge{Source: string(rest[:i]), Target: string(rest[i+1:])}
		if err := item.Value(func(val []byte) error {
			w, err := decodeWeight(val)
			e.Weight = w
			return err
		}); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, nil
}

func txnNodes(txn *badger.Txn) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var names []string
	for it.Seek(nodePrefix); it.ValidForPrefix(nodePrefix); it.Next() {
		names = append(names, string(it.Item().Key()[len(nodePrefix):]))
	}
	return names, nil
}

func (s *BadgerGraphStore) UpsertNode(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return storeErr("upsert node", err)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nodeKey(name), nil)
	})
	return storeErr("upsert node", err)
}

func (s *BadgerGraphStore) UpsertEdge(ctx context.Context, source, target string, weight float64) error {
	if err := ctx.Err(); err != nil {
		return storeErr("upsert edge", err)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(edgeKeyBytes(source, target), encodeWeight(weight))
	})
	return storeErr("upsert edge", err)
}

func (s *BadgerGraphStore) SearchNodes(ctx context.Context, keyword string) ([]string, error) {
	edges, err := s.ListEdges(ctx)
	if err != nil {
		return nil, err
	}
	return matchEdgeNodes(edges, keyword), nil
}

func (s *BadgerGraphStore) SearchEdges(ctx context.Context, keyword string) ([]Edge, error) {
	edges, err := s.ListEdges(ctx)
	if err != nil {
		return nil, err
	}
	return matchEdges(edges, keyword), nil
}

// Rename reads and rewrites inside a single read-write transaction. Merges
// follow key order, the order ListEdges reports.
func (s *BadgerGraphStore) Rename(ctx context.Context, from, to string) (RenameResult, error) {
	if err := ctx.Err(); err != nil {
		return RenameResult{}, storeErr("rename", err)
	}
	var res RenameResult
	err := s.db.Update(func(txn *badger.Txn) error {
		names, err := txnNodes(txn)
		if err != nil {
			return err
		}
		edges, err := txnEdges(txn)
		if err != nil {
			return err
		}

		renamed, nodesChanged, err := renameNodes(names, from, to)
		if err != nil {
			return err
		}
		out, r, err := renameEdges(edges, from, to)
		if err != nil {
			return err
		}
		r.Nodes = nodesChanged
		res = r
		if !res.Changed() {
			return nil
		}

		// Deletes go first so a new key equal to some old key survives.
		for _, n := range names {
			if err := txn.Delete(nodeKey(n)); err != nil {
				return err
			}
		}
		for _, e := range edges {
			if err := txn.Delete(edgeKeyBytes(e.Source, e.Target)); err != nil {
				return err
			}
		}
		for _, n := range renamed {
			if err := txn.Set(nodeKey(n), nil); err != nil {
				return err
			}
		}
		for _, e := range out {
			if err := txn.Set(edgeKeyBytes(e.Source, e.Target), encodeWeight(e.Weight)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return RenameResult{}, storeErr("rename", err)
	}
	if res.Changed() {
		s.logger.Info("renamed chunks",
			zap.String("from", from), zap.String("to", to),
			zap.Int("nodes", res.Nodes), zap.Int("edges", res.Edges), zap.Int("merged", res.Merged))
	}
	return res, nil
}

func (s *BadgerGraphStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return storeErr("clear", err)
	}
	if err := s.db.DropAll(); err != nil {
		return storeErr("clear", err)
	}
	s.logger.Info("cleared badger graph store")
	return nil
}

func (s *BadgerGraphStore) Close() error {
	return storeErr("close", s.db.Close())
}
