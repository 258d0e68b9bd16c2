package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE
);
CREATE TABLE IF NOT EXISTS edges (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT,
	target TEXT,
	weight REAL,
	UNIQUE(source, target)
);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
`

// chunkgraph_fold applies foldName inside SQL; LIKE would fold ASCII only.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("chunkgraph_fold", 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case string:
				return foldName(v), nil
			case []byte:
				return foldName(string(v)), nil
			default:
				return v, nil
			}
		})
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLiteGraphStore is a GraphStore backed by a SQLite database file.
type SQLiteGraphStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// NewSQLiteGraphStore opens (creating if needed) the SQLite database at path
// and applies the schema.
func NewSQLiteGraphStore(path string, logger *zap.Logger) (*SQLiteGraphStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, storeErr("open", fmt.Errorf("failed to create database directory: %w", err))
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storeErr("open", err)
	}
	// A single connection serializes writers; SQLite allows one at a time anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, storeErr("migrate", err)
	}

	logger.Debug("opened sqlite graph store", zap.String("path", path))
	return &SQLiteGraphStore{db: db, path: path, logger: logger}, nil
}

func (s *SQLiteGraphStore) ListEdges(ctx context.Context) ([]Edge, error) {
	return queryEdges(ctx, s.db, "list edges", `SELECT source, target, weight FROM edges ORDER BY id`)
}

func (s *SQLiteGraphStore) ListNodes(ctx context.Context) ([]string, error) {
	return queryNames(ctx, s.db, "list nodes", `SELECT name FROM nodes ORDER BY name`)
}

func (s *SQLiteGraphStore) UpsertNode(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO nodes (name) VALUES (?)`, name)
	return storeErr("upsert node", err)
}

// UpsertEdge replaces the weight in place so that edge order stays stable
// across re-ingestion.
func (s *SQLiteGraphStore) UpsertEdge(ctx context.Context, source, target string, weight float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO edges (source, target, weight) VALUES (?, ?, ?)
		 ON CONFLICT(source, target) DO UPDATE SET weight = excluded.weight`,
		source, target, weight)
	return storeErr("upsert edge", err)
}

func (s *SQLiteGraphStore) SearchNodes(ctx context.Context, keyword string) ([]string, error) {
	kw := foldName(keyword)
	return queryNames(ctx, s.db, "search nodes",
		`SELECT source AS chunk FROM edges WHERE instr(chunkgraph_fold(source), ?) > 0
		 UNION
		 SELECT target AS chunk FROM edges WHERE instr(chunkgraph_fold(target), ?) > 0
		 ORDER BY chunk`,
		kw, kw)
}

func (s *SQLiteGraphStore) SearchEdges(ctx context.Context, keyword string) ([]Edge, error) {
	kw := foldName(keyword)
	return queryEdges(ctx, s.db, "search edges",
		`SELECT source, target, weight FROM edges
		 WHERE instr(chunkgraph_fold(source), ?) > 0 OR instr(chunkgraph_fold(target), ?) > 0
		 ORDER BY id`,
		kw, kw)
}

// Rename rewrites both tables inside one transaction. Rows are reinserted in
// their previous order, so ids change but ListEdges order does not.
func (s *SQLiteGraphStore) Rename(ctx context.Context, from, to string) (RenameResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RenameResult{}, storeErr("rename", err)
	}
	defer tx.Rollback()

	names, err := queryNames(ctx, tx, "rename", `SELECT name FROM nodes ORDER BY id`)
	if err != nil {
		return RenameResult{}, err
	}
	edges, err := queryEdges(ctx, tx, "rename", `SELECT source, target, weight FROM edges ORDER BY id`)
	if err != nil {
		return RenameResult{}, err
	}

	renamed, nodesChanged, err := renameNodes(names, from, to)
	if err != nil {
		return RenameResult{}, storeErr("rename", err)
	}
	out, res, err := renameEdges(edges, from, to)
	if err != nil {
		return RenameResult{}, storeErr("rename", err)
	}
	res.Nodes = nodesChanged
	if !res.Changed() {
		return res, nil
	}

	for _, table := range []string{"edges", "nodes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return RenameResult{}, storeErr("rename", fmt.Errorf("table %s: %w", table, err))
		}
	}
	for _, n := range renamed {
		if _, err := tx.ExecContext(ctx, `INSERT INTO nodes (name) VALUES (?)`, n); err != nil {
			return RenameResult{}, storeErr("rename", err)
		}
	}
	for _, e := range out {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edges (source, target, weight) VALUES (?, ?, ?)`,
			e.Source, e.Target, e.Weight); err != nil {
			return RenameResult{}, storeErr("rename", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return RenameResult{}, storeErr("rename", err)
	}
	s.logger.Info("renamed chunks",
		zap.String("from", from), zap.String("to", to),
		zap.Int("nodes", res.Nodes), zap.Int("edges", res.Edges), zap.Int("merged", res.Merged))
	return res, nil
}

func (s *SQLiteGraphStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("clear", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"edges", "nodes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return storeErr("clear", fmt.Errorf("table %s: %w", table, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("clear", err)
	}
	s.logger.Info("cleared sqlite graph store", zap.String("path", s.path))
	return nil
}

func (s *SQLiteGraphStore) Close() error {
	return storeErr("close", s.db.Close())
}

func queryNames(ctx context.Context, q queryer, op, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeErr(op, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return names, nil
}

func queryEdges(ctx context.Context, q queryer, op, query string, args ...any) ([]Edge, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.Source, &e.Target, &e.Weight); err != nil {
			return nil, storeErr(op, err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return edges, nil
}
