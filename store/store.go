// Package store keeps serialized documents in sqlite database.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"cbe/block"
	"cbe/document"
)

var ErrNotFound = errors.New("document not found")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	name    TEXT PRIMARY KEY NOT NULL,
	blocks  INTEGER NOT NULL,
	updated INTEGER NOT NULL,
	data    BLOB NOT NULL
);`

// Entry describes stored document.
type Entry struct {
	Name    string
	Blocks  int
	Updated time.Time
}

// Store is single connection document storage, it is not safe for
// concurrent use.
type Store struct {
	log  *zap.Logger
	conn *sqlite.Conn
	now  func() time.Time
}

// Open opens or creates database at path. ":memory:" gives transient store.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate}
	if path == ":memory:" {
		flags = append(flags, sqlite.OpenMemory)
	} else {
		flags = append(flags, sqlite.OpenWAL)
	}
	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("unable to open store %s: %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare store schema: %w", err)
	}
	log.Debug("Store opened", zap.String("path", path))
	return &Store{log: log.Named("store"), conn: conn, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// interruptible binds ctx cancellation to the connection for the duration
// of fn.
func (s *Store) interruptible(ctx context.Context, fn func() error) error {
	if s.conn == nil {
		return errors.New("store is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	prev := s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(prev)
	return fn()
}

// Save stores blocks under name replacing previous version.
func (s *Store) Save(ctx context.Context, name string, blocks []block.Block) error {
	if name == "" {
		return errors.New("document name is required")
	}
	data, err := document.MarshalBlocks(blocks)
	if err != nil {
		return fmt.Errorf("unable to serialize %s: %w", name, err)
	}
	return s.interruptible(ctx, func() error {
		err := sqlitex.Execute(s.conn,
			`INSERT INTO documents (name, blocks, updated, data) VALUES (?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET blocks = excluded.blocks, updated = excluded.updated, data = excluded.data`,
			&sqlitex.ExecOptions{Args: []any{name, len(blocks), s.now().UnixMilli(), data}})
		if err != nil {
			return fmt.Errorf("unable to save %s: %w", name, err)
		}
		s.log.Debug("Document saved", zap.String("name", name), zap.Int("blocks", len(blocks)), zap.Int("bytes", len(data)))
		return nil
	})
}

// Load returns blocks stored under name.
func (s *Store) Load(ctx context.Context, name string) ([]block.Block, error) {
	var (
		data  []byte
		found bool
	)
	err := s.interruptible(ctx, func() error {
		return sqlitex.Execute(s.conn, `SELECT data FROM documents WHERE name = ?`,
			&sqlitex.ExecOptions{
				Args: []any{name},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					data = make([]byte, stmt.ColumnLen(0))
					stmt.ColumnBytes(0, data)
					found = true
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("unable to load %s: %w", name, err)
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	blocks, err := document.UnmarshalBlocks(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", name, err)
	}
	return blocks, nil
}

// List returns stored documents in natural name order.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.interruptible(ctx, func() error {
		return sqlitex.Execute(s.conn, `SELECT name, blocks, updated FROM documents`,
			&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
				entries = append(entries, Entry{
					Name:    stmt.ColumnText(0),
					Blocks:  stmt.ColumnInt(1),
					Updated: time.UnixMilli(stmt.ColumnInt64(2)),
				})
				return nil
			}})
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list documents: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return natural.Less(entries[i].Name, entries[j].Name) })
	return entries, nil
}

// Delete removes stored document.
func (s *Store) Delete(ctx context.Context, name string) error {
	return s.interruptible(ctx, func() error {
		if err := sqlitex.Execute(s.conn, `DELETE FROM documents WHERE name = ?`,
			&sqlitex.ExecOptions{Args: []any{name}}); err != nil {
			return fmt.Errorf("unable to delete %s: %w", name, err)
		}
		if s.conn.Changes() == 0 {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		s.log.Debug("Document deleted", zap.String("name", name))
		return nil
	})
}
