package vfs

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS vfs_nodes (
	path TEXT PRIMARY KEY,
	entry BLOB NOT NULL
);
`

// SQLite is a durable, single-file [Storage] backend for sandboxes that
// must survive a process restart. Every operation round-trips through
// database/sql; an in-process read cache is deliberately not kept, since
// the whole point of this backend is to make the VFS a thin view over a
// durable store rather than a cache in front of one.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

var (
	_ Storage             = (*SQLite)(nil)
	_ SerializableStorage = (*SQLite)(nil)
)

// OpenSQLite opens (creating if necessary) a SQLite-backed store at path.
// Use ":memory:" for an ephemeral database that still exercises the real
// driver (useful in tests).
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("vfs: open sqlite %q: %w", path, err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()

		return nil, fmt.Errorf("vfs: init sqlite schema: %w", err)
	}

	// A single file-backed SQLite connection does not benefit from
	// concurrent writers; keep one connection and let VFS's own mutex
	// (plus ours) serialize access instead of fighting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func encodeEntry(e FileEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeEntry(data []byte) (FileEntry, error) {
	var e FileEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&e); err != nil {
		return FileEntry{}, err
	}

	return e, nil
}

func (s *SQLite) Get(path string) (FileEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob []byte

	err := s.db.QueryRow(`SELECT entry FROM vfs_nodes WHERE path = ?`, path).Scan(&blob)
	if err != nil {
		return FileEntry{}, false
	}

	e, err := decodeEntry(blob)
	if err != nil {
		return FileEntry{}, false
	}

	return e, true
}

func (s *SQLite) Set(path string, entry FileEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := encodeEntry(entry)
	if err != nil {
		return
	}

	_, _ = s.db.Exec(`INSERT INTO vfs_nodes(path, entry) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET entry = excluded.entry`, path, blob)
}

func (s *SQLite) Delete(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM vfs_nodes WHERE path = ?`, path)
	if err != nil {
		return false
	}

	n, _ := res.RowsAffected()

	return n > 0
}

func (s *SQLite) Exists(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var one int

	err := s.db.QueryRow(`SELECT 1 FROM vfs_nodes WHERE path = ?`, path).Scan(&one)

	return err == nil
}

func (s *SQLite) AllPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT path FROM vfs_nodes`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []string

	for rows.Next() {
		var p string
		if rows.Scan(&p) == nil {
			out = append(out, p)
		}
	}

	return out
}

func (s *SQLite) PathsByPrefix(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT path FROM vfs_nodes WHERE path LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []string

	for rows.Next() {
		var p string
		if rows.Scan(&p) == nil {
			out = append(out, p)
		}
	}

	return out
}

func (s *SQLite) Children(dir string) []string {
	prefix := childPrefix(dir)

	var out []string

	for _, p := range s.PathsByPrefix(prefix) {
		if p == dir {
			continue
		}

		remainder := strings.TrimPrefix(p, prefix)
		if strings.Contains(remainder, "/") {
			continue
		}

		out = append(out, remainder)
	}

	sort.Strings(out)

	return out
}

func (s *SQLite) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.db.Exec(`DELETE FROM vfs_nodes`)
}

func (s *SQLite) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int

	_ = s.db.QueryRow(`SELECT COUNT(*) FROM vfs_nodes`).Scan(&n)

	return n
}

func (s *SQLite) AllPairs() map[string]FileEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT path, entry FROM vfs_nodes`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	out := make(map[string]FileEntry)

	for rows.Next() {
		var (
			p    string
			blob []byte
		)

		if rows.Scan(&p, &blob) != nil {
			continue
		}

		if e, err := decodeEntry(blob); err == nil {
			out[p] = e
		}
	}

	return out
}

func (s *SQLite) SetMany(entries map[string]FileEntry) {
	for p, e := range entries {
		s.Set(p, e)
	}
}

// Serialize encodes every row into a single gob stream using the same
// generic encoder as the other backends, built from AllPairs; it does not
// stream the table directly.
func (s *SQLite) Serialize() ([]byte, error) {
	return genericEncode(s.AllPairs())
}

// Deserialize replaces the table contents with the decoded pairs.
func (s *SQLite) Deserialize(data []byte) error {
	pairs, err := genericDecode(data)
	if err != nil {
		return err
	}

	s.Clear()
	s.SetMany(pairs)

	return nil
}

// escapeLike escapes SQL LIKE metacharacters in a path prefix so that
// paths containing literal "%" or "_" are matched exactly.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

	return r.Replace(s)
}
