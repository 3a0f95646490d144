// Package store is the document store: a persisted mapping from stable
// ids to symbols, relationships, and file info, backed by SQLite.
// Batched writes are real transactions, so uncommitted data is never
// observable to readers.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/symbol"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY,
	path TEXT NOT NULL UNIQUE,
	hash TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS symbols (
	id INTEGER PRIMARY KEY,
	file_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	start_line INTEGER, start_column INTEGER,
	end_line INTEGER, end_column INTEGER,
	start_byte INTEGER, end_byte INTEGER,
	signature TEXT,
	doc_comment TEXT,
	visibility TEXT,
	module_path TEXT,
	scope_kind TEXT,
	scope_hoisted INTEGER,
	language TEXT
);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);

CREATE TABLE IF NOT EXISTS relationships (
	from_id INTEGER NOT NULL,
	to_id INTEGER NOT NULL,
	kind TEXT NOT NULL,
	receiver TEXT,
	is_static INTEGER,
	has_receiver INTEGER
);
CREATE INDEX IF NOT EXISTS idx_rel_from ON relationships(from_id, kind);
CREATE INDEX IF NOT EXISTS idx_rel_to ON relationships(to_id, kind);

CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`

// Store is the document store: dense id allocation, batched writes, and
// the name/file/id queries the indexer and query layer need.
type Store struct {
	mu sync.Mutex
	db *sql.DB
	tx *sql.Tx
}

// Open creates (or reuses) the SQLite-backed document store rooted at
// indexPath, e.g. "<workspace>/.codeindex/index/store.db".
func Open(indexPath string) (*Store, error) {
	dsn := filepath.Clean(indexPath) + "?_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", indexPath, err)
	}
	db.SetMaxOpenConns(1) // sqlite3 driver is not safe for concurrent writers
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartBatch begins a transaction; writes made before CommitBatch are not
// observable to other connections until the batch commits.
func (s *Store) StartBatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return fmt.Errorf("store: batch already in progress")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: start batch: %w", err)
	}
	s.tx = tx
	return nil
}

// CommitBatch commits the in-flight transaction.
func (s *Store) CommitBatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return fmt.Errorf("store: no batch in progress")
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("store: commit batch: %w", err)
	}
	return nil
}

// DiscardBatch rolls back the in-flight transaction wholesale, leaving no
// partial symbol visibility from a cancelled file.
func (s *Store) DiscardBatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

func (s *Store) execer() interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
} {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// GetNextFileID allocates a new monotonic FileID from the metadata counter.
func (s *Store) GetNextFileID() (symbol.FileID, error) {
	id, err := s.nextCounter("next_file_id")
	return symbol.FileID(id), err
}

// GetNextSymbolID allocates a new monotonic symbol ID from the metadata counter.
func (s *Store) GetNextSymbolID() (symbol.ID, error) {
	id, err := s.nextCounter("next_symbol_id")
	return symbol.ID(id), err
}

func (s *Store) nextCounter(key string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex := s.execer()
	var cur uint64
	row := ex.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key)
	err := row.Scan(&cur)
	if err == sql.ErrNoRows {
		cur = 0
	} else if err != nil {
		return 0, fmt.Errorf("store: read counter %s: %w", key, err)
	}
	next := cur + 1
	_, err = ex.Exec(`INSERT INTO metadata(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, next)
	if err != nil {
		return 0, fmt.Errorf("store: write counter %s: %w", key, err)
	}
	return uint32(next), nil
}

// StoreMetadata persists an arbitrary u64 counter/flag under key.
func (s *Store) StoreMetadata(key string, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.execer().Exec(`INSERT INTO metadata(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// StoreFileInfo records (or overwrites) the file-info row for path.
func (s *Store) StoreFileInfo(id symbol.FileID, path, hash string, timestamp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.execer().Exec(`INSERT INTO files(id, path, hash, timestamp) VALUES(?,?,?,?)
		ON CONFLICT(path) DO UPDATE SET id=excluded.id, hash=excluded.hash, timestamp=excluded.timestamp`,
		id, path, hash, timestamp)
	return err
}

// FileInfo is the (id, hash) pair used to detect unchanged files on re-ingest.
type FileInfo struct {
	ID   symbol.FileID
	Hash string
}

// GetFileInfo looks up a file's id and content hash by path.
func (s *Store) GetFileInfo(path string) (*FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.execer().QueryRow(`SELECT id, hash FROM files WHERE path = ?`, path)
	var info FileInfo
	if err := row.Scan(&info.ID, &info.Hash); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &info, nil
}

// GetFilePath returns the path stored for a FileID.
func (s *Store) GetFilePath(id symbol.FileID) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.execer().QueryRow(`SELECT path FROM files WHERE id = ?`, id)
	var path string
	if err := row.Scan(&path); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return path, true, nil
}

// GetAllIndexedPaths lists every file path currently tracked.
func (s *Store) GetAllIndexedPaths() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.execer().Query(`SELECT path FROM files ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// RemoveFileDocuments deletes every symbol and relationship attributable
// to path's current FileID, atomically within the active batch.
func (s *Store) RemoveFileDocuments(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex := s.execer()
	row := ex.QueryRow(`SELECT id FROM files WHERE path = ?`, path)
	var fileID symbol.FileID
	if err := row.Scan(&fileID); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}
	if _, err := ex.Exec(`DELETE FROM relationships WHERE from_id IN (SELECT id FROM symbols WHERE file_id = ?)
		OR to_id IN (SELECT id FROM symbols WHERE file_id = ?)`, fileID, fileID); err != nil {
		return err
	}
	if _, err := ex.Exec(`DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
		return err
	}
	_, err := ex.Exec(`DELETE FROM files WHERE id = ?`, fileID)
	return err
}

// IndexSymbol writes a symbol row, overwriting by id if already present
// within the same batch (re-parses reuse ids only within one ingest call).
func (s *Store) IndexSymbol(sym symbol.Symbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.execer().Exec(`INSERT INTO symbols(
		id, file_id, name, kind, start_line, start_column, end_line, end_column,
		start_byte, end_byte, signature, doc_comment, visibility, module_path,
		scope_kind, scope_hoisted, language
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT(id) DO UPDATE SET
		file_id=excluded.file_id, name=excluded.name, kind=excluded.kind,
		start_line=excluded.start_line, start_column=excluded.start_column,
		end_line=excluded.end_line, end_column=excluded.end_column,
		start_byte=excluded.start_byte, end_byte=excluded.end_byte,
		signature=excluded.signature, doc_comment=excluded.doc_comment,
		visibility=excluded.visibility, module_path=excluded.module_path,
		scope_kind=excluded.scope_kind, scope_hoisted=excluded.scope_hoisted,
		language=excluded.language`,
		sym.ID, sym.FileID, sym.Name, sym.Kind,
		sym.Range.StartLine, sym.Range.StartColumn, sym.Range.EndLine, sym.Range.EndColumn,
		sym.Range.StartByte, sym.Range.EndByte,
		sym.Signature, sym.DocComment, sym.Visibility, sym.ModulePath,
		sym.ScopeContext.Kind, sym.ScopeContext.Hoisted, sym.Language)
	return err
}

func scanSymbol(row interface {
	Scan(dest ...any) error
}) (symbol.Symbol, error) {
	var sym symbol.Symbol
	var hoisted int
	err := row.Scan(&sym.ID, &sym.FileID, &sym.Name, &sym.Kind,
		&sym.Range.StartLine, &sym.Range.StartColumn, &sym.Range.EndLine, &sym.Range.EndColumn,
		&sym.Range.StartByte, &sym.Range.EndByte,
		&sym.Signature, &sym.DocComment, &sym.Visibility, &sym.ModulePath,
		&sym.ScopeContext.Kind, &hoisted, &sym.Language)
	sym.ScopeContext.Hoisted = hoisted != 0
	return sym, err
}

const symbolColumns = `id, file_id, name, kind, start_line, start_column, end_line, end_column,
		start_byte, end_byte, signature, doc_comment, visibility, module_path,
		scope_kind, scope_hoisted, language`

// FindSymbolsByName returns every symbol with the given name, optionally
// restricted to one language.
func (s *Store) FindSymbolsByName(name string, lang symbol.Language) ([]symbol.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows *sql.Rows
	var err error
	if lang == "" {
		rows, err = s.execer().Query(`SELECT `+symbolColumns+` FROM symbols WHERE name = ?`, name)
	} else {
		rows, err = s.execer().Query(`SELECT `+symbolColumns+` FROM symbols WHERE name = ? AND language = ?`, name, lang)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []symbol.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// FindSymbolByID looks up a single symbol by id.
func (s *Store) FindSymbolByID(id symbol.ID) (*symbol.Symbol, error) {
	return s.findSymbolByIDWithLang(id, "")
}

// FindSymbolByIDWithLanguage looks up a symbol by id, requiring a language match.
func (s *Store) FindSymbolByIDWithLanguage(id symbol.ID, lang symbol.Language) (*symbol.Symbol, error) {
	return s.findSymbolByIDWithLang(id, lang)
}

func (s *Store) findSymbolByIDWithLang(id symbol.ID, lang symbol.Language) (*symbol.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var row *sql.Row
	if lang == "" {
		row = s.execer().QueryRow(`SELECT `+symbolColumns+` FROM symbols WHERE id = ?`, id)
	} else {
		row = s.execer().QueryRow(`SELECT `+symbolColumns+` FROM symbols WHERE id = ? AND language = ?`, id, lang)
	}
	sym, err := scanSymbol(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &sym, nil
}

// FindSymbolsByFile returns every symbol currently attributed to a FileID.
func (s *Store) FindSymbolsByFile(id symbol.FileID) ([]symbol.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.execer().Query(`SELECT `+symbolColumns+` FROM symbols WHERE file_id = ? ORDER BY start_line`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []symbol.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// GetAllSymbols returns up to limit symbols across the whole store.
func (s *Store) GetAllSymbols(limit int) ([]symbol.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.execer().Query(`SELECT `+symbolColumns+` FROM symbols LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []symbol.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// StoreRelationship persists a resolved edge.
func (s *Store) StoreRelationship(rel symbol.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.execer().Exec(`INSERT INTO relationships(from_id, to_id, kind, receiver, is_static, has_receiver)
		VALUES (?,?,?,?,?,?)`,
		rel.FromID, rel.ToID, rel.Kind, rel.Metadata.Receiver, rel.Metadata.IsStatic, rel.Metadata.HasReceiver)
	return err
}

// GetRelationshipsFrom returns every relationship of kind originating at id.
// Pass "" for kind to match all kinds.
func (s *Store) GetRelationshipsFrom(id symbol.ID, kind symbol.RelationKind) ([]symbol.Relationship, error) {
	return s.queryRelationships(`from_id = ?`, id, kind)
}

// GetRelationshipsTo returns every relationship of kind terminating at id.
func (s *Store) GetRelationshipsTo(id symbol.ID, kind symbol.RelationKind) ([]symbol.Relationship, error) {
	return s.queryRelationships(`to_id = ?`, id, kind)
}

func (s *Store) queryRelationships(clause string, id symbol.ID, kind symbol.RelationKind) ([]symbol.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := `SELECT from_id, to_id, kind, receiver, is_static, has_receiver FROM relationships WHERE ` + clause
	args := []any{id}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	rows, err := s.execer().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []symbol.Relationship
	for rows.Next() {
		var rel symbol.Relationship
		var isStatic, hasReceiver int
		if err := rows.Scan(&rel.FromID, &rel.ToID, &rel.Kind, &rel.Metadata.Receiver, &isStatic, &hasReceiver); err != nil {
			return nil, err
		}
		rel.Metadata.IsStatic = isStatic != 0
		rel.Metadata.HasReceiver = hasReceiver != 0
		out = append(out, rel)
	}
	return out, rows.Err()
}

// CountRelationships returns the total number of stored relationships,
// optionally filtered by kind.
func (s *Store) CountRelationships(kind symbol.RelationKind) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	var row *sql.Row
	if kind == "" {
		row = s.execer().QueryRow(`SELECT COUNT(*) FROM relationships`)
	} else {
		row = s.execer().QueryRow(`SELECT COUNT(*) FROM relationships WHERE kind = ?`, kind)
	}
	err := row.Scan(&n)
	return n, err
}

// CountSymbols returns the total number of stored symbols.
func (s *Store) CountSymbols() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	err := s.execer().QueryRow(`SELECT COUNT(*) FROM symbols`).Scan(&n)
	return n, err
}
