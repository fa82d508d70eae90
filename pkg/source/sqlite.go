package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/codemap/pkg/errors"
)

// Schema is the table layout SQLiteSource expects. Indexers may add columns
// and tables; only these are read.
const Schema = `
CREATE TABLE IF NOT EXISTS files (
	id   TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	lang TEXT,
	size INTEGER
);
CREATE TABLE IF NOT EXISTS nodes (
	id          TEXT PRIMARY KEY,
	path        TEXT,
	kind        TEXT NOT NULL,
	name        TEXT,
	range_start INTEGER,
	range_end   INTEGER
);
CREATE TABLE IF NOT EXISTS edges (
	src    TEXT NOT NULL,
	dst    TEXT NOT NULL,
	kind   TEXT NOT NULL,
	weight REAL
);
CREATE TABLE IF NOT EXISTS file_smells (
	file_id             TEXT PRIMARY KEY,
	score               REAL,
	function_count      INTEGER,
	avg_function_length REAL,
	max_function_length INTEGER,
	max_nesting_depth   INTEGER,
	import_count        INTEGER
);
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS changes (
	session_id   TEXT NOT NULL,
	file_id      TEXT NOT NULL,
	summary_text TEXT,
	hunks_json   TEXT
);
CREATE TABLE IF NOT EXISTS branch_changes (
	file_path TEXT NOT NULL,
	diff_text TEXT
);
`

// SQLiteSource reads an indexer database. It implements Indexer and
// ChangeTracker.
type SQLiteSource struct {
	db       *sql.DB
	path     string
	readOnly bool
}

// OpenSQLite opens the database at path. Read-only sources cannot create
// change sessions.
func OpenSQLite(path string, readOnly bool) (*SQLiteSource, error) {
	mode := "rwc"
	if readOnly {
		mode = "ro"
	}
	dsn := fmt.Sprintf("file:%s?mode=%s&_pragma=busy_timeout(5000)", path, mode)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndex, err, "open index %s", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeIndex, err, "open index %s", path)
	}
	return &SQLiteSource{db: db, path: path, readOnly: readOnly}, nil
}

// InitSchema creates missing tables.
func (s *SQLiteSource) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return errors.Wrap(errors.ErrCodeIndex, err, "create schema")
	}
	return nil
}

// DB exposes the handle for fixtures and migrations.
func (s *SQLiteSource) DB() *sql.DB { return s.db }

// Path returns the database file.
func (s *SQLiteSource) Path() string { return s.path }

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) ListFiles(ctx context.Context) ([]File, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, path, lang, size FROM files ORDER BY path`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndex, err, "list files")
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		var lang sql.NullString
		var size sql.NullInt64
		if err := rows.Scan(&f.ID, &f.Path, &lang, &size); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndex, err, "scan file")
		}
		f.Lang, f.Size = lang.String, size.Int64
		out = append(out, f)
	}
	return out, rows.Err()
}

const symbolColumns = `id, path, kind, name, range_start, range_end`

func scanSymbol(sc interface{ Scan(...any) error }) (Symbol, error) {
	var sym Symbol
	var path, name sql.NullString
	var start, end sql.NullInt64
	if err := sc.Scan(&sym.ID, &path, &sym.Kind, &name, &start, &end); err != nil {
		return Symbol{}, err
	}
	sym.Path, sym.Name = path.String, name.String
	sym.RangeStart, sym.RangeEnd = int(start.Int64), int(end.Int64)
	return sym, nil
}

func (s *SQLiteSource) ListNodes(ctx context.Context) ([]Symbol, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+symbolColumns+` FROM nodes ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndex, err, "list nodes")
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndex, err, "scan node")
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *SQLiteSource) GetNodeByID(ctx context.Context, id string) (Symbol, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+symbolColumns+` FROM nodes WHERE id = ?`, id)
	sym, err := scanSymbol(row)
	if err == sql.ErrNoRows {
		return Symbol{}, false, nil
	}
	if err != nil {
		return Symbol{}, false, errors.Wrap(errors.ErrCodeIndex, err, "get node %s", id)
	}
	return sym, true, nil
}

func (s *SQLiteSource) ListEdges(ctx context.Context) ([]Relation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT src, dst, kind, weight FROM edges`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndex, err, "list edges")
	}
	defer rows.Close()

	var out []Relation
	for rows.Next() {
		var r Relation
		var w sql.NullFloat64
		if err := rows.Scan(&r.Src, &r.Dst, &r.Kind, &w); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndex, err, "scan edge")
		}
		r.Weight = w.Float64
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteSource) ListFileSmells(ctx context.Context) ([]Smell, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_id, score, function_count, avg_function_length,
		       max_function_length, max_nesting_depth, import_count
		FROM file_smells`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndex, err, "list smells")
	}
	defer rows.Close()

	var out []Smell
	for rows.Next() {
		var sm Smell
		var score, avg sql.NullFloat64
		var fc, maxLen, depth, imports sql.NullInt64
		if err := rows.Scan(&sm.FileID, &score, &fc, &avg, &maxLen, &depth, &imports); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndex, err, "scan smell")
		}
		sm.Score, sm.AvgFunctionLength = score.Float64, avg.Float64
		sm.FunctionCount, sm.MaxFunctionLength = int(fc.Int64), int(maxLen.Int64)
		sm.MaxNestingDepth, sm.ImportCount = int(depth.Int64), int(imports.Int64)
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLiteSource) GetCurrentBranchChanges(ctx context.Context) ([]BranchChange, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT file_path, diff_text FROM branch_changes ORDER BY file_path`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndex, err, "list branch changes")
	}
	defer rows.Close()

	var out []BranchChange
	for rows.Next() {
		var bc BranchChange
		var diff sql.NullString
		if err := rows.Scan(&bc.FilePath, &diff); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndex, err, "scan branch change")
		}
		bc.DiffText = diff.String
		out = append(out, bc)
	}
	return out, rows.Err()
}

func (s *SQLiteSource) GetChangesBySession(ctx context.Context, id string) ([]Change, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_id, summary_text, hunks_json FROM changes WHERE session_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndex, err, "list changes")
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var c Change
		var summary, hunks sql.NullString
		if err := rows.Scan(&c.FileID, &summary, &hunks); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndex, err, "scan change")
		}
		c.SummaryText, c.HunksJSON = summary.String, hunks.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateSessionFromGitChanges records the current branch changes of indexed
// files as a new session.
func (s *SQLiteSource) CreateSessionFromGitChanges(ctx context.Context) (string, bool, error) {
	if s.readOnly {
		return "", false, errors.New(errors.ErrCodeUnsupported, "index %s is open read-only", s.path)
	}
	files, err := s.ListFiles(ctx)
	if err != nil {
		return "", false, err
	}
	branch, err := s.GetCurrentBranchChanges(ctx)
	if err != nil {
		return "", false, err
	}
	changes := sessionChanges(files, branch)
	if len(changes) == 0 {
		return "", false, nil
	}

	id := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeIndex, err, "begin session")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO sessions (id, created_at) VALUES (?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return "", false, errors.Wrap(errors.ErrCodeIndex, err, "insert session")
	}
	for _, c := range changes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO changes (session_id, file_id, summary_text, hunks_json) VALUES (?, ?, ?, ?)`,
			id, c.FileID, c.SummaryText, c.HunksJSON); err != nil {
			return "", false, errors.Wrap(errors.ErrCodeIndex, err, "insert change")
		}
	}
	if err := tx.Commit(); err != nil {
		return "", false, errors.Wrap(errors.ErrCodeIndex, err, "commit session")
	}
	return id, true, nil
}

var (
	_ Indexer       = (*SQLiteSource)(nil)
	_ ChangeTracker = (*SQLiteSource)(nil)
)
