package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
	"github.com/cognicore/trigramlm/pkg/trigramlm/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// timeLayout keeps created_at sortable as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		// pragmas here apply to every pooled connection
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", path, internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS models (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	sentences INTEGER NOT NULL,
	tokens INTEGER NOT NULL,
	unigrams INTEGER NOT NULL,
	bigrams INTEGER NOT NULL,
	trigrams INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ngrams (
	model_id TEXT NOT NULL,
	ord INTEGER NOT NULL,
	w1 TEXT NOT NULL,
	w2 TEXT NOT NULL DEFAULT '',
	w3 TEXT NOT NULL DEFAULT '',
	logprob REAL NOT NULL,
	PRIMARY KEY(model_id, ord, w1, w2, w3),
	FOREIGN KEY(model_id) REFERENCES models(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS score_runs (
	model_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	size INTEGER NOT NULL,
	PRIMARY KEY(model_id, kind),
	FOREIGN KEY(model_id) REFERENCES models(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS scores (
	model_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	idx INTEGER NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY(model_id, kind, idx),
	FOREIGN KEY(model_id, kind) REFERENCES score_runs(model_id, kind) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveModel writes the model and its tables in one transaction, replacing
// any model with the same ID along with its score runs.
func (s *sqliteStore) SaveModel(ctx context.Context, info store.ModelInfo, m *ngram.Model) (store.ModelInfo, error) {
	if m == nil {
		return store.ModelInfo{}, fmt.Errorf("save nil model: %w", internalerr.ErrInvalidInput)
	}
	info = store.Describe(info, m)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.ModelInfo{}, err
	}
	defer tx.Rollback()

	// Cascades to ngrams and scores
	if _, err := tx.ExecContext(ctx, `DELETE FROM models WHERE id=?`, info.ID); err != nil {
		return store.ModelInfo{}, err
	}

	const stmt = `
INSERT INTO models (id, name, created_at, sentences, tokens, unigrams, bigrams, trigrams)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err = tx.ExecContext(
		ctx,
		stmt,
		info.ID,
		info.Name,
		info.CreatedAt.UTC().Format(timeLayout),
		info.Sentences,
		info.Tokens,
		info.Unigrams,
		info.Bigrams,
		info.Trigrams,
	)
	if err != nil {
		return store.ModelInfo{}, err
	}

	if err := insertEntries(ctx, tx, info.ID, m.AllEntries()); err != nil {
		return store.ModelInfo{}, err
	}

	if err := tx.Commit(); err != nil {
		return store.ModelInfo{}, err
	}
	return info, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, modelID string, entries []ngram.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ngrams (model_id, ord, w1, w2, w3, logprob) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range entries {
		var w [3]string
		copy(w[:], e.Gram)
		if _, err := stmt.ExecContext(ctx, modelID, len(e.Gram), w[0], w[1], w[2], e.LogProb); err != nil {
			return err
		}
	}
	return nil
}

// LoadModel reads a model back. The tables are validated exactly as the
// text format is; a corrupt row fails the load.
func (s *sqliteStore) LoadModel(ctx context.Context, id string) (store.ModelInfo, *ngram.Model, error) {
	info, err := s.getInfo(ctx, id)
	if err != nil {
		return store.ModelInfo{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT ord, w1, w2, w3, logprob
FROM ngrams
WHERE model_id = ?
ORDER BY ord, w1, w2, w3;
`, id)
	if err != nil {
		return store.ModelInfo{}, nil, err
	}
	defer rows.Close()

	var entries []ngram.Entry
	for rows.Next() {
		var (
			ord        int
			w1, w2, w3 string
			lp         float64
		)
		if err := rows.Scan(&ord, &w1, &w2, &w3, &lp); err != nil {
			return store.ModelInfo{}, nil, err
		}
		if !ngram.ValidOrder(ord) {
			return store.ModelInfo{}, nil, fmt.Errorf("model %q: row of order %d: %w", id, ord, internalerr.ErrInvalidInput)
		}
		gram := []string{w1, w2, w3}[:ord]
		entries = append(entries, ngram.Entry{Gram: gram, LogProb: lp})
	}
	if err := rows.Err(); err != nil {
		return store.ModelInfo{}, nil, err
	}

	m, err := ngram.FromEntries(entries, ngram.Meta{Sentences: info.Sentences, Tokens: info.Tokens})
	if err != nil {
		return store.ModelInfo{}, nil, fmt.Errorf("model %q: %w", id, err)
	}
	return info, m, nil
}

func (s *sqliteStore) getInfo(ctx context.Context, id string) (store.ModelInfo, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, created_at, sentences, tokens, unigrams, bigrams, trigrams
FROM models
WHERE id = ?;
`, id)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ModelInfo{}, fmt.Errorf("model %q: %w", id, internalerr.ErrNotFound)
	}
	return info, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner) (store.ModelInfo, error) {
	var (
		info    store.ModelInfo
		created string
	)
	err := row.Scan(&info.ID, &info.Name, &created, &info.Sentences, &info.Tokens,
		&info.Unigrams, &info.Bigrams, &info.Trigrams)
	if err != nil {
		return store.ModelInfo{}, err
	}
	info.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return store.ModelInfo{}, fmt.Errorf("model %q created_at %q: %w", info.ID, created, err)
	}
	return info, nil
}

// ListModels returns every model, oldest first
func (s *sqliteStore) ListModels(ctx context.Context) ([]store.ModelInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, created_at, sentences, tokens, unigrams, bigrams, trigrams
FROM models
ORDER BY created_at, id;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.ModelInfo
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteModel removes a model; its tables and score runs cascade
func (s *sqliteStore) DeleteModel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("model %q: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

// SaveScores replaces the score run of the given kind for a model
func (s *sqliteStore) SaveScores(ctx context.Context, modelID, kind string, scores []float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM models WHERE id = ?`, modelID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("model %q: %w", modelID, internalerr.ErrNotFound)
	}
	if err != nil {
		return err
	}

	const run = `
INSERT INTO score_runs (model_id, kind, size)
VALUES (?, ?, ?)
ON CONFLICT(model_id, kind) DO UPDATE SET
	size=excluded.size;
`
	if _, err := tx.ExecContext(ctx, run, modelID, kind, len(scores)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scores WHERE model_id=? AND kind=?`, modelID, kind); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO scores (model_id, kind, idx, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, v := range scores {
		if _, err := stmt.ExecContext(ctx, modelID, kind, i, v); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetScores returns a score run in input order
func (s *sqliteStore) GetScores(ctx context.Context, modelID, kind string) ([]float64, error) {
	var size int
	err := s.db.QueryRowContext(ctx, `SELECT size FROM score_runs WHERE model_id = ? AND kind = ?`, modelID, kind).Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scores %s/%s: %w", modelID, kind, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT value
FROM scores
WHERE model_id = ? AND kind = ?
ORDER BY idx;
`, modelID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]float64, 0, size)
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) != size {
		return nil, fmt.Errorf("scores %s/%s: %d of %d values: %w", modelID, kind, len(out), size, internalerr.ErrInvalidInput)
	}
	return out, nil
}
