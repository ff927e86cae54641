package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/sector-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS classification_results (
	ticker         TEXT PRIMARY KEY,
	id             TEXT NOT NULL,
	run_id         TEXT,
	major_sector   TEXT NOT NULL,
	confidence     TEXT NOT NULL,
	method         TEXT NOT NULL,
	ensemble_score REAL NOT NULL DEFAULT 0,
	fallback_used  INTEGER NOT NULL DEFAULT 0,
	payload        TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS classification_history (
	id          TEXT PRIMARY KEY,
	ticker      TEXT NOT NULL,
	payload     TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	archived_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS industry_priors (
	ticker     TEXT PRIMARY KEY,
	sector     TEXT NOT NULL,
	sub_sector TEXT,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_results_run_id ON classification_results(run_id);
CREATE INDEX IF NOT EXISTS idx_results_sector ON classification_results(major_sector);
CREATE INDEX IF NOT EXISTS idx_results_confidence ON classification_results(confidence);
CREATE INDEX IF NOT EXISTS idx_history_ticker ON classification_history(ticker);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult replaces the current row for the ticker and archives the row
// it displaced, in one transaction.
func (s *SQLiteStore) SaveResult(ctx context.Context, res *model.ClassificationResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	var prevID, prevPayload string
	var prevCreated time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT id, payload, created_at FROM classification_results WHERE ticker = ?`,
		res.Ticker,
	).Scan(&prevID, &prevPayload, &prevCreated)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return eris.Wrapf(err, "sqlite: read current result %s", res.Ticker)
	default:
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO classification_history (id, ticker, payload, created_at) VALUES (?, ?, ?, ?)`,
			prevID, res.Ticker, prevPayload, prevCreated,
		); err != nil {
			return eris.Wrapf(err, "sqlite: archive result %s", res.Ticker)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO classification_results
		 (ticker, id, run_id, major_sector, confidence, method, ensemble_score, fallback_used, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (ticker) DO UPDATE SET
		   id = excluded.id, run_id = excluded.run_id, major_sector = excluded.major_sector,
		   confidence = excluded.confidence, method = excluded.method,
		   ensemble_score = excluded.ensemble_score, fallback_used = excluded.fallback_used,
		   payload = excluded.payload, created_at = excluded.created_at`,
		res.Ticker, res.ID, res.RunID, res.MajorSector, string(res.Confidence), string(res.Method),
		res.EnsembleScore, res.FallbackUsed, string(payload), res.CreatedAt,
	); err != nil {
		return eris.Wrapf(err, "sqlite: save result %s", res.Ticker)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) GetResult(ctx context.Context, ticker string) (*model.ClassificationResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM classification_results WHERE ticker = ?`,
		ticker,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get result %s", ticker)
	}
	return unmarshalResult([]byte(payload))
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.ClassificationResult, error) {
	query := `SELECT payload FROM classification_results WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.Sector != "" {
		query += ` AND major_sector = ?`
		args = append(args, filter.Sector)
	}
	if filter.Confidence != "" {
		query += ` AND confidence = ?`
		args = append(args, string(filter.Confidence))
	}
	if filter.Method != "" {
		query += ` AND method = ?`
		args = append(args, string(filter.Method))
	}
	if filter.FallbackOnly {
		query += ` AND fallback_used = 1`
	}
	query += ` ORDER BY ticker`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close()

	var out []model.ClassificationResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		res, err := unmarshalResult([]byte(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list results iterate")
}

func (s *SQLiteStore) History(ctx context.Context, ticker string, limit int) ([]model.ClassificationResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM classification_history WHERE ticker = ? ORDER BY archived_at DESC, created_at DESC LIMIT ?`,
		ticker, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: history %s", ticker)
	}
	defer rows.Close()

	var out []model.ClassificationResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history")
		}
		res, err := unmarshalResult([]byte(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: history iterate")
}

func (s *SQLiteStore) SavePriors(ctx context.Context, priors map[string]model.IndustryPrior) error {
	if len(priors) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for ticker, prior := range priors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO industry_priors (ticker, sector, sub_sector, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (ticker) DO UPDATE SET
			   sector = excluded.sector, sub_sector = excluded.sub_sector, updated_at = excluded.updated_at`,
			ticker, prior.Sector, prior.SubSector, now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: save prior %s", ticker)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) GetPrior(ctx context.Context, ticker string) (*model.IndustryPrior, error) {
	var p model.IndustryPrior
	var subSector sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT sector, sub_sector FROM industry_priors WHERE ticker = ?`,
		ticker,
	).Scan(&p.Sector, &subSector)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get prior %s", ticker)
	}
	p.SubSector = subSector.String
	return &p, nil
}

func (s *SQLiteStore) ListPriors(ctx context.Context) (map[string]model.IndustryPrior, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker, sector, sub_sector FROM industry_priors`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list priors")
	}
	defer rows.Close()

	out := make(map[string]model.IndustryPrior)
	for rows.Next() {
		var ticker string
		var p model.IndustryPrior
		var subSector sql.NullString
		if err := rows.Scan(&ticker, &p.Sector, &subSector); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prior")
		}
		p.SubSector = subSector.String
		out[ticker] = p
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list priors iterate")
}

func unmarshalResult(payload []byte) (*model.ClassificationResult, error) {
	var res model.ClassificationResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal result payload")
	}
	return &res, nil
}
