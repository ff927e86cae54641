package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/sector-engine/internal/db"
	"github.com/sells-group/sector-engine/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access (e.g., reports).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS classification_results (
	ticker         TEXT PRIMARY KEY,
	id             TEXT NOT NULL,
	run_id         TEXT,
	major_sector   TEXT NOT NULL,
	confidence     TEXT NOT NULL,
	method         TEXT NOT NULL,
	ensemble_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	fallback_used  BOOLEAN NOT NULL DEFAULT false,
	payload        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS classification_history (
	id          TEXT PRIMARY KEY,
	ticker      TEXT NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS industry_priors (
	ticker     TEXT PRIMARY KEY,
	sector     TEXT NOT NULL,
	sub_sector TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_results_run_id ON classification_results(run_id);
CREATE INDEX IF NOT EXISTS idx_results_sector ON classification_results(major_sector);
CREATE INDEX IF NOT EXISTS idx_results_confidence ON classification_results(confidence);
CREATE INDEX IF NOT EXISTS idx_history_ticker ON classification_history(ticker);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveResult replaces the current row for the ticker and archives the row
// it displaced, in one transaction.
func (s *PostgresStore) SaveResult(ctx context.Context, res *model.ClassificationResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`INSERT INTO classification_history (id, ticker, payload, created_at)
		 SELECT id, ticker, payload, created_at FROM classification_results WHERE ticker = $1`,
		res.Ticker,
	); err != nil {
		return eris.Wrapf(err, "postgres: archive result %s", res.Ticker)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO classification_results
		 (ticker, id, run_id, major_sector, confidence, method, ensemble_score, fallback_used, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (ticker) DO UPDATE SET
		   id = EXCLUDED.id, run_id = EXCLUDED.run_id, major_sector = EXCLUDED.major_sector,
		   confidence = EXCLUDED.confidence, method = EXCLUDED.method,
		   ensemble_score = EXCLUDED.ensemble_score, fallback_used = EXCLUDED.fallback_used,
		   payload = EXCLUDED.payload, created_at = EXCLUDED.created_at`,
		res.Ticker, res.ID, res.RunID, res.MajorSector, string(res.Confidence), string(res.Method),
		res.EnsembleScore, res.FallbackUsed, payload, res.CreatedAt,
	); err != nil {
		return eris.Wrapf(err, "postgres: save result %s", res.Ticker)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

func (s *PostgresStore) GetResult(ctx context.Context, ticker string) (*model.ClassificationResult, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM classification_results WHERE ticker = $1`,
		ticker,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get result %s", ticker)
	}
	return unmarshalResult(payload)
}

func (s *PostgresStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.ClassificationResult, error) {
	query := `SELECT payload FROM classification_results WHERE true`
	args := []any{}
	argIdx := 1

	if filter.RunID != "" {
		query += fmt.Sprintf(` AND run_id = $%d`, argIdx)
		args = append(args, filter.RunID)
		argIdx++
	}
	if filter.Sector != "" {
		query += fmt.Sprintf(` AND major_sector = $%d`, argIdx)
		args = append(args, filter.Sector)
		argIdx++
	}
	if filter.Confidence != "" {
		query += fmt.Sprintf(` AND confidence = $%d`, argIdx)
		args = append(args, string(filter.Confidence))
		argIdx++
	}
	if filter.Method != "" {
		query += fmt.Sprintf(` AND method = $%d`, argIdx)
		args = append(args, string(filter.Method))
		argIdx++
	}
	if filter.FallbackOnly {
		query += ` AND fallback_used`
	}
	query += ` ORDER BY ticker`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var out []model.ClassificationResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		res, err := unmarshalResult(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func (s *PostgresStore) History(ctx context.Context, ticker string, limit int) ([]model.ClassificationResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM classification_history WHERE ticker = $1 ORDER BY archived_at DESC, created_at DESC LIMIT $2`,
		ticker, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: history %s", ticker)
	}
	defer rows.Close()

	var out []model.ClassificationResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan history")
		}
		res, err := unmarshalResult(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, eris.Wrap(rows.Err(), "postgres: history iterate")
}

// SavePriors bulk-upserts the exchange prior table via a temp-table COPY.
func (s *PostgresStore) SavePriors(ctx context.Context, priors map[string]model.IndustryPrior) error {
	if len(priors) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([][]any, 0, len(priors))
	for ticker, prior := range priors {
		rows = append(rows, []any{ticker, prior.Sector, prior.SubSector, now})
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "industry_priors",
		Columns:      []string{"ticker", "sector", "sub_sector", "updated_at"},
		ConflictKeys: []string{"ticker"},
	}, rows)
	return eris.Wrap(err, "postgres: save priors")
}

func (s *PostgresStore) GetPrior(ctx context.Context, ticker string) (*model.IndustryPrior, error) {
	var p model.IndustryPrior
	var subSector *string
	err := s.pool.QueryRow(ctx,
		`SELECT sector, sub_sector FROM industry_priors WHERE ticker = $1`,
		ticker,
	).Scan(&p.Sector, &subSector)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get prior %s", ticker)
	}
	if subSector != nil {
		p.SubSector = *subSector
	}
	return &p, nil
}

func (s *PostgresStore) ListPriors(ctx context.Context) (map[string]model.IndustryPrior, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ticker, sector, sub_sector FROM industry_priors`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list priors")
	}
	defer rows.Close()

	out := make(map[string]model.IndustryPrior)
	for rows.Next() {
		var ticker string
		var p model.IndustryPrior
		var subSector *string
		if err := rows.Scan(&ticker, &p.Sector, &subSector); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prior")
		}
		if subSector != nil {
			p.SubSector = *subSector
		}
		out[ticker] = p
	}
	return out, eris.Wrap(rows.Err(), "postgres: list priors iterate")
}
