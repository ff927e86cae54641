package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sector-engine/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleResult(ticker, sector string) *model.ClassificationResult {
	return &model.ClassificationResult{
		ID:            uuid.NewString(),
		RunID:         "run-1",
		Ticker:        ticker,
		MajorSector:   sector,
		SectorL1:      sector,
		Confidence:    model.ConfidenceMedium,
		Method:        model.MethodEnsemble,
		EnsembleScore: 0.62,
		CardText:      "primary: Semiconductors",
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLite_SaveAndGetResult(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	res := sampleResult("005930", "SEC_SEMI")
	require.NoError(t, st.SaveResult(ctx, res))

	got, err := st.GetResult(ctx, "005930")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res.ID, got.ID)
	assert.Equal(t, "SEC_SEMI", got.MajorSector)
	assert.Equal(t, model.ConfidenceMedium, got.Confidence)
	assert.Equal(t, "primary: Semiconductors", got.CardText)
}

func TestSQLite_GetResult_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetResult(context.Background(), "000000")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_SaveResult_ArchivesPrevious(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := sampleResult("005930", "SEC_SEMI")
	require.NoError(t, st.SaveResult(ctx, first))

	second := sampleResult("005930", "SEC_IT")
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	require.NoError(t, st.SaveResult(ctx, second))

	// Current row is the replacement.
	got, err := st.GetResult(ctx, "005930")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, "SEC_IT", got.MajorSector)

	// Displaced row moved to history.
	hist, err := st.History(ctx, "005930", 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, first.ID, hist[0].ID)
	assert.Equal(t, "SEC_SEMI", hist[0].MajorSector)
}

func TestSQLite_History_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveResult(ctx, sampleResult("005930", "SEC_SEMI")))

	hist, err := st.History(ctx, "005930", 10)
	require.NoError(t, err)
	assert.Empty(t, hist, "first save has nothing to archive")
}

func TestSQLite_ListResults_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	semi := sampleResult("005930", "SEC_SEMI")
	require.NoError(t, st.SaveResult(ctx, semi))

	battery := sampleResult("373220", "SEC_BATTERY")
	battery.RunID = "run-2"
	battery.Confidence = model.ConfidenceVeryLow
	battery.Method = model.MethodFallback
	battery.FallbackUsed = true
	battery.FallbackType = model.FallbackPrior
	require.NoError(t, st.SaveResult(ctx, battery))

	t.Run("all", func(t *testing.T) {
		all, err := st.ListResults(ctx, ResultFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("by run", func(t *testing.T) {
		got, err := st.ListResults(ctx, ResultFilter{RunID: "run-2"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "373220", got[0].Ticker)
	})

	t.Run("by sector", func(t *testing.T) {
		got, err := st.ListResults(ctx, ResultFilter{Sector: "SEC_SEMI"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "005930", got[0].Ticker)
	})

	t.Run("fallback only", func(t *testing.T) {
		got, err := st.ListResults(ctx, ResultFilter{FallbackOnly: true})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, model.FallbackPrior, got[0].FallbackType)
	})

	t.Run("by confidence", func(t *testing.T) {
		got, err := st.ListResults(ctx, ResultFilter{Confidence: model.ConfidenceVeryLow})
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := st.ListResults(ctx, ResultFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestSQLite_Priors(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	err := st.SavePriors(ctx, map[string]model.IndustryPrior{
		"005930": {Sector: "SEC_SEMI", SubSector: "MEMORY"},
		"373220": {Sector: "SEC_BATTERY"},
	})
	require.NoError(t, err)

	p, err := st.GetPrior(ctx, "005930")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "SEC_SEMI", p.Sector)
	assert.Equal(t, "MEMORY", p.SubSector)

	missing, err := st.GetPrior(ctx, "000000")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := st.ListPriors(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Upsert replaces.
	err = st.SavePriors(ctx, map[string]model.IndustryPrior{
		"005930": {Sector: "SEC_IT"},
	})
	require.NoError(t, err)
	p, err = st.GetPrior(ctx, "005930")
	require.NoError(t, err)
	assert.Equal(t, "SEC_IT", p.Sector)
	assert.Empty(t, p.SubSector)
}
