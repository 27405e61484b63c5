package postgres

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Himansh-u2000/QPlan/internal/database"
	"github.com/Himansh-u2000/QPlan/internal/model"
	"github.com/Himansh-u2000/QPlan/internal/store"
)

func setupTestStore(t *testing.T, ctx context.Context) (*Store, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is required for integration tests")
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	require.NoError(t, conn.Close(ctx))

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		conn, err := pgx.Connect(context.Background(), dsn)
		if err != nil {
			return
		}
		_, _ = conn.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		_ = conn.Close(context.Background())
	})

	require.NoError(t, database.Migrate(ctx, pool))
	return NewStore(pool), pool
}

func TestEventDateRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, _ := setupTestStore(t, ctx)

	date := time.Date(2026, 12, 1, 9, 15, 42, 0, time.FixedZone("IST", 5*3600+1800))
	created, err := st.CreateEvent(ctx, "Hackathon", "Forty-eight hours of building", date)
	require.NoError(t, err)

	events, err := st.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, created.ID, events[0].ID)
	assert.Equal(t, "Hackathon", events[0].Title)
	assert.Equal(t, date.Unix(), events[0].Date.Unix())
}

func TestMalformedResourceStatus(t *testing.T) {
	ctx := context.Background()
	st, pool := setupTestStore(t, ctx)

	_, err := pool.Exec(ctx, `INSERT INTO resources (id, name, location, status) VALUES ('r9', 'Rig', 'Lab', 'Reserved')`)
	require.NoError(t, err)

	_, err = st.ListResources(ctx)
	assert.ErrorIs(t, err, store.ErrMalformedRecord)
	_, err = st.GetResource(ctx, "r9")
	assert.ErrorIs(t, err, store.ErrMalformedRecord)
}

func TestApproveRequestRollsBackOnMissingResource(t *testing.T) {
	ctx := context.Background()
	st, _ := setupTestStore(t, ctx)

	req, err := st.CreateRequest(ctx, model.RequestDraft{ResourceID: "missing", ResourceName: "Ghost", UserID: "alex", UserName: "alex"})
	require.NoError(t, err)

	err = st.ApproveRequest(ctx, req.ID, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := st.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, got.Status)
	assert.Nil(t, got.DecidedAt)
}

func TestApproveScenario(t *testing.T) {
	ctx := context.Background()
	st, _ := setupTestStore(t, ctx)

	res, err := st.CreateResource(ctx, "Quantum Rig A-1", "Lab 3", model.ResourceAvailable)
	require.NoError(t, err)
	req, err := st.CreateRequest(ctx, model.RequestDraft{ResourceID: res.ID, ResourceName: res.Name, UserID: "alex", UserName: "alex"})
	require.NoError(t, err)

	_, err = st.CreateRequest(ctx, model.RequestDraft{ResourceID: res.ID, ResourceName: res.Name, UserID: "alex", UserName: "alex"})
	require.ErrorIs(t, err, store.ErrPendingExists)

	require.NoError(t, st.ApproveRequest(ctx, req.ID, res.ID))

	pending, err := st.ListPendingRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	got, err := st.GetResource(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResourceUnavailable, got.Status)

	assert.ErrorIs(t, st.DenyRequest(ctx, req.ID), store.ErrNotPending)
}

func TestConcurrentDecisionsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	st, _ := setupTestStore(t, ctx)

	res, err := st.CreateResource(ctx, "Bio-Sequencer Z-9", "BioLab 1", model.ResourceAvailable)
	require.NoError(t, err)
	req, err := st.CreateRequest(ctx, model.RequestDraft{ResourceID: res.ID, ResourceName: res.Name, UserID: "sara", UserName: "sara"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- st.ApproveRequest(ctx, req.ID, res.ID)
	}()
	go func() {
		defer wg.Done()
		errs <- st.DenyRequest(ctx, req.ID)
	}()
	wg.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, store.ErrNotPending):
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
}
