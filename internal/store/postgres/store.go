// Package postgres implements store.Store on PostgreSQL using pgx directly
// (no ORM).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Himansh-u2000/QPlan/internal/model"
	"github.com/Himansh-u2000/QPlan/internal/store"
)

const uniqueViolation = "23505"

// Store handles persistence for events, resources and resource requests.
type Store struct {
	db  *pgxpool.Pool
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// NewStore constructs a Store on an open pool. The schema is expected to be
// in place (see database.Migrate).
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// classify maps driver errors onto the store error set.
func classify(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrPendingExists
	}
	return store.Unavailable(op, err)
}

// ─── Events ──────────────────────────────────────────────────────────────────

// ListEvents returns all events ordered by date ascending.
func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, description, date
		 FROM events
		 ORDER BY date ASC, id ASC`,
	)
	if err != nil {
		return nil, classify("list events", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date); err != nil {
			return nil, store.Malformed(store.CollectionEvents, e.ID, fmt.Sprintf("scan: %v", err))
		}
		e.Date = e.Date.UTC()
		if err := store.CheckEvent(e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list events", err)
	}
	return events, nil
}

// CreateEvent inserts a new event with a generated UUID.
func (s *Store) CreateEvent(ctx context.Context, title, description string, date time.Time) (model.Event, error) {
	e := model.Event{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Date:        date.UTC(),
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (id, title, description, date)
		 VALUES ($1, $2, $3, $4)`,
		e.ID, e.Title, e.Description, e.Date,
	)
	if err != nil {
		return model.Event{}, classify("insert event", err)
	}
	return e, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return classify("delete event", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ─── Resources ───────────────────────────────────────────────────────────────

func scanResource(row pgx.Row) (model.Resource, error) {
	var (
		r      model.Resource
		status string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Location, &status); err != nil {
		return model.Resource{}, err
	}
	r.Status = model.ResourceStatus(status)
	return r, store.CheckResource(r)
}

// ListResources returns all resources ordered by name.
func (s *Store) ListResources(ctx context.Context) ([]model.Resource, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, location, status
		 FROM resources
		 ORDER BY name ASC, id ASC`,
	)
	if err != nil {
		return nil, classify("list resources", err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			if errors.Is(err, store.ErrMalformedRecord) {
				return nil, err
			}
			return nil, classify("scan resource", err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list resources", err)
	}
	return resources, nil
}

// GetResource returns a single resource or store.ErrNotFound.
func (s *Store) GetResource(ctx context.Context, id string) (model.Resource, error) {
	r, err := scanResource(s.db.QueryRow(ctx,
		`SELECT id, name, location, status FROM resources WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, store.ErrMalformedRecord) {
			return model.Resource{}, err
		}
		return model.Resource{}, classify("get resource", err)
	}
	return r, nil
}

func (s *Store) CreateResource(ctx context.Context, name, location string, status model.ResourceStatus) (model.Resource, error) {
	r := model.Resource{
		ID:       uuid.NewString(),
		Name:     name,
		Location: location,
		Status:   status,
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO resources (id, name, location, status)
		 VALUES ($1, $2, $3, $4)`,
		r.ID, r.Name, r.Location, string(r.Status),
	)
	if err != nil {
		return model.Resource{}, classify("insert resource", err)
	}
	return r, nil
}

func (s *Store) SetResourceStatus(ctx context.Context, id string, status model.ResourceStatus) error {
	tag, err := s.db.Exec(ctx, `UPDATE resources SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return classify("update resource status", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ─── Resource requests ───────────────────────────────────────────────────────

const requestColumns = `id, resource_id, resource_name, user_id, user_name, status, created_at, decided_at`

func scanRequest(row pgx.Row) (model.ResourceRequest, error) {
	var (
		r         model.ResourceRequest
		status    string
		decidedAt *time.Time
	)
	if err := row.Scan(&r.ID, &r.ResourceID, &r.ResourceName, &r.UserID, &r.UserName, &status, &r.CreatedAt, &decidedAt); err != nil {
		return model.ResourceRequest{}, err
	}
	r.Status = model.RequestStatus(status)
	r.CreatedAt = r.CreatedAt.UTC()
	if decidedAt != nil {
		t := decidedAt.UTC()
		r.DecidedAt = &t
	}
	return r, store.CheckRequest(r)
}

func (s *Store) queryRequests(ctx context.Context, op, sql string, args ...any) ([]model.ResourceRequest, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []model.ResourceRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			if errors.Is(err, store.ErrMalformedRecord) {
				return nil, err
			}
			return nil, classify(op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// ListPendingRequests filters on status in SQL rather than in memory.
func (s *Store) ListPendingRequests(ctx context.Context) ([]model.ResourceRequest, error) {
	return s.queryRequests(ctx, "list pending requests",
		`SELECT `+requestColumns+`
		 FROM resource_requests
		 WHERE status = $1
		 ORDER BY created_at ASC, id ASC`,
		string(model.RequestPending),
	)
}

func (s *Store) ListRequestsByUser(ctx context.Context, userID string) ([]model.ResourceRequest, error) {
	return s.queryRequests(ctx, "list user requests",
		`SELECT `+requestColumns+`
		 FROM resource_requests
		 WHERE user_id = $1
		 ORDER BY created_at ASC, id ASC`,
		userID,
	)
}

func (s *Store) GetRequest(ctx context.Context, id string) (model.ResourceRequest, error) {
	r, err := scanRequest(s.db.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM resource_requests WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, store.ErrMalformedRecord) {
			return model.ResourceRequest{}, err
		}
		return model.ResourceRequest{}, classify("get request", err)
	}
	return r, nil
}

func (s *Store) HasPendingRequest(ctx context.Context, userID, resourceID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM resource_requests
		   WHERE user_id = $1 AND resource_id = $2 AND status = $3
		 )`,
		userID, resourceID, string(model.RequestPending),
	).Scan(&exists)
	if err != nil {
		return false, classify("check pending request", err)
	}
	return exists, nil
}

// CreateRequest inserts a pending request. The partial unique index on
// (user_id, resource_id) WHERE status = 'pending' turns a concurrent second
// submission into store.ErrPendingExists.
func (s *Store) CreateRequest(ctx context.Context, draft model.RequestDraft) (model.ResourceRequest, error) {
	r := model.ResourceRequest{
		ID:           uuid.NewString(),
		ResourceID:   draft.ResourceID,
		ResourceName: draft.ResourceName,
		UserID:       draft.UserID,
		UserName:     draft.UserName,
		Status:       model.RequestPending,
		CreatedAt:    s.now(),
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO resource_requests (id, resource_id, resource_name, user_id, user_name, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.ResourceID, r.ResourceName, r.UserID, r.UserName, string(r.Status), r.CreatedAt,
	)
	if err != nil {
		return model.ResourceRequest{}, classify("insert request", err)
	}
	return r, nil
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM resource_requests WHERE id = $1`, id)
	if err != nil {
		return classify("delete request", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DenyRequest(ctx context.Context, requestID string) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return classify("deny: begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = decide(ctx, tx, requestID, model.RequestDenied, s.now()); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return classify("deny: commit", err)
	}
	return nil
}

// ApproveRequest flips the request and the resource inside one transaction.
//
// Both rows are written before COMMIT; if the resource update fails (or the
// resource is missing) the transaction is rolled back and the request stays
// pending. A concurrent approve/deny of the same request blocks on the row
// lock taken by SELECT … FOR UPDATE and then observes the terminal status.
func (s *Store) ApproveRequest(ctx context.Context, requestID, resourceID string) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return classify("approve: begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = decide(ctx, tx, requestID, model.RequestApproved, s.now()); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE resources SET status = $2 WHERE id = $1`,
		resourceID, string(model.ResourceUnavailable),
	)
	if err != nil {
		return classify("approve: update resource", err)
	}
	if tag.RowsAffected() == 0 {
		err = store.ErrNotFound
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return classify("approve: commit", err)
	}
	return nil
}

// decide locks a request row and moves it from pending to the given
// terminal status.
func decide(ctx context.Context, tx pgx.Tx, requestID string, to model.RequestStatus, at time.Time) error {
	var status string
	err := tx.QueryRow(ctx,
		`SELECT status FROM resource_requests WHERE id = $1 FOR UPDATE`,
		requestID,
	).Scan(&status)
	if err != nil {
		return classify("lock request row", err)
	}
	if model.RequestStatus(status) != model.RequestPending {
		return store.ErrNotPending
	}

	_, err = tx.Exec(ctx,
		`UPDATE resource_requests SET status = $2, decided_at = $3 WHERE id = $1`,
		requestID, string(to), at,
	)
	if err != nil {
		return classify("update request status", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close(context.Context) error {
	s.db.Close()
	return nil
}
