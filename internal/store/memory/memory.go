// Package memory is an in-process implementation of store.Store. It backs the
// "memory" backend for demos and is the fake used by unit tests; faults can
// be injected per operation.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Himansh-u2000/QPlan/internal/model"
	"github.com/Himansh-u2000/QPlan/internal/store"
)

// Operation names accepted by FailNext.
const (
	OpListEvents          = "list events"
	OpCreateEvent         = "create event"
	OpDeleteEvent         = "delete event"
	OpListResources       = "list resources"
	OpGetResource         = "get resource"
	OpCreateResource      = "create resource"
	OpSetResourceStatus   = "set resource status"
	OpListPending         = "list pending requests"
	OpListByUser          = "list user requests"
	OpGetRequest          = "get request"
	OpHasPending          = "check pending request"
	OpCreateRequest       = "create request"
	OpDeleteRequest       = "delete request"
	OpDenyRequest         = "deny request"
	OpApproveRequestWrite = "approve: update request"
	OpApproveResource     = "approve: update resource"
)

type state struct {
	events    map[string]model.Event
	resources map[string]model.Resource
	requests  map[string]model.ResourceRequest
}

func (s state) clone() state {
	return state{
		events:    maps.Clone(s.events),
		resources: maps.Clone(s.resources),
		requests:  maps.Clone(s.requests),
	}
}

// Store keeps all collections in maps guarded by a single mutex.
type Store struct {
	mu     sync.Mutex
	state  state
	faults map[string]error
	now    func() time.Time
	last   time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		state: state{
			events:    make(map[string]model.Event),
			resources: make(map[string]model.Resource),
			requests:  make(map[string]model.ResourceRequest),
		},
		faults: make(map[string]error),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// FailNext makes the next call reaching op fail with a store-unavailable
// error wrapping err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// PutResource inserts or replaces a resource verbatim, id included.
func (s *Store) PutResource(r model.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.resources[r.ID] = r
}

// PutRequest inserts or replaces a request verbatim, id included.
func (s *Store) PutRequest(r model.ResourceRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.requests[r.ID] = r
}

// tick returns a strictly increasing timestamp so that creation order is
// stable. Must be called with mu held.
func (s *Store) tick() time.Time {
	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

// fault must be called with mu held.
func (s *Store) fault(op string) error {
	err, ok := s.faults[op]
	if !ok {
		return nil
	}
	delete(s.faults, op)
	return store.Unavailable(op, err)
}

func (s *Store) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpListEvents); err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(s.state.events))
	for _, e := range s.state.events {
		if err := store.CheckEvent(e); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].ID < events[j].ID
		}
		return events[i].Date.Before(events[j].Date)
	})
	return events, nil
}

func (s *Store) CreateEvent(_ context.Context, title, description string, date time.Time) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpCreateEvent); err != nil {
		return model.Event{}, err
	}

	e := model.Event{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Date:        date.UTC(),
	}
	s.state.events[e.ID] = e
	return e, nil
}

func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpDeleteEvent); err != nil {
		return err
	}
	if _, ok := s.state.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.state.events, id)
	return nil
}

func (s *Store) ListResources(_ context.Context) ([]model.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpListResources); err != nil {
		return nil, err
	}

	resources := make([]model.Resource, 0, len(s.state.resources))
	for _, r := range s.state.resources {
		if err := store.CheckResource(r); err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	sort.Slice(resources, func(i, j int) bool {
		if resources[i].Name == resources[j].Name {
			return resources[i].ID < resources[j].ID
		}
		return resources[i].Name < resources[j].Name
	})
	return resources, nil
}

func (s *Store) GetResource(_ context.Context, id string) (model.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpGetResource); err != nil {
		return model.Resource{}, err
	}
	r, ok := s.state.resources[id]
	if !ok {
		return model.Resource{}, store.ErrNotFound
	}
	if err := store.CheckResource(r); err != nil {
		return model.Resource{}, err
	}
	return r, nil
}

func (s *Store) CreateResource(_ context.Context, name, location string, status model.ResourceStatus) (model.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpCreateResource); err != nil {
		return model.Resource{}, err
	}

	r := model.Resource{
		ID:       uuid.NewString(),
		Name:     name,
		Location: location,
		Status:   status,
	}
	s.state.resources[r.ID] = r
	return r, nil
}

func (s *Store) SetResourceStatus(_ context.Context, id string, status model.ResourceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpSetResourceStatus); err != nil {
		return err
	}
	r, ok := s.state.resources[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Status = status
	s.state.resources[id] = r
	return nil
}

func (s *Store) ListPendingRequests(_ context.Context) ([]model.ResourceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpListPending); err != nil {
		return nil, err
	}
	return s.filterRequests(func(r model.ResourceRequest) bool {
		return r.Status == model.RequestPending
	})
}

func (s *Store) ListRequestsByUser(_ context.Context, userID string) ([]model.ResourceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpListByUser); err != nil {
		return nil, err
	}
	return s.filterRequests(func(r model.ResourceRequest) bool {
		return r.UserID == userID
	})
}

// filterRequests must be called with mu held. Results are ordered oldest
// first.
func (s *Store) filterRequests(keep func(model.ResourceRequest) bool) ([]model.ResourceRequest, error) {
	out := make([]model.ResourceRequest, 0)
	for _, r := range s.state.requests {
		if err := store.CheckRequest(r); err != nil {
			return nil, err
		}
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetRequest(_ context.Context, id string) (model.ResourceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpGetRequest); err != nil {
		return model.ResourceRequest{}, err
	}
	r, ok := s.state.requests[id]
	if !ok {
		return model.ResourceRequest{}, store.ErrNotFound
	}
	if err := store.CheckRequest(r); err != nil {
		return model.ResourceRequest{}, err
	}
	return r, nil
}

func (s *Store) HasPendingRequest(_ context.Context, userID, resourceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpHasPending); err != nil {
		return false, err
	}
	return s.hasPending(userID, resourceID), nil
}

func (s *Store) hasPending(userID, resourceID string) bool {
	for _, r := range s.state.requests {
		if r.UserID == userID && r.ResourceID == resourceID && r.Status == model.RequestPending {
			return true
		}
	}
	return false
}

func (s *Store) CreateRequest(_ context.Context, draft model.RequestDraft) (model.ResourceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpCreateRequest); err != nil {
		return model.ResourceRequest{}, err
	}
	if s.hasPending(draft.UserID, draft.ResourceID) {
		return model.ResourceRequest{}, store.ErrPendingExists
	}

	r := model.ResourceRequest{
		ID:           uuid.NewString(),
		ResourceID:   draft.ResourceID,
		ResourceName: draft.ResourceName,
		UserID:       draft.UserID,
		UserName:     draft.UserName,
		Status:       model.RequestPending,
		CreatedAt:    s.tick(),
	}
	s.state.requests[r.ID] = r
	return r, nil
}

func (s *Store) DeleteRequest(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpDeleteRequest); err != nil {
		return err
	}
	if _, ok := s.state.requests[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.state.requests, id)
	return nil
}

func (s *Store) DenyRequest(_ context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpDenyRequest); err != nil {
		return err
	}
	return decide(s.state, requestID, model.RequestDenied, s.tick())
}

// ApproveRequest applies both writes to a copy of the state and swaps it in
// only after every step succeeded.
func (s *Store) ApproveRequest(_ context.Context, requestID, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()

	if err := s.fault(OpApproveRequestWrite); err != nil {
		return err
	}
	if err := decide(staged, requestID, model.RequestApproved, s.tick()); err != nil {
		return err
	}

	if err := s.fault(OpApproveResource); err != nil {
		return err
	}
	res, ok := staged.resources[resourceID]
	if !ok {
		return store.ErrNotFound
	}
	res.Status = model.ResourceUnavailable
	staged.resources[resourceID] = res

	s.state = staged
	return nil
}

func decide(st state, requestID string, to model.RequestStatus, at time.Time) error {
	r, ok := st.requests[requestID]
	if !ok {
		return store.ErrNotFound
	}
	if r.Status != model.RequestPending {
		return store.ErrNotPending
	}
	r.Status = to
	r.DecidedAt = &at
	st.requests[requestID] = r
	return nil
}

func (s *Store) Close(context.Context) error { return nil }
