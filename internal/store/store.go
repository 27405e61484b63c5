// Package store defines the persistence contract for events, resources and
// resource requests. Backends live in the postgres, mongo and memory
// subpackages.
package store

import (
	"context"
	"time"

	"github.com/Himansh-u2000/QPlan/internal/model"
)

// Collection names shared by every backend.
const (
	CollectionEvents    = "events"
	CollectionResources = "resources"
	CollectionRequests  = "resourceRequests"
)

// Store is the entity store adapter. Implementations convert between their
// native record format and model values, validate records on the way out and
// never retry failed calls.
type Store interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	CreateEvent(ctx context.Context, title, description string, date time.Time) (model.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	ListResources(ctx context.Context) ([]model.Resource, error)
	GetResource(ctx context.Context, id string) (model.Resource, error)
	CreateResource(ctx context.Context, name, location string, status model.ResourceStatus) (model.Resource, error)
	SetResourceStatus(ctx context.Context, id string, status model.ResourceStatus) error

	ListPendingRequests(ctx context.Context) ([]model.ResourceRequest, error)
	ListRequestsByUser(ctx context.Context, userID string) ([]model.ResourceRequest, error)
	GetRequest(ctx context.Context, id string) (model.ResourceRequest, error)
	HasPendingRequest(ctx context.Context, userID, resourceID string) (bool, error)
	CreateRequest(ctx context.Context, draft model.RequestDraft) (model.ResourceRequest, error)
	DeleteRequest(ctx context.Context, id string) error

	// DenyRequest moves a pending request to denied. Returns ErrNotPending
	// if the request has already been decided.
	DenyRequest(ctx context.Context, requestID string) error

	// ApproveRequest moves a pending request to approved and marks the
	// resource Unavailable as a single all-or-nothing write.
	ApproveRequest(ctx context.Context, requestID, resourceID string) error

	Close(ctx context.Context) error
}
