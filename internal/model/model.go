// Package model defines the core domain types for the booking dashboard.
package model

import "time"

// ResourceStatus is the availability of a bookable resource.
type ResourceStatus string

const (
	ResourceAvailable   ResourceStatus = "Available"
	ResourceUnavailable ResourceStatus = "Unavailable"
)

// Valid reports whether s is one of the two known statuses.
func (s ResourceStatus) Valid() bool {
	return s == ResourceAvailable || s == ResourceUnavailable
}

// RequestStatus is the lifecycle state of a resource request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDenied   RequestStatus = "denied"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestDenied:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestDenied
}

// Event is a scheduled event created by an administrator.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// Resource is a bookable item such as a lab rig or a room.
type Resource struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Location string         `json:"location"`
	Status   ResourceStatus `json:"status"`
}

// Available returns true when the resource can be requested.
func (r *Resource) Available() bool {
	return r.Status == ResourceAvailable
}

// ResourceRequest is a user's claim on a resource awaiting an admin decision.
// ResourceName and UserName are copies taken at submission time and are not
// updated when the resource or user is later renamed.
type ResourceRequest struct {
	ID           string        `json:"id"`
	ResourceID   string        `json:"resourceId"`
	ResourceName string        `json:"resourceName"`
	UserID       string        `json:"userId"`
	UserName     string        `json:"userName"`
	Status       RequestStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	DecidedAt    *time.Time    `json:"decidedAt,omitempty"`
}

// RequestDraft carries the fields of a request before it is persisted.
type RequestDraft struct {
	ResourceID   string
	ResourceName string
	UserID       string
	UserName     string
}

// Identity is the authenticated caller as reported by the identity provider.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"min=2"`
	Description string    `json:"description" validate:"min=10"`
	Date        time.Time `json:"date"`
}

// CreateResourceRequest is the payload for creating a new resource.
type CreateResourceRequest struct {
	Name     string         `json:"name" validate:"min=2"`
	Location string         `json:"location" validate:"min=2"`
	Status   ResourceStatus `json:"status" validate:"oneof=Available Unavailable"`
}

// SetStatusRequest is the payload for toggling a resource's status.
type SetStatusRequest struct {
	Status ResourceStatus `json:"status" validate:"oneof=Available Unavailable"`
}

// AskRequest is the payload sent to the assistant endpoint.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries the assistant's answer.
type AskResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
