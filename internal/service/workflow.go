package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Himansh-u2000/QPlan/internal/model"
	"github.com/Himansh-u2000/QPlan/internal/store"
)

// RequestWorkflow owns the resource request lifecycle:
// submit → pending → approved | denied.
type RequestWorkflow struct {
	store store.Store
	log   logrus.FieldLogger
}

func NewRequestWorkflow(st store.Store, log logrus.FieldLogger) *RequestWorkflow {
	return &RequestWorkflow{store: st, log: log.WithField("component", "request_workflow")}
}

// Submit files a pending request for resourceID on behalf of requester.
// The resource and requester names are copied onto the request as they are
// now; later renames do not touch it.
func (w *RequestWorkflow) Submit(ctx context.Context, resourceID string, requester model.Identity) (model.ResourceRequest, error) {
	requester.ID = strings.TrimSpace(requester.ID)
	if requester.ID == "" {
		return model.ResourceRequest{}, invalid("requester id is required")
	}
	if resourceID == "" {
		return model.ResourceRequest{}, invalid("resource id is required")
	}
	if strings.TrimSpace(requester.Name) == "" {
		requester.Name = requester.ID
	}

	res, err := w.store.GetResource(ctx, resourceID)
	if err != nil {
		return model.ResourceRequest{}, fmt.Errorf("load resource: %w", err)
	}
	if !res.Available() {
		return model.ResourceRequest{}, ErrResourceUnavailable
	}

	exists, err := w.store.HasPendingRequest(ctx, requester.ID, res.ID)
	if err != nil {
		return model.ResourceRequest{}, fmt.Errorf("check pending request: %w", err)
	}
	if exists {
		return model.ResourceRequest{}, ErrDuplicateRequest
	}

	req, err := w.store.CreateRequest(ctx, model.RequestDraft{
		ResourceID:   res.ID,
		ResourceName: res.Name,
		UserID:       requester.ID,
		UserName:     requester.Name,
	})
	if err != nil {
		// Lost a race with a concurrent submit between the check and the insert.
		if errors.Is(err, store.ErrPendingExists) {
			return model.ResourceRequest{}, ErrDuplicateRequest
		}
		return model.ResourceRequest{}, fmt.Errorf("create request: %w", err)
	}

	w.log.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"resource_id": res.ID,
		"user_id":     requester.ID,
	}).Info("resource request submitted")
	return req, nil
}

// Approve marks the request approved and the resource Unavailable in one
// atomic store write.
func (w *RequestWorkflow) Approve(ctx context.Context, requestID string) (model.ResourceRequest, error) {
	req, err := w.load(ctx, requestID, actionApprove)
	if err != nil {
		return model.ResourceRequest{}, err
	}

	if err := w.store.ApproveRequest(ctx, req.ID, req.ResourceID); err != nil {
		if errors.Is(err, store.ErrNotPending) {
			return model.ResourceRequest{}, ErrInvalidTransition
		}
		return model.ResourceRequest{}, fmt.Errorf("approve request: %w", err)
	}

	req.Status, _ = TargetStatus(actionApprove)
	w.log.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"resource_id": req.ResourceID,
	}).Info("resource request approved")
	return req, nil
}

// Deny marks the request denied. The resource is left as it is.
func (w *RequestWorkflow) Deny(ctx context.Context, requestID string) (model.ResourceRequest, error) {
	req, err := w.load(ctx, requestID, actionDeny)
	if err != nil {
		return model.ResourceRequest{}, err
	}

	if err := w.store.DenyRequest(ctx, req.ID); err != nil {
		if errors.Is(err, store.ErrNotPending) {
			return model.ResourceRequest{}, ErrInvalidTransition
		}
		return model.ResourceRequest{}, fmt.Errorf("deny request: %w", err)
	}

	req.Status, _ = TargetStatus(actionDeny)
	w.log.WithField("request_id", req.ID).Info("resource request denied")
	return req, nil
}

func (w *RequestWorkflow) load(ctx context.Context, requestID, action string) (model.ResourceRequest, error) {
	if requestID == "" {
		return model.ResourceRequest{}, invalid("request id is required")
	}
	req, err := w.store.GetRequest(ctx, requestID)
	if err != nil {
		return model.ResourceRequest{}, fmt.Errorf("load request: %w", err)
	}
	if !ValidTransition(action, req.Status) {
		return model.ResourceRequest{}, ErrInvalidTransition
	}
	return req, nil
}

// Pending lists requests awaiting a decision, oldest first.
func (w *RequestWorkflow) Pending(ctx context.Context) ([]model.ResourceRequest, error) {
	return w.store.ListPendingRequests(ctx)
}

// History lists every request the user has made, in any state.
func (w *RequestWorkflow) History(ctx context.Context, user model.Identity) ([]model.ResourceRequest, error) {
	if user.ID == "" {
		return nil, invalid("user id is required")
	}
	return w.store.ListRequestsByUser(ctx, user.ID)
}

// Delete removes a request outright regardless of its state.
func (w *RequestWorkflow) Delete(ctx context.Context, requestID string) error {
	if requestID == "" {
		return invalid("request id is required")
	}
	if err := w.store.DeleteRequest(ctx, requestID); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return nil
}
