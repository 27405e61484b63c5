// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the store.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Himansh-u2000/QPlan/internal/model"
	"github.com/Himansh-u2000/QPlan/internal/store"
)

// demoResources is the starter inventory shown on a fresh dashboard.
var demoResources = []model.CreateResourceRequest{
	{Name: "Quantum Rig A-1", Location: "Lab 3", Status: model.ResourceAvailable},
	{Name: "Supercomputer Cygnus", Location: "Data Center", Status: model.ResourceUnavailable},
	{Name: "VR/AR Development Kit", Location: "Innovation Hub", Status: model.ResourceAvailable},
	{Name: "High-Res 3D Printer", Location: "Maker Space", Status: model.ResourceAvailable},
	{Name: "Bio-Sequencer Z-9", Location: "BioLab 1", Status: model.ResourceUnavailable},
}

// CatalogService manages events and resources.
type CatalogService struct {
	store store.Store
	log   logrus.FieldLogger
}

func NewCatalogService(st store.Store, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{store: st, log: log.WithField("component", "catalog")}
}

// CreateEvent validates the request and delegates to the store.
func (s *CatalogService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := checkStruct(req); err != nil {
		return model.Event{}, err
	}
	if req.Date.IsZero() {
		return model.Event{}, invalid("date is required")
	}

	event, err := s.store.CreateEvent(ctx, req.Title, req.Description, req.Date)
	if err != nil {
		return model.Event{}, fmt.Errorf("create event: %w", err)
	}
	s.log.WithField("event_id", event.ID).Info("event created")
	return event, nil
}

func (s *CatalogService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.store.ListEvents(ctx)
}

func (s *CatalogService) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return invalid("event id is required")
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.log.WithField("event_id", id).Info("event deleted")
	return nil
}

func (s *CatalogService) CreateResource(ctx context.Context, req model.CreateResourceRequest) (model.Resource, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	if err := checkStruct(req); err != nil {
		return model.Resource{}, err
	}

	res, err := s.store.CreateResource(ctx, req.Name, req.Location, req.Status)
	if err != nil {
		return model.Resource{}, fmt.Errorf("create resource: %w", err)
	}
	s.log.WithField("resource_id", res.ID).Info("resource created")
	return res, nil
}

func (s *CatalogService) ListResources(ctx context.Context) ([]model.Resource, error) {
	return s.store.ListResources(ctx)
}

// SetResourceStatus is the administrator's direct toggle. It does not look
// at pending requests.
func (s *CatalogService) SetResourceStatus(ctx context.Context, id string, status model.ResourceStatus) error {
	if id == "" {
		return invalid("resource id is required")
	}
	if err := checkStruct(model.SetStatusRequest{Status: status}); err != nil {
		return err
	}
	if err := s.store.SetResourceStatus(ctx, id, status); err != nil {
		return fmt.Errorf("set resource status: %w", err)
	}
	s.log.WithFields(logrus.Fields{"resource_id": id, "status": status}).Info("resource status set")
	return nil
}

// SeedDemoResources inserts the starter inventory when no resources exist.
// It returns how many were created.
func (s *CatalogService) SeedDemoResources(ctx context.Context) (int, error) {
	existing, err := s.store.ListResources(ctx)
	if err != nil {
		return 0, fmt.Errorf("list resources: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, r := range demoResources {
		if _, err := s.store.CreateResource(ctx, r.Name, r.Location, r.Status); err != nil {
			return i, fmt.Errorf("seed %q: %w", r.Name, err)
		}
	}
	return len(demoResources), nil
}
