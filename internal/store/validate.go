package store

import (
	"github.com/Himansh-u2000/QPlan/internal/model"
)

// CheckEvent validates an event decoded from a backend.
func CheckEvent(e model.Event) error {
	switch {
	case e.ID == "":
		return Malformed(CollectionEvents, e.ID, "missing id")
	case e.Title == "":
		return Malformed(CollectionEvents, e.ID, "missing title")
	case e.Date.IsZero():
		return Malformed(CollectionEvents, e.ID, "missing date")
	}
	return nil
}

// CheckResource validates a resource decoded from a backend.
func CheckResource(r model.Resource) error {
	switch {
	case r.ID == "":
		return Malformed(CollectionResources, r.ID, "missing id")
	case r.Name == "":
		return Malformed(CollectionResources, r.ID, "missing name")
	case !r.Status.Valid():
		return Malformed(CollectionResources, r.ID, "unknown status "+string(r.Status))
	}
	return nil
}

// CheckRequest validates a resource request decoded from a backend.
func CheckRequest(r model.ResourceRequest) error {
	switch {
	case r.ID == "":
		return Malformed(CollectionRequests, r.ID, "missing id")
	case r.ResourceID == "":
		return Malformed(CollectionRequests, r.ID, "missing resourceId")
	case r.UserID == "":
		return Malformed(CollectionRequests, r.ID, "missing userId")
	case !r.Status.Valid():
		return Malformed(CollectionRequests, r.ID, "unknown status "+string(r.Status))
	}
	return nil
}
