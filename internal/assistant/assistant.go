// Package assistant answers free-form questions about events and resources
// by handing a question plus a text rendering of the current data to a
// language-model answer service.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Himansh-u2000/QPlan/internal/model"
)

// FallbackAnswer is returned whenever the answer service fails.
const FallbackAnswer = "Sorry, I encountered an error. Please try again."

// dateLayout renders event dates as "Tue Nov 03 2026".
const dateLayout = "Mon Jan 02 2006"

var ErrAssistantUnavailable = errors.New("assistant unavailable")

// Query is the single templated request sent to the answer service.
type Query struct {
	Question       string `json:"question"`
	EventDetails   string `json:"eventDetails"`
	ResourceStatus string `json:"resourceStatus"`
}

// AnswerService turns a Query into prose.
type AnswerService interface {
	Answer(ctx context.Context, q Query) (string, error)
}

// Assistant is stateless: every call stands alone and any conversation
// history must be folded into the question by the caller.
type Assistant struct {
	svc AnswerService
	log logrus.FieldLogger
}

func New(svc AnswerService, log logrus.FieldLogger) *Assistant {
	return &Assistant{svc: svc, log: log.WithField("component", "assistant")}
}

// Answer returns the service's answer unmodified, or FallbackAnswer if the
// service fails for any reason. The failure is only logged.
func (a *Assistant) Answer(ctx context.Context, question string, events []model.Event, resources []model.Resource) string {
	q := Query{
		Question:       question,
		EventDetails:   EventDetails(events),
		ResourceStatus: ResourceStatus(resources),
	}

	answer, err := a.svc.Answer(ctx, q)
	if err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"events":    len(events),
			"resources": len(resources),
		}).Warn("answer service failed, returning fallback")
		return FallbackAnswer
	}
	return answer
}

// EventDetails renders one line per event.
func EventDetails(events []model.Event) string {
	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, fmt.Sprintf("- Event: %s, Date: %s, Description: %s",
			e.Title, e.Date.Format(dateLayout), e.Description))
	}
	return strings.Join(lines, "\n")
}

// ResourceStatus renders one line per resource.
func ResourceStatus(resources []model.Resource) string {
	lines := make([]string, 0, len(resources))
	for _, r := range resources {
		lines = append(lines, fmt.Sprintf("- Resource: %s, Status: %s, Location: %s",
			r.Name, r.Status, r.Location))
	}
	return strings.Join(lines, "\n")
}

// Unconfigured is the answer service used when no model credentials are
// set. Every call fails, so callers always get the fallback.
type Unconfigured struct{}

func (Unconfigured) Answer(context.Context, Query) (string, error) {
	return "", fmt.Errorf("%w: no model configured", ErrAssistantUnavailable)
}
