package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DaviCMachado/Calendar-Agendator/internal/models"
)

// eventDuration is the fixed window length. The model is only asked
// for a start instant, never an end.
const eventDuration = time.Hour

var errMissingFields = errors.New("candidate is missing start_datetime or summary")

// validateCandidate checks that both required fields are present and
// non-null. Timestamp format is not checked here; that failure belongs
// to materialization and is isolated per event.
func validateCandidate(c models.CandidateEvent) error {
	if c.StartDateTime == nil || c.Summary == nil {
		return errMissingFields
	}
	return nil
}

// resolveWindow parses the start instant and derives the fixed
// one-hour window. The end instant keeps the start's UTC offset.
func resolveWindow(c models.CandidateEvent) (*models.ValidatedEvent, error) {
	start, err := time.Parse(time.RFC3339, *c.StartDateTime)
	if err != nil {
		return nil, fmt.Errorf("unparsable start_datetime %q: %w", *c.StartDateTime, err)
	}
	return &models.ValidatedEvent{
		Summary: *c.Summary,
		Start:   start,
		End:     start.Add(eventDuration),
	}, nil
}

// candidateString renders a candidate verbatim for warning logs.
func candidateString(c models.CandidateEvent) string {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", c)
	}
	return string(b)
}
