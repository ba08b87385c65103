package google

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/DaviCMachado/Calendar-Agendator/internal/models"
)

// CalendarClient submits extracted events to one Google Calendar using
// service-account credentials.
type CalendarClient struct {
	service    *calendar.Service
	logger     *slog.Logger
	calendarID string
	location   string
	timeZone   string
}

// NewClient creates a Google Calendar client. credentialsFile is the
// path to a service-account JSON key with calendar scope; the target
// calendar must be shared with the service account.
func NewClient(ctx context.Context, logger *slog.Logger, credentialsFile, calendarID, location, timeZone string) (*CalendarClient, error) {
	if calendarID == "" {
		return nil, fmt.Errorf("no calendar ID configured")
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file %s: %w", credentialsFile, err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(data, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{
		service:    service,
		logger:     logger,
		calendarID: calendarID,
		location:   location,
		timeZone:   timeZone,
	}, nil
}

// Name identifies this sink in pipeline logs.
func (c *CalendarClient) Name() string { return "google-calendar" }

// CreateEvent inserts the event into the configured calendar and
// returns its shareable link. The description mirrors the summary; the
// model is never asked for one.
func (c *CalendarClient) CreateEvent(ctx context.Context, event *models.ValidatedEvent) (string, error) {
	c.logger.Debug("Creating event in Google Calendar.", "summary", event.Summary)

	body := &calendar.Event{
		Summary:     event.Summary,
		Description: event.Summary,
		Location:    c.location,
		Start: &calendar.EventDateTime{
			DateTime: event.Start.Format(time.RFC3339),
			TimeZone: c.timeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.End.Format(time.RFC3339),
			TimeZone: c.timeZone,
		},
	}

	created, err := c.service.Events.Insert(c.calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert event: %w", err)
	}
	return created.HtmlLink, nil
}
