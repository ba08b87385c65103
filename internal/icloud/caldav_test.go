package icloud

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/emersion/go-ical"

	"github.com/DaviCMachado/Calendar-Agendator/internal/models"
)

func TestToICal(t *testing.T) {
	c := &CalDAVClient{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		location: "Remoto",
		timeZone: time.UTC,
	}

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.FixedZone("", -3*60*60))
	event := &models.ValidatedEvent{
		Summary: "Reunião de planejamento",
		Start:   start,
		End:     start.Add(time.Hour),
	}

	ve := c.toICal(event, "uid-123")

	if ve.Name != ical.CompEvent {
		t.Fatalf("component = %q, want VEVENT", ve.Name)
	}

	summary, err := ve.Props.Text(ical.PropSummary)
	if err != nil || summary != event.Summary {
		t.Errorf("summary = %q (err %v), want %q", summary, err, event.Summary)
	}

	uid, err := ve.Props.Text(ical.PropUID)
	if err != nil || uid != "uid-123" {
		t.Errorf("uid = %q (err %v), want uid-123", uid, err)
	}

	dtstart, err := ve.Props.DateTime(ical.PropDateTimeStart, nil)
	if err != nil {
		t.Fatalf("dtstart: %v", err)
	}
	if !dtstart.Equal(start) {
		t.Errorf("dtstart = %v, want %v", dtstart, start)
	}

	dtend, err := ve.Props.DateTime(ical.PropDateTimeEnd, nil)
	if err != nil {
		t.Fatalf("dtend: %v", err)
	}
	if !dtend.Equal(start.Add(time.Hour)) {
		t.Errorf("dtend = %v, want %v", dtend, start.Add(time.Hour))
	}

	location, err := ve.Props.Text(ical.PropLocation)
	if err != nil || location != "Remoto" {
		t.Errorf("location = %q (err %v), want Remoto", location, err)
	}
}
