// Package pipeline sequences the extraction stages: fetch → prompt →
// inference → validation → materialization.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DaviCMachado/Calendar-Agendator/internal/models"
	"github.com/DaviCMachado/Calendar-Agendator/internal/prompt"
)

// Mailbox yields the unread messages to process in one cycle.
type Mailbox interface {
	FetchUnread(ctx context.Context) ([]models.NormalizedEmail, error)
}

// Extractor turns a rendered prompt into candidate events. It never
// fails: extraction problems degrade to an empty result.
type Extractor interface {
	ExtractEvents(ctx context.Context, promptText string) []models.CandidateEvent
}

// Sink materializes a validated event on a calendar backend and
// returns a link or path to the created entry.
type Sink interface {
	Name() string
	CreateEvent(ctx context.Context, event *models.ValidatedEvent) (string, error)
}

// Pipeline orchestrates one extraction pass per cycle. A failure in
// one e-mail or one event never aborts its siblings; only a mailbox
// failure ends the cycle early, to be retried on the next one.
type Pipeline struct {
	logger    *slog.Logger
	mailbox   Mailbox
	extractor Extractor
	sinks     []Sink
	dryRun    bool
	now       func() time.Time
}

// New creates a Pipeline.
func New(logger *slog.Logger, mailbox Mailbox, extractor Extractor, sinks []Sink, dryRun bool) *Pipeline {
	return &Pipeline{
		logger:    logger,
		mailbox:   mailbox,
		extractor: extractor,
		sinks:     sinks,
		dryRun:    dryRun,
		now:       time.Now,
	}
}

// RunCycle performs one full pass over the currently unseen messages.
func (p *Pipeline) RunCycle(ctx context.Context) error {
	log := p.logger.With("cycle", uuid.New().String()[:8])
	log.Info("Starting pipeline cycle.")

	emails, err := p.mailbox.FetchUnread(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch e-mails: %w", err)
	}
	if len(emails) == 0 {
		log.Info("Pipeline cycle finished, nothing to process.")
		return nil
	}

	for _, email := range emails {
		p.processEmail(ctx, log, email)
	}

	log.Info("Pipeline cycle finished.", "emails", len(emails))
	return nil
}

// processEmail runs the extraction stages for a single message.
func (p *Pipeline) processEmail(ctx context.Context, log *slog.Logger, email models.NormalizedEmail) {
	log.Info("Sending e-mail for extraction.", "subject", email.Subject)

	promptText := prompt.Build(email, p.now())
	candidates := p.extractor.ExtractEvents(ctx, promptText)
	if len(candidates) == 0 {
		log.Info("No schedulable events found in e-mail.", "subject", email.Subject)
		return
	}

	for _, candidate := range candidates {
		if err := validateCandidate(candidate); err != nil {
			log.Warn("Malformed event received from the model.",
				"candidate", candidateString(candidate), "error", err)
			continue
		}
		event, err := resolveWindow(candidate)
		if err != nil {
			log.Error("Could not materialize event.", "error", err)
			continue
		}
		p.materialize(ctx, log, event)
	}
}

// materialize submits one validated event to every configured sink.
// Sink failures are isolated per event and per sink.
func (p *Pipeline) materialize(ctx context.Context, log *slog.Logger, event *models.ValidatedEvent) {
	if p.dryRun {
		log.Info("[DRY RUN] Would create event.", "summary", event.Summary, "start", event.Start)
		return
	}

	for _, sink := range p.sinks {
		link, err := sink.CreateEvent(ctx, event)
		if err != nil {
			log.Error("Failed to create event.", "sink", sink.Name(), "summary", event.Summary, "error", err)
			continue
		}
		log.Info("Event created.", "sink", sink.Name(), "summary", event.Summary, "link", link)
	}
}

// Run executes cycles at the given interval until the context is
// cancelled. The first cycle starts immediately; cancellation takes
// effect between cycles.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) {
	p.logger.Info("Agendator started.", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.RunCycle(ctx); err != nil {
			p.logger.Error("Pipeline cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			p.logger.Info("Agendator stopped.")
			return
		case <-ticker.C:
		}
	}
}
