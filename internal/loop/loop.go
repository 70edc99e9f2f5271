// Package loop drives the incident-to-remediation workflow.
//
// Each cycle polls the ticketing backend for the most recent incident,
// decides between an existing catalog playbook and a freshly generated one,
// publishes the latter for review, and acknowledges the incident. Cycles
// run strictly one at a time; a failed cycle is logged and the loop keeps
// going until its context is cancelled.
package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/config"
	"github.com/fyrsmithlabs/remedyd/internal/publish"
	"github.com/fyrsmithlabs/remedyd/internal/remedy"
	"github.com/fyrsmithlabs/remedyd/internal/ticketing"
)

// outcome is the terminal state of one cycle.
type outcome string

const (
	outcomeNoIncident    outcome = "no_incident"
	outcomeSkipped       outcome = "skipped"
	outcomeMatched       outcome = "matched"
	outcomeGenerated     outcome = "generated"
	outcomePublishFailed outcome = "publish_failed"
	outcomeFailed        outcome = "failed"
)

// IncidentSource fetches the most recent matching incident.
type IncidentSource interface {
	FetchLatestIncident(ctx context.Context) (*ticketing.Incident, error)
}

// StateUpdater writes a status transition back to the ticketing backend.
type StateUpdater interface {
	UpdateState(ctx context.Context, id, state, comment string) error
}

// CatalogLoader retrieves the current playbook catalog.
type CatalogLoader interface {
	Load(ctx context.Context) ([]remedy.Document, error)
	RepoURL() string
}

// Matcher finds an existing playbook addressing an incident description.
type Matcher interface {
	FindMatch(ctx context.Context, description string, catalog []remedy.Document) (*remedy.Document, error)
}

// Drafter generates a new playbook for an incident description.
type Drafter interface {
	Generate(ctx context.Context, description string) (remedy.Document, error)
}

// Publisher stages a playbook for review.
type Publisher interface {
	NewRequest(doc remedy.Document, now time.Time) publish.Request
	Publish(ctx context.Context, req publish.Request) (*publish.PullRequest, error)
}

// Loop is the workflow orchestrator.
type Loop struct {
	cfg           config.LoopConfig
	awaitingState string

	source    IncidentSource
	updater   StateUpdater
	catalog   CatalogLoader
	matcher   Matcher
	drafter   Drafter
	publisher Publisher

	logger  *zap.Logger
	metrics *Metrics

	// lastAcknowledged is the ID of the last incident whose state update
	// succeeded. While the backend still returns it as most recent (its
	// state transition may lag), it is skipped instead of reprocessed.
	lastAcknowledged string
}

// New creates a workflow loop.
func New(
	cfg config.LoopConfig,
	awaitingState string,
	source IncidentSource,
	updater StateUpdater,
	catalog CatalogLoader,
	matcher Matcher,
	drafter Drafter,
	publisher Publisher,
	metrics *Metrics,
	logger *zap.Logger,
) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		cfg:           cfg,
		awaitingState: awaitingState,
		source:        source,
		updater:       updater,
		catalog:       catalog,
		matcher:       matcher,
		drafter:       drafter,
		publisher:     publisher,
		metrics:       metrics,
		logger:        logger,
	}
}

// Run executes cycles until the context is cancelled.
//
// No cycle error stops the loop; each is logged and followed by a sleep.
// The sleep is the poll interval, scaled by the error-backoff multiplier
// after a failed cycle so failure storms throttle the backends less.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("workflow loop started",
		zap.Duration("poll_interval", l.cfg.PollInterval.Duration()),
		zap.Float64("error_backoff_multiplier", l.cfg.ErrorBackoffMultiplier))

	for {
		result := l.runCycle(ctx)
		l.metrics.observeCycle(result)

		delay := l.cfg.PollInterval.Duration()
		if result == outcomeFailed {
			delay = time.Duration(float64(delay) * l.cfg.ErrorBackoffMultiplier)
		}

		select {
		case <-ctx.Done():
			l.logger.Info("workflow loop stopping")
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// runCycle performs one poll-decide-act iteration. All errors are absorbed
// here; the returned outcome is the cycle's terminal state.
func (l *Loop) runCycle(ctx context.Context) outcome {
	logger := l.logger.With(zap.String("cycle_id", uuid.NewString()))
	logger.Info("starting incident processing cycle")

	out, err := l.process(ctx, logger)
	if err != nil {
		if ctx.Err() != nil {
			return outcomeFailed
		}
		logger.Error("cycle failed", zap.Error(err))
		return outcomeFailed
	}
	return out
}

// process holds the per-cycle state machine. At most one state update is
// issued per cycle, on exactly one of the matched or generated paths.
func (l *Loop) process(ctx context.Context, logger *zap.Logger) (outcome, error) {
	incident, err := l.source.FetchLatestIncident(ctx)
	if err != nil {
		return outcomeFailed, fmt.Errorf("poll: %w", err)
	}
	if incident == nil {
		logger.Info("no incidents found")
		return outcomeNoIncident, nil
	}
	if incident.Description == "" {
		logger.Info("incident has no description", zap.String("incident_id", incident.ID))
		return outcomeNoIncident, nil
	}
	if incident.ID == l.lastAcknowledged {
		logger.Debug("incident already acknowledged, waiting for backend transition",
			zap.String("incident_id", incident.ID))
		return outcomeSkipped, nil
	}

	logger = logger.With(zap.String("incident_id", incident.ID))

	catalog, err := l.catalog.Load(ctx)
	if err != nil {
		return outcomeFailed, fmt.Errorf("load catalog: %w", err)
	}

	match, err := l.matcher.FindMatch(ctx, incident.Description, catalog)
	if err != nil {
		return outcomeFailed, fmt.Errorf("match: %w", err)
	}

	if match != nil {
		logger.Info("existing playbook matches incident", zap.String("playbook", match.Path))
		comment := fmt.Sprintf("Use the following playbook: %s", l.catalog.RepoURL())
		l.acknowledge(ctx, logger, incident.ID, comment)
		return outcomeMatched, nil
	}

	doc, err := l.drafter.Generate(ctx, incident.Description)
	if err != nil {
		return outcomeFailed, fmt.Errorf("generate: %w", err)
	}

	req := l.publisher.NewRequest(doc, time.Now())
	pr, err := l.publisher.Publish(ctx, req)
	if err != nil {
		return outcomeFailed, fmt.Errorf("publish: %w", err)
	}
	if pr == nil {
		// Branch may be pushed but no review request exists; leave the
		// incident untouched so the next cycle retries.
		logger.Error("failed to create review request", zap.String("branch", req.BranchName))
		return outcomePublishFailed, nil
	}

	logger.Info("review request created", zap.String("url", pr.URL))
	l.metrics.observeRequestCreated()
	l.acknowledge(ctx, logger, incident.ID, "")
	return outcomeGenerated, nil
}

// acknowledge transitions the incident to the awaiting-user-info state.
// Update failures are logged and absorbed: the loop continues regardless,
// and the incident stays eligible for the next cycle.
func (l *Loop) acknowledge(ctx context.Context, logger *zap.Logger, id, comment string) {
	if err := l.updater.UpdateState(ctx, id, l.awaitingState, comment); err != nil {
		logger.Error("failed to update incident state", zap.Error(err))
		return
	}
	l.lastAcknowledged = id
}
