package service

import (
	"context"
	"log/slog"

	otelx "github.com/Kondo2021/redmine-messenger/internal/adapter/otel"
	"github.com/Kondo2021/redmine-messenger/internal/adapter/webhook"
	"github.com/Kondo2021/redmine-messenger/internal/domain/classify"
	"github.com/Kondo2021/redmine-messenger/internal/domain/message"
	"github.com/Kondo2021/redmine-messenger/internal/domain/tracker"
	"github.com/Kondo2021/redmine-messenger/internal/port/dispatch"
	"github.com/Kondo2021/redmine-messenger/internal/port/settings"
)

// NotificationService turns tracker lifecycle hooks into dispatched webhook
// requests. Every entry point is total: an unconfigured project, a gated
// record or a classifier suppression all end the pipeline silently.
type NotificationService struct {
	settings   settings.Reader
	dir        tracker.Directory
	composer   *Composer
	classifier classify.Classifier
	dispatcher dispatch.Dispatcher
	opts       webhook.Options
	logger     *slog.Logger
	metrics    *otelx.Metrics
}

// NewNotificationService wires the pipeline stages together.
func NewNotificationService(
	reader settings.Reader,
	dir tracker.Directory,
	composer *Composer,
	classifier classify.Classifier,
	dispatcher dispatch.Dispatcher,
	opts webhook.Options,
	logger *slog.Logger,
	metrics *otelx.Metrics,
) *NotificationService {
	return &NotificationService{
		settings:   reader,
		dir:        dir,
		composer:   composer,
		classifier: classifier,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
	}
}

// IssueCreated handles the work-item creation hook. When the new issue has a
// parent, a second notification goes to the parent project's channels.
func (s *NotificationService) IssueCreated(ctx context.Context, issue *tracker.Issue) error {
	snap, err := s.snapshot(ctx, issue.Project.ID)
	if err != nil {
		return err
	}
	s.emit(ctx, s.composer.IssueCreated(ctx, issue, snap), snap)

	if issue.ParentID != 0 {
		parent, ok := s.dir.Issue(ctx, issue.ParentID)
		if !ok {
			s.logger.Warn("parent issue not found", "issue_id", issue.ID, "parent_id", issue.ParentID)
			return nil
		}
		psnap, err := s.snapshot(ctx, parent.Project.ID)
		if err != nil {
			return err
		}
		s.emit(ctx, s.composer.ChildAdded(ctx, issue, parent, issue.Author, psnap), psnap)
	}
	return nil
}

// IssueUpdated handles the journaled update hook. The classifier decides the
// subtype; structural subtypes fall back to the generic update when their
// own gating drops them.
func (s *NotificationService) IssueUpdated(ctx context.Context, issue *tracker.Issue, cs tracker.ChangeSet) error {
	snap, err := s.snapshot(ctx, issue.Project.ID)
	if err != nil {
		return err
	}

	decision := s.classifier.Classify(ctx, issue, cs)
	switch decision.Kind {
	case classify.KindSuppressed:
		if s.metrics != nil {
			s.metrics.Suppressed.Add(ctx, 1)
		}
		s.logger.Debug("update suppressed", "issue_id", issue.ID, "journal_id", cs.ID)
		return nil

	case classify.KindChildAdded:
		psnap, err := s.snapshot(ctx, decision.Parent.Project.ID)
		if err != nil {
			return err
		}
		if rec := s.composer.ChildAdded(ctx, issue, decision.Parent, cs.Actor, psnap); rec != nil {
			s.dispatch(ctx, rec, psnap)
			return nil
		}
		// Parent project not notifiable; fall through to the child's own
		// update notification.

	case classify.KindRelationAdded:
		if rec := s.composer.RelationAdded(ctx, issue, decision.Related, decision.RelationWord, cs, snap); rec != nil {
			s.dispatch(ctx, rec, snap)
			return nil
		}
	}

	s.emit(ctx, s.composer.IssueUpdated(ctx, issue, cs, snap), snap)
	return nil
}

// TimeEntryCreated handles the time-log creation hook.
func (s *NotificationService) TimeEntryCreated(ctx context.Context, te *tracker.TimeEntry) error {
	return s.timeEntry(ctx, te, true)
}

// TimeEntryUpdated handles the time-log update hook.
func (s *NotificationService) TimeEntryUpdated(ctx context.Context, te *tracker.TimeEntry) error {
	return s.timeEntry(ctx, te, false)
}

func (s *NotificationService) timeEntry(ctx context.Context, te *tracker.TimeEntry, created bool) error {
	snap, err := s.snapshot(ctx, te.Project.ID)
	if err != nil {
		return err
	}
	s.emit(ctx, s.composer.TimeEntryLogged(ctx, te, created, snap), snap)
	return nil
}

// snapshot loads the project configuration once per hook so every decision
// in the pipeline sees the same values. nil means not configured.
func (s *NotificationService) snapshot(ctx context.Context, projectID int64) (*settings.Project, error) {
	snap, err := s.settings.ForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if snap != nil && !snap.Configured() {
		return nil, nil
	}
	return snap, nil
}

func (s *NotificationService) emit(ctx context.Context, rec *message.Record, snap *settings.Project) {
	if rec == nil {
		return
	}
	s.dispatch(ctx, rec, snap)
}

func (s *NotificationService) dispatch(ctx context.Context, rec *message.Record, snap *settings.Project) {
	req, err := webhook.BuildRequest(rec, snap.Webhook, s.opts)
	if err != nil {
		s.logger.Error("request build failed", "kind", string(rec.Kind), "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.Composed.Add(ctx, 1)
	}
	s.logger.Info("notification composed",
		"kind", string(rec.Kind), "project", rec.Project.Identifier, "channels", len(rec.Channels))
	s.dispatcher.Submit(req)
}
