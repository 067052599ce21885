package approval

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	approvalmetrics "agrifund/internal/approval/metrics"
	"agrifund/internal/notification/models"
	notifsvc "agrifund/internal/notification/service"
	"agrifund/internal/notification/store"
	id "agrifund/pkg/domain"
	dErrors "agrifund/pkg/domain-errors"
	audit "agrifund/pkg/platform/audit"
	"agrifund/pkg/requestcontext"
)

// StatusUpdate carries the registry mutation a registration decision
// implies.
type StatusUpdate struct {
	TenantID        id.TenantID
	Verified        bool
	RejectionReason string
}

// StatusUpdater applies a registration decision to the applicant registry.
// Failures are logged, never propagated: the collaborator call is
// fire-and-forget from the engine's point of view.
type StatusUpdater interface {
	ApplyDecision(ctx context.Context, update StatusUpdate) error
}

// Service runs review sessions and the approval engine.
type Service struct {
	store    store.Store
	feed     *notifsvc.Feed
	winner   *WinnerChecker
	statuses StatusUpdater
	audit    audit.Publisher
	metrics  *approvalmetrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer

	mu       sync.Mutex
	sessions map[id.SessionID]*Session
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the approval metrics collector.
func WithMetrics(m *approvalmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditPublisher sets the decision-trail sink.
func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// New constructs the approval service.
func New(st store.Store, feed *notifsvc.Feed, winner *WinnerChecker, statuses StatusUpdater, opts ...Option) *Service {
	s := &Service{
		store:    st,
		feed:     feed,
		winner:   winner,
		statuses: statuses,
		tracer:   otel.Tracer("agrifund/approval"),
		sessions: make(map[id.SessionID]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSession marks the notification viewed and opens a review session with
// a fresh draft.
func (s *Service) OpenSession(ctx context.Context, nid id.NotificationID) (*Session, *models.Notification, error) {
	n, err := s.feed.Open(ctx, nid)
	if err != nil {
		return nil, nil, err
	}

	sess := NewSession(id.NewSessionID(), nid, requestcontext.Now(ctx))
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess, n, nil
}

// Session returns a live review session.
func (s *Service) Session(sid id.SessionID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sid]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "review session not found")
	}
	return sess, nil
}

// SubmitDecision records the reviewer's choice and advances to the
// confirmation step. Validation failure (blank rejection reason on a
// registration) blocks the advance and leaves the session recoverable.
func (s *Service) SubmitDecision(ctx context.Context, sid id.SessionID, decision Decision, remarks string) (*Session, error) {
	sess, err := s.Session(sid)
	if err != nil {
		return nil, err
	}
	n, err := s.store.FindByID(ctx, sess.NotificationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load notification under review")
	}

	if err := sess.CanSubmit(decision, remarks, n); err != nil {
		sess.MarkDecisionPending()
		return nil, err
	}
	sess.ApplySubmit(decision, remarks)
	return sess, nil
}

// Cancel backs out of the confirmation step. The decision resets to unset;
// remarks survive so the reviewer does not retype them.
func (s *Service) Cancel(ctx context.Context, sid id.SessionID) (*Session, error) {
	sess, err := s.Session(sid)
	if err != nil {
		return nil, err
	}
	if err := sess.CanCancel(); err != nil {
		return nil, err
	}
	sess.ApplyCancel()
	return sess, nil
}

// Confirm applies the drafted decision. On success the session resolves and
// is discarded. A single-winner conflict aborts the whole decision (no
// mutation, no emission) and parks the session at DecisionPending with the
// draft intact.
func (s *Service) Confirm(ctx context.Context, sid id.SessionID) (*models.Notification, error) {
	sess, err := s.Session(sid)
	if err != nil {
		return nil, err
	}
	if err := sess.CanConfirm(); err != nil {
		return nil, err
	}

	n, err := s.store.FindByID(ctx, sess.NotificationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load notification under review")
	}

	updated, err := s.process(ctx, n, sess.Decision, sess.Remarks)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			sess.ApplyConflict()
		}
		return nil, err
	}

	sess.ApplyResolve()
	s.mu.Lock()
	delete(s.sessions, sid)
	s.mu.Unlock()
	return updated, nil
}

// Acknowledge resolves a bare notification (no application data) with a
// simple read mark and no cross-role emission. The authority uses this for
// its own informational broadcasts.
func (s *Service) Acknowledge(ctx context.Context, nid id.NotificationID) (*models.Notification, error) {
	n, err := s.store.Execute(ctx, nid, nil, func(rec *models.Notification) {
		rec.MarkViewed()
		rec.Lifecycle = models.LifecycleRead
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acknowledge notification")
	}
	s.emitAudit(ctx, audit.Event{
		Action:         audit.ActionNotificationAcknowledged,
		ActorRole:      requestcontext.Role(ctx),
		NotificationID: n.ID,
	})
	return n, nil
}

// ResolveGeneric is the fallback path for notifications viewed by
// non-authority roles: the lifecycle settles on approved or ignored with no
// external call and no emitted notification.
func (s *Service) ResolveGeneric(ctx context.Context, nid id.NotificationID, decision Decision) (*models.Notification, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, dErrors.New(dErrors.CodeBadRequest, "a decision is required")
	}
	outcome := models.LifecycleApproved
	if decision == DecisionReject {
		outcome = models.LifecycleIgnored
	}
	n, err := s.store.Execute(ctx, nid, nil, func(rec *models.Notification) {
		rec.MarkViewed()
		rec.Lifecycle = outcome
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve notification")
	}
	s.emitAudit(ctx, audit.Event{
		Action:         audit.ActionNotificationResolved,
		ActorRole:      requestcontext.Role(ctx),
		NotificationID: n.ID,
		Decision:       string(decision),
	})
	return n, nil
}

// process dispatches one confirmed decision by payload shape.
func (s *Service) process(ctx context.Context, n *models.Notification, decision Decision, remarks string) (*models.Notification, error) {
	start := time.Now()
	kind := "bare"
	if n.Payload != nil {
		kind = string(n.Payload.Kind())
	}
	ctx, span := s.tracer.Start(ctx, "approval.process",
		trace.WithAttributes(
			attribute.String("notification.id", n.ID.String()),
			attribute.String("notification.kind", kind),
			attribute.String("decision", string(decision)),
		),
	)
	defer span.End()
	defer func() { s.metrics.ObserveDecisionDuration(time.Since(start)) }()

	switch p := n.Payload.(type) {
	case *models.RegistrationPayload:
		return s.processRegistration(ctx, n, p, decision, remarks)
	case *models.SchemeApplicationPayload:
		return s.processSchemeApplication(ctx, n, p, decision, remarks)
	default:
		// Bare or response-shaped notifications carry nothing to decide;
		// confirming one is an acknowledgement.
		return s.Acknowledge(ctx, n.ID)
	}
}

func (s *Service) processRegistration(ctx context.Context, n *models.Notification, p *models.RegistrationPayload, decision Decision, remarks string) (*models.Notification, error) {
	approved := decision == DecisionApprove
	reason := strings.TrimSpace(remarks)

	outcome := models.LifecycleApproved
	if !approved {
		outcome = models.LifecycleRejected
	}
	updated, err := s.store.Execute(ctx, n.ID, nil, func(rec *models.Notification) {
		rec.Lifecycle = outcome
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record decision")
	}

	update := StatusUpdate{TenantID: p.ApplicantID, Verified: approved}
	if !approved {
		update.RejectionReason = reason
	}
	if s.statuses == nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "no status updater configured, skipping registry update",
				"tenant_id", p.ApplicantID,
			)
		}
	} else if err := s.statuses.ApplyDecision(ctx, update); err != nil && s.logger != nil {
		// Collaborator failures do not roll back the decision.
		s.logger.ErrorContext(ctx, "applicant status update failed",
			"tenant_id", p.ApplicantID,
			"error", err,
		)
	}

	if !p.ApplicantID.IsNil() {
		message := registrationApprovedMessage(p.Category)
		if !approved {
			message = registrationRejectedMessage(p.Category, reason)
		}
		s.emitResponse(ctx, notifsvc.AppendRequest{
			Origin:     id.RoleAuthority.Display(),
			TargetRole: p.Category,
			Message:    message,
			Payload: &models.RegistrationResponsePayload{
				Category:              p.Category,
				ApplicantID:           p.ApplicantID,
				RelatedNotificationID: n.ID,
				Approved:              approved,
			},
		})
	}

	s.metrics.IncDecision(string(decision))
	s.emitAudit(ctx, audit.Event{
		Action:         audit.ActionRegistrationDecided,
		ActorRole:      requestcontext.Role(ctx),
		NotificationID: n.ID,
		TenantID:       p.ApplicantID,
		Decision:       string(decision),
		Reason:         update.RejectionReason,
	})
	return updated, nil
}

func (s *Service) processSchemeApplication(ctx context.Context, n *models.Notification, p *models.SchemeApplicationPayload, decision Decision, remarks string) (*models.Notification, error) {
	approved := decision == DecisionApprove

	applicantRole := p.ApplicantRole
	if !applicantRole.IsValid() {
		// Older records carry only the sender's display label.
		if r, ok := id.RoleForDisplay(n.Origin); ok {
			applicantRole = r
		} else {
			return nil, dErrors.Newf(dErrors.CodeInternal, "cannot resolve applicant role for notification %s", n.ID)
		}
	}

	if approved && applicantRole.IsSingleWinner() {
		if err := s.winner.Check(ctx, p.SchemeID, applicantRole, n.ID); err != nil {
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				s.metrics.IncConflict()
			}
			return nil, err
		}
	}

	outcome := models.LifecycleApproved
	status := models.ApplicationApproved
	if !approved {
		outcome = models.LifecycleRejected
		status = models.ApplicationRejected
	}
	updated, err := s.store.Execute(ctx, n.ID, nil, func(rec *models.Notification) {
		rec.Lifecycle = outcome
		if app, ok := rec.Payload.(*models.SchemeApplicationPayload); ok {
			app.Status = status
		}
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record decision")
	}

	instruction := ""
	message := schemeRejectedMessage(p.SchemeName, strings.TrimSpace(remarks))
	if approved {
		instruction = postApprovalInstruction[applicantRole]
		message = schemeApprovedMessage(p.SchemeName, instruction)
	}
	s.emitResponse(ctx, notifsvc.AppendRequest{
		Origin:     id.RoleAuthority.Display(),
		TargetRole: applicantRole,
		Message:    message,
		Payload: &models.SchemeResponsePayload{
			SchemeID:              p.SchemeID,
			SchemeName:            p.SchemeName,
			ApplicantRole:         applicantRole,
			ApplicantID:           p.ApplicantID,
			RelatedNotificationID: n.ID,
			Approved:              approved,
			Instruction:           instruction,
			// The fund-provider portal renders scheme responses through the
			// registration-response path.
			MirrorRegistrationResponse: applicantRole == id.RoleFundProvider,
		},
	})

	s.metrics.IncDecision(string(decision))
	s.emitAudit(ctx, audit.Event{
		Action:         audit.ActionSchemeApplicationDecided,
		ActorRole:      requestcontext.Role(ctx),
		NotificationID: n.ID,
		TenantID:       p.ApplicantID,
		SchemeID:       p.SchemeID,
		Decision:       string(decision),
	})
	return updated, nil
}

// emitResponse appends a response notification, logging failures instead of
// propagating them: response delivery is best-effort once the decision is
// recorded.
func (s *Service) emitResponse(ctx context.Context, req notifsvc.AppendRequest) {
	if _, err := s.feed.Append(ctx, req); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "response notification emission failed",
				"target_role", req.TargetRole,
				"error", err,
			)
		}
		return
	}
	s.metrics.IncResponseEmitted()
}

// emitAudit sends a decision-trail event, best effort.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"notification_id", event.NotificationID,
			"error", err,
		)
	}
}
