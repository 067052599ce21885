// Package service computes the role-scoped notification view and owns
// appends to the notification log.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"agrifund/internal/notification/models"
	"agrifund/internal/notification/store"
	"agrifund/internal/platform/metrics"
	id "agrifund/pkg/domain"
	dErrors "agrifund/pkg/domain-errors"
	"agrifund/pkg/platform/sentinel"
	"agrifund/pkg/requestcontext"
)

// TenantResolver resolves the viewer's own active registration record.
// Returns (nil, nil) when the role has no active record; the feed then
// degrades to empty rather than erroring, so record existence never leaks.
type TenantResolver interface {
	ActiveRecord(ctx context.Context, role id.Role) (id.TenantID, bool, error)
}

// Filter selects which slice of the feed a caller wants.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterUnread Filter = "unread"
	FilterViewed Filter = "viewed"
)

// ParseFilter validates a feed filter, defaulting empty to all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterUnread:
		return FilterUnread, nil
	case FilterViewed:
		return FilterViewed, nil
	default:
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown feed filter: %q", s)
	}
}

// Feed projects the notification log into per-role, per-tenant views.
type Feed struct {
	store   store.Store
	tenants TenantResolver
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Feed.
type Option func(*Feed)

// WithLogger sets a logger for degraded-path reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Feed) { f.logger = logger }
}

// WithMetrics sets the shared metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Feed) { f.metrics = m }
}

// NewFeed constructs the feed service.
func NewFeed(s store.Store, tenants TenantResolver, opts ...Option) *Feed {
	f := &Feed{store: s, tenants: tenants}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Project returns the viewer's notifications, ordered unread-first and most
// recent first within each group.
//
// The authority is the hub and sees everything addressed to it. Every other
// role additionally passes the multi-tenancy boundary: only notifications
// scoped to the viewer's own active record are visible, and a viewer with no
// active record sees an empty feed.
func (f *Feed) Project(ctx context.Context, role id.Role) ([]*models.Notification, error) {
	if !role.IsValid() {
		return nil, nil
	}
	f.metrics.IncFeedProjections()

	all, err := f.store.ListByTargetRole(ctx, role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}

	if !role.IsAuthority() {
		tenantID, ok, err := f.tenants.ActiveRecord(ctx, role)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve viewer identity")
		}
		if !ok {
			// No active record: fail-safe hide, not an error.
			return nil, nil
		}
		filtered := all[:0]
		for _, n := range all {
			nid, scoped := n.TenantID()
			if scoped && nid == tenantID {
				filtered = append(filtered, n)
			}
		}
		all = filtered
	}

	sortFeed(all)
	return all, nil
}

// sortFeed orders unviewed before viewed, then ReceivedAt descending within
// each group. Stable so equal timestamps keep creation order.
func sortFeed(list []*models.Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Viewed != list[j].Viewed {
			return !list[i].Viewed
		}
		return list[i].ReceivedAt.After(list[j].ReceivedAt)
	})
}

// Select applies a sub-view filter to an already projected feed.
func Select(list []*models.Notification, filter Filter) []*models.Notification {
	if filter == FilterAll {
		return list
	}
	wantViewed := filter == FilterViewed
	var out []*models.Notification
	for _, n := range list {
		if n.Viewed == wantViewed {
			out = append(out, n)
		}
	}
	return out
}

// Open marks a notification viewed and advances its lifecycle from unset to
// read. Idempotent: re-opening an already viewed notification changes
// nothing.
func (f *Feed) Open(ctx context.Context, nid id.NotificationID) (*models.Notification, error) {
	n, err := f.store.Execute(ctx, nid, nil, func(rec *models.Notification) {
		rec.MarkViewed()
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return n, nil
}

// AppendRequest shapes a new notification.
type AppendRequest struct {
	Origin     string
	TargetRole id.Role
	Message    string
	Applicant  models.ApplicantSnapshot
	Payload    models.Payload
}

// Append creates a notification record and adds it to the log. ID and
// ReceivedAt are assigned here from the request-scoped clock.
func (f *Feed) Append(ctx context.Context, req AppendRequest) (*models.Notification, error) {
	n, err := models.NewNotification(id.NewNotificationID(), req.Origin, req.TargetRole, req.Message, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	n.Applicant = req.Applicant
	n.Payload = req.Payload

	if err := f.store.Append(ctx, n); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append notification")
	}
	f.metrics.IncNotificationsAppended()

	if f.logger != nil {
		f.logger.InfoContext(ctx, "notification appended",
			"notification_id", n.ID,
			"target_role", n.TargetRole,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return n, nil
}

func translateStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "notification not found")
	}
	if dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.HasCode(err, dErrors.CodeValidation) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "notification store failure")
}
