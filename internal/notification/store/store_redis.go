package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"agrifund/internal/notification/models"
	id "agrifund/pkg/domain"
	"agrifund/pkg/platform/sentinel"
)

const (
	notificationKeyPrefix = "notif:rec:"
	notificationOrderKey  = "notif:order"
	roleIndexKeyPrefix    = "notif:role:"
)

// Redis is a Redis-backed notification store for deployments where several
// portal instances share one log. Records are JSON blobs; a global list
// preserves creation order and per-role lists serve the feed queries.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed notification store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func recordKey(nid id.NotificationID) string { return notificationKeyPrefix + nid.String() }

func roleKey(role id.Role) string { return roleIndexKeyPrefix + role.String() }

func (s *Redis) Append(ctx context.Context, n *models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ok, err := s.client.SetNX(ctx, recordKey(n.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, notificationOrderKey, n.ID.String())
	pipe.RPush(ctx, roleKey(n.TargetRole), n.ID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index notification: %w", err)
	}
	return nil
}

func (s *Redis) FindByID(ctx context.Context, nid id.NotificationID) (*models.Notification, error) {
	data, err := s.client.Get(ctx, recordKey(nid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find notification: %w", err)
	}
	var n models.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("unmarshal notification: %w", err)
	}
	return &n, nil
}

func (s *Redis) ListByTargetRole(ctx context.Context, role id.Role) ([]*models.Notification, error) {
	ids, err := s.client.LRange(ctx, roleKey(role), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list role index: %w", err)
	}
	return s.loadAll(ctx, ids)
}

// Execute runs validate then mutate under optimistic locking (WATCH). A
// concurrent write to the same record retries the whole callback.
func (s *Redis) Execute(ctx context.Context, nid id.NotificationID, validate func(*models.Notification) error, mutate func(*models.Notification)) (*models.Notification, error) {
	key := recordKey(nid)
	var result *models.Notification

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return err
		}
		var n models.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unmarshal notification: %w", err)
		}
		if validate != nil {
			if err := validate(&n); err != nil {
				return err
			}
		}
		if mutate != nil {
			mutate(&n)
		}
		updated, err := json.Marshal(&n)
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = &n
		return nil
	}

	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, sentinel.ErrUnavailable
}

// FindApprovedApplication scans the authority's creation-order list. Scheme
// applications are always addressed to the authority, so the scan stays
// proportional to the log size, which is acceptable at portal volumes.
func (s *Redis) FindApprovedApplication(ctx context.Context, schemeID id.SchemeID, role id.Role) (*models.Notification, error) {
	ids, err := s.client.LRange(ctx, notificationOrderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list order index: %w", err)
	}
	all, err := s.loadAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, n := range all {
		app, ok := n.Payload.(*models.SchemeApplicationPayload)
		if !ok {
			continue
		}
		if app.SchemeID == schemeID && app.ApplicantRole == role && app.Status == models.ApplicationApproved {
			return n, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Redis) loadAll(ctx context.Context, ids []string) ([]*models.Notification, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, raw := range ids {
		keys[i] = notificationKeyPrefix + raw
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	out := make([]*models.Notification, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // index entry with no record; skip rather than fail the feed
		}
		var n models.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			return nil, fmt.Errorf("unmarshal notification: %w", err)
		}
		out = append(out, &n)
	}
	return out, nil
}
