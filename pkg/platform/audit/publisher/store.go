package publisher

import (
	"context"

	audit "agrifund/pkg/platform/audit"
)

// StorePublisher writes events straight to an audit store. Used in
// development and tests where no broker is running.
type StorePublisher struct {
	store audit.Store
}

// NewStore constructs a store-backed publisher.
func NewStore(store audit.Store) *StorePublisher {
	return &StorePublisher{store: store}
}

func (p *StorePublisher) Emit(ctx context.Context, event audit.Event) error {
	return p.store.Append(ctx, event)
}

func (p *StorePublisher) Close() error { return nil }
