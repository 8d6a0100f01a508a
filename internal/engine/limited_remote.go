package engine

import (
	"context"

	"github.com/MKhiriev/wallet-cloud-sync/models"
	"golang.org/x/time/rate"
)

// LimitedRemote passes calls through a token bucket shared by every domain
// of a wallet, so the domains do not exhaust one account's quota together.
type LimitedRemote struct {
	next    RemoteRecordStore
	limiter *rate.Limiter
}

// NewSharedLimiter returns a limiter allowing perSecond calls with burst.
// A non-positive rate returns nil, which disables limiting.
func NewSharedLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

// NewLimitedRemote wraps next. A nil limiter returns next unchanged.
func NewLimitedRemote(next RemoteRecordStore, limiter *rate.Limiter) RemoteRecordStore {
	if limiter == nil {
		return next
	}
	return &LimitedRemote{next: next, limiter: limiter}
}

func (l *LimitedRemote) CreateContainer(ctx context.Context, container string) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	return l.next.CreateContainer(ctx, container)
}

func (l *LimitedRemote) DeleteContainer(ctx context.Context, container string) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	return l.next.DeleteContainer(ctx, container)
}

func (l *LimitedRemote) Modify(ctx context.Context, container string, req models.ModifyRequest) ([]models.ItemResult, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.next.Modify(ctx, container, req)
}

func (l *LimitedRemote) Query(ctx context.Context, container string, q models.RecordQuery) (models.RecordPage, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return models.RecordPage{}, err
	}
	return l.next.Query(ctx, container, q)
}

func (l *LimitedRemote) FetchMetadata(ctx context.Context, container string, recordIDs []string) ([]models.RecordMetadata, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.next.FetchMetadata(ctx, container, recordIDs)
}
