package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

const defaultQueuePollInterval = 30 * time.Second

// QueueMonitor reports upload queue lengths. Every local write triggers a
// count of its subkind; a periodic poll recounts all subkinds in case a
// notification was dropped.
type QueueMonitor struct {
	source    QueueSource
	subKinds  []models.SubKind
	interval  time.Duration
	listeners []QueueListener

	logger *logger.Logger
}

func NewQueueMonitor(source QueueSource, subKinds []models.SubKind, interval time.Duration, logger *logger.Logger, listeners ...QueueListener) *QueueMonitor {
	if interval <= 0 {
		interval = defaultQueuePollInterval
	}
	return &QueueMonitor{
		source:    source,
		subKinds:  subKinds,
		interval:  interval,
		listeners: listeners,
		logger:    logger,
	}
}

func (m *QueueMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	changes := m.source.Changes()
	last := make(map[models.SubKind]int, len(m.subKinds))

	m.countAll(ctx, last, true)
	for {
		select {
		case <-ctx.Done():
			return nil
		case sk, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			m.count(ctx, sk, last, true)
		case <-ticker.C:
			m.countAll(ctx, last, false)
		}
	}
}

func (m *QueueMonitor) countAll(ctx context.Context, last map[models.SubKind]int, force bool) {
	for _, sk := range m.subKinds {
		m.count(ctx, sk, last, force)
	}
}

// count reports sk when forced or when its length changed since the last
// report.
func (m *QueueMonitor) count(ctx context.Context, sk models.SubKind, last map[models.SubKind]int, force bool) {
	n, err := m.source.QueueCount(ctx, sk)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Err(err).Str("sub_kind", string(sk)).Msg("queue count failed")
		}
		return
	}

	if prev, seen := last[sk]; seen && prev == n && !force {
		return
	}
	last[sk] = n

	for _, l := range m.listeners {
		l.QueueCountChanged(sk, n)
	}
}
