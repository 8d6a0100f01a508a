package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/retry"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// ── local store ──────────────────────────────────────────────────────────────

type queued struct {
	rowID    int64
	subKind  models.SubKind
	entityID string
}

type fakeLocal struct {
	mu       sync.Mutex
	entities map[string]models.Entity
	queue    []queued
	nextRow  int64
	meta     map[string]models.CloudMetadata
	oldest   map[models.SubKind]time.Time
	flags    map[string]*models.SyncFlags
	enables  []bool
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{
		entities: make(map[string]models.Entity),
		meta:     make(map[string]models.CloudMetadata),
		oldest:   make(map[models.SubKind]time.Time),
		flags:    make(map[string]*models.SyncFlags),
	}
}

func (l *fakeLocal) domainFlags(domain string) *models.SyncFlags {
	f, ok := l.flags[domain]
	if !ok {
		f = &models.SyncFlags{Downloaded: make(map[models.SubKind]bool)}
		l.flags[domain] = f
	}
	return f
}

// seed sets persisted flags before Start.
func (l *fakeLocal) seed(domain string, enabled, created, downloaded bool, subKinds ...models.SubKind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f := l.domainFlags(domain)
	f.Enabled, f.ContainerCreated = enabled, created
	for _, sk := range subKinds {
		f.Downloaded[sk] = downloaded
	}
}

// save stores e and queues it, like a wallet write.
func (l *fakeLocal) save(e models.Entity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entities[e.ID] = e
	l.enqueueLocked(e.Kind, e.ID)
}

func (l *fakeLocal) enqueueLocked(sk models.SubKind, id string) {
	l.nextRow++
	l.queue = append(l.queue, queued{rowID: l.nextRow, subKind: sk, entityID: id})
}

func (l *fakeLocal) snapshotFlags(domain string) models.SyncFlags {
	l.mu.Lock()
	defer l.mu.Unlock()
	f := *l.domainFlags(domain)
	f.Downloaded = maps.Clone(f.Downloaded)
	return f
}

func (l *fakeLocal) enableCalls() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.enables)
}

func (l *fakeLocal) entityIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var ids []string
	for id := range l.entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (l *fakeLocal) metaCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.meta)
}

func (l *fakeLocal) FetchBatch(_ context.Context, subKinds []models.SubKind, limit int) (models.QueueBatch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, sk := range subKinds {
		batch := models.QueueBatch{
			SubKind:  sk,
			Entities: make(map[string]models.Entity),
			Metadata: make(map[string]models.CloudMetadata),
		}
		for _, q := range l.queue {
			if q.subKind != sk || len(batch.Rows) == limit {
				continue
			}
			batch.Rows = append(batch.Rows, models.QueueRow{RowID: q.rowID, EntityID: q.entityID})
			if e, ok := l.entities[q.entityID]; ok {
				batch.Entities[q.entityID] = e
			}
			if m, ok := l.meta[q.entityID]; ok {
				batch.Metadata[q.entityID] = m
			}
		}
		if len(batch.Rows) > 0 {
			return batch, nil
		}
	}
	return models.QueueBatch{SubKind: subKinds[0]}, nil
}

func (l *fakeLocal) UpdateRows(_ context.Context, u models.QueueUpdate) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.queue = slices.DeleteFunc(l.queue, func(q queued) bool { return slices.Contains(u.DeleteFromQueue, q.rowID) })
	for _, id := range u.DeleteFromMetadata {
		delete(l.meta, id)
	}
	for _, m := range u.UpsertMetadata {
		l.meta[m.EntityID] = m
	}
	return nil
}

func (l *fakeLocal) QueueCount(_ context.Context, sk models.SubKind) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, q := range l.queue {
		if q.subKind == sk {
			n++
		}
	}
	return n, nil
}

func (l *fakeLocal) OldestDownloaded(_ context.Context, sk models.SubKind) (*time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.oldest[sk]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (l *fakeLocal) SaveDownloaded(_ context.Context, entities []models.DownloadedEntity) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range entities {
		l.entities[d.Entity.ID] = d.Entity
		l.meta[d.Entity.ID] = d.Metadata
		sk, created := d.Metadata.SubKind, d.Metadata.Record.CreatedAt
		if cur, ok := l.oldest[sk]; !ok || created.Before(cur) {
			l.oldest[sk] = created
		}
	}
	return nil
}

func (l *fakeLocal) EnqueueUnsynced(_ context.Context, sk models.SubKind) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for id, e := range l.entities {
		if e.Kind != sk {
			continue
		}
		if _, synced := l.meta[id]; synced {
			continue
		}
		if slices.ContainsFunc(l.queue, func(q queued) bool { return q.entityID == id }) {
			continue
		}
		l.enqueueLocked(sk, id)
		n++
	}
	return n, nil
}

func (l *fakeLocal) LoadFlags(_ context.Context, domain string, _ []models.SubKind) (models.SyncFlags, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f := *l.domainFlags(domain)
	f.Downloaded = maps.Clone(f.Downloaded)
	return f, nil
}

func (l *fakeLocal) SetEnabled(_ context.Context, domain string, enabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.domainFlags(domain).Enabled = enabled
	l.enables = append(l.enables, enabled)
	return nil
}

func (l *fakeLocal) SetContainerCreated(_ context.Context, domain string, created bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.domainFlags(domain).ContainerCreated = created
	return nil
}

func (l *fakeLocal) MarkDownloaded(_ context.Context, domain string, sk models.SubKind) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.domainFlags(domain).Downloaded[sk] = true
	return nil
}

func (l *fakeLocal) ClearCloudState(_ context.Context, domain string, subKinds []models.SubKind) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, m := range l.meta {
		if slices.Contains(subKinds, m.SubKind) {
			delete(l.meta, id)
		}
	}
	f := l.domainFlags(domain)
	f.ContainerCreated = false
	for _, sk := range subKinds {
		delete(f.Downloaded, sk)
		delete(l.oldest, sk)
	}
	return nil
}

// ── remote store ─────────────────────────────────────────────────────────────

type fakeRemote struct {
	mu         sync.Mutex
	containers map[string]map[string]models.Record
	tags       int
	createErrs []error

	calls atomic.Int64
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{containers: make(map[string]map[string]models.Record)}
}

func (r *fakeRemote) failCreate(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createErrs = append(r.createErrs, errs...)
}

func (r *fakeRemote) put(container string, rec models.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.containers[container] == nil {
		r.containers[container] = make(map[string]models.Record)
	}
	r.containers[container][rec.RecordID] = rec
}

func (r *fakeRemote) records(container string) (map[string]models.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[container]
	return maps.Clone(c), ok
}

func (r *fakeRemote) nextTag() string {
	r.tags++
	return "tag-" + strconv.Itoa(r.tags)
}

func (r *fakeRemote) CreateContainer(_ context.Context, container string) error {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		return err
	}
	if r.containers[container] == nil {
		r.containers[container] = make(map[string]models.Record)
	}
	return nil
}

func (r *fakeRemote) DeleteContainer(_ context.Context, container string) error {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.containers[container]; !ok {
		return fmt.Errorf("delete %s: %w", container, retry.ErrContainerMissing)
	}
	delete(r.containers, container)
	return nil
}

func (r *fakeRemote) Modify(_ context.Context, container string, req models.ModifyRequest) ([]models.ItemResult, error) {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.containers[container]
	if !ok {
		return nil, fmt.Errorf("modify %s: %w", container, retry.ErrContainerMissing)
	}

	var out []models.ItemResult
	now := time.Now().UTC()
	for _, s := range req.Saves {
		cur, exists := c[s.RecordID]
		if (exists && cur.ChangeTag != s.ChangeTag) || (!exists && s.ChangeTag != "") {
			out = append(out, models.ItemResult{RecordID: s.RecordID, Status: models.ItemConflict})
			continue
		}
		rec := models.Record{
			RecordID: s.RecordID, SubKind: s.SubKind, Ciphertext: s.Ciphertext,
			ChangeTag: r.nextTag(), CreatedAt: s.CreatedAt, ModifiedAt: now,
		}
		c[s.RecordID] = rec
		meta := rec.Metadata()
		out = append(out, models.ItemResult{RecordID: s.RecordID, Status: models.ItemOK, Metadata: &meta})
	}
	for _, id := range req.Deletes {
		if _, exists := c[id]; !exists {
			out = append(out, models.ItemResult{RecordID: id, Status: models.ItemNotFound})
			continue
		}
		delete(c, id)
		out = append(out, models.ItemResult{RecordID: id, Status: models.ItemOK})
	}
	return out, nil
}

func (r *fakeRemote) Query(_ context.Context, container string, q models.RecordQuery) (models.RecordPage, error) {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.containers[container]
	if !ok {
		return models.RecordPage{}, fmt.Errorf("query %s: %w", container, retry.ErrContainerMissing)
	}

	var matched []models.Record
	for _, rec := range c {
		if rec.SubKind != q.SubKind {
			continue
		}
		if q.CreatedBefore != nil && !rec.CreatedAt.Before(*q.CreatedBefore) {
			continue
		}
		matched = append(matched, rec)
	}
	slices.SortFunc(matched, func(a, b models.Record) int {
		if d := b.CreatedAt.Compare(a.CreatedAt); d != 0 {
			return d
		}
		return strings.Compare(a.RecordID, b.RecordID)
	})

	offset := 0
	if q.Cursor != "" {
		offset, _ = strconv.Atoi(q.Cursor)
	}
	end := min(offset+q.Limit, len(matched))
	page := models.RecordPage{Records: matched[offset:end]}
	if end < len(matched) {
		page.Cursor = strconv.Itoa(end)
	}
	return page, nil
}

func (r *fakeRemote) FetchMetadata(_ context.Context, container string, recordIDs []string) ([]models.RecordMetadata, error) {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.RecordMetadata
	for _, id := range recordIDs {
		if rec, ok := r.containers[container][id]; ok {
			out = append(out, rec.Metadata())
		}
	}
	return out, nil
}
