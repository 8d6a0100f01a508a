// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/crypto"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/retry"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// UploadProgressFunc receives rows completed since the last call and the
// number of records in flight.
type UploadProgressFunc func(sk models.SubKind, completed, inFlight int)

// UploadResult summarizes one upload pass.
type UploadResult struct {
	SubKind   models.SubKind
	Completed int // rows removed from the queue after a remote success or a drain
	Dropped   int // entities dropped after repeated failures
	Conflicts int
	Empty     bool
}

// UploadPipeline runs upload passes for one domain: it takes a batch from
// the local queue, writes it to the remote store and commits the outcome.
type UploadPipeline struct {
	domain    Domain
	container string
	recordKey []byte

	local   LocalQueueStore
	remote  RemoteRecordStore
	codec   Codec
	tracker *retry.FailureTracker
	logger  *logger.Logger
	now     func() time.Time
}

// NewUploadPipeline creates an upload pipeline.
func NewUploadPipeline(domain Domain, container string, recordKey []byte, local LocalQueueStore,
	remote RemoteRecordStore, codec Codec, log *logger.Logger) *UploadPipeline {
	return &UploadPipeline{
		domain:    domain,
		container: container,
		recordKey: recordKey,
		local:     local,
		remote:    remote,
		codec:     codec,
		tracker:   retry.NewFailureTracker(),
		logger:    log,
		now:       time.Now,
	}
}

// uploadPass collects the state of one pass between the remote call and
// the commit.
type uploadPass struct {
	batch   models.QueueBatch
	reverse map[string]string // record id → entity id
	sizes   map[string]int    // entity id → unpadded size
	update  models.QueueUpdate
	result  UploadResult
}

func (u *uploadPass) complete(entityID string) {
	rows := u.batch.RowIDsFor(entityID)
	u.update.DeleteFromQueue = append(u.update.DeleteFromQueue, rows...)
	u.result.Completed += len(rows)
}

// Run executes one pass. Queue rows are only removed for remote successes,
// drained rows and entities dropped after repeated failures. A cancelled
// context discards the pass without committing.
func (p *UploadPipeline) Run(ctx context.Context, progress UploadProgressFunc) (UploadResult, error) {
	batch, err := p.local.FetchBatch(ctx, p.domain.SubKinds, p.domain.BatchLimit)
	if err != nil {
		return UploadResult{}, fmt.Errorf("fetch batch: %w", err)
	}

	pass := &uploadPass{batch: batch, sizes: make(map[string]int), result: UploadResult{SubKind: batch.SubKind}}
	if len(batch.Rows) == 0 {
		pass.result.Empty = true
		progress(batch.SubKind, 0, 0)
		return pass.result, nil
	}

	for _, row := range batch.Rows {
		if row.EntityID == "" {
			pass.update.DeleteFromQueue = append(pass.update.DeleteFromQueue, row.RowID)
			pass.result.Completed++
		}
	}

	req := p.buildRequest(pass)
	if len(req.Saves)+len(req.Deletes) == 0 {
		return p.commit(ctx, pass, progress, nil)
	}

	progress(batch.SubKind, 0, len(req.Saves)+len(req.Deletes))
	if err := ctx.Err(); err != nil {
		return pass.result, err
	}

	results, err := p.remote.Modify(ctx, p.container, req)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return pass.result, ctxErr
	}
	if err != nil {
		return pass.result, fmt.Errorf("modify records: %w", err)
	}

	conflicts, abort := p.partition(pass, results)
	if len(conflicts) > 0 {
		if err := p.refetch(ctx, pass, conflicts); err != nil && abort == nil {
			abort = fmt.Errorf("refetch metadata: %w", err)
		}
	}

	return p.commit(ctx, pass, progress, abort)
}

func (p *UploadPipeline) buildRequest(pass *uploadPass) models.ModifyRequest {
	log := p.logger.WithDomain(p.domain.Name, "upload")

	ids := pass.batch.EntityIDs()
	forward, reverse := crypto.RecordIDs(p.recordKey, ids)
	pass.reverse = reverse

	var req models.ModifyRequest
	for _, id := range ids {
		recordID := forward[id]

		if _, unreadable := pass.batch.Unreadable[id]; unreadable {
			log.Error().Str("func", "*UploadPipeline.buildRequest").Str("entity_id", id).Msg("local entity is unreadable")
			p.fail(pass, id, retry.ClassOther, "unreadable")
			continue
		}

		entity, exists := pass.batch.Entities[id]
		if !exists {
			req.Deletes = append(req.Deletes, recordID)
			continue
		}

		encoded, err := p.codec.Encode(entity, pass.batch.Stats)
		if err != nil {
			log.Err(err).Str("func", "*UploadPipeline.buildRequest").Str("entity_id", id).Msg("encode failed")
			p.fail(pass, id, retry.ClassOther, "encode")
			continue
		}

		save := models.RecordSave{
			RecordID:   recordID,
			SubKind:    entity.Kind,
			Ciphertext: encoded.Ciphertext,
			CreatedAt:  entity.CreatedAt,
		}
		if meta, ok := pass.batch.Metadata[id]; ok {
			save.ChangeTag = meta.Record.ChangeTag
			save.CreatedAt = meta.Record.CreatedAt
		}
		pass.sizes[id] = encoded.UnpaddedSize
		req.Saves = append(req.Saves, save)
	}
	return req
}

// partition applies per-record results. It returns the record ids to
// refetch after a conflict, and the error that aborts the batch, if any.
// Conflicts are counted only once their metadata was refetched.
func (p *UploadPipeline) partition(pass *uploadPass, results []models.ItemResult) ([]string, error) {
	log := p.logger.WithDomain(p.domain.Name, "upload")

	var (
		conflicts []string
		abort     error
	)
	for _, r := range results {
		entityID, ok := pass.reverse[r.RecordID]
		if !ok {
			log.Warn().Str("func", "*UploadPipeline.partition").Str("record_id", r.RecordID).Msg("result for unknown record")
			continue
		}
		entity, exists := pass.batch.Entities[entityID]

		switch {
		case r.Status == models.ItemOK, r.Status == models.ItemNotFound && !exists:
			p.tracker.Reset(entityID)
			pass.complete(entityID)
			if !exists {
				pass.update.DeleteFromMetadata = append(pass.update.DeleteFromMetadata, entityID)
			} else if r.Metadata != nil {
				pass.update.UpsertMetadata = append(pass.update.UpsertMetadata, models.CloudMetadata{
					EntityID:     entityID,
					SubKind:      pass.batch.SubKind,
					SizeGroup:    models.SizeGroupOf(entity),
					Record:       *r.Metadata,
					UnpaddedSize: pass.sizes[entityID],
					SyncedAt:     p.now(),
				})
			}

		case abort != nil:
			// batch aborted; remaining failures are retried on the next pass

		case r.Status == models.ItemAccountUnavailable:
			abort = fmt.Errorf("record %s: %w", r.RecordID, retry.ErrTransientAccount)

		case r.Status == models.ItemConflict:
			pass.result.Conflicts++
			conflicts = append(conflicts, r.RecordID)

		default:
			log.Warn().Str("func", "*UploadPipeline.partition").Str("entity_id", entityID).
				Str("status", string(r.Status)).Str("message", r.Message).Msg("record rejected")
			p.fail(pass, entityID, retry.ClassOther, string(r.Status))
		}
	}
	return conflicts, abort
}

// fail records a per-entity failure and drops the entity's rows once the
// failure repeated often enough. It reports whether the entity was dropped.
func (p *UploadPipeline) fail(pass *uploadPass, entityID string, class retry.Class, code string) bool {
	if !p.tracker.Record(entityID, class, code) {
		return false
	}
	p.logger.WithDomain(p.domain.Name, "upload").Error().Str("func", "*UploadPipeline.fail").
		Str("entity_id", entityID).Str("class", class.String()).Str("code", code).
		Msg("dropping entity from upload queue after repeated failures")
	pass.complete(entityID)
	pass.result.Dropped++
	return true
}

// refetch loads fresh metadata for conflicting records so the next pass
// writes with the current change tag, then counts the conflicts. Records
// missing remotely lose their cached metadata and are inserted again. A
// failed refetch leaves the conflicts uncounted and is returned.
func (p *UploadPipeline) refetch(ctx context.Context, pass *uploadPass, recordIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	metas, err := p.remote.FetchMetadata(ctx, p.container, recordIDs)
	if err != nil {
		p.logger.WithDomain(p.domain.Name, "upload").Err(err).Str("func", "*UploadPipeline.refetch").
			Int("records", len(recordIDs)).Msg("metadata refetch failed")
		return err
	}

	found := make(map[string]models.RecordMetadata, len(metas))
	for _, m := range metas {
		found[m.RecordID] = m
	}

	for _, recordID := range recordIDs {
		entityID := pass.reverse[recordID]
		if meta, ok := found[recordID]; ok {
			cached := pass.batch.Metadata[entityID]
			group := cached.SizeGroup
			if entity, exists := pass.batch.Entities[entityID]; exists {
				group = models.SizeGroupOf(entity)
			}
			pass.update.UpsertMetadata = append(pass.update.UpsertMetadata, models.CloudMetadata{
				EntityID:     entityID,
				SubKind:      pass.batch.SubKind,
				SizeGroup:    group,
				Record:       meta,
				UnpaddedSize: cached.UnpaddedSize,
				SyncedAt:     cached.SyncedAt,
			})
		} else {
			pass.update.DeleteFromMetadata = append(pass.update.DeleteFromMetadata, entityID)
		}
		p.fail(pass, entityID, retry.ClassConflict, string(models.ItemConflict))
	}
	return nil
}

func (p *UploadPipeline) commit(ctx context.Context, pass *uploadPass, progress UploadProgressFunc, abort error) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return pass.result, err
	}

	u := pass.update
	if len(u.DeleteFromQueue)+len(u.DeleteFromMetadata)+len(u.UpsertMetadata) > 0 {
		if err := p.local.UpdateRows(ctx, u); err != nil {
			return pass.result, fmt.Errorf("commit upload: %w", err)
		}
	}
	progress(pass.batch.SubKind, pass.result.Completed, 0)

	p.logger.WithDomain(p.domain.Name, "upload").Debug().
		Str("sub_kind", string(pass.batch.SubKind)).
		Int("completed", pass.result.Completed).
		Int("dropped", pass.result.Dropped).
		Int("conflicts", pass.result.Conflicts).
		Msg("upload pass committed")

	return pass.result, abort
}
