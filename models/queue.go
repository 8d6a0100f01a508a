package models

import "time"

// QueueRow is one pending mutation in the local upload queue. Several rows
// may reference the same entity. An empty EntityID marks a row that could
// not be resolved.
type QueueRow struct {
	RowID    int64
	EntityID string
}

// SizeGroup buckets entities whose plaintext sizes are tracked together.
// Payments are split by direction, other subkinds form one group each.
type SizeGroup string

// SizeGroupOf returns the size group of e.
func SizeGroupOf(e Entity) SizeGroup {
	if e.Kind == SubKindPayment && e.Payment != nil && e.Payment.Direction != "" {
		return SizeGroup(string(e.Kind) + "/" + string(e.Payment.Direction))
	}
	return SizeGroup(e.Kind)
}

// SizeStat describes unpadded plaintext sizes previously uploaded for a
// size group.
type SizeStat struct {
	Mean    float64
	StdDev  float64
	Samples int
}

// SizeStats holds a SizeStat per size group.
type SizeStats map[SizeGroup]SizeStat

// CloudMetadata is the locally cached remote metadata of an entity.
type CloudMetadata struct {
	EntityID     string
	SubKind      SubKind
	SizeGroup    SizeGroup
	Record       RecordMetadata
	UnpaddedSize int
	SyncedAt     time.Time
}

// QueueBatch is a bounded slice of the upload queue for one subkind.
type QueueBatch struct {
	SubKind SubKind
	Rows    []QueueRow

	// Entities holds entities that still exist locally. An id present in
	// Rows but absent here was deleted locally.
	Entities map[string]Entity

	// Unreadable holds ids of entities that exist locally but could not be
	// decoded. They are neither uploaded nor deleted remotely.
	Unreadable map[string]struct{}

	// Metadata holds cached remote metadata by entity id.
	Metadata map[string]CloudMetadata

	// Stats covers every size group of the domain, so padding can aim at
	// the widest one.
	Stats SizeStats
}

// EntityIDs returns the unique entity ids of the batch in row order.
func (b QueueBatch) EntityIDs() []string {
	seen := make(map[string]struct{}, len(b.Rows))
	ids := make([]string, 0, len(b.Rows))
	for _, row := range b.Rows {
		if row.EntityID == "" {
			continue
		}
		if _, ok := seen[row.EntityID]; ok {
			continue
		}
		seen[row.EntityID] = struct{}{}
		ids = append(ids, row.EntityID)
	}
	return ids
}

// RowIDsFor returns every row id that references entityID.
func (b QueueBatch) RowIDsFor(entityID string) []int64 {
	var rows []int64
	for _, row := range b.Rows {
		if row.EntityID == entityID {
			rows = append(rows, row.RowID)
		}
	}
	return rows
}

// QueueUpdate is the commit phase of an upload pass.
type QueueUpdate struct {
	DeleteFromQueue    []int64
	DeleteFromMetadata []string
	UpsertMetadata     []CloudMetadata
}

// DownloadedEntity pairs a decoded entity with its remote metadata.
type DownloadedEntity struct {
	Entity   Entity
	Metadata CloudMetadata
}

// SyncFlags are the persisted per-domain flags that seed the state machine.
type SyncFlags struct {
	Enabled          bool
	ContainerCreated bool
	Downloaded       map[SubKind]bool
}
