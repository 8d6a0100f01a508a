// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package engine

import (
	"fmt"
	"maps"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/retry"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// Kind is the top-level variant of a sync state.
type Kind int

const (
	KindInitializing Kind = iota
	KindUpdatingCloud
	KindDownloading
	KindUploading
	KindWaiting
	KindSynced
	KindDisabled
	KindShutdown
)

func (k Kind) String() string {
	switch k {
	case KindInitializing:
		return "initializing"
	case KindUpdatingCloud:
		return "updating_cloud"
	case KindDownloading:
		return "downloading"
	case KindUploading:
		return "uploading"
	case KindWaiting:
		return "waiting"
	case KindSynced:
		return "synced"
	case KindDisabled:
		return "disabled"
	case KindShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// CloudOp is the container operation of an UpdatingCloud state.
type CloudOp int

const (
	CreatingContainer CloudOp = iota + 1
	DeletingContainer
)

func (op CloudOp) String() string {
	switch op {
	case CreatingContainer:
		return "creating_container"
	case DeletingContainer:
		return "deleting_container"
	default:
		return "none"
	}
}

// WaitReason says why a Waiting state waits.
type WaitReason int

const (
	ForConnectivity WaitReason = iota + 1
	ForCredentials
	ExponentialBackoff
	// UploadDelay is the randomized pause between the queue becoming
	// non-empty and the upload that hides payment timing.
	UploadDelay
)

func (r WaitReason) String() string {
	switch r {
	case ForConnectivity:
		return "connectivity"
	case ForCredentials:
		return "credentials"
	case ExponentialBackoff:
		return "backoff"
	case UploadDelay:
		return "upload_delay"
	default:
		return "none"
	}
}

// timed reports whether waits of this reason end by a timer.
func (r WaitReason) timed() bool {
	return r == ExponentialBackoff || r == UploadDelay
}

// WaitSpec asks the machine to enter a timed wait. Class and Attempt are
// informational for backoff waits.
type WaitSpec struct {
	Delay   time.Duration
	Class   retry.Class
	Attempt int
}

// WaitInfo is the published, read-only view of a wait.
type WaitInfo struct {
	Reason  WaitReason
	Class   retry.Class
	Attempt int
	Until   time.Time // zero for untimed waits
	Token   uint64
}

// State is one published sync state. Only the fields of its Kind are set.
type State struct {
	Kind  Kind
	Cloud CloudOp
	Wait  *WaitInfo

	// Pass increments each time an Uploading or Downloading state is
	// entered again after its operation finished.
	Pass int
}

func (s State) String() string {
	switch s.Kind {
	case KindUpdatingCloud:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Cloud)
	case KindWaiting:
		if s.Wait == nil {
			return s.Kind.String()
		}
		if s.Wait.Reason == ExponentialBackoff {
			return fmt.Sprintf("waiting(backoff %s #%d)", s.Wait.Class, s.Wait.Attempt)
		}
		return fmt.Sprintf("waiting(%s)", s.Wait.Reason)
	default:
		return s.Kind.String()
	}
}

// Busy reports whether the state has an operation in flight.
func (s State) Busy() bool {
	return s.Kind == KindUpdatingCloud || s.Kind == KindDownloading || s.Kind == KindUploading
}

// DownloadProgress counts downloaded records per subkind and the oldest
// creation time seen, which is also the resume bookmark.
type DownloadProgress struct {
	Completed map[models.SubKind]int
	Oldest    map[models.SubKind]time.Time
	Done      map[models.SubKind]bool
}

func newDownloadProgress() *DownloadProgress {
	return &DownloadProgress{
		Completed: make(map[models.SubKind]int),
		Oldest:    make(map[models.SubKind]time.Time),
		Done:      make(map[models.SubKind]bool),
	}
}

func (p *DownloadProgress) clone() *DownloadProgress {
	if p == nil {
		return nil
	}
	return &DownloadProgress{
		Completed: maps.Clone(p.Completed),
		Oldest:    maps.Clone(p.Oldest),
		Done:      maps.Clone(p.Done),
	}
}

// UploadProgress counts upload work per subkind. Active is the subkind of
// the current pass; only one uploads at a time.
type UploadProgress struct {
	Total     map[models.SubKind]int
	Completed map[models.SubKind]int
	InFlight  map[models.SubKind]int
	Active    models.SubKind
}

func newUploadProgress(queue map[models.SubKind]int) *UploadProgress {
	p := &UploadProgress{
		Total:     make(map[models.SubKind]int),
		Completed: make(map[models.SubKind]int),
		InFlight:  make(map[models.SubKind]int),
	}
	for sk, n := range queue {
		p.Total[sk] = n
	}
	return p
}

// remaining sets the number of rows still queued for sk. The total grows
// when new rows arrive mid-upload.
func (p *UploadProgress) remaining(sk models.SubKind, queued int) {
	p.Total[sk] = p.Completed[sk] + queued
}

func (p *UploadProgress) clone() *UploadProgress {
	if p == nil {
		return nil
	}
	return &UploadProgress{
		Total:     maps.Clone(p.Total),
		Completed: maps.Clone(p.Completed),
		InFlight:  maps.Clone(p.InFlight),
		Active:    p.Active,
	}
}

// Progress is the published progress snapshot of a domain.
type Progress struct {
	Domain   string
	Download *DownloadProgress
	Upload   *UploadProgress
}

func (p Progress) equal(o Progress) bool {
	if p.Domain != o.Domain {
		return false
	}
	if (p.Download == nil) != (o.Download == nil) || (p.Upload == nil) != (o.Upload == nil) {
		return false
	}
	if p.Download != nil {
		if !maps.Equal(p.Download.Completed, o.Download.Completed) ||
			!maps.EqualFunc(p.Download.Oldest, o.Download.Oldest, time.Time.Equal) ||
			!maps.Equal(p.Download.Done, o.Download.Done) {
			return false
		}
	}
	if p.Upload != nil {
		if p.Upload.Active != o.Upload.Active ||
			!maps.Equal(p.Upload.Total, o.Upload.Total) ||
			!maps.Equal(p.Upload.Completed, o.Upload.Completed) ||
			!maps.Equal(p.Upload.InFlight, o.Upload.InFlight) {
			return false
		}
	}
	return true
}

// Fraction returns completed over total across subkinds, in [0, 1].
func (p *UploadProgress) Fraction() float64 {
	total, done := 0, 0
	for sk, n := range p.Total {
		total += n
		done += p.Completed[sk]
	}
	if total == 0 {
		return 1
	}
	return min(1, float64(done)/float64(total))
}
