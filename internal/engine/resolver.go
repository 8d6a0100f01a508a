// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package engine

import "github.com/MKhiriev/wallet-cloud-sync/models"

// flags is everything the resolver looks at. Events mutate flags; only the
// resolver turns them into a state.
type flags struct {
	enabled bool

	needsCreate   bool
	needsDelete   bool
	needsDownload map[models.SubKind]bool
	queueCount    map[models.SubKind]int

	waitingForConnectivity bool
	waitingForCredentials  bool
}

func newFlags() flags {
	return flags{
		needsDownload: make(map[models.SubKind]bool),
		queueCount:    make(map[models.SubKind]int),
	}
}

func (f flags) anyDownload() bool {
	for _, need := range f.needsDownload {
		if need {
			return true
		}
	}
	return false
}

func (f flags) anyQueued() bool {
	for _, n := range f.queueCount {
		if n > 0 {
			return true
		}
	}
	return false
}

// target is the shape of a resolved state, without progress or wait timing.
type target struct {
	kind   Kind
	cloud  CloudOp
	reason WaitReason
}

func (t target) busy() bool {
	return t.kind == KindUpdatingCloud || t.kind == KindDownloading || t.kind == KindUploading
}

// resolve maps flags to the canonical state, in priority order.
func resolve(f flags) target {
	switch {
	case f.waitingForConnectivity:
		return target{kind: KindWaiting, reason: ForConnectivity}
	case f.waitingForCredentials:
		return target{kind: KindWaiting, reason: ForCredentials}
	}

	if f.enabled {
		switch {
		case f.needsCreate:
			return target{kind: KindUpdatingCloud, cloud: CreatingContainer}
		case f.anyDownload():
			return target{kind: KindDownloading}
		case f.anyQueued():
			return target{kind: KindUploading}
		default:
			return target{kind: KindSynced}
		}
	}

	if f.needsDelete {
		return target{kind: KindUpdatingCloud, cloud: DeletingContainer}
	}
	return target{kind: KindDisabled}
}
