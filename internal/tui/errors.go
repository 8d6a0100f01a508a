// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"fmt"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/engine"
	"github.com/MKhiriev/wallet-cloud-sync/internal/retry"
)

// humanizeClass turns a retry class into a short reason for the user.
func humanizeClass(c retry.Class) string {
	switch c {
	case retry.ClassAuthRequired:
		return "sign-in rejected"
	case retry.ClassContainerMissing:
		return "cloud container missing"
	case retry.ClassConflict:
		return "records changed on server"
	case retry.ClassTransientAccount:
		return "account temporarily unavailable"
	case retry.ClassCancelled:
		return "cancelled"
	default:
		return "server error"
	}
}

// describeState is the one-line text of a domain state.
func describeState(st engine.State, now time.Time) string {
	switch st.Kind {
	case engine.KindInitializing:
		return "starting"
	case engine.KindUpdatingCloud:
		if st.Cloud == engine.DeletingContainer {
			return "deleting cloud copy"
		}
		return "creating cloud container"
	case engine.KindDownloading:
		return "downloading"
	case engine.KindUploading:
		return "uploading"
	case engine.KindSynced:
		return "synced"
	case engine.KindDisabled:
		return "disabled"
	case engine.KindShutdown:
		return "stopped"
	case engine.KindWaiting:
		return describeWait(st.Wait, now)
	default:
		return st.String()
	}
}

func describeWait(w *engine.WaitInfo, now time.Time) string {
	if w == nil {
		return "waiting"
	}
	switch w.Reason {
	case engine.ForConnectivity:
		return "waiting for network"
	case engine.ForCredentials:
		return "waiting for sign-in"
	case engine.ExponentialBackoff:
		return fmt.Sprintf("%s, retry #%d in %s", humanizeClass(w.Class), w.Attempt, countdown(w.Until, now))
	case engine.UploadDelay:
		return fmt.Sprintf("upload in %s", countdown(w.Until, now))
	default:
		return "waiting"
	}
}

// describePending is the countdown text of a pending toggle.
func describePending(p *engine.Pending, now time.Time) string {
	if p == nil {
		return ""
	}
	if p.Direction.Enabled() {
		return "will enable in " + countdown(p.FireAt, now)
	}
	return "will disable in " + countdown(p.FireAt, now)
}
