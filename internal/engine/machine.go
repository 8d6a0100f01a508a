// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package engine

import (
	"context"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/retry"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// Machine is the sync state machine of one domain.
//
// Every event mutates flags and then runs the resolver. An event returns the
// new state only when the state changed, and nil otherwise.
//
// Machine is not safe for concurrent use. A Coordinator owns it and feeds it
// events from a single goroutine.
type Machine struct {
	domain Domain
	flags  flags
	state  State

	wait   *time.Timer
	tokens uint64
	onWait func(token uint64)

	download *DownloadProgress
	upload   *UploadProgress

	cancelTask context.CancelFunc
	now        func() time.Time
}

// NewMachine returns a machine in the Initializing state. onWait is invoked
// from a timer goroutine when a timed wait elapses; it should route
// WaitFinished back to the owner of the machine.
func NewMachine(domain Domain, onWait func(token uint64)) *Machine {
	return &Machine{
		domain: domain,
		flags:  newFlags(),
		state:  State{Kind: KindInitializing},
		onWait: onWait,
		now:    time.Now,
	}
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.snapshot()
}

// Enabled reports the committed enabled flag.
func (m *Machine) Enabled() bool {
	return m.flags.enabled
}

// Progress returns a copy of the current progress counters.
func (m *Machine) Progress() Progress {
	return Progress{
		Domain:   m.domain.Name,
		Download: m.download.clone(),
		Upload:   m.upload.clone(),
	}
}

// PendingDownloads lists the subkinds still needing an initial download, in
// domain order.
func (m *Machine) PendingDownloads() []models.SubKind {
	var pending []models.SubKind
	for _, sk := range m.domain.SubKinds {
		if m.flags.needsDownload[sk] {
			pending = append(pending, sk)
		}
	}
	return pending
}

// StartTask registers the cancel func of the operation dispatched for the
// current state. Events that must abort the operation call it.
func (m *Machine) StartTask(cancel context.CancelFunc) {
	m.cancelTask = cancel
}

// ── events ───────────────────────────────────────────────────────────────────

// Initialize seeds the flags from persisted values and leaves Initializing.
func (m *Machine) Initialize(persisted models.SyncFlags, connected, hasCredentials bool) *State {
	if m.state.Kind != KindInitializing {
		return nil
	}

	m.flags.enabled = persisted.Enabled
	if persisted.Enabled {
		m.flags.needsCreate = !persisted.ContainerCreated
		for _, sk := range m.domain.SubKinds {
			m.flags.needsDownload[sk] = !persisted.Downloaded[sk]
		}
	} else {
		m.flags.needsDelete = persisted.ContainerCreated
	}
	m.flags.waitingForConnectivity = !connected
	m.flags.waitingForCredentials = !hasCredentials

	return m.resolve(false)
}

// Toggle commits an approved enable or disable.
func (m *Machine) Toggle(enabled bool) *State {
	if m.state.Kind == KindShutdown || m.flags.enabled == enabled {
		return nil
	}

	m.flags.enabled = enabled
	if enabled {
		m.flags.needsCreate = true
		m.flags.needsDelete = false
		for _, sk := range m.domain.SubKinds {
			m.flags.needsDownload[sk] = true
		}
		if m.state.Kind == KindUpdatingCloud && m.state.Cloud == DeletingContainer {
			m.abortTask()
		}
	} else {
		m.flags.needsDelete = true
		m.flags.needsCreate = false
		clear(m.flags.needsDownload)
		if m.state.Busy() && m.state.Cloud != DeletingContainer {
			m.abortTask()
		}
	}

	if m.timedWait() {
		// skip the wait
		return m.resolve(false)
	}
	return m.resolveIfIdle()
}

// ConnectivityChanged records whether the remote store is reachable.
func (m *Machine) ConnectivityChanged(available bool) *State {
	if m.state.Kind == KindShutdown || m.flags.waitingForConnectivity == !available {
		return nil
	}
	m.flags.waitingForConnectivity = !available
	return m.resolveIfIdle()
}

// CredentialsChanged records whether usable credentials exist.
func (m *Machine) CredentialsChanged(ok bool) *State {
	if m.state.Kind == KindShutdown || m.flags.waitingForCredentials == !ok {
		return nil
	}
	m.flags.waitingForCredentials = !ok
	return m.resolveIfIdle()
}

// QueueCountChanged records the number of queued rows of sk. While
// uploading it only moves the progress total. When the domain is synced
// and delay is set, the machine waits before uploading.
func (m *Machine) QueueCountChanged(sk models.SubKind, count int, delay *WaitSpec) *State {
	if m.state.Kind == KindShutdown || !m.domain.Has(sk) {
		return nil
	}
	m.flags.queueCount[sk] = count

	switch m.state.Kind {
	case KindUploading:
		if m.upload != nil {
			m.upload.remaining(sk, count)
		}
		return nil
	case KindSynced:
		if count > 0 && delay != nil && delay.Delay > 0 && resolve(m.flags).kind == KindUploading {
			return m.enterWait(UploadDelay, *delay)
		}
	}
	return m.resolveIfIdle()
}

// ContainerCreated reports a successful container create.
func (m *Machine) ContainerCreated() *State {
	m.flags.needsCreate = false
	if m.state.Kind == KindUpdatingCloud && m.state.Cloud == CreatingContainer {
		m.cancelTask = nil
		return m.resolve(true)
	}
	return nil
}

// ContainerDeleted reports a successful container delete.
func (m *Machine) ContainerDeleted() *State {
	m.flags.needsDelete = false
	if m.state.Kind == KindUpdatingCloud && m.state.Cloud == DeletingContainer {
		m.cancelTask = nil
		return m.resolve(true)
	}
	return nil
}

// DownloadCompleted reports that the initial download of sk finished. The
// machine leaves Downloading once every subkind is done.
func (m *Machine) DownloadCompleted(sk models.SubKind) *State {
	if m.state.Kind == KindShutdown {
		return nil
	}
	m.flags.needsDownload[sk] = false
	if m.download != nil {
		m.download.Done[sk] = true
	}
	if m.state.Kind == KindDownloading && !m.flags.anyDownload() {
		m.cancelTask = nil
		return m.resolve(true)
	}
	return nil
}

// UploadCompleted reports the end of an upload pass. A non-empty queue
// starts the next pass.
func (m *Machine) UploadCompleted() *State {
	if m.state.Kind != KindUploading {
		return nil
	}
	m.cancelTask = nil
	return m.resolve(true)
}

// OperationFailed reports a failed container operation or pipeline run.
// With a wait the machine backs off; otherwise it resolves at once.
func (m *Machine) OperationFailed(class retry.Class, wait *WaitSpec) *State {
	if m.state.Kind == KindShutdown {
		return nil
	}

	switch class {
	case retry.ClassAuthRequired:
		m.flags.waitingForCredentials = true
	case retry.ClassContainerMissing:
		if m.flags.enabled {
			m.flags.needsCreate = true
		}
	}

	if !m.state.Busy() {
		return nil
	}
	m.cancelTask = nil
	if wait != nil && class != retry.ClassCancelled {
		return m.enterWait(ExponentialBackoff, *wait)
	}
	return m.resolve(true)
}

// WaitFinished ends the timed wait identified by token. Stale tokens are
// ignored.
func (m *Machine) WaitFinished(token uint64) *State {
	if !m.timedWait() || m.state.Wait.Token != token {
		return nil
	}
	return m.resolve(false)
}

// SkipWait ends the current timed wait early.
func (m *Machine) SkipWait() *State {
	if !m.timedWait() {
		return nil
	}
	return m.resolve(false)
}

// UploadProgressed adds completed rows of sk and sets its in-flight count.
func (m *Machine) UploadProgressed(sk models.SubKind, completed, inFlight int) {
	if m.upload == nil {
		return
	}
	m.upload.Active = sk
	m.upload.Completed[sk] += completed
	m.upload.InFlight[sk] = inFlight
	if m.upload.Total[sk] < m.upload.Completed[sk]+inFlight {
		m.upload.Total[sk] = m.upload.Completed[sk] + inFlight
	}
}

// DownloadProgressed sets the downloaded count of sk and the oldest
// creation time seen.
func (m *Machine) DownloadProgressed(sk models.SubKind, downloaded int, oldest time.Time) {
	if m.download == nil {
		return
	}
	m.download.Completed[sk] = downloaded
	if !oldest.IsZero() {
		m.download.Oldest[sk] = oldest
	}
}

// Shutdown stops timers, aborts the running operation and enters the
// terminal state.
func (m *Machine) Shutdown() *State {
	if m.state.Kind == KindShutdown {
		return nil
	}
	m.abortTask()
	m.stopWait()
	m.download, m.upload = nil, nil
	m.state = State{Kind: KindShutdown}
	return m.published()
}

// ── resolution ───────────────────────────────────────────────────────────────

// resolveIfIdle resolves only from states without an operation or timer.
// Busy states resolve when their operation reports back.
func (m *Machine) resolveIfIdle() *State {
	switch m.state.Kind {
	case KindSynced, KindDisabled:
		return m.resolve(false)
	case KindWaiting:
		if !m.timedWait() {
			return m.resolve(false)
		}
	}
	return nil
}

// resolve moves to the resolver's target. With restart a busy target equal
// to the current state is entered again, which dispatches a new operation.
func (m *Machine) resolve(restart bool) *State {
	if m.state.Kind == KindShutdown {
		return nil
	}
	t := resolve(m.flags)
	if m.matches(t) && !(restart && t.busy()) {
		return nil
	}
	return m.enter(t)
}

func (m *Machine) matches(t target) bool {
	if m.state.Kind != t.kind {
		return false
	}
	switch t.kind {
	case KindUpdatingCloud:
		return m.state.Cloud == t.cloud
	case KindWaiting:
		return m.state.Wait != nil && m.state.Wait.Reason == t.reason
	default:
		return true
	}
}

func (m *Machine) enter(t target) *State {
	prev := m.state
	m.stopWait()

	next := State{Kind: t.kind, Cloud: t.cloud}
	if prev.Kind == t.kind && prev.Cloud == t.cloud {
		next.Pass = prev.Pass + 1
	}

	switch t.kind {
	case KindDownloading:
		if prev.Kind != KindDownloading || m.download == nil {
			m.download = newDownloadProgress()
		}
		m.upload = nil
	case KindUploading:
		if prev.Kind != KindUploading || m.upload == nil {
			m.upload = newUploadProgress(m.flags.queueCount)
		}
		m.download = nil
	case KindWaiting:
		next.Wait = &WaitInfo{Reason: t.reason}
		m.download, m.upload = nil, nil
	default:
		m.download, m.upload = nil, nil
	}

	m.state = next
	return m.published()
}

func (m *Machine) enterWait(reason WaitReason, spec WaitSpec) *State {
	m.stopWait()
	m.download, m.upload = nil, nil

	m.tokens++
	token := m.tokens
	m.state = State{
		Kind: KindWaiting,
		Wait: &WaitInfo{
			Reason:  reason,
			Class:   spec.Class,
			Attempt: spec.Attempt,
			Until:   m.now().Add(spec.Delay),
			Token:   token,
		},
	}
	if m.onWait != nil {
		fire := m.onWait
		m.wait = time.AfterFunc(spec.Delay, func() { fire(token) })
	}
	return m.published()
}

func (m *Machine) timedWait() bool {
	return m.state.Kind == KindWaiting && m.state.Wait != nil && m.state.Wait.Reason.timed()
}

func (m *Machine) stopWait() {
	if m.wait != nil {
		m.wait.Stop()
		m.wait = nil
	}
}

func (m *Machine) abortTask() {
	if m.cancelTask != nil {
		m.cancelTask()
	}
}

func (m *Machine) snapshot() State {
	s := m.state
	if s.Wait != nil {
		w := *s.Wait
		s.Wait = &w
	}
	return s
}

func (m *Machine) published() *State {
	s := m.snapshot()
	return &s
}
