// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/internal/retry"
	"github.com/MKhiriev/wallet-cloud-sync/internal/tracing"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// DefaultToggleDelay is how long a toggle request stays pending.
const DefaultToggleDelay = 30 * time.Second

// UploadDelayRange bounds the randomized upload delay. A zero Max turns the
// delay off.
type UploadDelayRange struct {
	Min time.Duration
	Max time.Duration
}

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Domain    Domain
	Container string
	RecordKey []byte

	Local  LocalQueueStore
	Remote RemoteRecordStore
	Codec  Codec

	ToggleDelay time.Duration
	UploadDelay UploadDelayRange
	PageSize    int

	// RecheckCredentials is called when the remote rejected the
	// credentials or the machine starts waiting for them. It must not
	// block.
	RecheckCredentials func()

	Logger *logger.Logger
	Tracer *tracing.Tracer
}

type event func(m *Machine) *State

// Coordinator drives the sync of one domain. It owns the Machine and feeds
// it events on a single goroutine, dispatches the operation of every new
// state and publishes states, pending toggles and progress.
type Coordinator struct {
	domain    Domain
	container string
	local     LocalQueueStore
	remote    RemoteRecordStore
	uploader  *UploadPipeline
	loader    *DownloadPipeline
	delay     UploadDelayRange
	recheck   func()
	logger    *logger.Logger
	tracer    *tracing.Tracer

	// loop-owned
	machine      *Machine
	policy       *retry.Policy
	taskSeq      uint64
	lastProgress Progress

	toggle  *PendingToggle
	enabled atomic.Bool

	states   *Publisher[State]
	pending  *Publisher[*Pending]
	progress *Publisher[Progress]

	events  chan event
	done    chan struct{}
	startMu sync.Mutex // orders Start against toggles committed before it
	started atomic.Bool
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   sync.WaitGroup
	loopWG  sync.WaitGroup
}

// NewCoordinator wires a coordinator. Start must be called before events
// have any effect.
func NewCoordinator(deps Deps) (*Coordinator, error) {
	if deps.Local == nil || deps.Remote == nil || deps.Codec == nil {
		return nil, ErrMissingDependency
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Tracer == nil {
		deps.Tracer = tracing.Nop()
	}
	if deps.ToggleDelay <= 0 {
		deps.ToggleDelay = DefaultToggleDelay
	}

	log := deps.Logger.WithDomain(deps.Domain.Name, "coordinator")
	c := &Coordinator{
		domain:    deps.Domain,
		container: deps.Container,
		local:     deps.Local,
		remote:    deps.Remote,
		uploader: NewUploadPipeline(deps.Domain, deps.Container, deps.RecordKey,
			deps.Local, deps.Remote, deps.Codec, deps.Logger),
		loader: NewDownloadPipeline(deps.Domain, deps.Container, deps.RecordKey, deps.PageSize,
			deps.Local, deps.Remote, deps.Codec, deps.Logger),
		delay:    deps.UploadDelay,
		recheck:  deps.RecheckCredentials,
		logger:   log,
		tracer:   deps.Tracer,
		policy:   retry.NewPolicy(deps.Domain.Backoff),
		states:   NewPublisher[State](),
		pending:  NewPublisher[*Pending](),
		progress: NewPublisher[Progress](),
		events:   make(chan event),
		done:     make(chan struct{}),
	}
	c.machine = NewMachine(deps.Domain, c.waitFinished)
	c.toggle = NewPendingToggle(deps.ToggleDelay, c.enabled.Load, c.commitToggle, c.pending.Publish)
	c.pending.Publish(nil)
	return c, nil
}

// Domain returns the domain the coordinator syncs.
func (c *Coordinator) Domain() Domain {
	return c.domain
}

// Start loads the persisted flags, starts the event loop and initializes
// the machine. The loop stops when ctx is done or on Close.
func (c *Coordinator) Start(ctx context.Context, connected, hasCredentials bool) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrCoordinatorStarted
	}

	c.startMu.Lock()
	defer c.startMu.Unlock()

	persisted, err := c.local.LoadFlags(ctx, c.domain.Name, c.domain.SubKinds)
	if err != nil {
		c.started.Store(false)
		return fmt.Errorf("load sync flags: %w", err)
	}
	counts, err := c.queueCounts(ctx)
	if err != nil {
		c.started.Store(false)
		return err
	}
	c.enabled.Store(persisted.Enabled)

	c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c.loopWG.Add(1)
	c.running.Store(true)
	go c.loop(ctx)

	c.send(func(m *Machine) *State {
		for sk, n := range counts {
			m.QueueCountChanged(sk, n, nil)
		}
		return m.Initialize(persisted, connected, hasCredentials)
	})

	c.logger.Info().Bool("enabled", persisted.Enabled).Bool("container_created", persisted.ContainerCreated).
		Msg("coordinator started")
	return nil
}

// Close shuts the machine down, waits for running operations and closes
// the publishers.
func (c *Coordinator) Close() {
	c.toggle.Stop()
	if c.running.Load() {
		c.send(func(m *Machine) *State { return m.Shutdown() })
		c.loopWG.Wait()
		c.cancel()
		c.tasks.Wait()
	}
	c.states.Close()
	c.pending.Close()
	c.progress.Close()
}

// ── inputs ───────────────────────────────────────────────────────────────────

// ConnectivityChanged forwards the connectivity monitor's signal.
func (c *Coordinator) ConnectivityChanged(available bool) {
	c.send(func(m *Machine) *State { return m.ConnectivityChanged(available) })
}

// CredentialsChanged forwards the credential monitor's signal.
func (c *Coordinator) CredentialsChanged(ok bool) {
	c.send(func(m *Machine) *State { return m.CredentialsChanged(ok) })
}

// QueueCountChanged forwards the queue monitor's count for sk.
func (c *Coordinator) QueueCountChanged(sk models.SubKind, count int) {
	if !c.domain.Has(sk) {
		return
	}
	c.send(func(m *Machine) *State { return m.QueueCountChanged(sk, count, c.uploadDelay()) })
}

// RequestToggle asks to enable or disable the domain after the toggle
// delay.
func (c *Coordinator) RequestToggle(enabled bool) {
	c.toggle.Request(enabled)
}

// CancelToggle drops a pending toggle request.
func (c *Coordinator) CancelToggle() {
	c.toggle.Cancel()
}

// Preference returns the enabled value last asked for.
func (c *Coordinator) Preference() bool {
	return c.toggle.Preference()
}

// SkipWait ends a backoff or upload-delay wait now.
func (c *Coordinator) SkipWait() {
	c.send(func(m *Machine) *State { return m.SkipWait() })
}

// ── outputs ──────────────────────────────────────────────────────────────────

// States subscribes to state changes.
func (c *Coordinator) States() (<-chan State, func()) {
	return c.states.Subscribe()
}

// Pending subscribes to pending-toggle changes. nil means nothing pending.
func (c *Coordinator) Pending() (<-chan *Pending, func()) {
	return c.pending.Subscribe()
}

// Progress subscribes to progress counters.
func (c *Coordinator) Progress() (<-chan Progress, func()) {
	return c.progress.Subscribe()
}

// State returns the latest published state.
func (c *Coordinator) State() State {
	s, ok := c.states.Last()
	if !ok {
		return State{Kind: KindInitializing}
	}
	return s
}

// ── loop ─────────────────────────────────────────────────────────────────────

func (c *Coordinator) loop(ctx context.Context) {
	defer c.loopWG.Done()
	defer close(c.done)

	for {
		select {
		case ev := <-c.events:
			if c.apply(ev) {
				return
			}
		case <-ctx.Done():
			c.apply(func(m *Machine) *State { return m.Shutdown() })
			return
		}
	}
}

// apply runs ev on the machine, publishes and dispatches the result. It
// reports whether the machine shut down.
func (c *Coordinator) apply(ev event) bool {
	st := ev(c.machine)
	if st != nil {
		c.logger.Debug().Str("state", st.String()).Int("pass", st.Pass).Msg("state changed")
		c.states.Publish(*st)
		c.dispatch(*st)
	}

	if p := c.machine.Progress(); !p.equal(c.lastProgress) {
		c.lastProgress = p
		c.progress.Publish(p)
	}
	return c.machine.State().Kind == KindShutdown
}

// send queues ev for the loop. It returns false before Start and once the
// loop has stopped, so late timer and task callbacks are dropped.
func (c *Coordinator) send(ev event) bool {
	if !c.running.Load() {
		return false
	}
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *Coordinator) dispatch(st State) {
	switch st.Kind {
	case KindUpdatingCloud:
		if st.Cloud == CreatingContainer {
			c.run("create_container", c.createContainer)
		} else {
			c.run("delete_container", c.deleteContainer)
		}
	case KindDownloading:
		pending := c.machine.PendingDownloads()
		c.run("download", func(ctx context.Context, id uint64) (event, error) {
			return c.download(ctx, id, pending)
		})
	case KindUploading:
		c.run("upload", c.upload)
	case KindWaiting:
		if st.Wait != nil && st.Wait.Reason == ForCredentials && c.recheck != nil {
			c.recheck()
		}
	}
}

// run starts op in its own goroutine and registers its cancel func with the
// machine. The returned event is applied on success; failures go through
// the retry policy. Results of a superseded task are ignored.
func (c *Coordinator) run(name string, op func(ctx context.Context, id uint64) (event, error)) {
	c.taskSeq++
	id := c.taskSeq

	ctx, cancel := context.WithCancel(c.ctx)
	c.machine.StartTask(cancel)

	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		defer cancel()

		ctx, span := c.tracer.StartOperation(ctx, c.domain.Name, name)
		ev, err := op(ctx, id)
		span.End(err)

		if err != nil {
			c.send(c.failed(id, name, err))
			return
		}
		c.send(c.current(id, func(m *Machine) *State {
			c.policy.Succeeded()
			return ev(m)
		}))
	}()
}

// current wraps ev so it only applies while task id is the latest task.
func (c *Coordinator) current(id uint64, ev event) event {
	return func(m *Machine) *State {
		if id != c.taskSeq {
			return nil
		}
		return ev(m)
	}
}

func (c *Coordinator) failed(id uint64, op string, err error) event {
	return c.current(id, func(m *Machine) *State {
		d := c.policy.Decide(err)

		entry := c.logger.Warn()
		if d.Class == retry.ClassCancelled {
			entry = c.logger.Debug()
		}
		entry.Err(err).Str("op", op).Str("class", d.Class.String()).Dur("wait", d.Wait).
			Int("attempt", d.Attempt).Msg("operation failed")

		if d.Class == retry.ClassAuthRequired && c.recheck != nil {
			c.recheck()
		}

		var wait *WaitSpec
		if d.ShouldWait() {
			wait = &WaitSpec{Delay: d.Wait, Class: d.Class, Attempt: d.Attempt}
		}
		return m.OperationFailed(d.Class, wait)
	})
}

// waitFinished runs on a timer goroutine.
func (c *Coordinator) waitFinished(token uint64) {
	c.send(func(m *Machine) *State { return m.WaitFinished(token) })
}

// commitToggle runs on the pending toggle's timer goroutine. Before Start
// the preference is only persisted; Start picks it up with the other flags.
func (c *Coordinator) commitToggle(enabled bool) {
	c.startMu.Lock()
	if !c.running.Load() {
		defer c.startMu.Unlock()
		c.enabled.Store(enabled)
		if err := c.local.SetEnabled(context.Background(), c.domain.Name, enabled); err != nil {
			c.logger.Err(err).Str("func", "*Coordinator.commitToggle").Msg("persist enabled flag")
			return
		}
		c.logger.Info().Bool("enabled", enabled).Msg("toggle committed before start")
		return
	}
	c.startMu.Unlock()

	c.enabled.Store(enabled)
	c.send(func(m *Machine) *State {
		if err := c.local.SetEnabled(c.ctx, c.domain.Name, enabled); err != nil {
			c.logger.Err(err).Str("func", "*Coordinator.commitToggle").Msg("persist enabled flag")
		}
		c.logger.Info().Bool("enabled", enabled).Msg("toggle committed")
		return m.Toggle(enabled)
	})
}

// uploadDelay returns the randomized wait before an upload, or nil when
// the domain does not delay uploads.
func (c *Coordinator) uploadDelay() *WaitSpec {
	if !c.domain.AllowUploadDelay || c.delay.Max <= 0 {
		return nil
	}
	d := c.delay.Min
	if span := c.delay.Max - c.delay.Min; span > 0 {
		d += rand.N(span)
	}
	return &WaitSpec{Delay: d}
}

// ── operations ───────────────────────────────────────────────────────────────

func (c *Coordinator) createContainer(ctx context.Context, _ uint64) (event, error) {
	if err := c.remote.CreateContainer(ctx, c.container); err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.local.SetContainerCreated(ctx, c.domain.Name, true); err != nil {
		return nil, fmt.Errorf("persist container flag: %w", err)
	}
	return func(m *Machine) *State { return m.ContainerCreated() }, nil
}

func (c *Coordinator) deleteContainer(ctx context.Context, _ uint64) (event, error) {
	err := c.remote.DeleteContainer(ctx, c.container)
	if err != nil && !errors.Is(err, retry.ErrContainerMissing) {
		return nil, fmt.Errorf("delete container: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.local.ClearCloudState(ctx, c.domain.Name, c.domain.SubKinds); err != nil {
		return nil, fmt.Errorf("clear cloud state: %w", err)
	}
	return func(m *Machine) *State { return m.ContainerDeleted() }, nil
}

func (c *Coordinator) download(ctx context.Context, id uint64, subKinds []models.SubKind) (event, error) {
	progress := func(sk models.SubKind, n int, oldest time.Time) {
		c.send(c.current(id, func(m *Machine) *State {
			m.DownloadProgressed(sk, n, oldest)
			return nil
		}))
	}

	for i, sk := range subKinds {
		if _, err := c.loader.Run(ctx, sk, progress); err != nil {
			return nil, err
		}
		if i < len(subKinds)-1 {
			c.send(c.current(id, func(m *Machine) *State { return m.DownloadCompleted(sk) }))
		}
	}

	// the download enqueued local entities the remote lacks
	counts, err := c.queueCounts(ctx)
	if err != nil {
		return nil, err
	}

	return func(m *Machine) *State {
		for sk, n := range counts {
			m.QueueCountChanged(sk, n, nil)
		}
		var st *State
		for _, sk := range subKinds {
			if s := m.DownloadCompleted(sk); s != nil {
				st = s
			}
		}
		return st
	}, nil
}

func (c *Coordinator) upload(ctx context.Context, id uint64) (event, error) {
	progress := func(sk models.SubKind, completed, inFlight int) {
		c.send(c.current(id, func(m *Machine) *State {
			m.UploadProgressed(sk, completed, inFlight)
			return nil
		}))
	}

	res, err := c.uploader.Run(ctx, progress)
	if err != nil {
		return nil, err
	}

	counts, err := c.queueCounts(ctx)
	if err != nil {
		return nil, err
	}

	if res.Dropped > 0 {
		c.logger.Warn().Str("sub_kind", string(res.SubKind)).Int("dropped", res.Dropped).Msg("upload pass dropped entities")
	}
	return func(m *Machine) *State {
		for sk, n := range counts {
			m.QueueCountChanged(sk, n, nil)
		}
		return m.UploadCompleted()
	}, nil
}

func (c *Coordinator) queueCounts(ctx context.Context) (map[models.SubKind]int, error) {
	counts := make(map[models.SubKind]int, len(c.domain.SubKinds))
	for _, sk := range c.domain.SubKinds {
		n, err := c.local.QueueCount(ctx, sk)
		if err != nil {
			return nil, fmt.Errorf("queue count %s: %w", sk, err)
		}
		counts[sk] = n
	}
	return counts, nil
}
