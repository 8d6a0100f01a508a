package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/engine"
	"github.com/MKhiriev/wallet-cloud-sync/internal/retry"
	"github.com/MKhiriev/wallet-cloud-sync/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── fake domain ──────────────────────────────────────────────────────────────

type fakeDomain struct {
	domain     engine.Domain
	state      engine.State
	preference bool

	states   chan engine.State
	pending  chan *engine.Pending
	progress chan engine.Progress

	toggles   []bool
	cancelled int
	skipped   int
}

func newFakeDomain(d engine.Domain, st engine.State, preference bool) *fakeDomain {
	return &fakeDomain{
		domain:     d,
		state:      st,
		preference: preference,
		states:     make(chan engine.State, 4),
		pending:    make(chan *engine.Pending, 4),
		progress:   make(chan engine.Progress, 4),
	}
}

func (f *fakeDomain) Domain() engine.Domain { return f.domain }
func (f *fakeDomain) State() engine.State   { return f.state }
func (f *fakeDomain) States() (<-chan engine.State, func()) {
	return f.states, func() {}
}
func (f *fakeDomain) Pending() (<-chan *engine.Pending, func()) {
	return f.pending, func() {}
}
func (f *fakeDomain) Progress() (<-chan engine.Progress, func()) {
	return f.progress, func() {}
}
func (f *fakeDomain) RequestToggle(enabled bool) { f.toggles = append(f.toggles, enabled) }
func (f *fakeDomain) CancelToggle()              { f.cancelled++ }
func (f *fakeDomain) Preference() bool           { return f.preference }
func (f *fakeDomain) SkipWait()                  { f.skipped++ }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDashboard(domains ...*fakeDomain) dashboard {
	ds := make([]Domain, len(domains))
	subs := make([]subscription, len(domains))
	for i, d := range domains {
		ds[i] = d
		subs[i] = subscribe(d)
	}
	m := newDashboard(ds, subs, models.NewAppBuildInfo("1.2.3", "2026-03-01", "abc123"))
	m.now = func() time.Time { return testNow }
	return m
}

func press(t *testing.T, m dashboard, k string) (dashboard, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	out, ok := next.(dashboard)
	require.True(t, ok)
	return out, cmd
}

// ── toggles ──────────────────────────────────────────────────────────────────

func TestDashboard_EnableRequestsImmediately(t *testing.T) {
	d := newFakeDomain(engine.BackupDomain, engine.State{Kind: engine.KindDisabled}, false)
	m := newTestDashboard(d)

	m, _ = press(t, m, "t")

	assert.False(t, m.showConfirm)
	assert.Equal(t, []bool{true}, d.toggles)
}

func TestDashboard_DisableNeedsConfirmation(t *testing.T) {
	d := newFakeDomain(engine.BackupDomain, engine.State{Kind: engine.KindSynced}, true)
	m := newTestDashboard(d)

	m, _ = press(t, m, "t")
	require.True(t, m.showConfirm)
	assert.Empty(t, d.toggles)
	assert.Contains(t, m.View(), "cloud copy will be deleted")

	m, _ = press(t, m, "n")
	assert.False(t, m.showConfirm)
	assert.Empty(t, d.toggles)

	m, _ = press(t, m, "t")
	m, _ = press(t, m, "y")
	assert.False(t, m.showConfirm)
	assert.Equal(t, []bool{false}, d.toggles)
}

func TestDashboard_TogglePendingRevertsIt(t *testing.T) {
	d := newFakeDomain(engine.BackupDomain, engine.State{Kind: engine.KindSynced}, true)
	m := newTestDashboard(d)

	next, _ := m.Update(pendingMsg{idx: 0, pending: &engine.Pending{Direction: engine.WillDisable, FireAt: testNow.Add(5 * time.Second)}})
	m = next.(dashboard)
	assert.Contains(t, m.View(), "will disable in 5s")

	m, _ = press(t, m, "t")
	assert.False(t, m.showConfirm, "reverting a pending disable does not ask")
	assert.Equal(t, []bool{true}, d.toggles)
}

func TestDashboard_CancelOnlyWithPending(t *testing.T) {
	d := newFakeDomain(engine.CardsDomain, engine.State{Kind: engine.KindSynced}, true)
	m := newTestDashboard(d)

	m, _ = press(t, m, "x")
	assert.Zero(t, d.cancelled)

	next, _ := m.Update(pendingMsg{idx: 0, pending: &engine.Pending{Direction: engine.WillDisable, FireAt: testNow}})
	m = next.(dashboard)
	m, cmd := press(t, m, "x")
	assert.Equal(t, 1, d.cancelled)
	assert.NotNil(t, cmd)
	assert.Equal(t, "Request cancelled", m.status)
}

// ── waits ────────────────────────────────────────────────────────────────────

func TestDashboard_SkipWaitOnlyWhileWaiting(t *testing.T) {
	d := newFakeDomain(engine.BackupDomain, engine.State{Kind: engine.KindSynced}, true)
	m := newTestDashboard(d)

	m, _ = press(t, m, "s")
	assert.Zero(t, d.skipped)

	next, _ := m.Update(stateMsg{idx: 0, state: engine.State{
		Kind: engine.KindWaiting,
		Wait: &engine.WaitInfo{Reason: engine.ExponentialBackoff, Class: retry.ClassTransientAccount, Attempt: 2, Until: testNow.Add(90 * time.Second)},
	}})
	m = next.(dashboard)
	assert.Contains(t, m.View(), "account temporarily unavailable, retry #2 in 1m30s")

	_, _ = press(t, m, "s")
	assert.Equal(t, 1, d.skipped)
}

func TestDescribeWait(t *testing.T) {
	tests := []struct {
		name string
		wait *engine.WaitInfo
		want string
	}{
		{"nil", nil, "waiting"},
		{"connectivity", &engine.WaitInfo{Reason: engine.ForConnectivity}, "waiting for network"},
		{"credentials", &engine.WaitInfo{Reason: engine.ForCredentials}, "waiting for sign-in"},
		{"upload delay", &engine.WaitInfo{Reason: engine.UploadDelay, Until: testNow.Add(42 * time.Second)}, "upload in 42s"},
		{"past deadline", &engine.WaitInfo{Reason: engine.UploadDelay, Until: testNow.Add(-time.Minute)}, "upload in 0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeWait(tt.wait, testNow))
		})
	}
}

// ── progress ─────────────────────────────────────────────────────────────────

func TestDomainRow_UploadRatio(t *testing.T) {
	row := domainRow{
		domain: engine.BackupDomain,
		state:  engine.State{Kind: engine.KindUploading},
		progress: engine.Progress{Upload: &engine.UploadProgress{
			Total:     map[models.SubKind]int{models.SubKindPayment: 3, models.SubKindContact: 1},
			Completed: map[models.SubKind]int{models.SubKindPayment: 1, models.SubKindContact: 1},
		}},
	}

	ratio, ok := row.ratio()
	require.True(t, ok)
	assert.InDelta(t, 0.5, ratio, 1e-9)
	assert.Equal(t, "payment 1/3, contact 1/1", row.details())
}

func TestDomainRow_DownloadRatio(t *testing.T) {
	row := domainRow{
		domain: engine.BackupDomain,
		state:  engine.State{Kind: engine.KindDownloading},
		progress: engine.Progress{Download: &engine.DownloadProgress{
			Completed: map[models.SubKind]int{models.SubKindPayment: 10, models.SubKindContact: 2},
			Oldest:    map[models.SubKind]time.Time{models.SubKindPayment: time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)},
			Done:      map[models.SubKind]bool{models.SubKindContact: true},
		}},
	}

	ratio, ok := row.ratio()
	require.True(t, ok)
	assert.InDelta(t, 0.5, ratio, 1e-9)
	assert.Equal(t, "payment 10 back to 2025-12-24, contact 2", row.details())
}

func TestDomainRow_NoRatioWhenIdle(t *testing.T) {
	row := domainRow{domain: engine.BackupDomain, state: engine.State{Kind: engine.KindSynced}}
	_, ok := row.ratio()
	assert.False(t, ok)
}

// ── clipboard and overlays ───────────────────────────────────────────────────

func TestDashboard_CopyStatus(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	backup := newFakeDomain(engine.BackupDomain, engine.State{Kind: engine.KindSynced}, true)
	seed := newFakeDomain(engine.SeedDomain, engine.State{Kind: engine.KindWaiting, Wait: &engine.WaitInfo{Reason: engine.ForConnectivity}}, true)
	m := newTestDashboard(backup, seed)

	m, cmd := press(t, m, "c")
	require.NotNil(t, cmd)
	msg := cmd()
	assert.IsType(t, copiedMsg{}, msg)

	lines := strings.Split(copied, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, engine.BackupDomain.Name+": synced", lines[0])
	assert.Equal(t, engine.SeedDomain.Name+": waiting for network", lines[1])

	next, _ := m.Update(msg)
	assert.Equal(t, "Status copied", next.(dashboard).status)
}

func TestDashboard_CopyFailureShowsError(t *testing.T) {
	orig := writeClipboard
	writeClipboard = func(string) error { return errors.New("no clipboard utility") }
	t.Cleanup(func() { writeClipboard = orig })

	m := newTestDashboard(newFakeDomain(engine.BackupDomain, engine.State{Kind: engine.KindSynced}, true))
	m, cmd := press(t, m, "c")
	next, _ := m.Update(cmd())
	m = next.(dashboard)

	require.True(t, m.showError)
	assert.Contains(t, m.View(), "no clipboard utility")

	m, _ = press(t, m, "esc")
	assert.False(t, m.showError)
}

func TestDashboard_BuildInfo(t *testing.T) {
	m := newTestDashboard(newFakeDomain(engine.BackupDomain, engine.State{Kind: engine.KindSynced}, true))

	m, _ = press(t, m, "i")
	require.True(t, m.showInfo)
	view := m.View()
	assert.Contains(t, view, "1.2.3")
	assert.Contains(t, view, "abc123")

	m, _ = press(t, m, "esc")
	assert.False(t, m.showInfo)
}

// ── navigation ───────────────────────────────────────────────────────────────

func TestDashboard_Navigation(t *testing.T) {
	a := newFakeDomain(engine.BackupDomain, engine.State{Kind: engine.KindSynced}, false)
	b := newFakeDomain(engine.CardsDomain, engine.State{Kind: engine.KindDisabled}, false)
	m := newTestDashboard(a, b)

	m, _ = press(t, m, "up")
	assert.Equal(t, 0, m.idx)
	m, _ = press(t, m, "down")
	m, _ = press(t, m, "down")
	assert.Equal(t, 1, m.idx)

	_, _ = press(t, m, "t")
	assert.Empty(t, a.toggles)
	assert.Equal(t, []bool{true}, b.toggles)
}

func TestDashboard_StateUpdatesResubscribe(t *testing.T) {
	d := newFakeDomain(engine.BackupDomain, engine.State{Kind: engine.KindInitializing}, true)
	m := newTestDashboard(d)

	d.states <- engine.State{Kind: engine.KindUploading}
	msg := waitState(0, m.subs[0].states)()
	next, cmd := m.Update(msg)
	m = next.(dashboard)

	assert.Equal(t, engine.KindUploading, m.rows[0].state.Kind)
	require.NotNil(t, cmd)

	close(d.states)
	assert.Nil(t, cmd())
}

func TestDashboard_Quit(t *testing.T) {
	m := newTestDashboard(newFakeDomain(engine.BackupDomain, engine.State{Kind: engine.KindSynced}, true))
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
