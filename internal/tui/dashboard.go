// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/engine"
	"github.com/MKhiriev/wallet-cloud-sync/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type dashboard struct {
	domains   []Domain
	subs      []subscription
	rows      []domainRow
	idx       int
	buildInfo models.AppBuildInfo

	spinner spinner.Model
	bar     progress.Model
	now     func() time.Time
	width   int

	status       string
	showInfo     bool
	showConfirm  bool
	confirm      confirmModel
	showError    bool
	errorOverlay errorOverlayModel
}

func newDashboard(domains []Domain, subs []subscription, buildInfo models.AppBuildInfo) dashboard {
	rows := make([]domainRow, len(domains))
	for i, d := range domains {
		rows[i] = domainRow{
			domain:   d.Domain(),
			state:    d.State(),
			progress: engine.Progress{Domain: d.Domain().Name},
		}
	}
	return dashboard{
		domains:   domains,
		subs:      subs,
		rows:      rows,
		buildInfo: buildInfo,
		spinner:   newSpinner(),
		bar:       newProgressBar(),
		now:       time.Now,
	}
}

func (m dashboard) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, cmdTick()}
	for i, sub := range m.subs {
		cmds = append(cmds,
			waitState(i, sub.states),
			waitPending(i, sub.pending),
			waitProgress(i, sub.progress),
		)
	}
	return tea.Batch(cmds...)
}

func (m dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)
	case stateMsg:
		m.rows[msg.idx].state = msg.state
		return m, waitState(msg.idx, m.subs[msg.idx].states)
	case pendingMsg:
		m.rows[msg.idx].pending = msg.pending
		return m, waitPending(msg.idx, m.subs[msg.idx].pending)
	case progressMsg:
		m.rows[msg.idx].progress = msg.progress
		return m, waitProgress(msg.idx, m.subs[msg.idx].progress)
	case tickMsg:
		// countdowns are computed at render time
		return m, cmdTick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case copiedMsg:
		m.status = "Status copied"
		return m, cmdClearStatus()
	case copyFailedMsg:
		m.showErrorf(msg.err.Error())
		return m, nil
	case clearStatusMsg:
		m.status = ""
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 16; w > 10 && w < defaultBarWidth {
			m.bar.Width = w
		}
		return m, nil
	}
	return m, nil
}

func (m dashboard) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showError {
		if key.Matches(msg, keys.enter) || key.Matches(msg, keys.esc) {
			m.showError = false
			m.errorOverlay.message = ""
		}
		return m, nil
	}
	if m.showConfirm {
		if key.Matches(msg, keys.yes) {
			m.showConfirm = false
			m.domains[m.confirm.idx].RequestToggle(false)
			return m, nil
		}
		if key.Matches(msg, keys.no) || key.Matches(msg, keys.esc) {
			m.showConfirm = false
		}
		return m, nil
	}
	if m.showInfo {
		switch {
		case key.Matches(msg, keys.quit):
			return m, tea.Quit
		case key.Matches(msg, keys.esc), key.Matches(msg, keys.info), key.Matches(msg, keys.enter):
			m.showInfo = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.quit):
		return m, tea.Quit
	case key.Matches(msg, keys.up):
		if m.idx > 0 {
			m.idx--
		}
	case key.Matches(msg, keys.down):
		if m.idx < len(m.rows)-1 {
			m.idx++
		}
	case key.Matches(msg, keys.toggle), key.Matches(msg, keys.enter):
		return m.toggleSelected()
	case key.Matches(msg, keys.cancel), key.Matches(msg, keys.esc):
		if len(m.rows) > 0 && m.rows[m.idx].pending != nil {
			m.domains[m.idx].CancelToggle()
			m.status = "Request cancelled"
			return m, cmdClearStatus()
		}
	case key.Matches(msg, keys.skipWait):
		if len(m.rows) > 0 && m.rows[m.idx].state.Kind == engine.KindWaiting {
			m.domains[m.idx].SkipWait()
			m.status = "Retrying now"
			return m, cmdClearStatus()
		}
	case key.Matches(msg, keys.copy):
		return m, cmdCopyToClipboard(m.statusSummary())
	case key.Matches(msg, keys.info):
		m.showInfo = true
	}
	return m, nil
}

// toggleSelected flips the target of the selected domain. A pending request
// counts as the target, so a second press reverts it.
func (m dashboard) toggleSelected() (tea.Model, tea.Cmd) {
	if len(m.rows) == 0 {
		return m, nil
	}
	target := m.domains[m.idx].Preference()
	if p := m.rows[m.idx].pending; p != nil {
		target = p.Direction.Enabled()
	}

	if target {
		m.confirm = confirmModel{idx: m.idx, domain: m.rows[m.idx].domain.Name}
		m.showConfirm = true
		return m, nil
	}
	m.domains[m.idx].RequestToggle(true)
	return m, nil
}

func (m *dashboard) showErrorf(message string) {
	m.showError = true
	m.errorOverlay.message = message
}

func (m dashboard) View() string {
	if m.showInfo {
		return appStyle.Render(renderBuildInfoWindow(m.buildInfo))
	}

	hotKeys := "↑/↓ select  t toggle  x cancel  s skip wait  c copy  i about"
	if len(m.rows) > 0 {
		hotKeys = "[" + subKindNames(m.rows[m.idx].domain.SubKinds) + "]  " + hotKeys
	}
	page := appStyle.Render(renderPage("WALLET CLOUD SYNC", m.renderDomains(), hotKeys))

	switch {
	case m.showError:
		return lipgloss.JoinVertical(lipgloss.Left, page, m.errorOverlay.View())
	case m.showConfirm:
		return lipgloss.JoinVertical(lipgloss.Left, page, m.confirm.View())
	}
	return page
}
