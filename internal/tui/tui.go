// Package tui renders the client's sync dashboard.
//
// The dashboard shows one row per sync domain with its current state,
// transfer progress and any pending enable/disable request. It is the only
// place where the user changes the sync preference of a domain.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/wallet-cloud-sync/internal/engine"
	"github.com/MKhiriev/wallet-cloud-sync/internal/logger"
	"github.com/MKhiriev/wallet-cloud-sync/models"
	tea "github.com/charmbracelet/bubbletea"
)

// Domain is the part of a sync coordinator the dashboard drives.
// *engine.Coordinator satisfies it.
type Domain interface {
	Domain() engine.Domain
	State() engine.State
	States() (<-chan engine.State, func())
	Pending() (<-chan *engine.Pending, func())
	Progress() (<-chan engine.Progress, func())
	RequestToggle(enabled bool)
	CancelToggle()
	Preference() bool
	SkipWait()
}

// TUI owns the terminal while the client runs.
type TUI struct {
	domains   []Domain
	buildInfo models.AppBuildInfo
	logger    *logger.Logger
}

func New(domains []Domain, buildInfo models.AppBuildInfo, log *logger.Logger) *TUI {
	return &TUI{
		domains:   domains,
		buildInfo: buildInfo,
		logger:    log.GetChildLogger(),
	}
}

// Run blocks until the user quits or ctx is done. Both are a normal exit.
func (t *TUI) Run(ctx context.Context) error {
	subs := make([]subscription, 0, len(t.domains))
	for _, d := range t.domains {
		sub := subscribe(d)
		defer sub.cancel()
		subs = append(subs, sub)
	}

	model := newDashboard(t.domains, subs, t.buildInfo)
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		t.logger.Err(err).Str("func", "TUI.Run").Msg("dashboard stopped")
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
