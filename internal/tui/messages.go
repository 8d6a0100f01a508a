package tui

import (
	"fmt"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/engine"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

type stateMsg struct {
	idx   int
	state engine.State
}

type pendingMsg struct {
	idx     int
	pending *engine.Pending
}

type progressMsg struct {
	idx      int
	progress engine.Progress
}

type tickMsg time.Time

type copiedMsg struct{}

type copyFailedMsg struct {
	err error
}

type clearStatusMsg struct{}

// subscription holds the update channels of one domain.
type subscription struct {
	states   <-chan engine.State
	pending  <-chan *engine.Pending
	progress <-chan engine.Progress
	cancels  []func()
}

func subscribe(d Domain) subscription {
	states, cancelStates := d.States()
	pending, cancelPending := d.Pending()
	progress, cancelProgress := d.Progress()
	return subscription{
		states:   states,
		pending:  pending,
		progress: progress,
		cancels:  []func(){cancelStates, cancelPending, cancelProgress},
	}
}

func (s subscription) cancel() {
	for _, c := range s.cancels {
		c()
	}
}

// Каждая команда читает одно значение; Update запускает её снова.
// A closed channel yields a nil message, which bubbletea drops.

func waitState(idx int, ch <-chan engine.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg{idx: idx, state: st}
	}
}

func waitPending(idx int, ch <-chan *engine.Pending) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return pendingMsg{idx: idx, pending: p}
	}
}

func waitProgress(idx int, ch <-chan engine.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg{idx: idx, progress: p}
	}
}

func cmdTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

func cmdCopyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		if err := writeClipboard(text); err != nil {
			return copyFailedMsg{err: fmt.Errorf("copy to clipboard: %w", err)}
		}
		return copiedMsg{}
	}
}

func cmdClearStatus() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
