package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/internal/engine"
	"github.com/MKhiriev/wallet-cloud-sync/models"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
)

const defaultBarWidth = 30

// domainRow is the last known view of one domain.
type domainRow struct {
	domain   engine.Domain
	state    engine.State
	pending  *engine.Pending
	progress engine.Progress
}

func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	return s
}

func newProgressBar() progress.Model {
	return progress.New(progress.WithDefaultGradient(), progress.WithWidth(defaultBarWidth), progress.WithoutPercentage())
}

// ratio returns the completed share of the current transfer, or false when
// the state has nothing to measure.
func (r domainRow) ratio() (float64, bool) {
	switch r.state.Kind {
	case engine.KindUploading:
		up := r.progress.Upload
		if up == nil {
			return 0, false
		}
		total, done := 0, 0
		for _, n := range up.Total {
			total += n
		}
		for _, n := range up.Completed {
			done += n
		}
		if total == 0 {
			return 0, false
		}
		return clamp(float64(done) / float64(total)), true
	case engine.KindDownloading:
		down := r.progress.Download
		if down == nil || len(r.domain.SubKinds) == 0 {
			return 0, false
		}
		done := 0
		for _, sk := range r.domain.SubKinds {
			if down.Done[sk] {
				done++
			}
		}
		return float64(done) / float64(len(r.domain.SubKinds)), true
	}
	return 0, false
}

// details lists per-subkind counters of the current transfer.
func (r domainRow) details() string {
	var parts []string
	switch {
	case r.state.Kind == engine.KindUploading && r.progress.Upload != nil:
		up := r.progress.Upload
		for _, sk := range r.domain.SubKinds {
			if up.Total[sk] == 0 && up.Completed[sk] == 0 {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s %d/%d", sk, up.Completed[sk], up.Total[sk]))
		}
	case r.state.Kind == engine.KindDownloading && r.progress.Download != nil:
		down := r.progress.Download
		for _, sk := range r.domain.SubKinds {
			part := fmt.Sprintf("%s %d", sk, down.Completed[sk])
			if oldest, ok := down.Oldest[sk]; ok && !oldest.IsZero() && !down.Done[sk] {
				part += " back to " + oldest.Format(time.DateOnly)
			}
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func (r domainRow) styledState(now time.Time) string {
	text := describeState(r.state, now)
	switch r.state.Kind {
	case engine.KindSynced:
		return syncedStyle.Render(text)
	case engine.KindWaiting:
		return waitingStyle.Render(text)
	case engine.KindDisabled, engine.KindShutdown:
		return disabledStyle.Render(text)
	}
	return text
}

func (m dashboard) renderDomains() string {
	var b strings.Builder
	now := m.now()

	for i, row := range m.rows {
		cursor := "  "
		name := row.domain.Name
		if i == m.idx {
			cursor = "> "
			name = selectedStyle.Render(name)
		}

		b.WriteString(cursor)
		b.WriteString(name)
		b.WriteString("  ")
		if row.state.Busy() {
			b.WriteString(m.spinner.View())
			b.WriteString(" ")
		}
		b.WriteString(row.styledState(now))
		if row.pending != nil {
			b.WriteString("  ")
			b.WriteString(pendingStyle.Render(describePending(row.pending, now)))
		}
		b.WriteString("\n")

		if ratio, ok := row.ratio(); ok {
			b.WriteString("    ")
			b.WriteString(m.bar.ViewAs(ratio))
			b.WriteString(fmt.Sprintf(" %3.0f%%", ratio*100))
			b.WriteString("\n")
		}
		if d := row.details(); d != "" {
			b.WriteString("    ")
			b.WriteString(fitText(d, m.textWidth()))
			b.WriteString("\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(m.status))
	}
	return b.String()
}

// statusSummary is the plain-text status copied to the clipboard.
func (m dashboard) statusSummary() string {
	now := m.now()
	lines := make([]string, 0, len(m.rows))
	for _, row := range m.rows {
		line := row.domain.Name + ": " + describeState(row.state, now)
		if p := describePending(row.pending, now); p != "" {
			line += " (" + p + ")"
		}
		if d := row.details(); d != "" {
			line += " [" + d + "]"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m dashboard) textWidth() int {
	if m.width <= 8 {
		return 0
	}
	return m.width - 8
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// subKindNames is used by the help line of a selected domain.
func subKindNames(sks []models.SubKind) string {
	names := make([]string, len(sks))
	for i, sk := range sks {
		names[i] = string(sk)
	}
	return strings.Join(names, ", ")
}
