package tui

// confirmModel asks before a domain is disabled, since disabling deletes
// the domain's cloud copy.
type confirmModel struct {
	idx    int
	domain string
}

func (m confirmModel) View() string {
	content := "Disable \"" + m.domain + "\" sync?\n"
	content += "The cloud copy will be deleted.\n\n"
	content += "y yes    n no"
	return overlayBoxStyle.Render(content)
}
