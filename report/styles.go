package report

import "github.com/charmbracelet/lipgloss"

// styles are bound to a renderer so that output which is not a terminal stays plain.
type styles struct {
	Title       lipgloss.Style
	Sender      lipgloss.Style
	Subject     lipgloss.Style
	Secondary   lipgloss.Style
	ReadFlag    lipgloss.Style
	UnreadFlag  lipgloss.Style
	Placeholder lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		Title:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Sender:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		Subject:     r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "15"}),
		Secondary:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "244"}),
		ReadFlag:    r.NewStyle().Foreground(lipgloss.Color("28")),
		UnreadFlag:  r.NewStyle().Foreground(lipgloss.Color("196")),
		Placeholder: r.NewStyle().Faint(true),
	}
}
