package output

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles used in text mode. Without a terminal
// every style renders plain text.
type Styles struct {
	Header1       lipgloss.Style
	Header2       lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	Success       lipgloss.Style
	Warning       lipgloss.Style
	Error         lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
	StatusRunning lipgloss.Style
	Path          lipgloss.Style
}

// NewStyles returns colored styles for a terminal and plain ones otherwise.
func NewStyles(color bool) *Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return &Styles{
			Header1: plain, Header2: plain, Bold: plain, Muted: plain,
			Success: plain, Warning: plain, Error: plain,
			StatusSuccess: plain, StatusFailed: plain, StatusRunning: plain,
			Path: plain,
		}
	}

	return &Styles{
		Header1:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		Header2:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:          lipgloss.NewStyle().Bold(true),
		Muted:         lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Success:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:       lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Error:         lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		StatusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Path:          lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
}

func (s *Styles) statusIcon(status string) (string, lipgloss.Style) {
	switch status {
	case "success", "completed":
		return "✓", s.StatusSuccess
	case "failed", "error":
		return "✗", s.StatusFailed
	case "running":
		return "…", s.StatusRunning
	default:
		return "-", s.Muted
	}
}

// StatusStyle returns the style for a run status.
func (s *Styles) StatusStyle(status string) lipgloss.Style {
	_, style := s.statusIcon(status)
	return style
}
