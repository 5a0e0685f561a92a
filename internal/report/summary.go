// Package report renders run summaries for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"contentgen/internal/domain"
)

// Styles groups the lipgloss styles used by Render.
type Styles struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultStyles returns the colour scheme used by the CLI.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true),
		Header:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:    lipgloss.NewStyle().Padding(0, 1),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Failure: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

const maxErrorWidth = 60

var headers = []string{"FORMAT", "ASSET", "STATUS", "DETAIL"}

// Render writes a table of every asset outcome followed by the run verdict.
func Render(w io.Writer, s *domain.RunSummary, styles Styles) error {
	if s == nil {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(fmt.Sprintf("Run %s: %s", s.RunID, s.Subject)))
	sb.WriteString("\n")

	rows := make([][]string, 0)
	for _, p := range s.Packages {
		if len(p.Assets) == 0 {
			rows = append(rows, []string{string(p.Format), "-", "aborted", clip(p.Error)})
			continue
		}
		for _, a := range p.Assets {
			rows = append(rows, []string{string(p.Format), a.Name, string(a.Status), detail(a)})
		}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	for i := range widths {
		widths[i] += 2
	}

	sep := styles.Muted.Render("|")
	for i, h := range headers {
		sb.WriteString(styles.Header.Width(widths[i]).Render(h))
		if i < len(headers)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			st := styles.Cell.Width(widths[i])
			if i == 2 {
				st = st.Inherit(statusStyle(styles, cell))
			}
			sb.WriteString(st.Render(cell))
			if i < len(row)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	verdict := styles.Success.Render("all packages succeeded")
	if !s.Success {
		verdict = styles.Failure.Render("run incomplete")
	}
	elapsed := s.FinishedAt.Sub(s.StartedAt).Round(time.Second)
	sb.WriteString(fmt.Sprintf("%s %s\n", verdict, styles.Muted.Render(fmt.Sprintf("(%d source chars, %s)", s.SourceChars, elapsed))))

	_, err := io.WriteString(w, sb.String())
	return err
}

func statusStyle(styles Styles, status string) lipgloss.Style {
	if status == string(domain.AssetSuccess) {
		return styles.Success
	}
	return styles.Failure
}

func detail(a domain.AssetOutcome) string {
	if a.Status == domain.AssetSuccess {
		switch {
		case a.MediaPath != "":
			return a.MediaPath
		case a.PromptPath != "":
			return a.PromptPath
		}
		return ""
	}
	if a.ErrorKind != "" {
		return clip(a.ErrorKind + ": " + a.Error)
	}
	return clip(a.Error)
}

func clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxErrorWidth {
		return s
	}
	return string(r[:maxErrorWidth-3]) + "..."
}
