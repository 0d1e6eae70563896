// Package render formats guarded call outcomes for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/railguard/railguard/internal/guard"
)

var (
	passedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	filteredStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	refrainedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	failedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	labelStyle     = lipgloss.NewStyle().Faint(true)
)

func statusBadge(status string) string {
	switch status {
	case guard.StatusPassed:
		return passedStyle.Render("PASSED")
	case guard.StatusFiltered:
		return filteredStyle.Render("FILTERED")
	case guard.StatusRefrained:
		return refrainedStyle.Render("REFRAINED")
	default:
		return failedStyle.Render(strings.ToUpper(status))
	}
}

// Outcome writes a rendered view of a guarded call: a status line, the
// validated output, and the raw response. With plain set, markdown
// rendering is skipped (non-TTY output, tests).
func Outcome(w io.Writer, out *guard.Outcome, plain bool) error {
	fmt.Fprintf(w, "%s %s  %s %s\n\n",
		labelStyle.Render("call"), out.CallID,
		labelStyle.Render("status"), statusBadge(out.Status))

	md := outcomeMarkdown(out)
	if plain {
		_, err := io.WriteString(w, md)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("render outcome: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

func outcomeMarkdown(out *guard.Outcome) string {
	var b strings.Builder
	b.WriteString("## Validated output\n\n")
	if out.Validated == nil {
		b.WriteString("_none_\n\n")
	} else {
		pretty, err := json.MarshalIndent(out.Validated, "", "  ")
		if err != nil {
			pretty = []byte(fmt.Sprintf("%v", out.Validated))
		}
		b.WriteString("```json\n")
		b.Write(pretty)
		b.WriteString("\n```\n\n")
	}

	if issues := collectIssues(out); len(issues) > 0 {
		b.WriteString("## Validation issues\n\n")
		for _, issue := range issues {
			b.WriteString("- ")
			b.WriteString(issue)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Raw response\n\n")
	b.WriteString("```\n")
	b.WriteString(strings.TrimSpace(out.RawResponse))
	b.WriteString("\n```\n")
	return b.String()
}

func collectIssues(out *guard.Outcome) []string {
	var issues []string
	for _, attempt := range out.Attempts {
		for _, issue := range attempt.Issues {
			issues = append(issues, fmt.Sprintf("attempt %d: %s", attempt.Index+1, issue))
		}
	}
	return issues
}
