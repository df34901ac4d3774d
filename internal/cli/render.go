package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"quickedit/internal/events"
	"quickedit/internal/models"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("22"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("52"))
	lineNumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Faint(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	phaseStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

// progressSink prints phase transitions as they stream.
func progressSink(w io.Writer) events.Sink {
	return events.SinkFunc(func(_ context.Context, evt events.Event) error {
		switch data := evt.Data.(type) {
		case events.PhaseData:
			if data.Status == events.StatusStarting {
				fmt.Fprintf(w, "%s %s\n", phaseStyle.Render(fmt.Sprintf("[%s]", data.Phase)), data.Message)
			}
		case events.MessageData:
			if data.Kind == events.MessageIntentPreview || data.Kind == events.MessageIntent {
				fmt.Fprintf(w, "%s %s\n", headerStyle.Render("›"), data.Content)
			}
		case events.ErrorData:
			fmt.Fprintln(w, errStyle.Render(data.Message))
			if data.Detail != "" {
				fmt.Fprintln(w, headerStyle.Render(data.Detail))
			}
		}
		return nil
	})
}

func renderPreview(w io.Writer, p models.FilePreview) {
	approval := warnStyle.Render("review")
	if p.AutoApprovable {
		approval = okStyle.Render("auto-approvable")
	}
	fmt.Fprintf(w, "%s  %s %s\n", titleStyle.Render(p.Path), headerStyle.Render(fmt.Sprintf("+%d -%d", p.Diff.Added, p.Diff.Removed)), approval)
	for _, line := range p.Diff.Lines {
		switch line.Type {
		case models.DiffAdded:
			fmt.Fprintf(w, "%s %s\n", lineNumStyle.Render(fmt.Sprintf("%5d", line.NewLine)), addedStyle.Render("+ "+line.Content))
		case models.DiffRemoved:
			fmt.Fprintf(w, "%s %s\n", lineNumStyle.Render(fmt.Sprintf("%5d", line.OldLine)), removedStyle.Render("- "+line.Content))
		case models.DiffContext:
			fmt.Fprintln(w, headerStyle.Render("      "+line.Content))
		default:
			fmt.Fprintf(w, "%s   %s\n", lineNumStyle.Render(fmt.Sprintf("%5d", line.NewLine)), line.Content)
		}
	}
	fmt.Fprintln(w)
}

func renderResult(w io.Writer, result *models.EditResult) {
	for _, p := range result.Previews {
		renderPreview(w, p)
	}

	status := okStyle.Render("✓")
	if !result.Success {
		status = errStyle.Render("✗")
	}
	fmt.Fprintf(w, "%s %s\n", status, result.Message)
	for _, a := range result.AffectedFiles {
		fmt.Fprintf(w, "  %s %s\n", titleStyle.Render(a.Path), headerStyle.Render(a.Description))
	}
	for _, e := range result.Errors {
		fmt.Fprintln(w, errStyle.Render("  error: ")+e)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintln(w, warnStyle.Render("  warning: ")+warn)
	}

	if len(result.Suggestions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Suggestions"))
		for _, s := range result.Suggestions {
			fmt.Fprintf(w, "  %s %s\n", headerStyle.Render(fmt.Sprintf("[%s]", s.Category)), s.Message.EN)
		}
	}

	cached := ""
	if result.Cached {
		cached = ", cached"
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s · %d tokens · %dms%s",
		result.Analysis.Complexity, result.Tokens.Total, result.DurationMs, cached)))
}
