package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/planwright/planwright/internal/schema"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	statusStyles = map[string]lipgloss.Style{
		"draft":       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		"pending":     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		"active":      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		"in_progress": lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		"completed":   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"done":        lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"blocked":     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"failed":      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		"cancelled":   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		"archived":    lipgloss.NewStyle().Foreground(lipgloss.Color("60")),
	}
)

func statusBadge(status string) string {
	if style, ok := statusStyles[status]; ok {
		return style.Render(status)
	}
	return status
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPlanLine(p schema.Plan) {
	fmt.Printf("%s  %s  %s\n", idStyle.Render(p.ID), statusBadge(string(p.Status)), p.Title)
}

func printStagingLine(s schema.Staging) {
	fmt.Printf("%s  [%d]  %s  %s\n", idStyle.Render(s.ID), s.Order, statusBadge(string(s.Status)), s.Title)
}

func printTaskLine(t schema.Task) {
	line := fmt.Sprintf("%s  %s  %s  (%s)", idStyle.Render(t.ID), statusBadge(string(t.Status)), t.Title, t.Priority)
	if len(t.DependsOn) > 0 {
		line += idStyle.Render(fmt.Sprintf("  deps: %v", t.DependsOn))
	}
	fmt.Println(line)
}
