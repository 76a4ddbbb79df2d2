package plan

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Status color scheme - each status has a distinct, consistent color.
var (
	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")) // Yellow - work remaining

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green - completed

	verifyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")) // Cyan - awaiting verification

	searchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")) // Blue - awaiting research

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - result text

	markStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange - notes
)

func statusStyle(s Status) lipgloss.Style {
	switch s {
	case StatusDone:
		return doneStyle
	case StatusVerificationNeeded:
		return verifyStyle
	case StatusSearchNeeded:
		return searchStyle
	default:
		return pendingStyle
	}
}

// Render pretty-prints the tree for terminal display, one node per line,
// children indented under their parent. Width bounds line length; zero
// means no wrapping.
func (t *Tree) Render(width int) string {
	var b strings.Builder
	for _, r := range t.roots {
		t.render(&b, r, 0, width)
	}
	return b.String()
}

func (t *Tree) render(b *strings.Builder, id NodeID, indent, width int) {
	n := t.Node(id)
	prefix := strings.Repeat("  ", indent)

	line := fmt.Sprintf("%s- %s %s", prefix, statusStyle(n.Status).Render("["+string(n.Status)+"]"), n.Description)
	if n.Result != "" {
		line += resultStyle.Render(" -> " + n.Result)
	}
	if n.Mark != "" {
		line += markStyle.Render(" (" + n.Mark + ")")
	}
	if width > 0 {
		line = wordwrap.String(line, width)
	}
	b.WriteString(line)
	b.WriteString("\n")

	for _, c := range n.Children {
		t.render(b, c, indent+1, width)
	}
}

// RenderSnapshot renders a saved snapshot forest in the same layout as
// Tree.Render, for the render command.
func RenderSnapshot(snaps []Snapshot, width int) string {
	var b strings.Builder
	var walk func(s Snapshot, indent int)
	walk = func(s Snapshot, indent int) {
		prefix := strings.Repeat("  ", indent)
		line := fmt.Sprintf("%s- %s %s", prefix, statusStyle(s.Status).Render("["+string(s.Status)+"]"), s.Description)
		if s.Result != "" {
			line += resultStyle.Render(" -> " + s.Result)
		}
		if width > 0 {
			line = wordwrap.String(line, width)
		}
		b.WriteString(line)
		b.WriteString("\n")
		for _, c := range s.Children {
			walk(c, indent+1)
		}
	}
	for _, s := range snaps {
		walk(s, 0)
	}
	return b.String()
}
