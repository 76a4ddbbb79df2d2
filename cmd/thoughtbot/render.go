package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/Balogunolalere/Thoughbot/internal/plan"
	"github.com/Balogunolalere/Thoughbot/internal/session"
)

// RenderCmd renders a saved run transcript or a plan snapshot file.
type RenderCmd struct {
	File  string `arg:"" help:"Transcript (.jsonl) or plan snapshot (.json) path"`
	Width int    `default:"100" help:"Render width"`
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Run executes the render command.
func (c *RenderCmd) Run() error {
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	peek, _ := reader.Peek(1)
	if len(peek) == 1 && peek[0] == '[' {
		// A bare snapshot forest, as written by the run command's JSON
		// output or by tests.
		snaps, err := plan.DecodeJSON(reader)
		if err != nil {
			return fmt.Errorf("parse snapshot: %w", err)
		}
		fmt.Print(plan.RenderSnapshot(snaps, c.Width))
		return nil
	}

	sess, err := session.ReadTranscript(reader)
	if err != nil {
		return err
	}
	fmt.Print(renderTranscript(sess, c.Width))
	return nil
}

// renderTranscript formats a transcript for terminal display: the run
// header, one block per event, and the final plan.
func renderTranscript(sess *session.Session, width int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", headingStyle.Render("Problem:"), sess.Problem)
	status := sess.Status
	if status == "" {
		status = session.StatusRunning
	}
	fmt.Fprintf(&b, "%s\n\n", dimStyle.Render(fmt.Sprintf("run %s  status=%s", sess.ID, status)))

	var lastPlan []plan.Snapshot
	for _, e := range sess.Events {
		switch e.Type {
		case session.EventThought:
			fmt.Fprintf(&b, "%s\n", headingStyle.Render(fmt.Sprintf("Thought %d (%s)", e.Thought, e.Action)))
			b.WriteString(wrap(e.Content, width))
			b.WriteString("\n\n")
		case session.EventVerificationInserted:
			fmt.Fprintf(&b, "%s\n\n", dimStyle.Render(fmt.Sprintf("verification inserted for %d step(s)", len(e.Nodes))))
		case session.EventFailureReopened:
			fmt.Fprintf(&b, "%s %s\n\n", failStyle.Render("verification failed:"), wrap(e.Content, width))
		case session.EventResearch:
			fmt.Fprintf(&b, "%s\n\n", dimStyle.Render("researched: "+e.Query))
		case session.EventRunEnd:
			if e.Error != "" {
				fmt.Fprintf(&b, "%s %s\n\n", failStyle.Render("Run failed:"), wrap(e.Error, width))
			} else {
				fmt.Fprintf(&b, "%s\n%s\n\n", headingStyle.Render("Answer"), wrap(e.Content, width))
			}
			if e.Duration > 0 {
				fmt.Fprintf(&b, "%s\n\n", dimStyle.Render(fmt.Sprintf("took %s", time.Duration(e.Duration)*time.Millisecond)))
			}
		}
		if len(e.Plan) > 0 {
			lastPlan = e.Plan
		}
	}

	if len(lastPlan) > 0 {
		fmt.Fprintf(&b, "%s\n%s", headingStyle.Render("Plan"), plan.RenderSnapshot(lastPlan, width))
	}
	return b.String()
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return string(bytes.TrimRight([]byte(wordwrap.String(s, width)), "\n"))
}
