package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Balogunolalere/Thoughbot/internal/session"
)

// WatchCmd follows a run transcript live, re-rendering as the run
// appends events.
type WatchCmd struct {
	File  string `arg:"" help:"Transcript (.jsonl) path"`
	Width int    `default:"100" help:"Render width"`
}

// Run executes the watch command.
func (c *WatchCmd) Run() error {
	if _, err := os.Stat(c.File); err != nil {
		return err
	}

	render := func() (string, error) {
		f, err := os.Open(c.File)
		if err != nil {
			return "", err
		}
		defer f.Close()

		sess, err := session.ReadTranscript(f)
		if err != nil {
			return "", err
		}
		return renderTranscript(sess, c.Width), nil
	}

	title := fmt.Sprintf("thoughtbot %s", strings.TrimSuffix(filepath.Base(c.File), ".jsonl"))
	return newPager(title).RunLive(c.File, render)
}
