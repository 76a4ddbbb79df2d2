// Package main defines the CLI structure using kong.
package main

import "fmt"

// CLI defines the command-line interface.
type CLI struct {
	Run     RunCmd     `cmd:"" help:"Reason a problem through to an answer"`
	Render  RenderCmd  `cmd:"" help:"Render a saved run transcript or plan snapshot"`
	Watch   WatchCmd   `cmd:"" help:"Follow a run transcript live"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// Run prints the build information.
func (c *VersionCmd) Run() error {
	fmt.Printf("thoughtbot %s (commit %s, built %s)\n", version, commit, buildTime)
	return nil
}
