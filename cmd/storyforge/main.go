// Command storyforge serves the StoryForge API and offers offline access to
// the configured document store.
package main

import (
	"log/slog"
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	a := &app{}
	err := newRootCommand(a).Execute()
	if err != nil {
		slog.Error("fatal", "error", err)
	}
	a.close()
	if err != nil {
		os.Exit(1)
	}
}
