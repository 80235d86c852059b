package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mlowell/hubmirror/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	prefsPath := flag.String("prefs", "", "override prefs path (optional)")
	owner := flag.String("owner", "", "repository owner (overrides config)")
	repo := flag.String("repo", "", "repository name (overrides config)")
	pollSeconds := flag.Int("poll", 0, "item poll interval in seconds (optional, defaults to 20s)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Owner:      *owner,
		Repo:       *repo,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "hubmirror: %v\n", err)
		return 1
	}
	return 0
}
