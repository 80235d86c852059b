package app

import (
	"context"
	"fmt"
	"time"

	"github.com/mlowell/hubmirror/internal/config"
	"github.com/mlowell/hubmirror/internal/github"
	"github.com/mlowell/hubmirror/internal/mirror"
	"github.com/mlowell/hubmirror/internal/prefs"
	"github.com/mlowell/hubmirror/internal/store"
	"github.com/mlowell/hubmirror/internal/ui"
	"github.com/mlowell/hubmirror/internal/view"
)

// Options configure the hubmirror application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/hubmirror/prefs.toml
	Owner      string // overrides config
	Repo       string // overrides config
	PollEvery  int    // item poll seconds; zero uses config/default
}

// Run boots the hubmirror dashboard until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Owner != "" {
		cfg.Owner = opts.Owner
	}
	if opts.Repo != "" {
		cfg.Repo = opts.Repo
	}
	if opts.PollEvery > 0 {
		cfg.ItemPollSeconds = opts.PollEvery
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := github.NewClient(cfg.APIBase, cfg.Owner, cfg.Repo, cfg.Token)
	if err != nil {
		return fmt.Errorf("init github client: %w", err)
	}

	st := store.New()
	session := mirror.NewSession(cfg.Owner, cfg.Repo, client, st)

	saved := prefs.Load(opts.PrefsPath)
	filter := saved.Filter()
	if cfg.PageSize > 0 && saved.ItemsPerPage == 0 {
		filter.ItemsPerPage = cfg.PageSize
	}
	v := view.New(st, filter)
	go v.Run(ctx)

	itemPoller := NewPoller("item", time.Duration(cfg.ItemPollSeconds)*time.Second, session.SyncItems, func() bool {
		return st.Len() == 0
	})
	labelPoller := NewPoller("label", time.Duration(cfg.LabelPollSeconds)*time.Second, session.SyncLabels, nil)

	itemPoller.Start(ctx)
	labelPoller.Start(ctx)
	defer itemPoller.Stop()
	defer labelPoller.Stop()

	uiOpts := ui.Options{
		Context: ctx,
		Session: session,
		View:    v,
		Loading: itemPoller.Loading,
	}
	if err := ui.Run(uiOpts); err != nil {
		return err
	}

	// Persist the final filter so the next session resumes where this
	// one left off. Failures are not fatal on the way out.
	_ = prefs.Save(opts.PrefsPath, prefs.FromFilter(v.Filter()))
	return nil
}
