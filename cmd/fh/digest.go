package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/farmhand/farmhand/internal/notify"
)

// timeNow is replaced in tests.
var timeNow = time.Now

func newDigestCmd(g *globals) *cobra.Command {
	var send bool

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Show the tasks due today",
		Long:  "Lists pending tasks of active crop cycles that are due today or overdue. With --send the digest goes to the configured Slack and Discord channels.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(cmd, g, send)
		},
	}

	cmd.Flags().BoolVar(&send, "send", false, "send the digest to the configured chat channels")
	return cmd
}

func runDigest(cmd *cobra.Command, g *globals, send bool) error {
	ctx := context.Background()
	f, err := openFarm(ctx, g)
	if err != nil {
		return err
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	n := notify.BuildDailyDigest(f.store.Fields(), f.store.Cycles(), timeNow())
	if n == nil {
		fmt.Fprintln(out, "Nothing due today.")
		return nil
	}
	fmt.Fprintf(out, "%s\n%s\n", n.Title, n.Body)

	if !send {
		return nil
	}
	notifier := newNotifier(f.cfg, g.log)
	if notifier.Len() == 0 {
		return errors.New("digest: no chat channel configured")
	}
	if err := notifier.Send(ctx, *n); err != nil {
		return err
	}
	fmt.Fprintf(out, "Sent to %d channel(s)\n", notifier.Len())
	return nil
}
