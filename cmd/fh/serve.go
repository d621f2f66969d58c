package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/api"
	"github.com/farmhand/farmhand/internal/auth"
	"github.com/farmhand/farmhand/internal/notify"
	"github.com/farmhand/farmhand/internal/scouting"
	"github.com/farmhand/farmhand/internal/store"
)

func newServeCmd(g *globals) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the farm HTTP API",
		Long:  "Opens the farm data store, serves the HTTP API and change feed, and sends the daily task digest when a chat channel is configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, g *globals, port int) error {
	out := cmd.OutOrStdout()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	f, err := openFarm(ctx, g)
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprintf(out, "Storage: %s\n", printMode(f))

	if port <= 0 {
		port = f.cfg.Server.Port
	}

	adv := newAdvisor(ctx, f.cfg, g.log)
	notifier := newNotifier(f.cfg, g.log)
	svc := scouting.New(scouting.Opts{
		Store:    f.store,
		Advisor:  adv,
		Notifier: notifier,
		Logger:   g.log,
	})
	defer svc.Wait()

	if notifier.Len() > 0 {
		sched, err := notify.NewScheduler(f.cfg.Notify.DigestCron, func(ctx context.Context) {
			sendDigest(ctx, f.store, notifier, g.log)
		}, g.log)
		if err != nil {
			return err
		}
		go sched.Run(ctx)
		fmt.Fprintf(out, "Daily digest scheduled (%s) to %d channel(s)\n", f.cfg.Notify.DigestCron, notifier.Len())
	}

	err = api.Start(ctx, api.StartOpts{
		Store:    f.store,
		Gate:     auth.New(f.local, f.cfg.Auth.Email, f.cfg.Auth.Password),
		Advisor:  adv,
		Scouting: svc,
		Port:     port,
		Out:      out,
		Logger:   g.log,
	})
	cancel()
	return err
}

// sendDigest builds today's digest and sends it. Nothing is sent when no
// task is due.
func sendDigest(ctx context.Context, st *store.Store, sender notify.Sender, log *zap.Logger) bool {
	n := notify.BuildDailyDigest(st.Fields(), st.Cycles(), timeNow())
	if n == nil {
		log.Info("digest: nothing due")
		return false
	}
	if err := sender.Send(ctx, *n); err != nil {
		log.Error("digest: send failed", zap.Error(err))
		return false
	}
	return true
}
