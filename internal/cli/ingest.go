package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/wtldr/internal/ingest"
	"github.com/nhle/wtldr/internal/model"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or migrate the database and write a default config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.cfgFile); os.IsNotExist(err) {
				if err := model.SaveConfig(a.cfgFile, a.cfg); err != nil {
					return err
				}
				a.printer.Success("wrote config %s", a.cfgFile)
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			schema, err := s.SchemaVersion()
			if err != nil {
				return err
			}
			a.printer.Success("database %s ready (schema v%d)", a.cfg.Database.Path, schema)
			return nil
		},
	}
}

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Store new newsletters from the mailbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := a.pipeline(s, true)
			if err != nil {
				return err
			}

			res, err := p.SaveMessages(cmd.Context())
			if err != nil {
				return err
			}
			a.printer.Success("%d seen, %d new, %d archived", res.Seen, res.Inserted, res.Archived)
			return nil
		},
	}
}

func newExtractCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Split stored newsletters into summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := a.pipeline(s, false)
			if err != nil {
				return err
			}

			res, err := p.ExtractSummaries(cmd.Context())
			if err != nil {
				return err
			}
			a.printer.Success("%d messages, %d summaries", res.Messages, res.Summaries)
			if res.Failures > 0 {
				a.printer.Warning("%d messages could not be segmented", res.Failures)
			}
			return nil
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch and extract, recorded as an ingest run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := a.pipeline(s, true)
			if err != nil {
				return err
			}

			run, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}
			a.printRun(run)
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run ingest on an interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := a.pipeline(s, true)
			if err != nil {
				return err
			}

			if interval <= 0 {
				interval = time.Duration(a.cfg.Poll.IntervalSec) * time.Second
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			refresh := make(chan os.Signal, 1)
			signal.Notify(refresh, syscall.SIGHUP)
			defer signal.Stop(refresh)

			a.printer.Print("watching every %s; send SIGHUP to poll now", interval)
			return a.watch(ctx, ingest.NewPoller(p, interval, a.log), refresh)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default from poll.interval_sec)")
	return cmd
}

// watch runs poller until ctx is done, printing each cycle. Every value
// received on refresh triggers an immediate cycle.
func (a *app) watch(ctx context.Context, poller *ingest.Poller, refresh <-chan os.Signal) error {
	poller.Start()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		poller.Stop()
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-refresh:
				a.log.Debug().Msg("refresh requested")
				poller.Trigger()
			case res := <-poller.Results():
				if res.Err != nil {
					a.printer.Warning("ingest failed: %v", res.Err)
					continue
				}
				a.printRun(res.Run)
			}
		}
	})

	return g.Wait()
}

func (a *app) printRun(run model.IngestRun) {
	a.printer.Success("run %s: %d seen, %d new, %d summaries",
		a.printer.Dim(run.ID), run.MessagesSeen, run.MessagesInserted, run.SummariesAdded)
	if run.SegmentFailures > 0 {
		a.printer.Warning("%d messages could not be segmented", run.SegmentFailures)
	}
}
