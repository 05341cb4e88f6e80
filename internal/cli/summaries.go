package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/wtldr/internal/model"
	"github.com/nhle/wtldr/internal/newsletter"
	"github.com/nhle/wtldr/internal/output"
)

func newSummariesCmd(a *app) *cobra.Command {
	var (
		jsonOutput    bool
		markProcessed bool
		kind          string
	)

	cmd := &cobra.Command{
		Use:   "summaries",
		Short: "List unprocessed summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			sums, err := s.GetUnprocessedSummaries(ctx, model.SummaryKind(kind))
			if err != nil {
				return err
			}

			if err := a.printSummaries(sums, jsonOutput); err != nil {
				return err
			}

			if !markProcessed || len(sums) == 0 {
				return nil
			}
			ids := make([]int64, len(sums))
			for i, sum := range sums {
				ids[i] = sum.ID
			}
			return s.MarkSummariesProcessed(ctx, ids)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&markProcessed, "mark-processed", false, "mark the listed summaries processed")
	cmd.Flags().StringVar(&kind, "kind", string(model.SummaryKindTLDR), "summary kind")
	return cmd
}

func (a *app) printSummaries(sums []model.Summary, jsonOutput bool) error {
	if jsonOutput {
		if sums == nil {
			sums = []model.Summary{}
		}
		return a.printer.JSON(sums)
	}

	if len(sums) == 0 {
		a.printer.Print("no summaries")
		return nil
	}
	for _, sum := range sums {
		a.printer.Print("%s\n%s\n", a.printer.Bold(sum.Text), a.printer.Dim(sum.URL))
	}
	return nil
}

func newRunsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent ingest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.GetIngestRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			table := output.NewTable(a.printer.Out(),
				[]string{"id", "started", "seen", "new", "summaries", "failures", "error"})
			for _, r := range runs {
				table.AddRow(
					r.ID,
					r.StartedAt.Format(time.DateTime),
					strconv.Itoa(r.MessagesSeen),
					strconv.Itoa(r.MessagesInserted),
					strconv.Itoa(r.SummariesAdded),
					strconv.Itoa(r.SegmentFailures),
					r.Error,
				)
			}
			if table.Len() == 0 {
				a.printer.Print("no ingest runs")
				return nil
			}
			return table.Render()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show (0 for all)")
	return cmd
}

func newParseCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Segment a saved .eml newsletter without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			msg, err := newsletter.NewNormalizer(a.log).Normalize(raw, 0)
			if err != nil {
				return err
			}

			sums, err := newsletter.Segment(msg)
			if err != nil {
				return err
			}

			if !jsonOutput {
				a.printer.Print("%s (%s)\n", a.printer.Bold(msg.Subject), msg.SentAt.Format(time.DateTime))
			}
			return a.printSummaries(sums, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
