package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/wtldr/internal/model"
	"github.com/nhle/wtldr/internal/newsletter"
	"github.com/nhle/wtldr/internal/source"
	"github.com/nhle/wtldr/internal/store"
)

// Config controls which messages the pipeline ingests.
type Config struct {
	// Sender is matched case-insensitively as a substring of the From
	// header, both on the server search and when picking stored messages
	// to segment.
	Sender string

	// ArchiveAfterFetch moves newly stored messages out of the mailbox.
	ArchiveAfterFetch bool
}

// FetchResult reports what SaveMessages did.
type FetchResult struct {
	Seen     int
	Inserted int
	Archived int
}

// ExtractResult reports what ExtractSummaries did.
type ExtractResult struct {
	Messages  int
	Summaries int
	Failures  int
}

// Pipeline moves newsletters from the mailbox into the store and segments
// stored messages into summaries.
type Pipeline struct {
	opener     source.Opener
	store      store.Store
	normalizer *newsletter.Normalizer
	cfg        Config
	log        zerolog.Logger
	now        func() time.Time
}

// NewPipeline creates a Pipeline. opener may be nil when only
// ExtractSummaries is used.
func NewPipeline(opener source.Opener, s store.Store, cfg Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		opener:     opener,
		store:      s,
		normalizer: newsletter.NewNormalizer(log),
		cfg:        cfg,
		log:        log.With().Str("component", "ingest").Logger(),
		now:        time.Now,
	}
}

// SaveMessages fetches every newsletter in the mailbox and stores the ones
// not already present. The mailbox session is closed on every exit path.
func (p *Pipeline) SaveMessages(ctx context.Context) (res FetchResult, err error) {
	if p.opener == nil {
		return res, fmt.Errorf("no mailbox configured")
	}

	mb, err := p.opener.Open(ctx)
	if err != nil {
		return res, fmt.Errorf("opening mailbox: %w", err)
	}
	defer func() {
		if closeErr := mb.Close(); closeErr != nil {
			p.log.Warn().Err(closeErr).Msg("closing mailbox")
		}
	}()

	uids, err := mb.SenderUIDs(ctx, p.cfg.Sender)
	if err != nil {
		return res, fmt.Errorf("listing messages from %s: %w", p.cfg.Sender, err)
	}
	res.Seen = len(uids)

	for _, uid := range uids {
		raw, err := mb.FetchRaw(ctx, uid)
		if err != nil {
			return res, fmt.Errorf("fetching message %d: %w", uid, err)
		}

		msg, err := p.normalizer.Normalize(raw, int64(uid))
		if err != nil {
			return res, fmt.Errorf("message %d: %w", uid, err)
		}

		inserted, err := p.store.InsertMessage(ctx, *msg)
		if err != nil {
			return res, err
		}
		if !inserted {
			p.log.Debug().Uint32("uid", uid).Msg("message already stored")
			continue
		}
		res.Inserted++

		if !p.cfg.ArchiveAfterFetch {
			continue
		}
		if err := mb.Archive(ctx, uid); err != nil {
			p.log.Warn().Err(err).Uint32("uid", uid).Msg("archive failed")
			continue
		}
		res.Archived++
	}

	p.log.Info().
		Int("seen", res.Seen).
		Int("inserted", res.Inserted).
		Int("archived", res.Archived).
		Msg("messages saved")

	return res, nil
}

// ExtractSummaries segments every unprocessed newsletter message and
// stores its summaries. A message that fails to segment is logged, left
// unprocessed and counted in Failures; the remaining messages still run.
func (p *Pipeline) ExtractSummaries(ctx context.Context) (ExtractResult, error) {
	var res ExtractResult

	msgs, err := p.store.GetUnprocessedMessages(ctx)
	if err != nil {
		return res, err
	}

	sender := strings.ToLower(p.cfg.Sender)
	for i := range msgs {
		m := &msgs[i]
		if !strings.Contains(strings.ToLower(m.Sender), sender) {
			continue
		}
		res.Messages++

		summaries, err := newsletter.Segment(m)
		if err != nil {
			res.Failures++
			p.log.Warn().Err(err).Int64("message_id", m.ID).Msg("segmentation failed")
			continue
		}

		if err := p.store.AddSummaries(ctx, m.ID, summaries); err != nil {
			return res, err
		}
		res.Summaries += len(summaries)
	}

	p.log.Info().
		Int("messages", res.Messages).
		Int("summaries", res.Summaries).
		Int("failures", res.Failures).
		Msg("summaries extracted")

	return res, nil
}

// Run fetches and extracts, recording the attempt as an IngestRun. The run
// record is finished even when ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) (model.IngestRun, error) {
	run := model.IngestRun{
		ID:        uuid.NewString(),
		StartedAt: p.now().UTC(),
	}
	if err := p.store.CreateIngestRun(ctx, run); err != nil {
		return run, err
	}

	log := p.log.With().Str("run_id", run.ID).Logger()
	log.Info().Msg("ingest run started")

	runErr := p.run(ctx, &run)
	if runErr != nil {
		run.Error = runErr.Error()
	}
	run.FinishedAt = p.now().UTC()

	if err := p.store.FinishIngestRun(context.WithoutCancel(ctx), run); err != nil {
		if runErr == nil {
			runErr = err
		}
		log.Error().Err(err).Msg("recording ingest run")
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("ingest run failed")
	} else {
		log.Info().Dur("took", run.FinishedAt.Sub(run.StartedAt)).Msg("ingest run finished")
	}
	return run, runErr
}

func (p *Pipeline) run(ctx context.Context, run *model.IngestRun) error {
	fetched, err := p.SaveMessages(ctx)
	run.MessagesSeen = fetched.Seen
	run.MessagesInserted = fetched.Inserted
	if err != nil {
		return err
	}

	extracted, err := p.ExtractSummaries(ctx)
	run.SummariesAdded = extracted.Summaries
	run.SegmentFailures = extracted.Failures
	return err
}
