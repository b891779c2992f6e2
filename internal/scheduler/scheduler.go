package scheduler

import (
	"context"
	"fmt"
	"time"

	"travel-crm/internal/config"
	"travel-crm/internal/logger"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	// NormalizeJobName identifies the job repairing rows that bypassed the
	// normalization trigger
	NormalizeJobName = "backfill-normalized-contacts"

	maxBatchesPerRun = 20
	jobTimeout       = 4 * time.Minute
)

// Normalizer fills missing normalized contact columns for up to limit rows and
// returns how many rows it updated
type Normalizer interface {
	NormalizeMissing(ctx context.Context, limit int32) (int, error)
}

// Target is one table the repair job walks
type Target struct {
	Name       string
	Normalizer Normalizer
}

type Scheduler struct {
	cron      *cron.Cron
	spec      string
	batchSize int32
	targets   []Target
}

func NewScheduler(cfg config.JobsConfig, targets ...Target) *Scheduler {
	cronLog := cronLogger{log: logger.Component("cron")}
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	spec := cfg.NormalizeCron
	if spec == "" {
		spec = config.DefaultNormalizeCron
	}
	batchSize := cfg.NormalizeBatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultNormalizeBatchSize
	}

	return &Scheduler{
		cron:      c,
		spec:      spec,
		batchSize: batchSize,
		targets:   targets,
	}
}

func (s *Scheduler) Start() error {
	logger.Info().Str("job", NormalizeJobName).Str("spec", s.spec).Msg("starting scheduler")

	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if _, err := s.RunNormalizeNow(ctx); err != nil {
			logger.Error().Err(err).Str("job", NormalizeJobName).Msg("scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", s.spec, NormalizeJobName, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops scheduling and waits for a running job to finish
func (s *Scheduler) Stop() {
	logger.Info().Msg("stopping scheduler")
	<-s.cron.Stop().Done()
	logger.Info().Msg("scheduler stopped")
}

// RunNormalizeNow backfills every target until a batch comes back short,
// returning the number of rows updated per target
func (s *Scheduler) RunNormalizeNow(ctx context.Context) (map[string]int, error) {
	updated := make(map[string]int, len(s.targets))

	for _, target := range s.targets {
		for batch := 0; batch < maxBatchesPerRun; batch++ {
			if err := ctx.Err(); err != nil {
				return updated, err
			}

			n, err := target.Normalizer.NormalizeMissing(ctx, s.batchSize)
			updated[target.Name] += n
			if err != nil {
				return updated, fmt.Errorf("normalize %s: %w", target.Name, err)
			}
			if int32(n) < s.batchSize {
				break
			}
		}

		if updated[target.Name] > 0 {
			logger.Info().
				Str("job", NormalizeJobName).
				Str("table", target.Name).
				Int("updated", updated[target.Name]).
				Msg("normalized contact columns")
		}
	}

	return updated, nil
}

// GetScheduledJobs returns information about scheduled jobs
func (s *Scheduler) GetScheduledJobs() []cron.Entry {
	return s.cron.Entries()
}

// cronLogger routes cron's own logging through zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
