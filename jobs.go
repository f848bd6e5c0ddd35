package main

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/stonify5/duelserver/arena"
	"github.com/stonify5/duelserver/figure"
)

const (
	figurePurgeInterval = 10 * time.Minute
	statsLogInterval    = time.Minute
)

// startJobs schedules background housekeeping: expiring cached figures and
// logging the coordinator's counters.
func startJobs(ctx context.Context, figures *figure.Service, loop *arena.Loop, log zerolog.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(figurePurgeInterval),
		gocron.NewTask(func() {
			if n := figures.PurgeExpired(); n > 0 {
				log.Debug().Int("purged", n).Msg("expired figure cache entries")
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(statsLogInterval),
		gocron.NewTask(func() {
			statsCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			s, err := loop.Stats(statsCtx)
			if err != nil {
				log.Warn().Err(err).Msg("match stats unavailable")
				return
			}
			log.Info().
				Int("connections", s.Connections).
				Int("waiting", s.Waiting).
				Int("matches", s.Matches).
				Msg("arena stats")
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
