package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rafrcruz/lkdposts-sub001/internal/feed"
)

const (
	HourlyRefreshSpec     = "0 * * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	refreshTimeout        = 15 * time.Minute
)

// OwnerLister enumerates the owners with registered feeds.
type OwnerLister interface {
	ListOwnerKeys(ctx context.Context) ([]string, error)
}

// Scheduler refreshes every owner's feeds on the hour. Ingestion only; it
// never triggers generation runs.
type Scheduler struct {
	ctx        context.Context
	cron       *cron.Cron
	owners     OwnerLister
	refresher  *feed.Refresher
	windowDays int64
	log        *slog.Logger
}

func New(
	ctx context.Context,
	owners OwnerLister,
	refresher *feed.Refresher,
	windowDays int64,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:        ctx,
		cron:       c,
		owners:     owners,
		refresher:  refresher,
		windowDays: windowDays,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(HourlyRefreshSpec, s.refreshAllOwners); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) refreshAllOwners() {
	ctx, cancel := context.WithTimeout(s.ctx, refreshTimeout)
	defer cancel()

	owners, err := s.owners.ListOwnerKeys(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list owners",
			"error", err)

		return
	}

	for _, ownerKey := range owners {
		if ctx.Err() != nil {
			s.log.InfoContext(ctx, "Scheduler context is done",
				"error", ctx.Err())

			return
		}

		results, refreshErr := s.refresher.RefreshOwnerFeeds(ctx, ownerKey, s.windowDays)
		if refreshErr != nil {
			s.log.ErrorContext(ctx, "Failed to refresh owner feeds",
				"error", refreshErr,
				"ownerKey", ownerKey)

			continue
		}

		var created int64
		for _, result := range results {
			created += result.ArticlesCreated
		}

		s.log.InfoContext(ctx, "Owner feeds are refreshed",
			"ownerKey", ownerKey,
			"feedCount", len(results),
			"articlesCreated", created)
	}
}
