package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/events"
	"github.com/Johnhyeon/stock-tracker-sub001/internal/modules/telegram"
)

const (
	syncDays     = 90
	syncPageSize = 200
	syncTimeout  = 2 * time.Minute
)

// SyncJob refreshes the local telegram idea snapshot from the live lister.
type SyncJob struct {
	source telegram.Lister
	repo   *telegram.Repository
	events *events.Manager
	log    zerolog.Logger
}

// NewSyncJob creates the telegram snapshot sync job
func NewSyncJob(source telegram.Lister, repo *telegram.Repository, ev *events.Manager, log zerolog.Logger) *SyncJob {
	return &SyncJob{
		source: source,
		repo:   repo,
		events: ev,
		log:    log.With().Str("job", "telegram_sync").Logger(),
	}
}

// Name implements scheduler.Job
func (j *SyncJob) Name() string {
	return "telegram_sync"
}

// Run pulls every page within the sync window and replaces the snapshot.
func (j *SyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	j.events.Emit(events.TelegramSyncStart, "telegram", nil)

	var all []telegram.Idea
	offset := 0
	for {
		page, err := j.source.List(ctx, telegram.ListQuery{
			Days:   syncDays,
			Limit:  syncPageSize,
			Offset: offset,
		})
		if err != nil {
			j.events.EmitError("telegram", err, map[string]interface{}{"offset": offset})
			return err
		}

		all = append(all, page.Items...)
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.Total {
			break
		}
	}

	if err := j.repo.ReplaceAll(all); err != nil {
		j.events.EmitError("telegram", err, nil)
		return err
	}

	j.events.Emit(events.TelegramSyncDone, "telegram", map[string]interface{}{
		"count": len(all),
	})

	return nil
}
