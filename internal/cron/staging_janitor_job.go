package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

const stagingStaleAfter = 24 * time.Hour

type StagingJanitorJobParams struct {
	Logger     *logger.Logger
	Area       stagingSweeper
	StaleAfter time.Duration
}

type stagingSweeper interface {
	Sweep(cutoff time.Time) (int, error)
}

// NewStagingJanitorJob removes staged uploads of abandoned wizard sessions.
func NewStagingJanitorJob(params StagingJanitorJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Area == nil {
		return nil, fmt.Errorf("staging area required")
	}
	stale := params.StaleAfter
	if stale <= 0 {
		stale = stagingStaleAfter
	}
	return &stagingJanitorJob{
		logg:  params.Logger,
		area:  params.Area,
		stale: stale,
		now:   time.Now,
	}, nil
}

type stagingJanitorJob struct {
	logg  *logger.Logger
	area  stagingSweeper
	stale time.Duration
	now   func() time.Time
}

func (j *stagingJanitorJob) Name() string { return "staging_janitor" }

func (j *stagingJanitorJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.stale)
	removed, err := j.area.Sweep(cutoff)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":           cutoff,
		"sessions_removed": removed,
	})
	if err != nil {
		return fmt.Errorf("staging sweep: %w", err)
	}
	j.logg.Info(logCtx, "staging cleanup complete")
	return nil
}
