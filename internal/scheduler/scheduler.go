// Package scheduler runs the digest jobs once a day from a long-running
// process, in place of cron.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"sitescripts/internal/model"
)

// Job runs one digest run.
type Job func(ctx context.Context, interval model.Interval, weekday int) error

// Scheduler triggers the daily and the weekly digest run after a fixed
// hour of every UTC day.
type Scheduler struct {
	job     Job
	hour    int
	log     *slog.Logger
	tick    time.Duration
	now     func() time.Time
	lastRun string
}

// New creates a Scheduler that fires at hour (0-23, UTC).
func New(job Job, hour int, log *slog.Logger) *Scheduler {
	return &Scheduler{
		job:  job,
		hour: hour,
		log:  log,
		tick: 1 * time.Minute,
		now:  time.Now,
	}
}

// SetTickInterval overrides the default 1-minute check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.checkDue(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkDue(ctx)
		}
	}
}

func (s *Scheduler) checkDue(ctx context.Context) {
	now := s.now().UTC()
	if now.Hour() < s.hour {
		return
	}
	date := now.Format(time.DateOnly)
	if date == s.lastRun {
		return
	}
	s.lastRun = date

	weekday := Weekday(now)
	s.log.Info("running scheduled digests", "date", date, "weekday", weekday)

	if err := s.job(ctx, model.IntervalDay, -1); err != nil {
		s.log.Error("daily digests", "date", date, "error", err)
	}
	if ctx.Err() != nil {
		return
	}
	if err := s.job(ctx, model.IntervalWeek, weekday); err != nil {
		s.log.Error("weekly digests", "date", date, "weekday", weekday, "error", err)
	}
}

// Weekday returns the digest weekday of t: 0 is Monday, 6 is Sunday.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
