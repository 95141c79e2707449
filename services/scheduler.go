// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// LifecycleScheduler runs the periodic sweeps in-process. Deployments that
// trigger the /cron endpoints from an external scheduler leave this off;
// both paths call the same service entry points.
type LifecycleScheduler struct {
	Gates   *GateService
	Streaks *StreakService
	Instant *InstantMatchService
}

func NewLifecycleScheduler(gates *GateService, streaks *StreakService, instant *InstantMatchService) *LifecycleScheduler {
	return &LifecycleScheduler{Gates: gates, Streaks: streaks, Instant: instant}
}

// Start wires the sweep jobs and returns the running scheduler so the
// caller can shut it down.
func (ls *LifecycleScheduler) Start(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	// Every minute: open gates whose start time arrived
	if _, err := sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			opened, failures := ls.Gates.OpenDueGates(time.Now().UTC())
			if len(opened) > 0 || len(failures) > 0 {
				log.Printf("[Scheduler] gate-open: opened=%d failed=%d", len(opened), len(failures))
			}
		}),
	); err != nil {
		log.Printf("❌ [Scheduler] failed to register gate-open job: %v", err)
	}

	// Every minute: close elapsed gates, complete expired sessions and
	// credit streaks for every completed one
	if _, err := sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now().UTC()
			closed, closeFailures := ls.Gates.CloseDueGates(ctx, now)
			completed, completeFailures := ls.Gates.CompleteExpiredSessions(now)
			for _, sessionID := range completed {
				if _, err := ls.Streaks.RecordSessionParticipation(sessionID, now); err != nil {
					log.Printf("[Scheduler] streak recording failed for session %s: %v", sessionID, err)
				}
			}
			if len(closed) > 0 || len(completed) > 0 || len(closeFailures)+len(completeFailures) > 0 {
				log.Printf("[Scheduler] gate-close: closed=%d completed=%d failed=%d",
					len(closed), len(completed), len(closeFailures)+len(completeFailures))
			}
		}),
	); err != nil {
		log.Printf("❌ [Scheduler] failed to register gate-close job: %v", err)
	}

	// Every minute: sweep the instant queue
	if _, err := sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			matched, err := ls.Instant.SweepInstantQueue(ctx, time.Now().UTC())
			if err != nil {
				log.Printf("[Scheduler] instant sweep failed: %v", err)
				return
			}
			if matched > 0 {
				log.Printf("[Scheduler] instant sweep matched %d users", matched)
			}
		}),
	); err != nil {
		log.Printf("❌ [Scheduler] failed to register instant-match job: %v", err)
	}

	// Midnight UTC: reset lapsed streaks. Runs before any same-day
	// participation can be recorded, so a late check-in never reads a
	// stale streak as consecutive.
	if _, err := sched.NewJob(
		gocron.CronJob("0 0 * * *", false),
		gocron.NewTask(func() {
			count, err := ls.Streaks.DailyStreakReset(time.Now().UTC())
			if err != nil {
				log.Printf("[Scheduler] daily streak reset failed: %v", err)
				return
			}
			log.Printf("[Scheduler] daily streak reset: %d profiles", count)
		}),
	); err != nil {
		log.Printf("❌ [Scheduler] failed to register streak-reset job: %v", err)
	}

	sched.Start()
	log.Println("✅ Lifecycle scheduler running (gate sweeps every 1m, streak reset at 00:00 UTC)")
	return sched, nil
}
