package reminders

// Polling delivery scheduler. One tick processes one batch of due reminders;
// ticks never overlap. Delivery is at most once: a reminder is marked sent
// right after its delivery attempt, whether or not the attempt succeeded.

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Sink is the external message delivery capability the scheduler talks to.
type Sink interface {
	// Send delivers text to the target, attributing it to the owner.
	Send(targetID, text, ownerID string) error
	// Ready tells whether the sink can deliver messages yet.
	Ready() bool
}

const (
	// DefaultInterval is the polling granularity between delivery passes.
	DefaultInterval = time.Minute
	// Deadline for one whole delivery pass; reminders not reached within it
	// stay unmarked and get picked up on the next tick.
	tickTimeout = 45 * time.Second
	// How often to re-check sink readiness before the first tick.
	readyPollInterval = time.Second
)

// Scheduler polls the store and hands due reminders to the sink.
type Scheduler struct {
	store    *Store
	sink     Sink
	log      *logrus.Logger
	interval time.Duration
	clock    func() time.Time

	mutex   sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewScheduler creates a scheduler polling the store every interval.
// Pass 0 to use DefaultInterval.
func NewScheduler(store *Store, sink Sink, logger *logrus.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		store:    store,
		sink:     sink,
		log:      logger,
		interval: interval,
		clock:    time.Now,
	}
}

// Start launches the polling loop. The first tick will not happen before the
// sink signals readiness. Calling Start on a running scheduler does nothing.
func (scheduler *Scheduler) Start() {
	scheduler.mutex.Lock()
	defer scheduler.mutex.Unlock()
	if scheduler.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	scheduler.cancel = cancel
	scheduler.stopped = make(chan struct{})
	go scheduler.run(ctx)
}

// Stop cancels the polling loop and waits for an in-flight pass to wind down.
// Abandoning a pass is safe: unmarked reminders are re-read on the next start.
func (scheduler *Scheduler) Stop() {
	scheduler.mutex.Lock()
	cancel, stopped := scheduler.cancel, scheduler.stopped
	scheduler.cancel = nil
	scheduler.mutex.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

func (scheduler *Scheduler) run(ctx context.Context) {
	defer close(scheduler.stopped)

	if !scheduler.waitForSink(ctx) {
		return
	}
	scheduler.log.Infof("Reminder scheduler started, polling every %s.", scheduler.interval)

	ticker := time.NewTicker(scheduler.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			scheduler.log.Infof("Reminder scheduler stopped.")
			return
		case <-ticker.C:
			scheduler.deliverDue(ctx)
		}
	}
}

// waitForSink blocks until the sink is ready or the scheduler is stopped.
func (scheduler *Scheduler) waitForSink(ctx context.Context) bool {
	for !scheduler.sink.Ready() {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(readyPollInterval):
		}
	}
	return true
}

// deliverDue runs one delivery pass: everything due as of now, soonest first.
func (scheduler *Scheduler) deliverDue(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	due, err := scheduler.store.Due(passCtx, scheduler.clock())
	if err != nil {
		scheduler.log.Errorf("Can't query due reminders: %s", err)
		return
	}
	for i, reminder := range due {
		select {
		case <-passCtx.Done():
			scheduler.log.Warningf(
				"Delivery pass ran out of time, leaving %d reminders for the next tick.", len(due)-i)
			return
		default:
		}
		scheduler.attempt(passCtx, reminder)
	}
}

// attempt delivers one reminder and marks it sent no matter the outcome.
// A failed or timed out delivery is logged, never retried.
func (scheduler *Scheduler) attempt(ctx context.Context, reminder Reminder) {
	sent := make(chan error, 1)
	go func() {
		sent <- scheduler.sink.Send(reminder.TargetID, reminder.Text, reminder.OwnerID)
	}()
	select {
	case err := <-sent:
		if err != nil {
			scheduler.log.WithFields(logrus.Fields{
				"reminder": reminder.ID, "target": reminder.TargetID,
			}).Errorf("Delivery failed: %s", err)
		} else {
			scheduler.log.WithFields(logrus.Fields{
				"reminder": reminder.ID, "owner": reminder.OwnerID,
			}).Infof("Reminder delivered.")
		}
	case <-ctx.Done():
		scheduler.log.WithFields(logrus.Fields{
			"reminder": reminder.ID, "target": reminder.TargetID,
		}).Errorf("Delivery attempt timed out.")
	}

	// Marking must not be blocked by an expired pass deadline, or a hung sink
	// would make the reminder fire again next tick.
	markCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := scheduler.store.MarkSent(markCtx, reminder.ID); err != nil {
		scheduler.log.Errorf("Can't mark reminder %d as sent: %s", reminder.ID, err)
	}
}
