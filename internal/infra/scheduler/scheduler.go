package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// jobTimeout bounds every scheduled pass. Passes iterate all users'
// subscriptions, so the limit is generous.
const jobTimeout = 10 * time.Minute

// ReminderRunner is the set of notification passes the scheduler drives.
type ReminderRunner interface {
	ProcessUpcoming(ctx context.Context) error
	ProcessOverdue(ctx context.Context) error
	ProcessCancellationReminders(ctx context.Context) error
}

// RateRefresher refreshes exchange rates from the external provider.
type RateRefresher interface {
	RefreshRates(ctx context.Context) error
}

// Scheduler owns the cron engine and the four recurring jobs: upcoming,
// overdue and cancellation notification passes plus the nightly rate refresh.
// A failing or panicking job run never takes the process down.
type Scheduler struct {
	cronEngine *cron.Cron
	reminders  ReminderRunner
	rates      RateRefresher
	logger     *logrus.Logger

	cronSpecUpcoming     string
	cronSpecOverdue      string
	cronSpecCancellation string
	cronSpecRateRefresh  string
}

func NewScheduler(
	reminders ReminderRunner,
	rates RateRefresher,
	logger *logrus.Logger,
	cronSpecUpcoming string, // e.g. "0 9 * * *" (9:00 AM daily)
	cronSpecOverdue string, // e.g. "0 8 * * *"
	cronSpecCancellation string, // e.g. "0 10 * * *"
	cronSpecRateRefresh string, // e.g. "0 2 * * *"
) *Scheduler {
	return &Scheduler{
		cronEngine:           cron.New(cron.WithLocation(time.Local)),
		reminders:            reminders,
		rates:                rates,
		logger:               logger,
		cronSpecUpcoming:     cronSpecUpcoming,
		cronSpecOverdue:      cronSpecOverdue,
		cronSpecCancellation: cronSpecCancellation,
		cronSpecRateRefresh:  cronSpecRateRefresh,
	}
}

func (s *Scheduler) Start() {
	s.logger.Info("Starting notification scheduler...")

	s.mustAdd(s.cronSpecUpcoming, "upcoming payments", s.reminders.ProcessUpcoming)
	s.mustAdd(s.cronSpecOverdue, "overdue payments", s.reminders.ProcessOverdue)
	s.mustAdd(s.cronSpecCancellation, "cancellation reminders", s.reminders.ProcessCancellationReminders)
	s.mustAdd(s.cronSpecRateRefresh, "exchange rate refresh", s.rates.RefreshRates)

	s.cronEngine.Start()
	s.logger.Info("Notification scheduler started with jobs.")
}

// mustAdd registers one job. An invalid cron spec is a configuration error
// and fatal at startup; anything that goes wrong inside a run is contained.
func (s *Scheduler) mustAdd(spec, name string, run func(ctx context.Context) error) {
	_, err := s.cronEngine.AddFunc(spec, func() {
		s.runJob(name, run)
	})
	if err != nil {
		s.logger.Fatalf("Could not add %s cron job (spec %q): %v", name, spec, err)
	}
}

func (s *Scheduler) runJob(name string, run func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Panic in %s job: %v", name, r)
		}
	}()

	s.logger.Infof("Cron job triggered: %s", name)
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := run(ctx); err != nil {
		s.logger.Errorf("Error during %s job: %v", name, err)
		return
	}
	s.logger.Infof("Job %s completed successfully.", name)
}

func (s *Scheduler) Stop() {
	s.logger.Info("Stopping notification scheduler...")
	ctx := s.cronEngine.Stop() // Waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Notification scheduler gracefully stopped.")
}
