package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/marketerbot/marketerbot/internal/db"
)

// Reports builds the analytics report texts. Satisfied by metrika.Reporter.
type Reports interface {
	Daily(ctx context.Context) string
	Weekly(ctx context.Context) string
	Monthly(ctx context.Context) string
}

// Fire times, in the local timezone of the process.
const (
	dailyHour     = 10
	dailyMinute   = 0
	weeklyHour    = 10
	weeklyMinute  = 30
	monthlyHour   = 11
	monthlyMinute = 0
)

// sendDelay spaces out deliveries so a large user list does not trip
// Telegram's rate limits.
const sendDelay = 500 * time.Millisecond

// Scheduler pushes periodic traffic reports to every known user.
// Daily reports go out at 10:00, weekly on Monday at 10:30, monthly on
// the first day of the month at 11:00.
type Scheduler struct {
	reports Reports
	users   func() ([]db.User, error)
	send    func(chatID int64, text string) error

	now      func() time.Time
	interval time.Duration
	delay    time.Duration
	stopChan chan struct{}

	lastDaily   string
	lastWeekly  string
	lastMonthly string
}

// New creates a scheduler. users lists the recipients; send delivers one
// message.
func New(reports Reports, users func() ([]db.User, error), send func(chatID int64, text string) error) *Scheduler {
	return &Scheduler{
		reports:  reports,
		users:    users,
		send:     send,
		now:      time.Now,
		interval: time.Minute,
		delay:    sendDelay,
		stopChan: make(chan struct{}),
	}
}

// Start runs the scheduler loop until the context is cancelled or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
	logrus.Info("report scheduler started")
}

// Stop terminates the loop.
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.tick(ctx, s.now())
		}
	}
}

// tick fires whichever reports are due at the given moment. Each report
// fires at most once per day.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	day := now.Format("2006-01-02")

	if now.Hour() == dailyHour && now.Minute() == dailyMinute && s.lastDaily != day {
		s.lastDaily = day
		s.broadcast(ctx, s.reports.Daily, "daily")
	}
	if now.Weekday() == time.Monday && now.Hour() == weeklyHour && now.Minute() == weeklyMinute && s.lastWeekly != day {
		s.lastWeekly = day
		s.broadcast(ctx, s.reports.Weekly, "weekly")
	}
	if now.Day() == 1 && now.Hour() == monthlyHour && now.Minute() == monthlyMinute && s.lastMonthly != day {
		s.lastMonthly = day
		s.broadcast(ctx, s.reports.Monthly, "monthly")
	}
}

// broadcast builds the report once and delivers it to every user.
// Per-user failures are logged and do not stop the run.
func (s *Scheduler) broadcast(ctx context.Context, build func(ctx context.Context) string, label string) {
	users, err := s.users()
	if err != nil {
		logrus.WithError(err).Errorf("failed to list users for %s report", label)
		return
	}
	if len(users) == 0 {
		return
	}

	text := build(ctx)
	logrus.Infof("sending %s report to %d users", label, len(users))

	for i, user := range users {
		if err := s.send(user.TelegramID, text); err != nil {
			logrus.WithError(err).Warnf("failed to deliver %s report to user %d", label, user.TelegramID)
		}
		if i < len(users)-1 {
			time.Sleep(s.delay)
		}
	}
}
