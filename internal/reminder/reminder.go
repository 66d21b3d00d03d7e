// Package reminder periodically checks for overdue and soon-due debts and
// sends a digest to the configured notifiers.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/hutangku/internal/models"
	"github.com/Dan9191/hutangku/internal/urgency"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// runTimeout bounds a single scheduled run
const runTimeout = 30 * time.Second

// Source produces the classification report for a day
type Source interface {
	Dashboard(ctx context.Context, today *models.Date) (*urgency.Report, error)
}

// Notifier delivers a digest
type Notifier interface {
	Notify(ctx context.Context, digest Digest) error
}

// Job runs the reminder check on a cron schedule
type Job struct {
	source    Source
	notifiers []Notifier
	log       *logrus.Logger
	cron      *cron.Cron
}

// NewJob creates a job that reports to every notifier given
func NewJob(source Source, log *logrus.Logger, notifiers ...Notifier) *Job {
	return &Job{source: source, notifiers: notifiers, log: log}
}

// RunOnce classifies the current debts and notifies when something needs
// attention. Notifier failures are logged and do not stop other notifiers.
func (j *Job) RunOnce(ctx context.Context) (Digest, error) {
	report, err := j.source.Dashboard(ctx, nil)
	if err != nil {
		return Digest{}, fmt.Errorf("failed to build reminder digest: %w", err)
	}
	digest := BuildDigest(report)
	if digest.Empty() {
		j.log.Debugf("No overdue or due-soon debts on %s", digest.Date)
		return digest, nil
	}

	for _, n := range j.notifiers {
		if err := n.Notify(ctx, digest); err != nil {
			j.log.WithError(err).Errorf("Reminder notifier %T failed", n)
		}
	}
	return digest, nil
}

// Start schedules RunOnce with a standard five-field cron spec
func (j *Job) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, err := j.RunOnce(ctx); err != nil {
			j.log.WithError(err).Error("Reminder run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	j.cron = c
	c.Start()
	j.log.Infof("Reminder job scheduled: %s", spec)
	return nil
}

// Stop halts the scheduler and waits for a running check to finish
func (j *Job) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}

// LogNotifier writes the digest to the application log
type LogNotifier struct {
	log *logrus.Logger
}

// NewLogNotifier creates a notifier backed by logrus
func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, digest Digest) error {
	n.log.WithFields(logrus.Fields{
		"date":     digest.Date.String(),
		"overdue":  len(digest.Overdue),
		"due_soon": len(digest.DueSoon),
	}).Warnf("%s: %s", digest.Subject(), strings.Join(digest.Lines(), "; "))
	return nil
}
