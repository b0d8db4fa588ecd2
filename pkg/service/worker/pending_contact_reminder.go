package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"github.com/secmon-lab/casedesk/pkg/service/notification"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
)

// PendingContactReminder periodically reminds case owners of the people
// their open cases are waiting on.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Unowned cases have nobody to remind and are skipped
type PendingContactReminder struct {
	repo     interfaces.Repository
	hub      *notification.Hub
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewPendingContactReminder creates a new reminder worker
func NewPendingContactReminder(repo interfaces.Repository, hub *notification.Hub, interval time.Duration) *PendingContactReminder {
	return &PendingContactReminder{
		repo:     repo,
		hub:      hub,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the reminder loop in a background goroutine
func (w *PendingContactReminder) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("reminder interval must be positive", goerr.V("interval", w.interval))
	}
	logging.Default().Info("Pending contact reminder starting", "interval", w.interval.String())

	go w.run(ctx)
	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *PendingContactReminder) Stop() {
	logging.Default().Info("Pending contact reminder stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Pending contact reminder stopped")
}

func (w *PendingContactReminder) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.Remind(ctx); err != nil {
				// Log error but continue worker
				logging.Default().Error("Pending contact reminder failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Pending contact reminder context cancelled")
			return
		}
	}
}

// Remind publishes one reminder per owner with pending contacts and
// returns the number of owners reminded
func (w *PendingContactReminder) Remind(ctx context.Context) (int, error) {
	cases, err := w.repo.Case().List(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list cases")
	}

	byOwner := make(map[types.UserID][]*model.Case)
	var owners []types.UserID
	for _, c := range cases {
		if c.Owner == "" || c.IsClosed() {
			continue
		}
		if _, ok := byOwner[c.Owner]; !ok {
			owners = append(owners, c.Owner)
		}
		byOwner[c.Owner] = append(byOwner[c.Owner], c)
	}

	reminded := 0
	for _, owner := range owners {
		groups := model.BuildDashboard(byOwner[owner]).PendingContacts
		if len(groups) == 0 {
			continue
		}
		w.hub.Publish(ctx, owner, notification.TypeInfo, reminderMessage(groups))
		reminded++
	}

	logging.Default().Info("Pending contact reminders sent", "owners", reminded)
	return reminded, nil
}

func reminderMessage(groups []model.PendingContactGroup) string {
	people := make([]string, len(groups))
	for i, g := range groups {
		people[i] = fmt.Sprintf("%s (%d)", g.Person, len(g.Cases))
	}
	return "Waiting on: " + strings.Join(people, ", ")
}
