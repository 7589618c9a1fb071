package reminders

// User-facing reminder operations, consumed by the bot's command layer.

import (
	"context"
	"errors"
	"time"

	"github.com/pawelszydlo/humanize"
	"github.com/sirupsen/logrus"
)

// Confirmation describes a freshly created reminder.
type Confirmation struct {
	ID    int64
	DueAt time.Time
}

// Service glues the parser to the store.
type Service struct {
	store     *Store
	humanizer *humanize.Humanizer
	log       *logrus.Logger
	clock     func() time.Time
}

// NewService creates a reminder service. The humanizer is optional; when
// present it serves as the last-resort grammar for duration expressions the
// built-in parser does not recognize.
func NewService(store *Store, humanizer *humanize.Humanizer, logger *logrus.Logger) *Service {
	return &Service{
		store:     store,
		humanizer: humanizer,
		log:       logger,
		clock:     time.Now,
	}
}

// CreateReminder parses the when expression and persists a new reminder.
// Parse and store errors are returned as typed values for the command layer
// to render; they are user input problems, not system faults.
func (service *Service) CreateReminder(
	ctx context.Context, ownerID, targetID, text, whenExpression string,
) (*Confirmation, error) {
	now := service.clock()
	dueAt, err := Parse(whenExpression, now)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) && parseErr.Kind == Unparseable && service.humanizer != nil {
			if delay, herr := service.humanizer.ParseDuration(whenExpression); herr == nil {
				dueAt, err = now.Add(delay), nil
			}
		}
		if err != nil {
			return nil, err
		}
	}
	if !dueAt.After(now) {
		return nil, pastTime(whenExpression)
	}
	id, err := service.store.Create(ctx, ownerID, targetID, text, dueAt, now)
	if err != nil {
		return nil, err
	}
	service.log.WithFields(logrus.Fields{
		"reminder": id, "owner": ownerID, "due": dueAt,
	}).Infof("Reminder created.")
	return &Confirmation{ID: id, DueAt: dueAt}, nil
}

// ListReminders returns the owner's pending reminders, soonest first.
func (service *Service) ListReminders(ctx context.Context, ownerID string) ([]Reminder, error) {
	return service.store.ListPending(ctx, ownerID)
}

// DeleteReminder removes a pending reminder owned by the requester.
func (service *Service) DeleteReminder(ctx context.Context, id int64, ownerID string) error {
	return service.store.Delete(ctx, id, ownerID)
}
