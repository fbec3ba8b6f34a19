package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/watch-party/internal/model"
	"github.com/iliyamo/watch-party/internal/queue"
	"github.com/iliyamo/watch-party/internal/repository"
)

// EventPublisher forwards stored notifications to the message broker.
type EventPublisher interface {
	PublishNotification(ctx context.Context, ev queue.NotificationEvent) error
}

// NotificationInput is the content of a notification to append.
type NotificationInput struct {
	Type         model.NotificationType
	Message      string
	WatchPartyID string
}

// Dispatch addresses one notification to one user.
type Dispatch struct {
	UserID string
	Input  NotificationInput
}

// DispatchOutcome reports what happened to one Dispatch.
type DispatchOutcome struct {
	UserID       string
	Notification *model.Notification
	Err          error
}

// fanOutLimit bounds concurrent writes during NotifyAll.
const fanOutLimit = 8

// NotificationService appends notifications to per-user logs.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher EventPublisher
	log       zerolog.Logger
	opts      options
}

func NewNotificationService(repo repository.NotificationRepository, log zerolog.Logger, opts ...Option) *NotificationService {
	return &NotificationService{
		repo: repo,
		log:  log.With().Str("component", "notifications").Logger(),
		opts: buildOptions(opts),
	}
}

// SetPublisher enables broker fan-out (optional dependency).
func (s *NotificationService) SetPublisher(p EventPublisher) {
	s.publisher = p
}

// Notify stores a notification for userID.  When a publisher is set the
// stored record is also published; a publish failure is logged and does
// not fail Notify because the record is already durable.
func (s *NotificationService) Notify(ctx context.Context, userID string, in NotificationInput) (*model.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: notification recipient is required", ErrValidation)
	}
	if in.Type != model.NotificationInvite && in.Type != model.NotificationJoin {
		return nil, fmt.Errorf("%w: unknown notification type %q", ErrValidation, in.Type)
	}
	n := &model.Notification{
		ID:           s.opts.newID(),
		UserID:       userID,
		Type:         in.Type,
		Message:      in.Message,
		WatchPartyID: in.WatchPartyID,
		CreatedAt:    s.opts.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification for %s: %w", userID, err)
	}
	if s.publisher != nil {
		ev := queue.NotificationEvent{
			NotificationID: n.ID,
			UserID:         n.UserID,
			Type:           string(n.Type),
			Message:        n.Message,
			WatchPartyID:   n.WatchPartyID,
			CreatedAt:      n.CreatedAt.Format(time.RFC3339),
		}
		if err := s.publisher.PublishNotification(ctx, ev); err != nil {
			s.log.Warn().Err(err).Str("notification_id", n.ID).Msg("publish notification event failed")
		}
	}
	return n, nil
}

// NotifyAll attempts every dispatch, concurrently, and returns one outcome
// per dispatch in input order.  It never fails as a whole.
func (s *NotificationService) NotifyAll(ctx context.Context, dispatches []Dispatch) []DispatchOutcome {
	outcomes := make([]DispatchOutcome, len(dispatches))
	var g errgroup.Group
	g.SetLimit(fanOutLimit)
	for i, d := range dispatches {
		i, d := i, d
		g.Go(func() error {
			n, err := s.Notify(ctx, d.UserID, d.Input)
			outcomes[i] = DispatchOutcome{UserID: d.UserID, Notification: n, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// GetNotifications returns the user's notifications newest first.
func (s *NotificationService) GetNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", userID, err)
	}
	if list == nil {
		list = []model.Notification{}
	}
	return list, nil
}
