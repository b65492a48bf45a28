package notify

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// FollowerLister resolves who follows a project.
type FollowerLister interface {
	FollowerIDs(ctx context.Context, projectID string) ([]string, error)
}

// Notifier fans project events out to followers that are online.
type Notifier struct {
	hub       *Hub
	followers FollowerLister
	log       *zap.Logger
}

func NewNotifier(hub *Hub, followers FollowerLister, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{hub: hub, followers: followers, log: log.Named("notify")}
}

// NotifyFollowers sends an event to every follower of projectID except
// actorID. Delivery is best effort; offline followers miss the event.
func (n *Notifier) NotifyFollowers(ctx context.Context, projectID, eventType string, payload any, actorID string) error {
	ids, err := n.followers.FollowerIDs(ctx, projectID)
	if err != nil {
		return err
	}
	ids = lo.Without(ids, actorID)
	if len(ids) == 0 {
		return nil
	}
	delivered := n.hub.SendToUsers(ids, &Event{Type: eventType, ProjectID: projectID, Payload: payload})
	n.log.Debug("followers notified",
		zap.String("project_id", projectID),
		zap.String("type", eventType),
		zap.Int("followers", len(ids)),
		zap.Int("delivered", delivered),
	)
	return nil
}
