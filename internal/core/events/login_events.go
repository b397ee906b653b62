package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLogin = "auth.login"
)

// LoginEvent is published exactly once per login attempt, after the
// outcome is determined. Username carries the resolved username on
// success and the raw identifier when the user could not be resolved.
type LoginEvent struct {
	BaseEvent
	Username string `json:"username"`
	LoggedIn bool   `json:"logged_in"`
}

func NewLoginEvent(username string, loggedIn bool) *LoginEvent {
	return &LoginEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLogin,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"username":  username,
				"logged_in": loggedIn,
			},
		},
		Username: username,
		LoggedIn: loggedIn,
	}
}

// RegisterLoginAuditHandler subscribes an audit-log consumer that records
// every login attempt.
func RegisterLoginAuditHandler(bus *EventBus, logger *slog.Logger) {
	bus.Subscribe(EventTypeLogin, func(ctx context.Context, event Event) error {
		payload, _ := event.Payload().(map[string]interface{})
		logger.Info("login attempt",
			"event_id", event.EventID(),
			"username", payload["username"],
			"logged_in", payload["logged_in"],
			"occurred_at", event.OccurredAt())
		return nil
	})
}
