package realtime

import (
	"context"

	"github.com/openacademy/trilhas-backend/internal/platform/logger"
)

type SSEEvent string

const (
	SSEEventInscriptionCreated SSEEvent = "InscriptionCreated"
	SSEEventInscriptionUpdated SSEEvent = "InscriptionUpdated"
	SSEEventInscriptionRemoved SSEEvent = "InscriptionRemoved"
	SSEEventTurmaCountsChanged SSEEvent = "TurmaCountsChanged"
	SSEEventTurmaStarted       SSEEvent = "TurmaStarted"
	SSEEventCertificateIssued  SSEEvent = "CertificateIssued"
	SSEEventUserVerified       SSEEvent = "UserVerified"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// StaffChannel reaches every connected coordinator and admin.
const StaffChannel = "staff"

func UserChannel(userID string) string   { return "user:" + userID }
func TurmaChannel(turmaID string) string { return "turma:" + turmaID }

// Publisher fans messages out to SSE clients, possibly across instances.
type Publisher interface {
	Publish(ctx context.Context, msgs ...SSEMessage)
}

// Forwarder is the cross-instance transport; see the bus package.
type Forwarder interface {
	Publish(ctx context.Context, msg SSEMessage) error
}

type notifier struct {
	hub *SSEHub
	fwd Forwarder
	log *logger.Logger
}

// NewNotifier broadcasts locally, or through fwd when one is configured so
// every instance's hub receives the message via its forwarder loop.
func NewNotifier(hub *SSEHub, fwd Forwarder, log *logger.Logger) Publisher {
	return &notifier{hub: hub, fwd: fwd, log: log.With("component", "SSENotifier")}
}

func (n *notifier) Publish(ctx context.Context, msgs ...SSEMessage) {
	for _, msg := range msgs {
		if msg.Channel == "" {
			continue
		}
		if n.fwd != nil {
			err := n.fwd.Publish(ctx, msg)
			if err == nil {
				continue
			}
			n.log.Warn("SSE bus publish failed; delivering locally", "error", err, "event", string(msg.Event))
		}
		if n.hub != nil {
			n.hub.Broadcast(msg)
		}
	}
}

// NopPublisher drops every message.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...SSEMessage) {}
