package realtime

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PresenceStore records which users are online. store.RedisStore implements it.
type PresenceStore interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

const presenceTimeout = 2 * time.Second

// PresenceRegistry mirrors register and remove calls into a PresenceStore.
// Presence errors are logged and never change the registry outcome.
type PresenceRegistry struct {
	Registry
	presence PresenceStore
	logger   zerolog.Logger
}

func NewPresenceRegistry(inner Registry, presence PresenceStore, logger zerolog.Logger) *PresenceRegistry {
	return &PresenceRegistry{
		Registry: inner,
		presence: presence,
		logger:   logger.With().Str("component", "presence").Logger(),
	}
}

func (p *PresenceRegistry) Register(userID string, c Conn) Conn {
	prev := p.Registry.Register(userID, c)
	p.Heartbeat(userID)
	return prev
}

func (p *PresenceRegistry) Remove(userID string) {
	p.Registry.Remove(userID)
	p.offline(userID)
}

func (p *PresenceRegistry) RemoveIf(userID string, c Conn) bool {
	if !p.Registry.RemoveIf(userID, c) {
		return false
	}
	p.offline(userID)
	return true
}

// Heartbeat refreshes the user's presence entry.
func (p *PresenceRegistry) Heartbeat(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := p.presence.SetOnline(ctx, userID); err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("presence update failed")
	}
}

func (p *PresenceRegistry) offline(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := p.presence.SetOffline(ctx, userID); err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("presence removal failed")
	}
}

type heartbeater interface {
	Heartbeat(userID string)
}
