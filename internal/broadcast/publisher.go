package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/centrifugal/centrifuge"
	"github.com/linepulse/linepulse/internal/domain"
	"github.com/linepulse/linepulse/internal/metrics"
)

const publishTimeout = 2 * time.Second

// publishNode is the slice of *centrifuge.Node the publisher needs; tests
// substitute a fake.
type publishNode interface {
	Publish(channel string, data []byte, opts ...centrifuge.PublishOption) (centrifuge.PublishResult, error)
	PresenceStats(channel string) (centrifuge.PresenceStatsResult, error)
}

// Publisher maps change events onto their subscriber rooms. Publishing to a
// room nobody joined is a no-op, but it is logged and counted so "update
// happened but nobody received it" stays diagnosable.
type Publisher struct {
	node publishNode
}

func NewPublisher(node *centrifuge.Node) *Publisher {
	return &Publisher{node: node}
}

// EntityRoom returns the room for one entity's subscribers.
func EntityRoom(key string) string { return "line:" + key }

// FactoryRoom returns the room group-level dashboards subscribe to.
func FactoryRoom(factory string) string { return fmt.Sprintf("factory:%s:all:all", factory) }

// FamilyRoom returns the family-specific sub-view room.
func FamilyRoom(family domain.SchemaFamily, factory, subKey string) string {
	return fmt.Sprintf("%s-%s-%s", family, factory, subKey)
}

// SystemRoom receives the cycle summaries.
const SystemRoom = "system:cycles"

// PublishChange sends ev to the entity room, the owning factory room, and,
// for records carrying a sub-layout key, the family room. Failures on one
// room do not stop the others; the first error is returned after all rooms
// were attempted.
func (p *Publisher) PublishChange(ctx context.Context, ev domain.ChangeEvent) error {
	_, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}

	var firstErr error
	publish := func(room, class string) {
		if err := p.publish(ctx, room, class, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	publish(EntityRoom(ev.EntityKey), "entity")
	publish(FactoryRoom(ev.Factory), "factory")
	if ev.SubKey != "" {
		publish(FamilyRoom(ev.Family, ev.Factory, ev.SubKey), "family")
	}
	return firstErr
}

// PublishCycleSummary sends the end-of-cycle summary to the system room,
// regardless of whether any entity changed.
func (p *Publisher) PublishCycleSummary(ctx context.Context, summary domain.CycleSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal cycle summary: %w", err)
	}
	return p.publish(ctx, SystemRoom, "system", data)
}

func (p *Publisher) publish(ctx context.Context, room, class string, data []byte) error {
	if stats, err := p.node.PresenceStats(room); err == nil && stats.NumClients == 0 {
		slog.DebugContext(ctx, "Publishing to empty room", "room", room, "class", class)
		metrics.EmptyRoomPublishesTotal.WithLabelValues(class).Inc()
	}

	if _, err := p.node.Publish(room, data); err != nil {
		metrics.PublishErrorsTotal.Inc()
		return fmt.Errorf("publish to room %s: %w", room, err)
	}
	metrics.PublishesTotal.WithLabelValues(class).Inc()
	return nil
}

var _ domain.EventPublisher = (*Publisher)(nil)
