// Package broadcast fans change events out to subscriber rooms over a
// centrifuge node. Rooms follow fixed naming conventions: "line:<key>" for
// one entity, "factory:<factory>:all:all" for a whole owning group,
// "<family>-<factory>-<subKey>" for family-specific views, and
// "system:cycles" for cycle summaries.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/centrifugal/centrifuge"
	"github.com/linepulse/linepulse/internal/metrics"
)

// NewNode creates the centrifuge node. TV clients carry no credentials
// (authentication is out of scope); any connection may subscribe to any
// room, and presence is emitted so publishers can detect empty rooms.
func NewNode(logLevel string) (*centrifuge.Node, error) {
	conf := centrifuge.Config{LogLevel: parseCentrifugeLogLevel(logLevel), LogHandler: slogHandler}
	node, err := centrifuge.New(conf)
	if err != nil {
		return nil, fmt.Errorf("create centrifuge node: %w", err)
	}

	node.OnConnecting(func(ctx context.Context, e centrifuge.ConnectEvent) (centrifuge.ConnectReply, error) {
		return centrifuge.ConnectReply{}, nil
	})
	node.OnConnect(onConnect)

	return node, nil
}

func onConnect(client *centrifuge.Client) {
	slog.Debug("Client connected", "client_id", client.ID())
	metrics.ActiveSubscribers.Inc()

	client.OnSubscribe(func(e centrifuge.SubscribeEvent, cb centrifuge.SubscribeCallback) {
		slog.Debug("Client subscribed", "client_id", client.ID(), "channel", e.Channel)
		options := centrifuge.SubscribeOptions{EmitPresence: true}
		cb(centrifuge.SubscribeReply{Options: options}, nil)
	})

	client.OnDisconnect(func(e centrifuge.DisconnectEvent) {
		slog.Debug("Client disconnected", "client_id", client.ID(), "reason", e.Reason)
		metrics.ActiveSubscribers.Dec()
	})
}

// SetupRedis switches the node to the shared Redis broker and presence
// manager, so sibling factory processes publish into one channel space.
func SetupRedis(node *centrifuge.Node, redisAddr string) error {
	shardConfig := centrifuge.RedisShardConfig{Address: redisAddr}
	shard, err := centrifuge.NewRedisShard(node, shardConfig)
	if err != nil {
		return fmt.Errorf("create redis shard: %w", err)
	}

	brokerConfig := centrifuge.RedisBrokerConfig{Prefix: "linepulse", Shards: []*centrifuge.RedisShard{shard}}
	broker, err := centrifuge.NewRedisBroker(node, brokerConfig)
	if err != nil {
		return fmt.Errorf("create redis broker: %w", err)
	}
	node.SetBroker(broker)

	pmConfig := centrifuge.RedisPresenceManagerConfig{Prefix: "linepulse", Shards: []*centrifuge.RedisShard{shard}}
	presenceManager, err := centrifuge.NewRedisPresenceManager(node, pmConfig)
	if err != nil {
		return fmt.Errorf("create redis presence manager: %w", err)
	}
	node.SetPresenceManager(presenceManager)

	return nil
}

func slogHandler(entry centrifuge.LogEntry) {
	attrs := make([]any, 0, len(entry.Fields)*2)
	for k, v := range entry.Fields {
		attrs = append(attrs, k, v)
	}
	switch entry.Level {
	case centrifuge.LogLevelDebug, centrifuge.LogLevelTrace:
		slog.Debug(entry.Message, attrs...)
	case centrifuge.LogLevelInfo:
		slog.Info(entry.Message, attrs...)
	case centrifuge.LogLevelWarn:
		slog.Warn(entry.Message, attrs...)
	case centrifuge.LogLevelError:
		slog.Error(entry.Message, attrs...)
	case centrifuge.LogLevelNone:
		// EMPTY
	}
}

func parseCentrifugeLogLevel(level string) centrifuge.LogLevel {
	switch level {
	case "debug":
		return centrifuge.LogLevelDebug
	case "warn":
		return centrifuge.LogLevelWarn
	case "error":
		return centrifuge.LogLevelError
	default:
		return centrifuge.LogLevelInfo
	}
}
