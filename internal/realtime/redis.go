package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the redis pub/sub channel shared by all instances.
const DefaultChannel = "kanban:realtime"

// evictEvent marks a control envelope on the channel. It is applied to the
// hub and never delivered to clients.
const evictEvent = "hub.evict"

type evictPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

// RedisBroker makes fanout work across several server instances: Publish
// goes to redis, and Run feeds everything that arrives on the channel
// (including this instance's own messages) into the local hub.
//
// Redis pub/sub has the same at-most-once semantics as the hub, so nothing
// is added or lost in guarantees by going through it.
type RedisBroker struct {
	client  *redis.Client
	hub     *Hub
	channel string
	logger  *zap.Logger
}

func NewRedisBroker(client *redis.Client, hub *Hub, channel string, logger *zap.Logger) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroker{client: client, hub: hub, channel: channel, logger: logger}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (b *RedisBroker) Publish(room Room, event string, payload any) error {
	env, err := NewEnvelope(room, event, payload)
	if err != nil {
		return err
	}
	return b.send(env)
}

// Evict goes through the channel like any event so that every instance,
// this one included, drops the connections it holds.
func (b *RedisBroker) Evict(boardID int64, userID uuid.UUID) error {
	env, err := NewEnvelope(BoardRoom(boardID), evictEvent, evictPayload{UserID: userID})
	if err != nil {
		return err
	}
	return b.send(env)
}

func (b *RedisBroker) send(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := b.client.Publish(context.Background(), b.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run subscribes to the channel and blocks until ctx is done.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.logger.Info("realtime redis subscription started", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBroker) handle(payload string) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("dropping malformed realtime message", zap.Error(err))
		return
	}
	room, err := ParseRoom(env.Room)
	if err != nil {
		b.logger.Warn("dropping realtime message for unknown room", zap.String("room", env.Room))
		return
	}
	if env.Event == evictEvent {
		var p evictPayload
		if room.Namespace != NamespaceBoard || json.Unmarshal(env.Payload, &p) != nil {
			b.logger.Warn("dropping malformed eviction", zap.String("room", env.Room))
			return
		}
		_ = b.hub.Evict(room.ID, p.UserID)
		return
	}
	_ = b.hub.Deliver(room, env)
}
