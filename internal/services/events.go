package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fluentblocks/fluentblocks-api/internal/config"
	"github.com/fluentblocks/fluentblocks-api/internal/logger"
	"github.com/fluentblocks/fluentblocks-api/internal/planner"
)

const (
	EventRoadmapConfirmed   = "roadmap.confirmed"
	EventMilestoneCompleted = "milestone.completed"
)

// RoadmapEvent is the payload the exercise-generation pipeline consumes. A
// confirmed roadmap carries the full milestone plan; a milestone completion
// additionally names the milestone so generation can stay one step ahead of
// the learner.
type RoadmapEvent struct {
	Type       string                 `json:"type"`
	Roadmap    planner.RoadmapData    `json:"roadmap"`
	Milestone  *planner.MilestoneData `json:"milestone,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// RedisEventPublisher implements planner.EventPublisher over a redis pub/sub
// channel. Without a configured REDIS_ADDR it degrades to a no-op, so local
// development works without a broker.
type RedisEventPublisher struct {
	log     *logger.Logger
	rdb     *redis.Client
	channel string
}

func NewRedisEventPublisher(cfg *config.Config, log *logger.Logger) (*RedisEventPublisher, error) {
	log = log.With("service", "RedisEventPublisher")

	if cfg.RedisAddr == "" {
		log.Info("no REDIS_ADDR configured, roadmap events disabled")
		return &RedisEventPublisher{log: log}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisEventPublisher{
		log:     log,
		rdb:     rdb,
		channel: cfg.RedisChannel,
	}, nil
}

func (p *RedisEventPublisher) RoadmapConfirmed(ctx context.Context, roadmap planner.RoadmapData) error {
	return p.publish(ctx, RoadmapEvent{
		Type:       EventRoadmapConfirmed,
		Roadmap:    roadmap,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *RedisEventPublisher) MilestoneCompleted(ctx context.Context, roadmap planner.RoadmapData, milestone planner.MilestoneData) error {
	return p.publish(ctx, RoadmapEvent{
		Type:       EventMilestoneCompleted,
		Roadmap:    roadmap,
		Milestone:  &milestone,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *RedisEventPublisher) publish(ctx context.Context, event RoadmapEvent) error {
	if p.rdb == nil {
		return nil
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, raw).Err()
}

func (p *RedisEventPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}
