package realtime

import (
	"SetMatch/internal/pkg/redis"
	"context"
	log "log/slog"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Publisher 跨实例广播通道
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type redisPublisher struct{}

func (redisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return redis.Publish(ctx, channel, payload)
}

// RedisHub 多实例部署：推送发布到 Redis 频道 prefix+participantID，
// 每个实例订阅 prefix* 后投递给本地连接，所以发布方自己也只经订阅投递一次
type RedisHub struct {
	*Hub
	prefix    string
	publisher Publisher
}

func NewRedisHub(prefix string) *RedisHub {
	return NewRedisHubWithPublisher(prefix, redisPublisher{})
}

func NewRedisHubWithPublisher(prefix string, publisher Publisher) *RedisHub {
	return &RedisHub{
		Hub:       NewHub(),
		prefix:    prefix,
		publisher: publisher,
	}
}

func (h *RedisHub) Push(ctx context.Context, participantID uint64, event *Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.ErrorContext(ctx, "realtime event marshal failed", "participant", participantID, "err", err)
		return
	}

	channel := h.prefix + strconv.FormatUint(participantID, 10)
	if err = h.publisher.Publish(ctx, channel, payload); err != nil {
		// Redis 不可用时至少保证本实例上的连接能收到
		log.WarnContext(ctx, "realtime publish failed, delivering locally", "channel", channel, "err", err)
		h.Deliver(ctx, participantID, payload)
	}
}

// Run 订阅所有房间频道直到 ctx 结束
func (h *RedisHub) Run(ctx context.Context) error {
	pubsub := redis.PSubscribe(ctx, h.prefix+"*")
	defer func() {
		_ = pubsub.Close()
	}()

	log.Info("Realtime redis bridge started", "pattern", h.prefix+"*")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info("Realtime redis bridge stopping...")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.HandleMessage(ctx, msg.Channel, []byte(msg.Payload))
		}
	}
}

// HandleMessage 处理一条来自 Redis 的房间消息
func (h *RedisHub) HandleMessage(ctx context.Context, channel string, payload []byte) {
	participantID, err := strconv.ParseUint(strings.TrimPrefix(channel, h.prefix), 10, 64)
	if err != nil {
		log.WarnContext(ctx, "realtime message on unexpected channel", "channel", channel)
		return
	}
	h.Deliver(ctx, participantID, payload)
}
