package kafka

import (
	"SetMatch/internal/api/config"
	"SetMatch/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	mirrorConsumer sarama.ConsumerGroup
	mirrorHandler  sarama.ConsumerGroupHandler
	topic          string
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, negotiationSvc service.NegotiationService) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	mirrorConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaMirrorConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		mirrorConsumer: mirrorConsumer,
		mirrorHandler:  NewMirrorRepairHandler(negotiationSvc),
		topic:          cfg.KafkaMirrorConsumer.Topic,
	}, nil
}

// Start 启动所有消费者，阻塞直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		log.Info("Mirror repair consumer started", "topic", m.topic)
		for {
			if err := m.mirrorConsumer.Consume(ctx, []string{m.topic}, m.mirrorHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	go func() {
		for err := range m.mirrorConsumer.Errors() {
			log.Error("Mirror repair consumer error", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.mirrorConsumer.Close(); err != nil {
		log.Error("Failed to close mirror repair consumer", "err", err)
	}
	return nil
}
