package kafka

import (
	"SetMatch/internal/api/config"
	"SetMatch/internal/api/dto"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// MirrorRepairProducer 将镜像补偿任务写入 Kafka，按通知 ID 分区保证同一条记录有序
type MirrorRepairProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewMirrorRepairProducer(cfg *config.Config) (*MirrorRepairProducer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newProducerConfig(cfg.Kafka))
	if err != nil {
		return nil, errors.Wrap(err, "create mirror repair producer")
	}
	return NewMirrorRepairProducerWith(producer, cfg.KafkaMirrorConsumer.Topic), nil
}

func NewMirrorRepairProducerWith(producer sarama.SyncProducer, topic string) *MirrorRepairProducer {
	return &MirrorRepairProducer{producer: producer, topic: topic}
}

func (p *MirrorRepairProducer) EnqueueMirrorRepair(ctx context.Context, task *dto.MirrorRepairTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, "marshal mirror repair task")
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(task.NotificationID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return errors.Wrapf(err, "send mirror repair task %s", task.NotificationID)
	}
	log.InfoContext(ctx, "mirror repair task enqueued", "notification_id", task.NotificationID, "partition", partition, "offset", offset)
	return nil
}

func (p *MirrorRepairProducer) Close() error {
	return p.producer.Close()
}
