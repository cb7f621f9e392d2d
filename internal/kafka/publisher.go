package kafka

import (
	"context"
	"fmt"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
)

// ReplyPublisher delivers conversation replies back to the chat transport.
type ReplyPublisher interface {
	Publish(ctx context.Context, reply *models.Reply) error
	Close() error
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.SugaredLogger
}

func NewReplyPublisher(cfg *config.Config, log *zap.SugaredLogger) (ReplyPublisher, error) {
	log = log.Named("kafka.publisher")
	if !cfg.Kafka.Enabled {
		return &noopPublisher{log: log}, nil
	}
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("new sync producer: %w", err)
	}
	return newKafkaPublisher(producer, cfg.Kafka.ReplyTopic, log), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string, log *zap.SugaredLogger) *kafkaPublisher {
	return &kafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      log,
	}
}

func (p *kafkaPublisher) Publish(_ context.Context, reply *models.Reply) error {
	// stale results carry no text
	if reply == nil || reply.Text == "" {
		return nil
	}
	value, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(reply.ChatID, 10)),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	p.log.Debugw("reply published", "chat_id", reply.ChatID, "partition", partition, "offset", offset)
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct {
	log *zap.SugaredLogger
}

func (n *noopPublisher) Publish(_ context.Context, reply *models.Reply) error {
	if reply != nil && reply.Text != "" {
		n.log.Debugw("kafka disabled, dropping reply", "chat_id", reply.ChatID)
	}
	return nil
}

func (n *noopPublisher) Close() error {
	return nil
}
