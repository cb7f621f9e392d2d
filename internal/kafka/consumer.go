package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
	"github.com/nguyentranbao-ct/torrent-bot/internal/usecase"
	"github.com/nguyentranbao-ct/torrent-bot/pkg/util"
)

const (
	consumeTimeout = 2 * time.Minute
	retryBackoff   = 2 * time.Second
	clientID       = "torrent-bot"
)

type Consumer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type kafkaConsumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler *groupHandler
	log     *zap.SugaredLogger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newSaramaConfig() *sarama.Config {
	sc := sarama.NewConfig()
	sc.ClientID = clientID
	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	return sc
}

// NewConsumer reads chat events from the event topic and publishes the
// resulting replies. A disabled config yields a consumer that does nothing.
func NewConsumer(
	cfg *config.Config,
	conversation usecase.ConversationUsecase,
	publisher ReplyPublisher,
	log *zap.SugaredLogger,
) (Consumer, error) {
	log = log.Named("kafka.consumer")
	if !cfg.Kafka.Enabled {
		return &noopConsumer{log: log}, nil
	}

	group, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID, newSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("new consumer group: %w", err)
	}
	handler, err := newGroupHandler(cfg.Kafka, conversation, publisher, log)
	if err != nil {
		return nil, err
	}
	return &kafkaConsumer{
		group:   group,
		topic:   cfg.Kafka.EventTopic,
		handler: handler,
		log:     log,
	}, nil
}

func (c *kafkaConsumer) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.log.Infow("starting kafka consumer", "topic", c.topic)

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		for err := range c.group.Errors() {
			c.log.Errorw("consumer group error", "error", err)
		}
	}()
	go func() {
		defer c.wg.Done()
		for ctx.Err() == nil {
			// Consume returns on every rebalance
			if err := c.group.Consume(ctx, []string{c.topic}, c.handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.log.Errorw("consume failed", "error", err)
				select {
				case <-ctx.Done():
				case <-time.After(retryBackoff):
				}
			}
		}
	}()
	return nil
}

func (c *kafkaConsumer) Stop(_ context.Context) error {
	c.log.Infow("stopping kafka consumer")
	if c.cancel != nil {
		c.cancel()
	}
	err := c.group.Close()
	c.wg.Wait()
	c.handler.router.Stop()
	return err
}

type groupHandler struct {
	groupID      string
	maxInFlight  int
	router       *eventRouter
	conversation usecase.ConversationUsecase
	publisher    ReplyPublisher
	metrics      *prometheus.HistogramVec
	log          *zap.SugaredLogger
}

func newGroupHandler(
	cfg config.KafkaConfig,
	conversation usecase.ConversationUsecase,
	publisher ReplyPublisher,
	log *zap.SugaredLogger,
) (*groupHandler, error) {
	metrics, err := util.GetHistogramVec("kafka_events_consumed", "status", "topic", "group")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &groupHandler{
		groupID:      cfg.GroupID,
		maxInFlight:  max(cfg.MaxInFlight, 1),
		router:       newEventRouter(cfg.Workers),
		conversation: conversation,
		publisher:    publisher,
		metrics:      metrics,
		log:          log,
	}, nil
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	offsets := newOffsetTracker(session)
	inFlight := make(chan struct{}, h.maxInFlight)
	var wg sync.WaitGroup
	defer wg.Wait()

	for msg := range claim.Messages() {
		offsets.Add(msg)

		var event models.ChatEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			h.log.Warnw("dropping undecodable event",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
			offsets.Done(msg)
			continue
		}

		// cancel must not wait behind the chat's in-flight search
		if event.IsCancel() {
			h.process(msg, event)
			offsets.Done(msg)
			continue
		}

		select {
		case inFlight <- struct{}{}:
		case <-session.Context().Done():
			return nil
		}
		wg.Add(1)
		h.router.Dispatch(event.ChatID, func() {
			defer wg.Done()
			defer func() { <-inFlight }()
			h.process(msg, event)
			offsets.Done(msg)
		})
	}
	return nil
}

func (h *groupHandler) process(msg *sarama.ConsumerMessage, event models.ChatEvent) {
	start := time.Now()
	err := h.handle(event)
	duration := time.Since(start)

	code := models.Code(err)
	content := "event processed"
	if err != nil {
		content = err.Error()
	}
	h.log.Logw(getLogLevel(code), content,
		"code", code,
		"duration_ms", duration.Milliseconds(),
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"lag_ms", start.Sub(msg.Timestamp).Milliseconds(),
		"chat_id", event.ChatID,
		"kind", event.Kind,
	)
	h.metrics.WithLabelValues(code.String(), msg.Topic, h.groupID).Observe(duration.Seconds())
}

func (h *groupHandler) handle(event models.ChatEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PANIC RECOVER: %+v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), consumeTimeout)
	defer cancel()

	reply, err := h.conversation.HandleEvent(ctx, event)
	if errors.Is(err, usecase.ErrChatNotAllowed) {
		return nil
	}
	if err != nil {
		return err
	}
	return h.publisher.Publish(ctx, reply)
}

func getLogLevel(code codes.Code) zapcore.Level {
	switch code {
	case codes.OK:
		return zapcore.InfoLevel
	case codes.Canceled,
		codes.InvalidArgument,
		codes.NotFound,
		codes.AlreadyExists,
		codes.PermissionDenied,
		codes.Unauthenticated,
		codes.ResourceExhausted,
		codes.FailedPrecondition,
		codes.Aborted,
		codes.Unimplemented,
		codes.OutOfRange:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

type noopConsumer struct {
	log *zap.SugaredLogger
}

func (n *noopConsumer) Start(context.Context) error {
	n.log.Infow("kafka consumer is disabled")
	return nil
}

func (n *noopConsumer) Stop(context.Context) error {
	return nil
}

// StartConsumer ties the consumer and publisher to the application lifecycle.
func StartConsumer(lc fx.Lifecycle, consumer Consumer, publisher ReplyPublisher) {
	lc.Append(fx.Hook{
		OnStart: consumer.Start,
		OnStop: func(ctx context.Context) error {
			return errors.Join(consumer.Stop(ctx), publisher.Close())
		},
	})
}
