package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/srseducares/educares-backend/pkg/metrics"

	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	EventMaterialUploaded   = "material.uploaded"
	EventMaterialUpdated    = "material.updated"
	EventMaterialDeleted    = "material.deleted"
	EventMaterialDownloaded = "material.downloaded"
	EventMaterialViewed     = "material.viewed"
)

// MaterialEvent 发往 Kafka 的资料生命周期事件
type MaterialEvent struct {
	Event      string    `json:"event"`
	MaterialID string    `json:"material_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	Course     string    `json:"course,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher 可选的事件发布器。未配置 broker 时为 nil，所有调用点容忍 nil。
type Publisher struct {
	writer *kafka.Writer
	topic  string
	logger *logrus.Logger
}

// NewPublisher brokers 为空时返回 nil（事件发布关闭）
func NewPublisher(brokers, topic string, logger *logrus.Logger) *Publisher {
	if brokers == "" || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(brokers, ",")...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Publisher{writer: writer, topic: topic, logger: logger}
}

// Publish fire-and-forget：失败只记日志和指标，不影响请求路径
func (p *Publisher) Publish(ctx context.Context, event MaterialEvent) {
	if p == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).WithField("event", event.Event).Warn("failed to encode material event")
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.MaterialID),
		Value: payload,
	})
	if err != nil {
		metrics.KafkaMessagesTotal.WithLabelValues("educares-backend", p.topic, "error").Inc()
		p.logger.WithError(err).WithField("event", event.Event).Warn("failed to publish material event")
		return
	}
	metrics.KafkaMessagesTotal.WithLabelValues("educares-backend", p.topic, "ok").Inc()
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
