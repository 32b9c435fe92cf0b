package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"tiben-mcp/backend/go/internal/config"
	"tiben-mcp/backend/go/internal/models"
)

// messageWriter 是 *kafka.Writer 中 KafkaPublisher 用到的部分。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 把工具调用记录序列化为 JSON 并写入 Kafka。
type KafkaPublisher struct {
	writer messageWriter
}

var _ Sink = (*KafkaPublisher)(nil)

// NewKafkaPublisher 根据审计配置创建 KafkaPublisher。
func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("audit kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("audit kafka: topic is empty")
	}
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	})
	return &KafkaPublisher{writer: writer}, nil
}

// Record 以 trace id 作为消息 key 写入一条记录。
func (p *KafkaPublisher) Record(ctx context.Context, entry *models.ToolCallLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal tool call entry: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.TraceID),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close 关闭底层的 writer 连接。
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewSink 在启用 Kafka 审计时返回 KafkaPublisher，否则返回 NopSink。
func NewSink(cfg config.AuditConfig) (Sink, error) {
	if !cfg.Kafka.Enabled {
		return NopSink{}, nil
	}
	return NewKafkaPublisher(cfg.Kafka)
}
