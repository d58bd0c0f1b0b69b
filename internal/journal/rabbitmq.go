package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	xerrors "AgentKit-Chain/internal/errors"
	"AgentKit-Chain/internal/invocation"
)

// RabbitMQConfig 描述 RabbitMQ 调用记录的连接参数。
type RabbitMQConfig struct {
	URL     string
	Queue   string
	Durable bool
}

// publisher 抽象 amqp.Channel 的发布能力，便于测试。
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQ 将调用记录以 JSON 事件发布到队列，只写不读。
type RabbitMQ struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    publisher
	queue string
}

// NewRabbitMQ 创建 RabbitMQ 调用记录实例。
func NewRabbitMQ(cfg RabbitMQConfig) (*RabbitMQ, error) {
	if cfg.URL == "" {
		return nil, errors.New("RabbitMQ URL 不能为空")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "agentkit.invocations"
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("连接 RabbitMQ 失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("创建 RabbitMQ channel 失败: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, cfg.Durable, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("声明 RabbitMQ 队列失败: %w", err)
	}
	return &RabbitMQ{conn: conn, ch: ch, queue: queue}, nil
}

// Record 实现 invocation.Recorder。
func (q *RabbitMQ) Record(ctx context.Context, rec invocation.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeJournalFailure, err, "序列化调用记录失败")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch == nil {
		return xerrors.New(xerrors.CodeJournalFailure, "RabbitMQ 调用记录未初始化")
	}
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    rec.ID,
		Timestamp:    time.Now(),
		Type:         string(rec.Kind),
		Body:         payload,
	})
	if err != nil {
		return xerrors.Wrap(xerrors.CodeJournalFailure, err, "RabbitMQ 发布调用记录失败")
	}
	return nil
}

// Close 关闭 channel 与连接。
func (q *RabbitMQ) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	var errs []error
	if q.ch != nil {
		errs = append(errs, q.ch.Close())
		q.ch = nil
	}
	if q.conn != nil {
		errs = append(errs, q.conn.Close())
		q.conn = nil
	}
	return errors.Join(errs...)
}
