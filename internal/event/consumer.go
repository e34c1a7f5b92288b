package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/hitoshi/ichiba/internal/model"
)

// ApplyFunc はイベントをローカル状態へ反映する。
// エラーを返した場合はACKされず、ブローカーが再配送する。
// 冪等に実装すること。再配送で同じイベントが複数回届く。
type ApplyFunc func(ctx context.Context, ev *model.Event) error

// ackMsg は処理に必要な範囲のメッセージ操作。jetstream.Msgが満たす。
type ackMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
}

// Consumer はルーティングキーごとの耐久consumer。
// 明示ACK方式で、反映成功後にのみACKする。
type Consumer struct {
	bus     *Bus
	durable string
	subject string
	apply   ApplyFunc
	metrics MetricsRecorder
	cancel  context.CancelFunc
}

// NewConsumer は耐久名とルーティングキーに紐づくConsumerを生成する。
// durableはサービスごとに固定し、再起動後も未ACK分から再開する。
func NewConsumer(bus *Bus, durable, subject string, apply ApplyFunc) *Consumer {
	return &Consumer{
		bus:     bus,
		durable: durable,
		subject: subject,
		apply:   apply,
	}
}

// WithMetrics は消費のメトリクス記録を有効にする。
func (c *Consumer) WithMetrics(m MetricsRecorder) *Consumer {
	c.metrics = m
	return c
}

// Start はconsumerを登録し、取得ループをバックグラウンドで開始する。
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	consumer, err := c.bus.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       c.durable,
		FilterSubject: c.subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
	})
	if err != nil {
		cancel()
		return fmt.Errorf("create consumer %s: %w", c.durable, err)
	}

	go c.fetchLoop(ctx, consumer)
	return nil
}

// Stop は取得ループを停止する。処理中のメッセージは再配送に任せる。
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Consumer) fetchLoop(ctx context.Context, consumer jetstream.Consumer) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("failed to fetch messages", "durable", c.durable, "error", err)
			time.Sleep(time.Second)
			continue
		}

		for msg := range msgs.Messages() {
			c.process(ctx, msg)
		}
	}
}

// process は1メッセージを反映する。
// 復元不能なメッセージは再配送しても直らないため、記録してACKする。
// 反映失敗はNAKで再配送させる。
func (c *Consumer) process(ctx context.Context, msg ackMsg) {
	var ev model.Event
	if err := json.Unmarshal(msg.Data(), &ev); err != nil {
		slog.Error("failed to decode event envelope", "durable", c.durable, "subject", msg.Subject(), "error", err)
		if ackErr := msg.Ack(); ackErr != nil {
			slog.Error("failed to ack poison message", "durable", c.durable, "error", ackErr)
		}
		return
	}

	if err := c.apply(ctx, &ev); err != nil {
		slog.Error("failed to apply event", "durable", c.durable, "subject", ev.Subject, "error", err)
		if c.metrics != nil {
			c.metrics.RecordApplyFailure(ev.Subject)
		}
		if nakErr := msg.Nak(); nakErr != nil {
			slog.Error("failed to nak message", "durable", c.durable, "error", nakErr)
		}
		return
	}

	if err := msg.Ack(); err != nil {
		slog.Error("failed to ack message", "durable", c.durable, "subject", ev.Subject, "error", err)
		return
	}
	if c.metrics != nil {
		c.metrics.RecordEventConsumed(ev.Subject)
	}
	slog.Info("event applied", "durable", c.durable, "subject", ev.Subject)
}
