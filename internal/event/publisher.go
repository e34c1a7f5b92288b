package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/hitoshi/ichiba/internal/model"
)

// Publisher はイベントを耐久ストリームへ発行する。
// 返却時点でブローカーの永続化が完了していることを保証する。
type Publisher interface {
	Publish(ctx context.Context, ev *model.Event) error
}

// MetricsRecorder はイベント処理のメトリクス記録のインターフェース。
// metrics.Collectorが満たす。
type MetricsRecorder interface {
	RecordEventPublished(subject string)
	RecordEventConsumed(subject string)
	RecordApplyFailure(subject string)
}

// JetStreamPublisher はJetStreamのACK待ちpublishによるPublisher実装。
type JetStreamPublisher struct {
	js      jetstream.JetStream
	metrics MetricsRecorder
}

// インターフェース実装の確認
var _ Publisher = (*JetStreamPublisher)(nil)

// NewPublisher はバス上のPublisherを生成する。
func NewPublisher(bus *Bus) *JetStreamPublisher {
	return &JetStreamPublisher{js: bus.js}
}

// WithMetrics は発行のメトリクス記録を有効にする。
func (p *JetStreamPublisher) WithMetrics(m MetricsRecorder) *JetStreamPublisher {
	p.metrics = m
	return p
}

// Publish はエンベロープをルーティングキーへ発行し、永続化ACKを待つ。
// ACKが返らない場合はエラーを返し、呼び出し側が方針を決める。
func (p *JetStreamPublisher) Publish(ctx context.Context, ev *model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := p.js.Publish(ctx, ev.Subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", ev.Subject, err)
	}
	if p.metrics != nil {
		p.metrics.RecordEventPublished(ev.Subject)
	}
	return nil
}
