// Package event はJetStreamによる耐久イベントバスを提供する。
// publishはブローカーの永続化ACKを待ち、consumeは明示ACKの
// 再配送付きで少なくとも1回の到達を保証する。
package event

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamName はユーザーイベントを保持するストリーム名。
const StreamName = "IDENTITY"

// streamSubjects はストリームが束ねるルーティングキーの範囲。
var streamSubjects = []string{
	"identity-notification.>",
	"identity-seller-projection.>",
}

// Bus はNATS接続とJetStreamコンテキストを束ねる。
// 1プロセスで1つ生成し、publisher/consumerで共有する。
type Bus struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect はNATSに接続し、イベントストリームの存在を保証する。
// ストリームはファイルストレージで7日間保持する。
func Connect(ctx context.Context, natsURL string) (*Bus, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  streamSubjects,
		Retention: jetstream.LimitsPolicy,
		MaxMsgs:   1000000,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", StreamName, err)
	}

	return &Bus{nc: nc, js: js}, nil
}

// Close はNATS接続を閉じる。
func (b *Bus) Close() {
	b.nc.Close()
}
