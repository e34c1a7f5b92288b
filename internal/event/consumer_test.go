package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/ichiba/internal/model"
)

// fakeMsg はackMsgのテスト実装。
type fakeMsg struct {
	data    []byte
	subject string
	acked   bool
	naked   bool
}

func (m *fakeMsg) Data() []byte    { return m.data }
func (m *fakeMsg) Subject() string { return m.subject }
func (m *fakeMsg) Ack() error      { m.acked = true; return nil }
func (m *fakeMsg) Nak() error      { m.naked = true; return nil }

func encodeUserCreated(t *testing.T, subject string) []byte {
	t.Helper()
	user := &model.User{ID: "u-1", Email: "taro@example.com", FullName: "Taro Yamada", Role: model.RoleUser}
	ev, err := model.NewUserCreatedEvent(subject, user, time.Now())
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return data
}

func TestConsumer_Process_AppliesAndAcks(t *testing.T) {
	var applied *model.Event
	c := NewConsumer(nil, "notification-service", model.SubjectNotificationUserCreated, func(ctx context.Context, ev *model.Event) error {
		applied = ev
		return nil
	})

	msg := &fakeMsg{
		data:    encodeUserCreated(t, model.SubjectNotificationUserCreated),
		subject: model.SubjectNotificationUserCreated,
	}
	c.process(context.Background(), msg)

	if applied == nil {
		t.Fatal("apply was not called")
	}
	if applied.Subject != model.SubjectNotificationUserCreated {
		t.Errorf("subject = %q, want %q", applied.Subject, model.SubjectNotificationUserCreated)
	}
	if !msg.acked {
		t.Error("expected message to be acked after successful apply")
	}
	if msg.naked {
		t.Error("message should not be naked on success")
	}
}

// 反映失敗時はACKせず再配送に委ねること
func TestConsumer_Process_ApplyFailure_NaksWithoutAck(t *testing.T) {
	c := NewConsumer(nil, "notification-service", model.SubjectNotificationUserCreated, func(ctx context.Context, ev *model.Event) error {
		return errors.New("db down")
	})

	msg := &fakeMsg{
		data:    encodeUserCreated(t, model.SubjectNotificationUserCreated),
		subject: model.SubjectNotificationUserCreated,
	}
	c.process(context.Background(), msg)

	if msg.acked {
		t.Error("message must not be acked when apply fails")
	}
	if !msg.naked {
		t.Error("expected message to be naked for redelivery")
	}
}

// 復元不能なメッセージは再配送しても直らないためACKして捨てること
func TestConsumer_Process_MalformedPayload_AcksWithoutApply(t *testing.T) {
	applyCalled := false
	c := NewConsumer(nil, "notification-service", model.SubjectNotificationUserCreated, func(ctx context.Context, ev *model.Event) error {
		applyCalled = true
		return nil
	})

	msg := &fakeMsg{data: []byte("{not json"), subject: model.SubjectNotificationUserCreated}
	c.process(context.Background(), msg)

	if applyCalled {
		t.Error("apply should not be called for malformed payload")
	}
	if !msg.acked {
		t.Error("expected poison message to be acked")
	}
	if msg.naked {
		t.Error("poison message should not be naked")
	}
}

// 同じイベントを2回処理しても冪等なapplyなら両方ACKされること
func TestConsumer_Process_RedeliveredMessage_AckedAgain(t *testing.T) {
	seen := map[string]int{}
	c := NewConsumer(nil, "seller-projector", model.SubjectSellerProjectionUserCreated, func(ctx context.Context, ev *model.Event) error {
		user, err := ev.DecodeUserPayload()
		if err != nil {
			return err
		}
		seen[user.ID]++
		return nil
	})

	data := encodeUserCreated(t, model.SubjectSellerProjectionUserCreated)
	first := &fakeMsg{data: data, subject: model.SubjectSellerProjectionUserCreated}
	second := &fakeMsg{data: data, subject: model.SubjectSellerProjectionUserCreated}

	c.process(context.Background(), first)
	c.process(context.Background(), second)

	if !first.acked || !second.acked {
		t.Error("both deliveries should be acked")
	}
	if seen["u-1"] != 2 {
		t.Errorf("apply count = %d, want 2", seen["u-1"])
	}
}
