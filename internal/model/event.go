package model

import (
	"encoding/json"
	"time"
)

// ルーティングキーはドット区切りで「発生ドメイン.事実」を表す。
const (
	// SubjectNotificationUserCreated は通知サービス向けのユーザー作成イベント。
	SubjectNotificationUserCreated = "identity-notification.user-created"
	// SubjectSellerProjectionUserCreated はseller-dashboard射影向けのユーザー作成イベント。
	SubjectSellerProjectionUserCreated = "identity-seller-projection.user-created"
)

// Event はイベントバス上を流れるエンベロープ。
// Payloadは差分ではなく発生時点の集約スナップショット。
type Event struct {
	Subject   string          `json:"subject"`
	EmittedAt time.Time       `json:"emittedAt"`
	Payload   json.RawMessage `json:"payload"`
}

// NewUserCreatedEvent はユーザー作成イベントのエンベロープを生成する。
func NewUserCreatedEvent(subject string, user *User, now time.Time) (*Event, error) {
	payload, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	return &Event{
		Subject:   subject,
		EmittedAt: now,
		Payload:   payload,
	}, nil
}

// DecodeUserPayload はエンベロープのペイロードをユーザースナップショットとして復元する。
func (e *Event) DecodeUserPayload() (*User, error) {
	var user User
	if err := json.Unmarshal(e.Payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
