// Package notification はuser-createdイベントから通知を生成する
// notificationサービスのドメインロジックを提供する。
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/ichiba/internal/model"
	"github.com/hitoshi/ichiba/internal/repository"
)

// KindWelcome はユーザー作成イベントから生成する通知種別。
const KindWelcome = "welcome"

// Service はnotificationサービスのサービス層。
type Service struct {
	notifications repository.NotificationRepository
	now           func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(notifications repository.NotificationRepository) *Service {
	return &Service{
		notifications: notifications,
		now:           time.Now,
	}
}

// ApplyUserCreated はuser-createdイベントをウェルカム通知として反映する。
// 再配送で同じイベントが届いた場合、(user_id, kind)のユニーク制約により
// 2度目以降の挿入は無視され、結果は変わらない。
// ペイロードが復元できないイベントは再配送しても直らないため、記録して捨てる。
func (s *Service) ApplyUserCreated(ctx context.Context, ev *model.Event) error {
	user, err := ev.DecodeUserPayload()
	if err != nil {
		slog.Error("failed to decode user-created payload",
			slog.String("subject", ev.Subject),
			slog.String("error", err.Error()),
		)
		return nil
	}

	n := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Kind:      KindWelcome,
		Title:     "登録ありがとうございます",
		Body:      fmt.Sprintf("%sさん、ようこそ。買い物を始めましょう。", user.FullName),
		CreatedAt: s.now(),
	}

	inserted, err := s.notifications.InsertIfAbsent(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	if !inserted {
		slog.Info("duplicate delivery ignored",
			slog.String("user_id", user.ID),
			slog.String("kind", KindWelcome),
		)
	}
	return nil
}

// ListByUserID はユーザーの通知一覧を返す。
func (s *Service) ListByUserID(ctx context.Context, userID string) ([]*model.Notification, error) {
	notifications, err := s.notifications.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}
