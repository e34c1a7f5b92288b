// Package identity はユーザー登録・ログイン・ログアウトと
// ユーザー集約（住所含む）のドメインロジックを提供する。
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/ichiba/internal/event"
	"github.com/hitoshi/ichiba/internal/guard"
	"github.com/hitoshi/ichiba/internal/model"
	"github.com/hitoshi/ichiba/internal/repository"
	"github.com/hitoshi/ichiba/internal/revocation"
	"github.com/hitoshi/ichiba/internal/token"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// RevocationRecorder は失効登録のメトリクス記録のインターフェース。
// metrics.Collectorが満たす。
type RevocationRecorder interface {
	RecordRevocation()
}

// Service はidentityサービスのサービス層。
type Service struct {
	users       repository.UserRepository
	issuer      *token.Issuer
	revocations revocation.Store
	publisher   event.Publisher
	tokenTTL    time.Duration
	metrics     RevocationRecorder
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// publisherはnilを許容する（イベント発行なしで動作する）。
func NewService(
	users repository.UserRepository,
	issuer *token.Issuer,
	revocations revocation.Store,
	publisher event.Publisher,
	tokenTTL time.Duration,
) *Service {
	return &Service{
		users:       users,
		issuer:      issuer,
		revocations: revocations,
		publisher:   publisher,
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

// WithMetrics は失効登録のメトリクス記録を有効にする。
func (s *Service) WithMetrics(m RevocationRecorder) *Service {
	s.metrics = m
	return s
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	FullName string     `json:"fullName"`
	Role     model.Role `json:"role"`
}

// Validate は登録入力を検証する。
func (in *RegisterInput) Validate() error {
	if !strings.Contains(in.Email, "@") {
		return model.NewInvalidRequestError("emailの形式が不正です")
	}
	if len(in.Password) < minPasswordLength {
		return model.NewInvalidRequestError(fmt.Sprintf("パスワードは%d文字以上にしてください", minPasswordLength))
	}
	if strings.TrimSpace(in.FullName) == "" {
		return model.NewInvalidRequestError("氏名は必須です")
	}
	if in.Role != "" && !in.Role.IsValid() {
		return model.NewInvalidRequestError("不明な役割です")
	}
	return nil
}

// Register は新規ユーザーを作成し、セッショントークンを発行する。
// 作成成功後、user-createdイベントを通知用・射影用の両ルーティングキーへ
// 発行する。発行失敗は登録自体を失敗させず、記録して続行する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		FullName:  strings.TrimSpace(in.FullName),
		Role:      role,
		Addresses: []model.Address{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, user, string(hash)); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", model.NewUserExistsError()
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	s.publishUserCreated(ctx, user)

	tok, err := s.issuer.Issue(user.ID, user.FullName, user.Role, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, tok, nil
}

// publishUserCreated はuser-createdイベントを2つのルーティングキーへ発行する。
// 片方の失敗が他方の発行を妨げない。
func (s *Service) publishUserCreated(ctx context.Context, user *model.User) {
	if s.publisher == nil {
		return
	}
	subjects := []string{
		model.SubjectNotificationUserCreated,
		model.SubjectSellerProjectionUserCreated,
	}
	for _, subject := range subjects {
		ev, err := model.NewUserCreatedEvent(subject, user, s.now())
		if err != nil {
			slog.Error("failed to build user-created event",
				slog.String("subject", subject),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			slog.Error("failed to publish user-created event",
				slog.String("subject", subject),
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Login はemailとパスワードを検証し、セッショントークンを発行する。
// emailの存在有無と、パスワード不一致を区別できるエラーは返さない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, hash, err := s.users.FindCredentialByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up credential: %w", err)
	}
	if user == nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	tok, err := s.issuer.Issue(user.ID, user.FullName, user.Role, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user, tok, nil
}

// Logout は提示されたトークンを残り有効時間ぶん失効させる。
// 失効エントリはトークン自体の期限と同時に不要になるため、それ以上は保持しない。
// 失効ストアに書き込めない場合はエラーを返す（ログアウト成功と偽らない）。
func (s *Service) Logout(ctx context.Context, credential string) error {
	if credential == "" {
		return nil
	}

	claims, err := s.issuer.Verify(credential)
	if err != nil {
		// 検証を通らないトークンはどのみちゲートで拒否されるため、失効登録は不要
		return nil
	}

	ttl := claims.RemainingTTL(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.revocations.Revoke(ctx, credential, ttl); err != nil {
		slog.Error("failed to revoke token",
			slog.String("subject_id", claims.Subject),
			slog.String("error", err.Error()),
		)
		return model.NewRevocationStoreUnavailableError()
	}

	if s.metrics != nil {
		s.metrics.RecordRevocation()
	}
	slog.Info("user logged out", slog.String("user_id", claims.Subject))
	return nil
}

// Me は認証済みユーザー自身の集約を返す。
func (s *Service) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// SubjectExists はトークン主体の存在確認を行う。ゲートから使用される。
func (s *Service) SubjectExists(ctx context.Context, subjectID string) (bool, error) {
	return s.users.ExistsByID(ctx, subjectID)
}

// インターフェース実装の確認
var _ guard.SubjectFinder = (*Service)(nil)

// AddressInput は住所の追加・更新の入力。
type AddressInput struct {
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Country   string `json:"country"`
	IsDefault bool   `json:"isDefault"`
}

// Validate は住所入力を検証する。
func (in *AddressInput) Validate() error {
	for name, v := range map[string]string{
		"street":  in.Street,
		"city":    in.City,
		"pincode": in.Pincode,
		"country": in.Country,
	} {
		if strings.TrimSpace(v) == "" {
			return model.NewInvalidRequestError(name + "は必須です")
		}
	}
	return nil
}

// AddAddress はユーザー集約配下に住所を追加する。
func (s *Service) AddAddress(ctx context.Context, userID string, in AddressInput) (*model.Address, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	addr := &model.Address{
		ID:        uuid.NewString(),
		Street:    in.Street,
		City:      in.City,
		State:     in.State,
		Pincode:   in.Pincode,
		Country:   in.Country,
		IsDefault: in.IsDefault,
		CreatedAt: s.now(),
	}
	if err := s.users.AddAddress(ctx, userID, addr); err != nil {
		return nil, fmt.Errorf("failed to add address: %w", err)
	}
	return addr, nil
}

// UpdateAddress は指定住所を更新する。他ユーザーの住所は更新できない。
func (s *Service) UpdateAddress(ctx context.Context, userID, addressID string, in AddressInput) (*model.Address, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	addr := &model.Address{
		ID:        addressID,
		Street:    in.Street,
		City:      in.City,
		State:     in.State,
		Pincode:   in.Pincode,
		Country:   in.Country,
		IsDefault: in.IsDefault,
	}
	if err := s.users.UpdateAddress(ctx, userID, addr); err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			return nil, model.NewAddressNotFoundError(addressID)
		}
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return addr, nil
}

// DeleteAddress は指定住所を削除する。他ユーザーの住所は削除できない。
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	if err := s.users.DeleteAddress(ctx, userID, addressID); err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			return model.NewAddressNotFoundError(addressID)
		}
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

// ListAddresses はユーザーの住所一覧を返す。
func (s *Service) ListAddresses(ctx context.Context, userID string) ([]model.Address, error) {
	addresses, err := s.users.ListAddresses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}
