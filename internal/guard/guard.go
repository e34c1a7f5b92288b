// Package guard はインバウンド認証情報のALLOW/DENY判定を提供する。
// 全サービスが同一のゲートを使用し、トークン検証・失効照会・役割確認を
// 固定された順序で組み合わせる。
package guard

import (
	"context"
	"log/slog"

	"github.com/hitoshi/ichiba/internal/model"
	"github.com/hitoshi/ichiba/internal/revocation"
	"github.com/hitoshi/ichiba/internal/token"
)

// Reason はDENYの理由を表す。
type Reason string

const (
	// ReasonMissingCredential は認証情報が提示されなかったことを示す。
	ReasonMissingCredential Reason = "missing_credential"
	// ReasonRevoked はトークンがログアウト等で失効済みであることを示す。
	ReasonRevoked Reason = "revoked"
	// ReasonSignatureInvalid は署名不一致または形式不正を示す。
	ReasonSignatureInvalid Reason = "signature_invalid"
	// ReasonExpired はトークンの有効期限切れを示す。
	ReasonExpired Reason = "expired"
	// ReasonSubjectGone はトークンの主体がもはや存在しないことを示す。
	ReasonSubjectGone Reason = "subject_gone"
	// ReasonInsufficientRole は認証は成功したが役割が不足していることを示す。
	// 401系とは区別される403相当の結果。
	ReasonInsufficientRole Reason = "insufficient_role"
	// ReasonStoreUnavailable は安全性を確認するための依存先に到達できず、
	// fail-closedポリシーにより拒否したことを示す。
	ReasonStoreUnavailable Reason = "revocation_store_unavailable"
)

// Decision はゲートの終端結果を表す。AllowedがtrueのときのみClaimsが有効。
type Decision struct {
	Allowed bool
	Claims  *token.Claims
	Reason  Reason
}

// allow はALLOW判定を生成する。
func allow(claims *token.Claims) Decision {
	return Decision{Allowed: true, Claims: claims}
}

// deny はDENY判定を生成する。
func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Verifier はトークン検証のインターフェース。token.Issuerの部分集合。
type Verifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// SubjectFinder は主体の存在確認のインターフェース。
// 削除済みアカウントのトークンを拒否するために使用する。
type SubjectFinder interface {
	SubjectExists(ctx context.Context, subjectID string) (bool, error)
}

// DecisionRecorder は判定結果のメトリクス記録のインターフェース。
// metrics.Collectorが満たす。
type DecisionRecorder interface {
	RecordAuthDecision(outcome string)
}

// Config はGuardのオプション設定。
type Config struct {
	// AcceptedRoles が空でない場合、クレームの役割が含まれることを要求する。
	AcceptedRoles []model.Role

	// SubjectFinder がnilでない場合、署名・失効確認の通過後に
	// 主体の存在確認を行う。identityサービスでのみ使用する。
	SubjectFinder SubjectFinder

	// Metrics がnilでない場合、判定結果を記録する。
	Metrics DecisionRecorder
}

// Guard はリクエストごとの認証判定を行う。
// 判定手順は固定: 抽出 → (失効照会 ∥ 署名・期限検証) → 役割確認 → 存在確認。
// 失効照会はネットワーク往復、署名検証はローカルCPU処理のため並行に実行し、
// 両方の完了を待ってから判定する。
type Guard struct {
	verifier      Verifier
	revocations   revocation.Store
	acceptedRoles map[model.Role]struct{}
	subjects      SubjectFinder
	metrics       DecisionRecorder
}

// New はGuardを生成する。
func New(verifier Verifier, revocations revocation.Store, cfg Config) *Guard {
	var roles map[model.Role]struct{}
	if len(cfg.AcceptedRoles) > 0 {
		roles = make(map[model.Role]struct{}, len(cfg.AcceptedRoles))
		for _, r := range cfg.AcceptedRoles {
			roles[r] = struct{}{}
		}
	}
	return &Guard{
		verifier:      verifier,
		revocations:   revocations,
		acceptedRoles: roles,
		subjects:      cfg.SubjectFinder,
		metrics:       cfg.Metrics,
	}
}

// revocationResult は並行実行する失効照会の結果。
type revocationResult struct {
	revoked bool
	err     error
}

// Check は認証情報1件に対する終端判定を返す。
// どちらか一方の検査が失敗しても他方の検査を省略しない。
// クライアント切断等でctxがキャンセルされた場合も安全に中断できる
// （この時点で部分的な変更は発生していない）。
func (g *Guard) Check(ctx context.Context, credential string) Decision {
	decision := g.check(ctx, credential)
	if g.metrics != nil {
		if decision.Allowed {
			g.metrics.RecordAuthDecision("allow")
		} else {
			g.metrics.RecordAuthDecision(string(decision.Reason))
		}
	}
	return decision
}

func (g *Guard) check(ctx context.Context, credential string) Decision {
	if credential == "" {
		return deny(ReasonMissingCredential)
	}

	// 失効照会はネットワーク往復のため並行に実行する
	revCh := make(chan revocationResult, 1)
	go func() {
		revoked, err := g.revocations.IsRevoked(ctx, credential)
		revCh <- revocationResult{revoked: revoked, err: err}
	}()

	claims, verifyErr := g.verifier.Verify(credential)
	rev := <-revCh

	// 失効済みトークンは署名の有効期間内かどうかに関わらず一律拒否する
	if rev.err == nil && rev.revoked {
		return deny(ReasonRevoked)
	}

	if verifyErr != nil {
		switch verifyErr {
		case token.ErrExpired:
			return deny(ReasonExpired)
		default:
			return deny(ReasonSignatureInvalid)
		}
	}

	// 非失効を確認できない場合は受理しない（fail-closed）
	if rev.err != nil {
		slog.Error("revocation store lookup failed",
			slog.String("error", rev.err.Error()),
		)
		return deny(ReasonStoreUnavailable)
	}

	if g.acceptedRoles != nil {
		if _, ok := g.acceptedRoles[claims.Role]; !ok {
			return deny(ReasonInsufficientRole)
		}
	}

	if g.subjects != nil {
		exists, err := g.subjects.SubjectExists(ctx, claims.Subject)
		if err != nil {
			slog.Error("subject existence check failed",
				slog.String("subject_id", claims.Subject),
				slog.String("error", err.Error()),
			)
			return deny(ReasonStoreUnavailable)
		}
		if !exists {
			return deny(ReasonSubjectGone)
		}
	}

	return allow(claims)
}
