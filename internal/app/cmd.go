package app

// Command は起動するサービスを表す。プロセスごとに1サービスを起動する。
type Command string

const (
	// CommandIdentity はidentityサービス（登録・認証・住所）を示す。
	CommandIdentity Command = "identity"
	// CommandCatalog はcatalogサービス（商品カタログ）を示す。
	CommandCatalog Command = "catalog"
	// CommandCart はcartサービス（買い物カゴ）を示す。
	CommandCart Command = "cart"
	// CommandOrder はorderサービス（注文）を示す。
	CommandOrder Command = "order"
	// CommandPayment はpaymentサービス（支払い）を示す。
	CommandPayment Command = "payment"
	// CommandNotification はnotificationサービス（通知コンシューマ+一覧API）を示す。
	CommandNotification Command = "notification"
	// CommandSeller はsellerサービス（射影コンシューマ+出品者API）を示す。
	CommandSeller Command = "seller"
	// CommandAgent はagentサービス（websocketゲートウェイ）を示す。
	CommandAgent Command = "agent"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandIdentityを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandIdentity
	}

	switch args[0] {
	case "identity":
		return CommandIdentity
	case "catalog":
		return CommandCatalog
	case "cart":
		return CommandCart
	case "order":
		return CommandOrder
	case "payment":
		return CommandPayment
	case "notification":
		return CommandNotification
	case "seller":
		return CommandSeller
	case "agent":
		return CommandAgent
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandIdentity
	}
}
