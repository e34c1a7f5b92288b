// Package agent はwebsocketによるリアルタイムゲートウェイを提供する。
// ゲート判定はハンドシェイク時に1回だけ行い、接続中の再検証は行わない
// （ログアウト済みトークンの接続は次のハンドシェイクから拒否される）。
package agent

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hitoshi/ichiba/internal/guard"
)

const (
	// readDeadline は無応答接続を切断するまでの時間。
	readDeadline = 60 * time.Second
	// pingInterval はkeepaliveのping送信間隔。
	pingInterval = 30 * time.Second
)

// Message はwebsocket上を流れるJSONメッセージ。
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Responder は受信メッセージに対する応答を生成する。
type Responder func(in Message) Message

// Gateway はwebsocket接続の受け入れとメッセージ応答を行う。
type Gateway struct {
	guard     *guard.Guard
	cookieCfg guard.CookieConfig
	upgrader  websocket.Upgrader
	respond   Responder
}

// New はGatewayを生成する。responderがnilの場合は定型応答を使用する。
func New(g *guard.Guard, cookieCfg guard.CookieConfig, allowedOrigin string, responder Responder) *Gateway {
	if responder == nil {
		responder = CannedResponder
	}
	return &Gateway{
		guard:     g,
		cookieCfg: cookieCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
		respond: responder,
	}
}

// HandleWS はwebsocket接続を処理する。
// ゲート判定はアップグレード前に行い、DENYの場合は通常のHTTPレスポンスで拒否する。
// GET /api/agent/ws
func (gw *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	decision := gw.guard.Check(r.Context(), guard.ExtractCredential(r))
	if !decision.Allowed {
		guard.WriteDenial(w, decision.Reason, gw.cookieCfg)
		return
	}

	conn, err := gw.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed",
			slog.String("subject_id", decision.Claims.Subject),
			slog.String("error", err.Error()),
		)
		return
	}

	slog.Info("agent connection established",
		slog.String("subject_id", decision.Claims.Subject),
	)

	go gw.serve(conn, decision.Claims.Subject)
}

// serve は接続1本ぶんの読み取り・応答・keepaliveを行う。
// 接続ごとに1つのゴルーチンで動作し、切断で終了する。
func (gw *Gateway) serve(conn *websocket.Conn, subjectID string) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	inbound := make(chan Message)
	done := make(chan struct{})

	// serveが書き込みエラー等で先に抜けた場合でも読み取りゴルーチンが
	// inboundへの送信で永久にブロックしないよう、終了を通知する。
	writerDone := make(chan struct{})
	defer close(writerDone)

	go func() {
		defer close(done)
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			// 読み取りがあればデッドラインを延長する
			conn.SetReadDeadline(time.Now().Add(readDeadline))
			select {
			case inbound <- msg:
			case <-writerDone:
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			slog.Info("agent connection closed",
				slog.String("subject_id", subjectID),
			)
			return
		case msg := <-inbound:
			if err := conn.WriteJSON(gw.respond(msg)); err != nil {
				slog.Error("failed to write agent reply",
					slog.String("subject_id", subjectID),
					slog.String("error", err.Error()),
				)
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// CannedResponder は内容に応じた定型応答を返す。
// 実際の対話ロジックは持たない。
func CannedResponder(in Message) Message {
	content := strings.ToLower(in.Content)
	switch {
	case strings.Contains(content, "注文") || strings.Contains(content, "order"):
		return Message{Type: "reply", Content: "注文については注文履歴ページをご確認ください。"}
	case strings.Contains(content, "支払") || strings.Contains(content, "payment"):
		return Message{Type: "reply", Content: "お支払いは注文確定後に行えます。"}
	case strings.Contains(content, "配送") || strings.Contains(content, "delivery"):
		return Message{Type: "reply", Content: "配送状況は準備中です。今しばらくお待ちください。"}
	default:
		return Message{Type: "reply", Content: "お問い合わせありがとうございます。担当者におつなぎします。"}
	}
}
