package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	adapterwebsocket "rockfall/server/adapter/websocket"
	"rockfall/server/application"
	"rockfall/server/domain"
)

// GameConfig は1接続ごとに生成するゲームの設定です。
type GameConfig struct {
	ArenaWidth    int
	ArenaHeight   int
	TickRate      int
	SpawnInterval time.Duration
}

// AcceptHandler はwebsocket接続を受け付け、接続ごとに
// セッション・ゲームループ・エンドポイントを組み立てて実行します。
type AcceptHandler struct {
	cfg GameConfig
}

func NewAcceptHandler(cfg GameConfig) *AcceptHandler {
	return &AcceptHandler{cfg: cfg}
}

func (h *AcceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // 開発用: Origin チェックをスキップ
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to accept", "err", err)
		return
	}

	session := domain.NewSession()
	transport := adapterwebsocket.NewTransportFrom(conn)
	connection := domain.NewConnection(session.ID(), transport)

	app, err := application.NewRockfallApplication(session.ID(), h.cfg.ArenaWidth, h.cfg.ArenaHeight)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create game application", "err", err)
		connection.Close()
		return
	}

	loop := domain.NewGameLoop(session.ID(), app, h.cfg.TickRate, h.cfg.SpawnInterval)

	endpoint, err := domain.NewSessionEndpoint(session, connection, loop)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create session endpoint", "err", err)
		connection.Close()
		return
	}
	loop.AttachSender(endpoint)

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := loop.Run(loopCtx); err != nil {
			slog.ErrorContext(loopCtx, "game loop error", "sessionID", session.ID(), "err", err)
		}
	}()

	slog.DebugContext(ctx, "accepted new connection", "sessionID", session.ID())
	if err := endpoint.Run(); err != nil {
		slog.ErrorContext(ctx, "failed to run session endpoint", "err", err)
		return
	}
}
