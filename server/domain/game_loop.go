package domain

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrGameLoopBusy = errors.New("game loop message queue is full")

type queuedMessage struct {
	sessionID SessionID
	data      []byte
}

// GameLoop は1ゲームセッションの駆動役です。tickカデンスでApplicationを進め、
// 独立した周期で岩の生成を指示します。Arenaに触れるのはこのループのgoroutineだけです。
type GameLoop struct {
	sessionID   SessionID
	application Application
	sender      Sender

	msgCh chan queuedMessage

	tickInterval  time.Duration
	spawnInterval time.Duration
}

func NewGameLoop(sessionID SessionID, application Application, tickRate int, spawnInterval time.Duration) *GameLoop {
	if tickRate <= 0 {
		tickRate = 60
	}
	if spawnInterval <= 0 {
		spawnInterval = 500 * time.Millisecond
	}
	return &GameLoop{
		sessionID:     sessionID,
		application:   application,
		msgCh:         make(chan queuedMessage, 1024),
		tickInterval:  time.Second / time.Duration(tickRate),
		spawnInterval: spawnInterval,
	}
}

// AttachSender は送信先を設定します。エンドポイントとゲームループは互いを
// 参照するため、送信側だけ構築後に配線します。Run開始前に呼んでください。
func (g *GameLoop) AttachSender(sender Sender) {
	g.sender = sender
}

// Dispatch は受信メッセージを次tickの処理待ち列に積みます。
func (g *GameLoop) Dispatch(ctx context.Context, sessionID SessionID, data []byte) error {
	select {
	case <-ctx.Done():
		return nil
	case g.msgCh <- queuedMessage{sessionID: sessionID, data: data}:
		return nil
	default:
		return ErrGameLoopBusy
	}
}

var _ Dispatcher = (*GameLoop)(nil)

// Run はctxがキャンセルされるまでtickループを回します。
// tickごとに: 受信メッセージの処理 → Application.Tick → スナップショット送信。
// 岩の生成はtickとは独立したspawnInterval周期で行います。
func (g *GameLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.tickInterval)
	defer ticker.Stop()

	spawnTicker := time.NewTicker(g.spawnInterval)
	defer spawnTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-spawnTicker.C:
			g.application.SpawnTick(ctx)
		case <-ticker.C:
			// 受信メッセージを処理
		RECEIVE_LOOP:
			for {
				select {
				case msg := <-g.msgCh:
					if err := g.application.HandleMessage(ctx, msg.sessionID, msg.data); err != nil {
						slog.WarnContext(ctx, "game loop handle message failed", "err", err)
					}
				default:
					break RECEIVE_LOOP
				}
			}
			// シミュレーションを進め、結果をクライアントへ送る
			for _, data := range g.application.Tick(ctx) {
				if g.sender == nil {
					continue
				}
				if err := g.sender.Send(ctx, data); err != nil {
					slog.WarnContext(ctx, "game loop send failed", "sessionID", g.sessionID, "err", err)
				}
			}
		}
	}
}
