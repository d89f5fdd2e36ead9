package domain

import (
	"context"
	"log/slog"
)

//go:generate go tool mockgen -destination=./mocks/dispatcher_mock.go -package=mocks . Dispatcher,Sender

// Dispatcher はエンドポイント層からゲームループへのメッセージ配送を担当します。
type Dispatcher interface {
	// Dispatch は受信したデータメッセージを配送します。
	Dispatch(ctx context.Context, sessionID SessionID, data []byte) error
}

// Sender はゲームループからクライアントへの送信境界です。
type Sender interface {
	Send(ctx context.Context, data []byte) error
}

// loopbackDispatcher 受信を破棄するディスパッチャー（配線前のプレースホルダ）
type loopbackDispatcher struct{}

var _ Dispatcher = (*loopbackDispatcher)(nil)

func (l loopbackDispatcher) Dispatch(ctx context.Context, sessionID SessionID, data []byte) error {
	slog.DebugContext(ctx, "loopback dispatcher received data", "sessionID", sessionID, "len", len(data))
	return nil
}

func NewLoopbackDispatcher() Dispatcher {
	return &loopbackDispatcher{}
}
