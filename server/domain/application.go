package domain

import "context"

// Application はGameLoopに注入されるゲームロジックの境界です。
type Application interface {
	// HandleMessage は受信したワイヤメッセージを1つ処理します。
	HandleMessage(ctx context.Context, sessionID SessionID, data []byte) error
	// Tick はシミュレーションを1tick進め、クライアントへ送るメッセージ列を返します。
	// 送るものがなければnilを返します。
	Tick(ctx context.Context) [][]byte
	// SpawnTick は岩生成カデンスの周期で呼ばれます。tickカデンスとは独立です。
	SpawnTick(ctx context.Context)
}
