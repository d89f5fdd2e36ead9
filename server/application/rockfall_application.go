package application

import (
	"context"
	"log/slog"

	"rockfall/server/domain"
)

// RotationStep は回転入力1回あたりの角度（度）です。
const RotationStep float64 = 10.0

// RockfallApplication は1セッション分のゲームロジックです。
// 自機の向きとArenaを所有し、GameLoopのtickで駆動されます。
// 自機はアリーナ中心に固定で、回転と発射のみ行います。
type RockfallApplication struct {
	sessionID domain.SessionID
	width     int
	height    int
	rng       Rand

	arena   *Arena
	angle   float64 // 自機の向き（度、0度=画面上方向、時計回りが正）
	running bool
	seq     uint16

	pendingInputs []domain.InputPayload
}

var _ domain.Application = (*RockfallApplication)(nil)

// NewRockfallApplication は指定アリーナサイズのゲームを生成します。
// サイズが不正な場合は構築時点でエラーを返します。
func NewRockfallApplication(sessionID domain.SessionID, width, height int) (*RockfallApplication, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidArenaSize
	}
	return &RockfallApplication{
		sessionID:     sessionID,
		width:         width,
		height:        height,
		pendingInputs: make([]domain.InputPayload, 0),
	}, nil
}

// WithRand は岩生成の乱数源を差し替えます。テスト用です。
func (app *RockfallApplication) WithRand(rng Rand) *RockfallApplication {
	app.rng = rng
	return app
}

func (app *RockfallApplication) HandleMessage(ctx context.Context, sessionID domain.SessionID, data []byte) error {
	header, err := domain.ParseHeader(data)
	if err != nil {
		return err
	}

	payloadData := data[domain.HeaderSize:]
	payloadHeader, err := domain.ParsePayloadHeader(payloadData)
	if err != nil {
		return err
	}

	payload := payloadData[domain.PayloadHeaderSize:]
	switch payloadHeader.DataType {
	case domain.DataTypeInput:
		return app.handleInput(ctx, sessionID, header, payload)
	case domain.DataTypeControl:
		return app.handleControl(ctx, sessionID, payloadHeader.SubType)
	default:
		slog.WarnContext(ctx, "unknown data type", "dataType", payloadHeader.DataType)
		return nil
	}
}

func (app *RockfallApplication) handleInput(ctx context.Context, sessionID domain.SessionID, header *domain.Header, data []byte) error {
	input, err := domain.ParseInputPayload(data)
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "handleInput",
		"sessionID", sessionID,
		"seq", header.Seq,
		"keyMask", input.KeyMask,
	)

	if !app.running {
		return nil
	}
	app.pendingInputs = append(app.pendingInputs, *input)
	return nil
}

func (app *RockfallApplication) handleControl(ctx context.Context, sessionID domain.SessionID, subType uint8) error {
	switch domain.ControlSubType(subType) {
	case domain.ControlSubTypeStart:
		slog.InfoContext(ctx, "game start", "sessionID", sessionID)
		return app.start()
	default:
		slog.DebugContext(ctx, "control message ignored", "sessionID", sessionID, "subType", subType)
		return nil
	}
}

// start は新しいゲームセッションを開始します。Arenaは毎回作り直します。
func (app *RockfallApplication) start() error {
	arena, err := NewArena(app.width, app.height, app.rng)
	if err != nil {
		return err
	}
	app.arena = arena
	app.angle = 0
	app.running = true
	app.pendingInputs = app.pendingInputs[:0]
	return nil
}

// Tick はゲームを1tick進めます。順序は
// 死亡判定（前tick終了時点の岩の位置で評価）→ 入力適用 → アリーナ前進 です。
// 死亡時はゲームを停止しゲームオーバー通知のみを返します。
func (app *RockfallApplication) Tick(ctx context.Context) [][]byte {
	if !app.running {
		return nil
	}

	if app.arena.IsDead() {
		app.running = false
		app.pendingInputs = app.pendingInputs[:0]
		slog.InfoContext(ctx, "game over", "sessionID", app.sessionID)
		app.seq++
		return [][]byte{domain.EncodeGameOverMessage(app.sessionID, app.seq)}
	}

	for i := range app.pendingInputs {
		app.applyInput(app.pendingInputs[i])
	}
	app.pendingInputs = app.pendingInputs[:0]

	app.arena.AdvanceTick()

	app.seq++
	return [][]byte{domain.EncodeStateMessage(app.sessionID, app.seq, app.snapshot())}
}

// SpawnTick は岩を1つ生成します。tickカデンスとは独立した周期で呼ばれます。
func (app *RockfallApplication) SpawnTick(ctx context.Context) {
	if !app.running {
		return
	}
	app.arena.SpawnObstacle()
}

func (app *RockfallApplication) applyInput(input domain.InputPayload) {
	if input.KeyMask&domain.KeyRotateLeft != 0 {
		app.angle -= RotationStep
	}
	if input.KeyMask&domain.KeyRotateRight != 0 {
		app.angle += RotationStep
	}
	if input.KeyMask&domain.KeyFire != 0 {
		app.arena.Fire(app.angle)
	}
}

func (app *RockfallApplication) snapshot() *domain.StateSnapshot {
	projectiles := app.arena.Projectiles()
	obstacles := app.arena.Obstacles()

	snap := &domain.StateSnapshot{
		Angle:       float32(app.angle),
		Projectiles: make([]domain.Position2D, 0, len(projectiles)),
		Obstacles:   make([]domain.Position2D, 0, len(obstacles)),
	}
	for _, p := range projectiles {
		snap.Projectiles = append(snap.Projectiles, domain.Position2D{X: float32(p.X), Y: float32(p.Y)})
	}
	for _, o := range obstacles {
		snap.Obstacles = append(snap.Obstacles, domain.Position2D{X: float32(o.X), Y: float32(o.Y)})
	}
	return snap
}
