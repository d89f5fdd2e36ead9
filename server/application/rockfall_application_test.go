package application

import (
	"context"
	"testing"

	"rockfall/server/domain"
)

func newTestApplication(t *testing.T) (*RockfallApplication, domain.SessionID) {
	t.Helper()
	sessionID := domain.NewSessionID()
	app, err := NewRockfallApplication(sessionID, 1000, 600)
	if err != nil {
		t.Fatalf("NewRockfallApplication failed: %v", err)
	}
	return app, sessionID
}

func startGame(t *testing.T, app *RockfallApplication, sessionID domain.SessionID) {
	t.Helper()
	if err := app.HandleMessage(context.Background(), sessionID, domain.EncodeStartMessage(sessionID)); err != nil {
		t.Fatalf("HandleMessage(start) failed: %v", err)
	}
}

func sendInput(t *testing.T, app *RockfallApplication, sessionID domain.SessionID, keyMask uint32) {
	t.Helper()
	if err := app.HandleMessage(context.Background(), sessionID, domain.EncodeInputMessage(sessionID, 1, keyMask)); err != nil {
		t.Fatalf("HandleMessage(input) failed: %v", err)
	}
}

// decodeTickMessage はTickの戻り値1件をペイロードヘッダーとペイロードに分解する。
func decodeTickMessage(t *testing.T, msg []byte) (*domain.PayloadHeader, []byte) {
	t.Helper()
	if len(msg) < domain.HeaderSize+domain.PayloadHeaderSize {
		t.Fatalf("message too short: %d bytes", len(msg))
	}
	payloadHeader, err := domain.ParsePayloadHeader(msg[domain.HeaderSize:])
	if err != nil {
		t.Fatalf("ParsePayloadHeader failed: %v", err)
	}
	return payloadHeader, msg[domain.HeaderSize+domain.PayloadHeaderSize:]
}

func tickSnapshot(t *testing.T, app *RockfallApplication) *domain.StateSnapshot {
	t.Helper()
	msgs := app.Tick(context.Background())
	if len(msgs) != 1 {
		t.Fatalf("Tick returned %d messages, want 1", len(msgs))
	}
	payloadHeader, payload := decodeTickMessage(t, msgs[0])
	if payloadHeader.DataType != domain.DataTypeState || domain.StateSubType(payloadHeader.SubType) != domain.StateSubTypeSnapshot {
		t.Fatalf("payload header = %+v, want state snapshot", payloadHeader)
	}
	snap, err := domain.ParseStateSnapshot(payload)
	if err != nil {
		t.Fatalf("ParseStateSnapshot failed: %v", err)
	}
	return snap
}

func TestNewRockfallApplication_InvalidSize(t *testing.T) {
	if _, err := NewRockfallApplication(domain.NewSessionID(), 0, 600); err != ErrInvalidArenaSize {
		t.Errorf("err = %v, want ErrInvalidArenaSize", err)
	}
}

func TestRockfallApplication_TickBeforeStart(t *testing.T) {
	app, _ := newTestApplication(t)

	if msgs := app.Tick(context.Background()); msgs != nil {
		t.Errorf("Tick before start returned %d messages, want nil", len(msgs))
	}
}

func TestRockfallApplication_StartThenSnapshot(t *testing.T) {
	app, sessionID := newTestApplication(t)
	startGame(t, app, sessionID)

	snap := tickSnapshot(t, app)
	if snap.Angle != 0 {
		t.Errorf("Angle = %f, want 0", snap.Angle)
	}
	if len(snap.Projectiles) != 0 || len(snap.Obstacles) != 0 {
		t.Errorf("snapshot = %d projectiles, %d obstacles, want empty", len(snap.Projectiles), len(snap.Obstacles))
	}
}

func TestRockfallApplication_InputBeforeStartIgnored(t *testing.T) {
	app, sessionID := newTestApplication(t)

	// 開始前の入力はエラーにせず捨てる
	sendInput(t, app, sessionID, domain.KeyRotateRight)
	startGame(t, app, sessionID)

	snap := tickSnapshot(t, app)
	if snap.Angle != 0 {
		t.Errorf("Angle = %f, want 0 (pre-start input must be dropped)", snap.Angle)
	}
}

func TestRockfallApplication_Rotation(t *testing.T) {
	app, sessionID := newTestApplication(t)
	startGame(t, app, sessionID)

	sendInput(t, app, sessionID, domain.KeyRotateRight)
	sendInput(t, app, sessionID, domain.KeyRotateRight)
	sendInput(t, app, sessionID, domain.KeyRotateLeft)

	snap := tickSnapshot(t, app)
	if snap.Angle != float32(RotationStep) {
		t.Errorf("Angle = %f, want %f", snap.Angle, RotationStep)
	}
}

func TestRockfallApplication_Fire(t *testing.T) {
	app, sessionID := newTestApplication(t)
	startGame(t, app, sessionID)

	sendInput(t, app, sessionID, domain.KeyFire)

	snap := tickSnapshot(t, app)
	if len(snap.Projectiles) != 1 {
		t.Fatalf("snapshot has %d projectiles, want 1", len(snap.Projectiles))
	}
	// 発射後にAdvanceTickが走るので、0度の弾丸は(0, -1)にいる
	p := snap.Projectiles[0]
	if p.Y != -1 || p.X > 1e-6 || p.X < -1e-6 {
		t.Errorf("projectile = %+v, want (0, -1)", p)
	}
}

func TestRockfallApplication_DeathBeforeAdvance(t *testing.T) {
	app, sessionID := newTestApplication(t)
	startGame(t, app, sessionID)

	// 30.05の岩は今tickでは生存判定、前進後29.95になり次tickで死亡
	app.arena.obstacles = append(app.arena.obstacles, NewObstacle(Vec2{X: -1, Y: 0}, Vec2{X: 30.05, Y: 0}))

	snap := tickSnapshot(t, app)
	if len(snap.Obstacles) != 1 {
		t.Fatalf("snapshot has %d obstacles, want 1", len(snap.Obstacles))
	}

	msgs := app.Tick(context.Background())
	if len(msgs) != 1 {
		t.Fatalf("Tick returned %d messages, want 1", len(msgs))
	}
	payloadHeader, _ := decodeTickMessage(t, msgs[0])
	if payloadHeader.DataType != domain.DataTypeState || domain.StateSubType(payloadHeader.SubType) != domain.StateSubTypeGameOver {
		t.Fatalf("payload header = %+v, want game over", payloadHeader)
	}

	// ゲームオーバー後は停止し、以降のtickは何も返さない
	if msgs := app.Tick(context.Background()); msgs != nil {
		t.Errorf("Tick after game over returned %d messages, want nil", len(msgs))
	}
}

func TestRockfallApplication_SpawnTick(t *testing.T) {
	app, sessionID := newTestApplication(t)

	// 開始前のSpawnTickは無視される（panicしない）
	app.SpawnTick(context.Background())

	startGame(t, app, sessionID)
	app.SpawnTick(context.Background())

	snap := tickSnapshot(t, app)
	if len(snap.Obstacles) != 1 {
		t.Errorf("snapshot has %d obstacles, want 1", len(snap.Obstacles))
	}
}

func TestRockfallApplication_RestartResetsState(t *testing.T) {
	app, sessionID := newTestApplication(t)
	startGame(t, app, sessionID)

	sendInput(t, app, sessionID, domain.KeyRotateRight|domain.KeyFire)
	tickSnapshot(t, app)
	app.SpawnTick(context.Background())

	// リスタートで向き・弾丸・岩がすべて初期化される
	startGame(t, app, sessionID)
	snap := tickSnapshot(t, app)
	if snap.Angle != 0 {
		t.Errorf("Angle = %f, want 0 after restart", snap.Angle)
	}
	if len(snap.Projectiles) != 0 || len(snap.Obstacles) != 0 {
		t.Errorf("snapshot = %d projectiles, %d obstacles, want empty after restart", len(snap.Projectiles), len(snap.Obstacles))
	}
}

func TestRockfallApplication_HandleMessage_Malformed(t *testing.T) {
	app, sessionID := newTestApplication(t)

	if err := app.HandleMessage(context.Background(), sessionID, []byte{1, 2, 3}); err != domain.ErrInvalidHeaderSize {
		t.Errorf("err = %v, want ErrInvalidHeaderSize", err)
	}
}
