package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"

	"rockfall/server/application"
	"rockfall/server/domain"
	"rockfall/utils"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := utils.GetEnvDefault("ADDR", "localhost")
	port := utils.GetEnvDefault("PORT", "9090")
	botCount := utils.GetEnvIntDefault("BOT_COUNT", 1)

	serverURL := fmt.Sprintf("ws://%s:%s/ws", addr, port)
	slog.Info("starting bots", "count", botCount, "server", serverURL)

	var wg sync.WaitGroup
	for i := range botCount {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runBot(ctx, serverURL, id)
		}(i)
	}

	wg.Wait()
	slog.Info("all bots stopped")
}

func runBot(ctx context.Context, serverURL string, id int) {
	logger := slog.With("botID", id)

	for {
		if ctx.Err() != nil {
			return
		}
		err := botSession(ctx, serverURL, logger)
		if err != nil && ctx.Err() == nil {
			logger.Warn("bot session ended, reconnecting", "err", err)
			time.Sleep(2 * time.Second)
		}
	}
}

// botState は受信ループが更新しゲームループが読む共有状態です。
type botState struct {
	mu        sync.Mutex
	sessionID domain.SessionID
	assigned  bool
	running   bool
	angle     float64
	obstacles []application.Vec2
}

func botSession(ctx context.Context, serverURL string, logger *slog.Logger) error {
	conn, _, err := websocket.Dial(ctx, serverURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	logger.Info("connected")

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := &botState{}

	// 受信ループ
	go func() {
		defer cancel()
		for {
			if sessionCtx.Err() != nil {
				return
			}
			_, data, err := conn.Read(sessionCtx)
			if err != nil {
				if sessionCtx.Err() == nil {
					logger.Warn("read error", "err", err)
				}
				return
			}
			handleMessage(sessionCtx, conn, state, data, logger)
		}
	}()

	// 操作ループ: サーバーのスナップショットに合わせて回転・発射する
	controller := application.NewGunnerController()
	var seq uint16

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sessionCtx.Done():
			return sessionCtx.Err()
		case <-ticker.C:
			state.mu.Lock()
			assigned := state.assigned
			running := state.running
			sessionID := state.sessionID
			angle := state.angle
			obstacles := state.obstacles
			state.mu.Unlock()

			if !assigned {
				continue
			}
			if !running {
				// 未開始またはゲームオーバー: リスタートを要求
				if err := conn.Write(sessionCtx, websocket.MessageBinary, domain.EncodeStartMessage(sessionID)); err != nil {
					return fmt.Errorf("write start: %w", err)
				}
				continue
			}

			keyMask := controller.Decide(angle, obstacles)
			if keyMask == 0 {
				continue
			}
			seq++
			msg := domain.EncodeInputMessage(sessionID, seq, keyMask)
			if err := conn.Write(sessionCtx, websocket.MessageBinary, msg); err != nil {
				return fmt.Errorf("write input: %w", err)
			}
		}
	}
}

func handleMessage(ctx context.Context, conn *websocket.Conn, state *botState, data []byte, logger *slog.Logger) {
	if len(data) < domain.HeaderSize+domain.PayloadHeaderSize {
		return
	}

	payloadHeader, err := domain.ParsePayloadHeader(data[domain.HeaderSize:])
	if err != nil {
		return
	}
	payload := data[domain.HeaderSize+domain.PayloadHeaderSize:]

	switch payloadHeader.DataType {
	case domain.DataTypeControl:
		switch domain.ControlSubType(payloadHeader.SubType) {
		case domain.ControlSubTypeAssign:
			header, err := domain.ParseHeader(data)
			if err != nil {
				return
			}
			state.mu.Lock()
			state.sessionID = domain.SessionIDFromBytes(header.SessionID)
			state.assigned = true
			state.mu.Unlock()
			logger.Info("session assigned", "sessionID", state.sessionID)
		case domain.ControlSubTypePing:
			state.mu.Lock()
			sessionID := state.sessionID
			assigned := state.assigned
			state.mu.Unlock()
			if !assigned {
				return
			}
			if err := conn.Write(ctx, websocket.MessageBinary, domain.EncodePongMessage(sessionID)); err != nil {
				logger.Warn("write pong failed", "err", err)
			}
		}
	case domain.DataTypeState:
		switch domain.StateSubType(payloadHeader.SubType) {
		case domain.StateSubTypeSnapshot:
			snap, err := domain.ParseStateSnapshot(payload)
			if err != nil {
				return
			}
			obstacles := make([]application.Vec2, 0, len(snap.Obstacles))
			for _, o := range snap.Obstacles {
				obstacles = append(obstacles, application.Vec2{X: float64(o.X), Y: float64(o.Y)})
			}
			state.mu.Lock()
			state.running = true
			state.angle = float64(snap.Angle)
			state.obstacles = obstacles
			state.mu.Unlock()
		case domain.StateSubTypeGameOver:
			state.mu.Lock()
			state.running = false
			state.obstacles = nil
			state.mu.Unlock()
			logger.Info("game over, will restart")
		}
	}
}
