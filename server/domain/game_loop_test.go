package domain_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"rockfall/server/domain"
	"rockfall/server/domain/mocks"
)

// stubApplication はゲームループの駆動を観測するためのApplication実装です。
type stubApplication struct {
	mu       sync.Mutex
	received [][]byte

	tickOut [][]byte

	ticks  atomic.Int32
	spawns atomic.Int32
}

func (s *stubApplication) HandleMessage(ctx context.Context, sessionID domain.SessionID, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, data)
	return nil
}

func (s *stubApplication) Tick(ctx context.Context) [][]byte {
	s.ticks.Add(1)
	return s.tickOut
}

func (s *stubApplication) SpawnTick(ctx context.Context) {
	s.spawns.Add(1)
}

func (s *stubApplication) receivedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func TestGameLoop_Dispatch_Busy(t *testing.T) {
	app := &stubApplication{}
	loop := domain.NewGameLoop(domain.NewSessionID(), app, 60, time.Second)

	ctx := context.Background()
	// ループを回さずキューを満杯にする
	for i := 0; i < 1024; i++ {
		if err := loop.Dispatch(ctx, domain.NewSessionID(), []byte{1}); err != nil {
			t.Fatalf("Dispatch %d failed: %v", i, err)
		}
	}
	if err := loop.Dispatch(ctx, domain.NewSessionID(), []byte{1}); err != domain.ErrGameLoopBusy {
		t.Errorf("err = %v, want ErrGameLoopBusy", err)
	}
}

func TestGameLoop_TickProcessesAndSends(t *testing.T) {
	ctrl := gomock.NewController(t)

	frame := []byte{0xAB, 0xCD}
	app := &stubApplication{tickOut: [][]byte{frame}}

	sent := make(chan []byte, 16)
	sender := mocks.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, data []byte) error {
		select {
		case sent <- data:
		default:
		}
		return nil
	}).AnyTimes()

	sessionID := domain.NewSessionID()
	loop := domain.NewGameLoop(sessionID, app, 200, time.Hour)
	loop.AttachSender(sender)

	if err := loop.Dispatch(context.Background(), sessionID, []byte{0x01}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = loop.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	select {
	case data := <-sent:
		if string(data) != string(frame) {
			t.Errorf("sent = %v, want %v", data, frame)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tick output")
	}

	// 積んだ入力はtick前に処理されている
	if got := app.receivedCount(); got != 1 {
		t.Errorf("handled messages = %d, want 1", got)
	}
}

func TestGameLoop_SpawnIndependentOfTick(t *testing.T) {
	app := &stubApplication{}

	// tickは1秒周期なので、テスト中はspawnだけが発火する
	loop := domain.NewGameLoop(domain.NewSessionID(), app, 1, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = loop.Run(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()
	<-done

	if app.spawns.Load() == 0 {
		t.Error("spawns = 0, want at least 1")
	}
	if app.ticks.Load() != 0 {
		t.Errorf("ticks = %d, want 0 within 60ms at 1 tick/s", app.ticks.Load())
	}
}

func TestGameLoop_NilSender(t *testing.T) {
	app := &stubApplication{tickOut: [][]byte{{0x01}}}
	loop := domain.NewGameLoop(domain.NewSessionID(), app, 500, time.Hour)

	// 送信先が未接続でもtickは進み、panicしない
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = loop.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if app.ticks.Load() == 0 {
		t.Error("ticks = 0, want at least 1")
	}
}
