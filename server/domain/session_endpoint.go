package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrBackpressure は書き込みチャネルが満杯の場合に返されるエラーです。
	ErrBackpressure = errors.New("write channel is full, apply backpressure")
	// ErrInitializationFailed はセッションエンドポイントの初期化に失敗した場合に返されるエラーです。
	ErrInitializationFailed = errors.New("failed to initialize session endpoint")
)

const (
	idleTimeout       = 30 * time.Second
	heartbeatInterval = 10 * time.Second
)

// SessionEndpoint は1接続のオーナーです。読み書きループと死活監視を持ち、
// 受信したゲームメッセージをDispatcher（ゲームループ）へ配送します。
type SessionEndpoint struct {
	ctx    context.Context
	cancel context.CancelFunc

	session    *Session
	connection *Connection
	dispatcher Dispatcher

	ctrlCh  chan endpointEvent // 制御用チャネル
	writeCh chan []byte        // 書き込み用チャネル

	// lifecycle
	closed atomic.Bool
}

func NewSessionEndpoint(session *Session, connection *Connection, dispatcher Dispatcher) (*SessionEndpoint, error) {
	if session == nil || connection == nil || dispatcher == nil {
		return nil, ErrInitializationFailed
	}
	ctx, cancel := context.WithCancel(context.Background())
	se := &SessionEndpoint{
		ctx:        ctx,
		cancel:     cancel,
		session:    session,
		connection: connection,
		dispatcher: dispatcher,
		ctrlCh:     make(chan endpointEvent, 16),
		writeCh:    make(chan []byte, 1024),
	}
	return se, nil
}

func (se *SessionEndpoint) Run() error {
	eg, ctx := errgroup.WithContext(se.ctx)
	eg.Go(func() error {
		se.ownerLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.readLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.writeLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		hb := NewHeartbeatService(heartbeatInterval, se.session, se.writeCh)
		hb.Run(ctx)
		return nil
	})

	// セッションID通知を送信
	assignMsg := EncodeAssignMessage(se.session.ID())
	if err := se.Send(se.ctx, assignMsg); err != nil {
		return err
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	return nil
}

// Send はクライアントへの送信をキューに積みます。満杯なら即座にErrBackpressureを返します。
func (se *SessionEndpoint) Send(ctx context.Context, data []byte) error {
	select {
	case se.writeCh <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

var _ Sender = (*SessionEndpoint)(nil)

func (se *SessionEndpoint) Close(ctx context.Context) {
	se.sendCtrlEvent(ctx, endpointEvent{kind: evClose, err: nil})
}

func (se *SessionEndpoint) ForceClose() {
	se.close()
}

// ownerLoop は論理セッションの状態を監視し、必要に応じて接続の管理を行います。
func (se *SessionEndpoint) ownerLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-se.ctrlCh:
			se.handleControlEvent(ctx, ev)
		case <-ticker.C:
			ok, reason := se.session.IsIdle(idleTimeout)
			if ok {
				se.handleControlEvent(ctx, endpointEvent{
					kind: evClose,
					err:  errors.New(reason.String()),
				})
			}
		}
	}
}

func (se *SessionEndpoint) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			data, err := se.connection.Read(ctx)
			if err != nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evReadError, err: err})
				continue
			}
			se.session.TouchRead()
			se.handleData(ctx, data)
		}
	}
}

func (se *SessionEndpoint) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-se.writeCh:
			err := se.connection.Write(ctx, data)
			if err != nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evWriteError, err: err})
				continue
			}
			se.session.TouchWrite()
		}
	}
}

func (se *SessionEndpoint) close() {
	if !se.closed.CompareAndSwap(false, true) {
		return
	}
	se.cancel()
	se.session.Close()
	se.connection.Close()
}

func (se *SessionEndpoint) handleData(ctx context.Context, data []byte) {
	header, err := ParseHeader(data)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse header", "err", err)
		return
	}
	expectedBytes := se.session.ID().Bytes()
	if header.SessionID != expectedBytes {
		slog.WarnContext(ctx, "session ID mismatch",
			"expected", se.session.ID(),
			"got", SessionIDFromBytes(header.SessionID),
		)
		return
	}
	payloadHeader, err := ParsePayloadHeader(data[HeaderSize:])
	if err != nil {
		slog.WarnContext(ctx, "failed to parse payload header", "err", err)
		return
	}

	switch payloadHeader.DataType {
	case DataTypeControl:
		switch ControlSubType(payloadHeader.SubType) {
		case ControlSubTypePong:
			se.sendCtrlEvent(ctx, endpointEvent{kind: evPong})
		case ControlSubTypeLeave:
			se.sendCtrlEvent(ctx, endpointEvent{kind: evClose})
		case ControlSubTypeStart:
			// ゲーム開始はゲームループが処理する
			se.dispatch(ctx, data)
		default:
			slog.WarnContext(ctx, "unknown control subtype", "subType", payloadHeader.SubType)
		}
	case DataTypeInput:
		se.dispatch(ctx, data)
	default:
		slog.WarnContext(ctx, "unknown data type", "dataType", payloadHeader.DataType)
	}
}

func (se *SessionEndpoint) dispatch(ctx context.Context, data []byte) {
	if err := se.dispatcher.Dispatch(ctx, se.session.ID(), data); err != nil {
		slog.WarnContext(ctx, "dispatch failed", "sessionID", se.session.ID(), "err", err)
	}
}

// handleControlEvent は制御チャネルからのイベントを処理し論理セッションの状態を更新する唯一の関数です。
func (se *SessionEndpoint) handleControlEvent(ctx context.Context, ev endpointEvent) {
	switch ev.kind {
	case evClose:
		se.close()
	case evPong:
		se.session.TouchPong()
	case evReadError:
		return
	case evWriteError:
		return
	default:
		slog.WarnContext(ctx, "unknown endpoint event kind", "kind", ev.kind)
	}
}

func (se *SessionEndpoint) sendCtrlEvent(ctx context.Context, ev endpointEvent) {
	select {
	case se.ctrlCh <- ev:
	case <-ctx.Done():
	}
}
