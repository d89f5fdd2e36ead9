package domain

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SessionID はセッションを一意に識別するIDです。
type SessionID [16]byte

// NewSessionID は新しいランダムなSessionIDを生成します。
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// SessionIDFromBytes はワイヤ上の16バイト表現からSessionIDを復元します。
func SessionIDFromBytes(b [16]byte) SessionID {
	return SessionID(b)
}

func (id SessionID) Bytes() [16]byte {
	return [16]byte(id)
}

func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

func (id SessionID) IsEmpty() bool {
	return id == SessionID{}
}

// Session は1接続の論理的な接続状態を表す構造体です。
type Session struct {
	id SessionID

	// activity
	lastRead  atomic.Int64
	lastWrite atomic.Int64
	lastPong  atomic.Int64

	// lifecycle
	closed atomic.Bool
}

func NewSession() *Session {
	s := &Session{
		id: NewSessionID(),
	}
	now := time.Now().UnixNano()
	s.lastRead.Store(now)
	s.lastWrite.Store(now)
	s.lastPong.Store(now)
	return s
}

func (s *Session) ID() SessionID {
	return s.id
}

func (s *Session) TouchRead() {
	s.lastRead.Store(time.Now().UnixNano())
}

func (s *Session) TouchWrite() {
	s.lastWrite.Store(time.Now().UnixNano())
}

func (s *Session) TouchPong() {
	s.lastPong.Store(time.Now().UnixNano())
}

func (s *Session) Close() bool {
	return s.closed.CompareAndSwap(false, true)
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// IsIdle はいずれかのアクティビティがtimeoutを超えて途絶えているかを返します。
func (s *Session) IsIdle(timeout time.Duration) (bool, IdleReason) {
	if timeout <= 0 {
		return false, IdleDisabled
	}
	var reason IdleReason
	if s.isIdleSince(&s.lastRead, timeout) {
		reason |= IdleRead
	}
	if s.isIdleSince(&s.lastWrite, timeout) {
		reason |= IdleWrite
	}
	if s.isIdleSince(&s.lastPong, timeout) {
		reason |= IdlePong
	}
	return reason != IdleNone, reason
}

func (s *Session) isIdleSince(last *atomic.Int64, timeout time.Duration) bool {
	return time.Since(time.Unix(0, last.Load())) > timeout
}
