package domain

import (
	"testing"
	"time"
)

func TestNewSession(t *testing.T) {
	s := NewSession()

	if s.ID().IsEmpty() {
		t.Error("ID() is empty, want a generated session ID")
	}
	if s.IsClosed() {
		t.Error("IsClosed() = true on new session, want false")
	}

	idle, reason := s.IsIdle(time.Minute)
	if idle {
		t.Errorf("IsIdle() = true, %v on new session, want false", reason)
	}
}

func TestSession_CloseOnce(t *testing.T) {
	s := NewSession()

	if !s.Close() {
		t.Error("first Close() = false, want true")
	}
	if s.Close() {
		t.Error("second Close() = true, want false")
	}
	if !s.IsClosed() {
		t.Error("IsClosed() = false after Close, want true")
	}
}

func TestSession_IsIdle_Disabled(t *testing.T) {
	s := NewSession()

	idle, reason := s.IsIdle(0)
	if idle {
		t.Error("IsIdle(0) = true, want false")
	}
	if reason != IdleDisabled {
		t.Errorf("reason = %v, want IdleDisabled", reason)
	}
}

func TestSession_IsIdle_Reasons(t *testing.T) {
	s := NewSession()

	// readとpongだけを1時間前に戻す
	past := time.Now().Add(-time.Hour).UnixNano()
	s.lastRead.Store(past)
	s.lastPong.Store(past)

	idle, reason := s.IsIdle(30 * time.Second)
	if !idle {
		t.Fatal("IsIdle() = false, want true")
	}
	if !reason.Has(IdleRead) || !reason.Has(IdlePong) {
		t.Errorf("reason = %v, want read and pong set", reason)
	}
	if reason.Has(IdleWrite) {
		t.Errorf("reason = %v, want write clear", reason)
	}
}

func TestSession_Touch(t *testing.T) {
	s := NewSession()
	past := time.Now().Add(-time.Hour).UnixNano()
	s.lastRead.Store(past)
	s.lastWrite.Store(past)
	s.lastPong.Store(past)

	s.TouchRead()
	s.TouchWrite()
	s.TouchPong()

	if idle, reason := s.IsIdle(30 * time.Second); idle {
		t.Errorf("IsIdle() = true, %v after touch, want false", reason)
	}
}

func TestIdleReason_String(t *testing.T) {
	cases := []struct {
		reason IdleReason
		want   string
	}{
		{IdleNone, "none"},
		{IdleDisabled, "disabled"},
		{IdleRead, "read"},
		{IdleRead | IdleWrite, "read|write"},
		{IdleRead | IdleWrite | IdlePong, "read|write|pong"},
	}
	for _, tc := range cases {
		if got := tc.reason.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestSessionID_RoundTrip(t *testing.T) {
	id := NewSessionID()

	if got := SessionIDFromBytes(id.Bytes()); got != id {
		t.Errorf("SessionIDFromBytes(Bytes()) = %v, want %v", got, id)
	}
	if id.IsEmpty() {
		t.Error("IsEmpty() = true on generated ID, want false")
	}
	if (SessionID{}).IsEmpty() != true {
		t.Error("IsEmpty() = false on zero ID, want true")
	}
}
