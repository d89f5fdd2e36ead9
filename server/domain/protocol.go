package domain

import (
	"encoding/binary"
	"errors"
	"math"
	"time"
)

// バイトオーダー: リトルエンディアン
var byteOrder = binary.LittleEndian

const (
	HeaderSize         = 25
	PayloadHeaderSize  = 2
	InputPayloadSize   = 4
	Position2DSize     = 8 // 2 * float32
	SnapshotHeaderSize = 8 // angle f32 + projectile count u16 + obstacle count u16
)

// Header はメッセージヘッダー (25バイト)
//
//	version    u8      (1)
//	sessionID  [16]byte (16)
//	seq        u16     (2)
//	length     u16     (2)  - ペイロード長
//	timestamp  u32     (4)
type Header struct {
	Version   uint8
	SessionID [16]byte
	Seq       uint16
	Length    uint16
	Timestamp uint32
}

// DataType はメッセージの種別
type DataType uint8

const (
	DataTypeInput   DataType = 1
	DataTypeState   DataType = 2
	DataTypeControl DataType = 4
)

// StateSubType はstateメッセージ（サーバー→クライアント）のサブタイプ
type StateSubType uint8

const (
	StateSubTypeSnapshot StateSubType = 1
	StateSubTypeGameOver StateSubType = 2
)

// ControlSubType はcontrolメッセージのサブタイプ
type ControlSubType uint8

const (
	ControlSubTypeStart  ControlSubType = 1
	ControlSubTypeLeave  ControlSubType = 2
	ControlSubTypePing   ControlSubType = 3
	ControlSubTypePong   ControlSubType = 4
	ControlSubTypeError  ControlSubType = 5
	ControlSubTypeAssign ControlSubType = 6
)

// 入力キーのビットマスク
const (
	KeyRotateLeft  uint32 = 1 << 0
	KeyRotateRight uint32 = 1 << 1
	KeyFire        uint32 = 1 << 2
)

// PayloadHeader はペイロードヘッダー (2バイト)
//
//	datatype  u8 (1)
//	subtype   u8 (1)
type PayloadHeader struct {
	DataType DataType
	SubType  uint8
}

var (
	ErrInvalidHeaderSize       = errors.New("invalid header size")
	ErrInvalidPayloadSize      = errors.New("invalid payload size")
	ErrInvalidInputPayloadSize = errors.New("invalid input payload size")
	ErrInvalidPosition2DData   = errors.New("invalid position2d data: expected 8 bytes")
	ErrInvalidSnapshotSize     = errors.New("invalid snapshot size")
)

// ParseHeader はバイト列からHeaderをパースする
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrInvalidHeaderSize
	}

	var sessionID [16]byte
	copy(sessionID[:], data[1:17])

	return &Header{
		Version:   data[0],
		SessionID: sessionID,
		Seq:       byteOrder.Uint16(data[17:19]),
		Length:    byteOrder.Uint16(data[19:21]),
		Timestamp: byteOrder.Uint32(data[21:25]),
	}, nil
}

// Encode はHeaderをバイト列にエンコードする
func (h *Header) Encode() []byte {
	data := make([]byte, HeaderSize)
	data[0] = h.Version
	copy(data[1:17], h.SessionID[:])
	byteOrder.PutUint16(data[17:19], h.Seq)
	byteOrder.PutUint16(data[19:21], h.Length)
	byteOrder.PutUint32(data[21:25], h.Timestamp)
	return data
}

// ParsePayloadHeader はバイト列からPayloadHeaderをパースする
func ParsePayloadHeader(data []byte) (*PayloadHeader, error) {
	if len(data) < PayloadHeaderSize {
		return nil, ErrInvalidPayloadSize
	}

	return &PayloadHeader{
		DataType: DataType(data[0]),
		SubType:  data[1],
	}, nil
}

// Encode はPayloadHeaderをバイト列にエンコードする
func (p *PayloadHeader) Encode() []byte {
	data := make([]byte, PayloadHeaderSize)
	data[0] = byte(p.DataType)
	data[1] = byte(p.SubType)
	return data
}

// InputPayload はユーザー入力 (4バイト)
//
//	keyMask uint32 (4) - キー入力ビットマスク
type InputPayload struct {
	KeyMask uint32
}

// ParseInputPayload はバイト列からInputPayloadをパースする
func ParseInputPayload(data []byte) (*InputPayload, error) {
	if len(data) < InputPayloadSize {
		return nil, ErrInvalidInputPayloadSize
	}

	return &InputPayload{
		KeyMask: byteOrder.Uint32(data[0:4]),
	}, nil
}

// Encode はInputPayloadをバイト列にエンコードする
func (i *InputPayload) Encode() []byte {
	data := make([]byte, InputPayloadSize)
	byteOrder.PutUint32(data[0:4], i.KeyMask)
	return data
}

// Position2D は描画用の2D位置データ (8バイト)
//
//	x, y float32 (8) - 自機を原点とする位置
type Position2D struct {
	X, Y float32
}

// ParsePosition2D はバイト列からPosition2Dをパースする
func ParsePosition2D(data []byte) (*Position2D, error) {
	if len(data) < Position2DSize {
		return nil, ErrInvalidPosition2DData
	}

	return &Position2D{
		X: math.Float32frombits(byteOrder.Uint32(data[0:4])),
		Y: math.Float32frombits(byteOrder.Uint32(data[4:8])),
	}, nil
}

// Encode はPosition2Dをバイト列にエンコードする
func (p *Position2D) Encode() []byte {
	buf := make([]byte, Position2DSize)
	byteOrder.PutUint32(buf[0:4], math.Float32bits(p.X))
	byteOrder.PutUint32(buf[4:8], math.Float32bits(p.Y))
	return buf
}

// StateSnapshot は1tick分の描画状態（サーバー→クライアント）
//
//	angle            f32 (4) - 自機の向き（度）
//	projectileCount  u16 (2)
//	obstacleCount    u16 (2)
//	positions        Position2D * (projectileCount + obstacleCount)
type StateSnapshot struct {
	Angle       float32
	Projectiles []Position2D
	Obstacles   []Position2D
}

// ParseStateSnapshot はバイト列からStateSnapshotをパースする
func ParseStateSnapshot(data []byte) (*StateSnapshot, error) {
	if len(data) < SnapshotHeaderSize {
		return nil, ErrInvalidSnapshotSize
	}

	projectileCount := int(byteOrder.Uint16(data[4:6]))
	obstacleCount := int(byteOrder.Uint16(data[6:8]))
	if len(data) < SnapshotHeaderSize+(projectileCount+obstacleCount)*Position2DSize {
		return nil, ErrInvalidSnapshotSize
	}

	snap := &StateSnapshot{
		Angle:       math.Float32frombits(byteOrder.Uint32(data[0:4])),
		Projectiles: make([]Position2D, 0, projectileCount),
		Obstacles:   make([]Position2D, 0, obstacleCount),
	}

	offset := SnapshotHeaderSize
	for i := 0; i < projectileCount; i++ {
		pos, err := ParsePosition2D(data[offset:])
		if err != nil {
			return nil, err
		}
		snap.Projectiles = append(snap.Projectiles, *pos)
		offset += Position2DSize
	}
	for i := 0; i < obstacleCount; i++ {
		pos, err := ParsePosition2D(data[offset:])
		if err != nil {
			return nil, err
		}
		snap.Obstacles = append(snap.Obstacles, *pos)
		offset += Position2DSize
	}

	return snap, nil
}

// Encode はStateSnapshotをバイト列にエンコードする
func (s *StateSnapshot) Encode() []byte {
	size := SnapshotHeaderSize + (len(s.Projectiles)+len(s.Obstacles))*Position2DSize
	data := make([]byte, 0, size)

	head := make([]byte, SnapshotHeaderSize)
	byteOrder.PutUint32(head[0:4], math.Float32bits(s.Angle))
	byteOrder.PutUint16(head[4:6], uint16(len(s.Projectiles)))
	byteOrder.PutUint16(head[6:8], uint16(len(s.Obstacles)))
	data = append(data, head...)

	for i := range s.Projectiles {
		data = append(data, s.Projectiles[i].Encode()...)
	}
	for i := range s.Obstacles {
		data = append(data, s.Obstacles[i].Encode()...)
	}
	return data
}

// buildMessage はヘッダー・ペイロードヘッダー・ペイロードを連結した完全なメッセージを組み立てる
func buildMessage(sessionID SessionID, seq uint16, dataType DataType, subType uint8, payload []byte) []byte {
	header := Header{
		Version:   1,
		SessionID: sessionID.Bytes(),
		Seq:       seq,
		Length:    uint16(PayloadHeaderSize + len(payload)),
		Timestamp: uint32(time.Now().UnixMilli() & 0xFFFFFFFF),
	}
	payloadHeader := PayloadHeader{
		DataType: dataType,
		SubType:  subType,
	}

	data := make([]byte, 0, HeaderSize+PayloadHeaderSize+len(payload))
	data = append(data, header.Encode()...)
	data = append(data, payloadHeader.Encode()...)
	data = append(data, payload...)
	return data
}

// EncodeAssignMessage はセッションID通知メッセージをエンコードする
// クライアントに自分のセッションIDを通知するために使用
func EncodeAssignMessage(sessionID SessionID) []byte {
	return buildMessage(sessionID, 0, DataTypeControl, uint8(ControlSubTypeAssign), nil)
}

// EncodePingMessage は死活確認のpingメッセージをエンコードする
func EncodePingMessage(sessionID SessionID) []byte {
	return buildMessage(sessionID, 0, DataTypeControl, uint8(ControlSubTypePing), nil)
}

// EncodePongMessage はpingへの応答メッセージをエンコードする
func EncodePongMessage(sessionID SessionID) []byte {
	return buildMessage(sessionID, 0, DataTypeControl, uint8(ControlSubTypePong), nil)
}

// EncodeStartMessage はゲーム開始要求メッセージをエンコードする
// リスタート時も同じメッセージを使用
func EncodeStartMessage(sessionID SessionID) []byte {
	return buildMessage(sessionID, 0, DataTypeControl, uint8(ControlSubTypeStart), nil)
}

// EncodeInputMessage はキー入力メッセージをエンコードする
func EncodeInputMessage(sessionID SessionID, seq uint16, keyMask uint32) []byte {
	input := InputPayload{KeyMask: keyMask}
	return buildMessage(sessionID, seq, DataTypeInput, 0, input.Encode())
}

// EncodeStateMessage は描画状態スナップショットメッセージをエンコードする
func EncodeStateMessage(sessionID SessionID, seq uint16, snap *StateSnapshot) []byte {
	return buildMessage(sessionID, seq, DataTypeState, uint8(StateSubTypeSnapshot), snap.Encode())
}

// EncodeGameOverMessage はゲームオーバー通知メッセージをエンコードする
func EncodeGameOverMessage(sessionID SessionID, seq uint16) []byte {
	return buildMessage(sessionID, seq, DataTypeState, uint8(StateSubTypeGameOver), nil)
}
