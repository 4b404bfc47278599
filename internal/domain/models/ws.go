package models

import (
	"encoding/json"

	"github.com/Temutjin2k/driver-presence/internal/domain/types"
)

// Realtime frame events.
const (
	FrameRegister       = "register"
	FrameAck            = "ack"
	FrameUpdateLocation = "driver:updateLocation"
	FrameMessage        = "message"
)

// Frame is one JSON text frame of the dispatch channel.
type Frame struct {
	Event string          `json:"event"`
	ID    uint64          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Ack is the data of an ack frame.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// InboundMessage is decoded only far enough to route it.
type InboundMessage struct {
	Type types.MessageType `json:"type"`
}
