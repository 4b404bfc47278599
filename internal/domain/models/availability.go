package models

import (
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/types"
)

// AvailabilityState is owned by the synchronizer.
type AvailabilityState struct {
	IsOnline           bool                     `json:"is_online"`
	AvailabilityStatus types.AvailabilityStatus `json:"availability_status"`
	IsTransitioning    bool                     `json:"is_transitioning"`
	LastManualToggleAt time.Time                `json:"last_manual_toggle_at,omitempty"`
	LastSyncAt         time.Time                `json:"last_sync_at,omitempty"`
}

// Reasons of an availability transition.
const (
	ReasonManual     = "manual"
	ReasonSync       = "sync"
	ReasonSuspension = "suspension"
	ReasonStatus     = "status"
)

// AvailabilityEvent is broadcast on every transition.
type AvailabilityEvent struct {
	DriverID           string                   `json:"driver_id"`
	IsOnline           bool                     `json:"is_online"`
	AvailabilityStatus types.AvailabilityStatus `json:"availability_status"`
	Reason             string                   `json:"reason"`
	Timestamp          time.Time                `json:"timestamp"`
}

// SuspensionNotice is the ACCOUNT_DEACTIVATED_TEMPORARILY message body.
type SuspensionNotice struct {
	Type    string `json:"type"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}
