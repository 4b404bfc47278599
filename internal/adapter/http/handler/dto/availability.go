package dto

import (
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/validator"
)

type SetStatusRequest struct {
	Status string `json:"status"`
}

func (r *SetStatusRequest) Validate(v *validator.Validator) {
	v.Check(types.AvailabilityStatus(r.Status).Valid(), "status", "must be one of not_available, available, en_route_to_pickup, waiting_at_pickup, en_route_to_drop_off")
}

type AvailabilityResponse struct {
	IsOnline           bool       `json:"is_online"`
	AvailabilityStatus string     `json:"availability_status"`
	IsTransitioning    bool       `json:"is_transitioning"`
	LastManualToggleAt *time.Time `json:"last_manual_toggle_at,omitempty"`
	LastSyncAt         *time.Time `json:"last_sync_at,omitempty"`
}

func NewAvailabilityResponse(st models.AvailabilityState) AvailabilityResponse {
	resp := AvailabilityResponse{
		IsOnline:           st.IsOnline,
		AvailabilityStatus: st.AvailabilityStatus.String(),
		IsTransitioning:    st.IsTransitioning,
	}
	if !st.LastManualToggleAt.IsZero() {
		t := st.LastManualToggleAt
		resp.LastManualToggleAt = &t
	}
	if !st.LastSyncAt.IsZero() {
		t := st.LastSyncAt
		resp.LastSyncAt = &t
	}
	return resp
}
